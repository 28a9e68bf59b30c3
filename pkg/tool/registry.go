// Copyright 2026 Warpcore
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package tool

import (
	"fmt"
	"sort"

	"github.com/warpcore/warp/internal/csync"
)

// Registry maps tool names to tool objects. It is read-only after startup
// per spec §5, but csync.Map lets construction happen incrementally and
// Get be called concurrently from DispatchBatch's parallel lane.
type Registry struct {
	tools *csync.Map[string, Tool]
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: csync.NewMap[string, Tool]()}
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *Registry) Register(t Tool) {
	r.tools.Set(t.Name(), t)
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) {
	r.tools.Delete(name)
}

// Get returns the tool registered under name, if any.
func (r *Registry) Get(name string) (Tool, bool) {
	return r.tools.Get(name)
}

// List returns all registered tools sorted by name, for deterministic
// schema-catalog construction.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0)
	r.tools.Seq(func(_ string, t Tool) bool {
		out = append(out, t)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	n := 0
	r.tools.Seq(func(string, Tool) bool { n++; return true })
	return n
}

// Subset builds a new Registry containing only the named tools, used to
// hand a sub-agent a reduced tool set (spec §4.7). Unknown names are
// reported back so the caller can decide whether that is fatal.
func (r *Registry) Subset(names []string) (*Registry, []string) {
	sub := NewRegistry()
	var missing []string
	for _, n := range names {
		if t, ok := r.tools.Get(n); ok {
			sub.tools.Set(n, t)
		} else {
			missing = append(missing, n)
		}
	}
	return sub, missing
}

// errUnknownTool builds the error dispatch reports when a call names an unregistered tool.
func errUnknownTool(name string) error {
	return fmt.Errorf("tool %q is not registered", name)
}
