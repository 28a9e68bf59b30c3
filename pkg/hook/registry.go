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
package hook

import (
	"sort"

	"go.uber.org/zap"

	"github.com/warpcore/warp/internal/csync"
)

// Registry holds the live set of HookDefinitions, keyed by an opaque source
// key (a command file's path, for definitions loaded by Watcher, or an
// arbitrary name for definitions registered programmatically). Replacing
// the entry for a key is how Watcher applies a hot-reloaded file without
// restarting the process.
type Registry struct {
	defs   *csync.Map[string, HookDefinition]
	logger *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{defs: csync.NewMap[string, HookDefinition](), logger: logger}
}

// Set registers or replaces the definition stored under key.
func (r *Registry) Set(key string, def HookDefinition) {
	r.defs.Set(key, def)
}

// Remove deletes the definition stored under key, if any.
func (r *Registry) Remove(key string) {
	r.defs.Delete(key)
}

// Matching returns, in a deterministic (name-sorted) order, every
// definition registered for event whose matcher accepts toolName.
func (r *Registry) Matching(event Event, toolName string) []HookDefinition {
	var out []HookDefinition
	r.defs.Seq(func(_ string, d HookDefinition) bool {
		if d.Event == event && d.Matches(toolName) {
			out = append(out, d)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len reports how many definitions are currently registered.
func (r *Registry) Len() int {
	n := 0
	r.defs.Seq(func(string, HookDefinition) bool { n++; return true })
	return n
}
