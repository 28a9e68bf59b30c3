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
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warpcore/warp/pkg/tool"
	"github.com/warpcore/warp/pkg/types"
)

func TestHookDefinition_Matches(t *testing.T) {
	d := HookDefinition{Matcher: "bash*"}
	assert.True(t, d.Matches("bash"))
	assert.True(t, d.Matches("bash_execute"))
	assert.False(t, d.Matches("write_file"))

	assert.True(t, HookDefinition{}.Matches("anything"))
}

func TestRegistry_BuildHooks_PreBlock(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Set("inline-block", HookDefinition{
		Name: "inline-block", Event: PreToolExecution, Matcher: "*",
		Command: []string{"sh", "-c", `echo '{"decision":"block","reason":"no writes allowed"}'`},
		Timeout: 2 * time.Second,
	})

	h := reg.BuildHooks()
	_, res := h.RunPre(context.Background(), types.ToolCall{Name: "write_file"})
	require.Equal(t, tool.HookBlock, res.Decision)
	assert.Equal(t, "no writes allowed", res.Reason)
}

func TestRegistry_BuildHooks_PreContinuesOnNoMatch(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Set("scoped", HookDefinition{
		Name: "scoped", Event: PreToolExecution, Matcher: "bash",
		Command: []string{"sh", "-c", `echo '{"decision":"block"}'`},
	})

	h := reg.BuildHooks()
	_, res := h.RunPre(context.Background(), types.ToolCall{Name: "read_file"})
	assert.Equal(t, tool.HookContinue, res.Decision)
}

func TestRegistry_BuildHooks_FailsOpenOnBadCommand(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Set("broken", HookDefinition{
		Name: "broken", Event: PreToolExecution, Matcher: "*",
		Command: []string{"/no/such/binary"},
		Timeout: time.Second,
	})

	h := reg.BuildHooks()
	_, res := h.RunPre(context.Background(), types.ToolCall{Name: "bash"})
	assert.Equal(t, tool.HookContinue, res.Decision)
}

func TestRegistry_BuildHooks_PostHookRunsWithoutError(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Set("post", HookDefinition{
		Name: "post", Event: PostToolExecution, Matcher: "*",
		Command: []string{"sh", "-c", "cat >/dev/null"},
	})

	h := reg.BuildHooks()
	h.RunPost(context.Background(), types.ToolCall{Name: "bash"}, types.ToolResult{Success: true})
}

func TestWatcher_LoadsCommandFileFrontMatter(t *testing.T) {
	dir := t.TempDir()
	content := "---\nname: format-on-write\nevent: pre_tool_execution\nmatcher: write_file\ncommand: [\"sh\", \"-c\", \"true\"]\ntimeout: 3s\n---\nRuns a formatter before writes.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "format.md"), []byte(content), 0o644))

	reg := NewRegistry(nil)
	w, err := NewWatcher(dir, reg, nil)
	require.NoError(t, err)
	defer w.Close()

	defs := reg.Matching(PreToolExecution, "write_file")
	require.Len(t, defs, 1)
	assert.Equal(t, "format-on-write", defs[0].Name)
	assert.Equal(t, 3*time.Second, defs[0].Timeout)
}
