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
package builtin

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/warpcore/warp/pkg/tool"
	"github.com/warpcore/warp/pkg/types"
)

// Bash runs a shell command in the working directory. It must be named
// exactly "bash" so Orchestrator.Dispatch's step 6 routes it through
// tool.ValidateCommand before it ever spawns a process.
type Bash struct {
	// WorkingDir is the directory commands are run from; empty uses the
	// orchestrating process's own cwd.
	WorkingDir string
}

func (Bash) Name() string        { return "bash" }
func (Bash) Description() string { return "Runs a shell command and returns its combined stdout/stderr." }
func (Bash) InputSchema() *tool.JSONSchema {
	return &tool.JSONSchema{
		Type: "object",
		Properties: map[string]*tool.JSONSchema{
			"command": {Type: "string", Description: "The shell command to run."},
		},
		Required: []string{"command"},
	}
}
func (Bash) ReadOnly() bool           { return false }
func (Bash) Mutating() bool           { return true }
func (Bash) MaxDuration() time.Duration { return 2 * time.Minute }

func (b Bash) Execute(ctx context.Context, call types.ToolCall) (types.ToolResult, error) {
	command, err := strArg(call, "command")
	if err != nil {
		return failure(call, err)
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = b.WorkingDir
	tool.ApplyResourceLimits(cmd, tool.DefaultResourceLimits())

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return types.ToolResult{
			CallID: call.ID, ToolName: call.Name,
			Output: out.String(), Error: fmt.Sprintf("command failed: %v", err),
		}, nil
	}
	return result(call, out.String()), nil
}
