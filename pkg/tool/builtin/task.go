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
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warpcore/warp/pkg/subagent"
	"github.com/warpcore/warp/pkg/tool"
	"github.com/warpcore/warp/pkg/types"
)

// Task spawns a bounded sub-agent through a pkg/subagent.Supervisor built by
// the caller (cmd/warp), since the supervisor itself needs the same chain,
// registry and recorder the parent executor already holds.
type Task struct {
	Supervisor      *subagent.Supervisor
	ParentSessionID string
}

func (Task) Name() string        { return "task" }
func (Task) Description() string { return "Delegates a bounded sub-task to a child agent and returns its summary." }
func (Task) InputSchema() *tool.JSONSchema {
	return &tool.JSONSchema{
		Type: "object",
		Properties: map[string]*tool.JSONSchema{
			"description":  {Type: "string", Description: "What the sub-agent should accomplish."},
			"agent_type":   {Type: "string", Description: "Sub-agent persona/tool-subset identifier.", Default: "general"},
			"max_steps":    {Type: "integer", Description: "Step budget for the child. Defaults to a conservative value."},
		},
		Required: []string{"description"},
	}
}
func (Task) ReadOnly() bool           { return false }
func (Task) Mutating() bool           { return false }
func (Task) MaxDuration() time.Duration { return 10 * time.Minute }

func (t Task) Execute(ctx context.Context, call types.ToolCall) (types.ToolResult, error) {
	if t.Supervisor == nil {
		return failure(call, fmt.Errorf("task tool: no supervisor configured"))
	}
	description, err := strArg(call, "description")
	if err != nil {
		return failure(call, err)
	}
	agentType, _ := call.Arguments["agent_type"].(string)
	if agentType == "" {
		agentType = "general"
	}
	maxSteps := 0
	if ms, ok := call.Arguments["max_steps"].(float64); ok {
		maxSteps = int(ms)
	}

	res, err := t.Supervisor.Spawn(ctx, subagent.Spec{
		AgentType:       agentType,
		Task:            types.Task{ID: uuid.NewString(), Description: description, CreatedAt: time.Now()},
		MaxSteps:        maxSteps,
		ParentSessionID: t.ParentSessionID,
	})
	if err != nil {
		return failure(call, fmt.Errorf("sub-agent failed: %w", err))
	}
	if res.Outcome.Kind != types.OutcomeSuccess {
		return types.ToolResult{
			CallID: call.ID, ToolName: call.Name,
			Output: res.Summary, Error: "sub-agent did not complete successfully",
		}, nil
	}
	return result(call, res.Summary), nil
}
