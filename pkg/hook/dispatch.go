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
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/warpcore/warp/pkg/tool"
	"github.com/warpcore/warp/pkg/types"
)

const defaultHookTimeout = 10 * time.Second

// envelopeIn is the JSON document written to a hook child's stdin.
type envelopeIn struct {
	Call   types.ToolCall   `json:"call"`
	Result *types.ToolResult `json:"result,omitempty"`
}

// envelopeOut is the JSON document a hook child writes to stdout. An empty
// or absent stdout is treated as {"decision":"continue"}.
type envelopeOut struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

// run executes def's command with in encoded to stdin, and decodes stdout
// as envelopeOut. A misbehaving hook (nonzero exit, unparseable output,
// timeout) fails open: dispatch proceeds as if the hook returned Continue,
// and the failure is logged rather than propagated, so a broken slash
// command can never wedge the tool pipeline.
func (r *Registry) run(ctx context.Context, def HookDefinition, in envelopeIn) envelopeOut {
	fallback := envelopeOut{Decision: "continue"}
	if len(def.Command) == 0 {
		return fallback
	}

	timeout := def.Timeout
	if timeout <= 0 {
		timeout = defaultHookTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(in)
	if err != nil {
		r.logger.Warn("hook_envelope_marshal_failed", zap.String("hook", def.Name), zap.Error(err))
		return fallback
	}

	cmd := exec.CommandContext(cctx, def.Command[0], def.Command[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		r.logger.Warn("hook_command_failed",
			zap.String("hook", def.Name), zap.Error(err), zap.String("stderr", stderr.String()))
		return fallback
	}
	if stdout.Len() == 0 {
		return fallback
	}

	var out envelopeOut
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		r.logger.Warn("hook_output_unparseable", zap.String("hook", def.Name), zap.Error(err))
		return fallback
	}
	if out.Decision == "" {
		out.Decision = "continue"
	}
	return out
}

// BuildHooks adapts the registry's current definitions into tool.Hooks,
// installed on an Orchestrator via SetHooks. Each dispatch re-reads the
// registry, so hot-reloaded definitions (via Watcher) take effect on the
// very next tool call without reconstructing the orchestrator.
func (r *Registry) BuildHooks() tool.Hooks {
	return tool.Hooks{
		Pre:  []tool.PreHook{r.runPre},
		Post: []tool.PostHook{r.runPost},
	}
}

func (r *Registry) runPre(ctx context.Context, call types.ToolCall) tool.PreHookResult {
	for _, def := range r.Matching(PreToolExecution, call.Name) {
		out := r.run(ctx, def, envelopeIn{Call: call})
		switch out.Decision {
		case "block":
			return tool.PreHookResult{Decision: tool.HookBlock, Reason: out.Reason}
		case "skip":
			return tool.PreHookResult{Decision: tool.HookSkip}
		}
	}
	return tool.PreHookResult{Decision: tool.HookContinue}
}

func (r *Registry) runPost(ctx context.Context, call types.ToolCall, result types.ToolResult) {
	for _, def := range r.Matching(PostToolExecution, call.Name) {
		r.run(ctx, def, envelopeIn{Call: call, Result: &result})
	}
}
