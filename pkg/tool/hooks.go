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
	"context"

	"github.com/warpcore/warp/pkg/types"
)

// HookDecision is returned by a PreHook to steer dispatch.
type HookDecision int

const (
	// HookContinue runs the remaining hooks, then proceeds normally.
	HookContinue HookDecision = iota
	// HookSkip skips any remaining pre-hooks but still executes the tool.
	HookSkip
	// HookBlock short-circuits dispatch with a failed ToolResult.
	HookBlock
)

// PreHookResult is what a PreToolExecution hook returns.
type PreHookResult struct {
	Decision    HookDecision
	Reason      string         // populated when Decision == HookBlock
	ModifiedArg map[string]any // non-nil replaces the call's arguments
}

// PreHook runs before permission checks and execution.
type PreHook func(ctx context.Context, call types.ToolCall) PreHookResult

// PostHook runs after execution (success or failure), and may not alter the
// result; it observes.
type PostHook func(ctx context.Context, call types.ToolCall, result types.ToolResult)

// Hooks is an ordered collection of lifecycle hooks. Zero value is usable.
type Hooks struct {
	Pre  []PreHook
	Post []PostHook
}

// RunPre executes pre-hooks in order. It stops at the first HookBlock or
// HookSkip, returning the effective arguments (possibly modified) along
// with the blocking result for HookBlock, otherwise HookContinue (a
// HookSkip is reported as HookContinue).
func (h Hooks) RunPre(ctx context.Context, call types.ToolCall) (types.ToolCall, PreHookResult) {
	for _, hook := range h.Pre {
		res := hook(ctx, call)
		if res.ModifiedArg != nil {
			call.Arguments = res.ModifiedArg
		}
		switch res.Decision {
		case HookBlock:
			return call, res
		case HookSkip:
			return call, PreHookResult{Decision: HookContinue}
		}
	}
	return call, PreHookResult{Decision: HookContinue}
}

// RunPost executes all post-hooks; it never stops early and swallows
// nothing - the orchestrator only needs the side effects.
func (h Hooks) RunPost(ctx context.Context, call types.ToolCall, result types.ToolResult) {
	for _, hook := range h.Post {
		hook(ctx, call, result)
	}
}
