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
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/warpcore/warp/pkg/types"
)

// Checkpointer is the subset of pkg/checkpoint.Manager the orchestrator
// needs. It is expressed here, not imported, so pkg/tool has no dependency
// on pkg/checkpoint; the executor wires the concrete implementation in.
type Checkpointer interface {
	Snapshot(ctx context.Context, paths []string, kind string) (id string, err error)
	Restore(ctx context.Context, id string) error
}

// noopCheckpointer is used when checkpointing is disabled.
type noopCheckpointer struct{}

func (noopCheckpointer) Snapshot(context.Context, []string, string) (string, error) { return "", nil }
func (noopCheckpointer) Restore(context.Context, string) error                      { return nil }

// Config configures an Orchestrator.
type Config struct {
	DefaultTimeout     time.Duration
	MaxConcurrency     int
	CheckpointEnabled  bool
	AutoRollback       bool
	CacheTTL           time.Duration
	MaxCachedResultLen int
}

// DefaultConfig returns sane dispatch defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout:     2 * time.Minute,
		MaxConcurrency:     4,
		CheckpointEnabled:  true,
		AutoRollback:       true,
		CacheTTL:           10 * time.Minute,
		MaxCachedResultLen: 64 * 1024,
	}
}

// Orchestrator implements the dispatch pipeline of spec §4.2: validate,
// cache-lookup, pre-hook, permission, checkpoint, sandbox, execute,
// post-hook, cache-insert, auto-rollback.
type Orchestrator struct {
	registry     *Registry
	cache        *Cache
	hooks        Hooks
	permissions  *Checker
	checkpoints  Checkpointer
	supervisor   *Supervisor
	cfg          Config
	logger       *zap.Logger
}

// NewOrchestrator wires the pieces together. checkpoints may be nil, in
// which case checkpointing is a no-op regardless of cfg.CheckpointEnabled.
func NewOrchestrator(reg *Registry, perms *Checker, checkpoints Checkpointer, cfg Config, logger *zap.Logger) *Orchestrator {
	if checkpoints == nil {
		checkpoints = noopCheckpointer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		registry:    reg,
		cache:       NewCache(cfg.CacheTTL, cfg.MaxCachedResultLen),
		permissions: perms,
		checkpoints: checkpoints,
		supervisor:  NewSupervisor(DefaultSupervisionPolicy()),
		cfg:         cfg,
		logger:      logger,
	}
}

// SetHooks installs the lifecycle hooks to run around every dispatch.
func (o *Orchestrator) SetHooks(h Hooks) { o.hooks = h }

// DispatchOutcome carries a ToolResult plus the checkpoint id taken for it,
// if any, so the caller (the execution loop) can record it on the step.
type DispatchOutcome struct {
	Result       types.ToolResult
	CheckpointID string
	Cached       bool
}

// Dispatch runs the full pipeline for one call. It returns no error: every
// failure, including an unknown tool or invalid arguments, is carried in
// Result.Success/Error.
func (o *Orchestrator) Dispatch(ctx context.Context, call types.ToolCall) DispatchOutcome {
	start := time.Now()

	// 1. Validation.
	t, ok := o.registry.Get(call.Name)
	if !ok {
		return DispatchOutcome{Result: failResult(call, errUnknownTool(call.Name).Error(), start)}
	}
	if err := ValidateArguments(t.InputSchema(), call.Arguments); err != nil {
		return DispatchOutcome{Result: failResult(call, err.Error(), start)}
	}
	if o.supervisor.Tripped(call.Name) {
		return DispatchOutcome{Result: failResult(call, TrippedError(call.Name).Error(), start)}
	}

	// 2. Cache lookup.
	cacheable := Cacheable(t)
	var key string
	if cacheable {
		key = CanonicalKey(call.Name, call.Arguments)
		if cached, hit := o.cache.Lookup(key); hit {
			return DispatchOutcome{Result: cached, Cached: true}
		}
	}

	// 3. Pre-hook.
	call, pre := o.hooks.RunPre(ctx, call)
	if pre.Decision == HookBlock {
		return DispatchOutcome{Result: failResult(call, "blocked by pre-hook: "+pre.Reason, start)}
	}

	// 4. Permission.
	if o.permissions != nil {
		if err := o.permissions.Check(ctx, call, t.Description(), t.Mutating()); err != nil {
			return DispatchOutcome{Result: failResult(call, err.Error(), start)}
		}
	}

	// 5. Checkpoint.
	var checkpointID string
	if t.Mutating() && o.cfg.CheckpointEnabled {
		id, err := o.checkpoints.Snapshot(ctx, candidatePaths(call), "pre_tool")
		if err != nil {
			o.logger.Warn("checkpoint snapshot failed, proceeding without rollback safety",
				zap.String("tool", call.Name), zap.Error(err))
		} else {
			checkpointID = id
		}
	}

	// 6. Sandbox / command validation for bash-class tools.
	if call.Name == "bash" || call.Name == "exec" || call.Name == "shell_execute" {
		if cmd, ok := call.Arguments["command"].(string); ok {
			if err := ValidateCommand(cmd); err != nil {
				return DispatchOutcome{Result: failResult(call, err.Error(), start), CheckpointID: checkpointID}
			}
		}
	}

	// 7. Execute, with a timeout derived from the tool or the orchestrator default.
	timeout := t.MaxDuration()
	if timeout <= 0 {
		timeout = o.cfg.DefaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	result := o.safeExecute(execCtx, t, call)
	cancel()
	result.DurationMS = time.Since(start).Milliseconds()

	// 8. Post-hook.
	o.hooks.RunPost(ctx, call, result)

	if result.Success {
		o.supervisor.RecordSuccess(call.Name)
	} else {
		o.supervisor.RecordFailure(call.Name)
	}

	// 9. Cache insert.
	if cacheable && result.Success {
		o.cache.Insert(key, result)
	}

	// 10. Auto-rollback.
	if !result.Success && checkpointID != "" && o.cfg.AutoRollback {
		if err := o.checkpoints.Restore(ctx, checkpointID); err != nil {
			o.logger.Error("auto-rollback failed", zap.String("checkpoint", checkpointID), zap.Error(err))
		}
	}

	return DispatchOutcome{Result: result, CheckpointID: checkpointID}
}

// safeExecute recovers from a panicking tool so dispatch never propagates a
// host exception, per spec §4.2 step 11.
func (o *Orchestrator) safeExecute(ctx context.Context, t Tool, call types.ToolCall) (result types.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			result = types.ToolResult{
				CallID:   call.ID,
				ToolName: call.Name,
				Success:  false,
				Error:    fmt.Sprintf("tool panicked: %v", r),
			}
		}
	}()

	done := make(chan struct{})
	var execResult types.ToolResult
	var execErr error
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				execErr = fmt.Errorf("tool panicked: %v", r)
			}
		}()
		execResult, execErr = t.Execute(ctx, call)
	}()

	select {
	case <-done:
		if execErr != nil {
			return failResult(call, execErr.Error(), time.Now())
		}
		return execResult
	case <-ctx.Done():
		return failResult(call, "tool execution timed out or was cancelled: "+ctx.Err().Error(), time.Now())
	}
}

func failResult(call types.ToolCall, msg string, start time.Time) types.ToolResult {
	return types.ToolResult{
		CallID:     call.ID,
		ToolName:   call.Name,
		Success:    false,
		Error:      msg,
		DurationMS: time.Since(start).Milliseconds(),
	}
}

// DispatchBatch dispatches a step's tool calls. Calls to tools that report
// ReadOnly run concurrently up to cfg.MaxConcurrency; the resources they
// touch are not compared. All others serialize in the model-returned order. Results are always returned in call order,
// matching spec §5's ordering guarantee.
func (o *Orchestrator) DispatchBatch(ctx context.Context, calls []types.ToolCall) []DispatchOutcome {
	out := make([]DispatchOutcome, len(calls))

	var serialIdx []int
	var parallelIdx []int
	for i, c := range calls {
		if t, ok := o.registry.Get(c.Name); ok && t.ReadOnly() {
			parallelIdx = append(parallelIdx, i)
		} else {
			serialIdx = append(serialIdx, i)
		}
	}

	if len(parallelIdx) > 0 {
		limit := int64(o.cfg.MaxConcurrency)
		if limit <= 0 {
			limit = 1
		}
		sem := semaphore.NewWeighted(limit)
		done := make(chan struct{}, len(parallelIdx))
		for _, idx := range parallelIdx {
			idx := idx
			_ = sem.Acquire(ctx, 1)
			go func() {
				defer sem.Release(1)
				out[idx] = o.Dispatch(ctx, calls[idx])
				done <- struct{}{}
			}()
		}
		for range parallelIdx {
			<-done
		}
	}

	for _, idx := range serialIdx {
		out[idx] = o.Dispatch(ctx, calls[idx])
	}

	return out
}

// candidatePaths extracts a conservative overestimate of the files a tool
// call will touch, from common argument shapes ("path", "file_path",
// "paths"). Concrete tools may expose richer hints in the future; until
// then this is the set the checkpoint snapshot protects.
func candidatePaths(call types.ToolCall) []string {
	var out []string
	if p, ok := call.Arguments["path"].(string); ok && p != "" {
		out = append(out, p)
	}
	if p, ok := call.Arguments["file_path"].(string); ok && p != "" {
		out = append(out, p)
	}
	if ps, ok := call.Arguments["paths"].([]any); ok {
		for _, p := range ps {
			if s, ok := p.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
