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
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warpcore/warp/pkg/contextwindow"
	"github.com/warpcore/warp/pkg/event"
	"github.com/warpcore/warp/pkg/llm"
	"github.com/warpcore/warp/pkg/session"
	"github.com/warpcore/warp/pkg/tool"
	"github.com/warpcore/warp/pkg/types"
)

// Recorder is the subset of *session.Recorder the executor needs; an
// interface here lets tests substitute an in-memory stub.
type Recorder interface {
	AppendMessage(types.Message) error
	AppendMetadataPatch(map[string]any) error
}

var _ Recorder = (*session.Recorder)(nil)

// NeedsInputSignal is returned by a tool's ToolResult.Metadata["needs_input"]
// to request the loop suspend for user input (spec §4.1 step 6).
const NeedsInputSignal = "needs_input"

// Executor drives one task through the state machine of spec §4.1. It owns
// no global state: every collaborator is passed in, so the same process can
// run many Executors (e.g. one per sub-agent) concurrently.
type Executor struct {
	cfg          Config
	llmChain     *llm.Chain
	orchestrator *tool.Orchestrator
	registry     *tool.Registry
	ctxManager   *contextwindow.Manager
	recorder     Recorder
	events       *event.Manager
	logger       *zap.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	cancelled bool
}

// New builds an Executor from its collaborators.
func New(cfg Config, chain *llm.Chain, orchestrator *tool.Orchestrator, registry *tool.Registry, ctxManager *contextwindow.Manager, recorder Recorder, events *event.Manager, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = event.NewManager(nil, logger)
	}
	return &Executor{
		cfg: cfg, llmChain: chain, orchestrator: orchestrator, registry: registry,
		ctxManager: ctxManager, recorder: recorder, events: events, logger: logger,
	}
}

// Cancel requests the in-flight execution terminate with UserCancelled. Safe
// to call from any goroutine; it is a no-op if nothing is running.
func (e *Executor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelled = true
	if e.cancel != nil {
		e.cancel()
	}
}

// Execute runs task to a terminal Outcome. It resets the cancellation token
// for this task per spec §4.1 step 1.
func (e *Executor) Execute(ctx context.Context, task types.Task) types.Outcome {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.cancelled = false
	e.mu.Unlock()
	defer cancel()

	sessionID := uuid.NewString()
	facts := CurrentPlatformFacts(task.WorkingDir)
	system := e.buildSystemMessage(task, facts)

	messages := []types.Message{system}
	e.recordMessage(system)

	return e.run(ctx, task, sessionID, messages, 1)
}

// Continue appends userMessage to the transcript and resumes from
// step priorSteps+1 with a fresh MaxSteps window, per spec §4.1's
// Continuation clause.
func (e *Executor) Continue(ctx context.Context, task types.Task, sessionID string, messages []types.Message, priorSteps int, userMessage string) types.Outcome {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.cancelled = false
	e.mu.Unlock()
	defer cancel()

	msg := types.Message{UUID: uuid.NewString(), SessionID: sessionID, Role: types.RoleUser, Content: userMessage, Timestamp: time.Now()}
	if len(messages) > 0 {
		msg.ParentUUID = messages[len(messages)-1].UUID
	}
	messages = append(messages, msg)
	e.recordMessage(msg)

	return e.run(ctx, task, sessionID, messages, priorSteps+1)
}

func (e *Executor) buildSystemMessage(task types.Task, facts PlatformFacts) types.Message {
	var b strings.Builder
	if e.cfg.SystemPrompt != "" {
		b.WriteString(e.cfg.SystemPrompt)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Task: %s\n", task.Description)
	fmt.Fprintf(&b, "Working directory: %s\n", facts.WorkingDir)
	fmt.Fprintf(&b, "OS: %s\n", facts.OS)
	if facts.GitBranch != "" {
		fmt.Fprintf(&b, "Git branch: %s\n", facts.GitBranch)
	}
	b.WriteString("Available tools:\n")
	for _, t := range e.registry.List() {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
	}
	return types.Message{UUID: uuid.NewString(), Role: types.RoleSystem, Content: b.String(), Timestamp: time.Now()}
}

func (e *Executor) recordMessage(m types.Message) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.AppendMessage(m); err != nil {
		e.logger.Warn("session_append_message_failed", zap.Error(err))
	}
}

// run is the state machine loop: BuildMessages -> CallLLM -> (tool dispatch
// | completion | error | cancellation) per spec §4.1.
func (e *Executor) run(ctx context.Context, task types.Task, sessionID string, messages []types.Message, startStep int) types.Outcome {
	execution := types.Execution{Task: task, StartedAt: time.Now()}
	tools := e.registry.List()

	for n := startStep; ; n++ {
		if n-startStep >= e.cfg.MaxSteps {
			execution.EndedAt = time.Now()
			return types.Outcome{Kind: types.OutcomeMaxSteps, Execution: execution}
		}
		if ctx.Err() != nil {
			return e.interrupted(execution, "context cancelled")
		}

		e.events.Emit(event.Event{Kind: event.StepStarted, SessionID: sessionID, Step: n})
		e.events.Emit(event.Event{Kind: event.ThinkingStarted, SessionID: sessionID, Step: n})

		prepared, err := e.ctxManager.PrepareMessages(ctx, messages)
		if err != nil {
			e.events.Emit(event.Event{Kind: event.ThinkingStopped, SessionID: sessionID, Step: n})
			return e.failed(execution, types.ErrOther, "context preparation failed", err)
		}

		step := types.AgentStep{Number: n, State: types.StepRunning, StartedAt: time.Now()}

		resp, key, err := e.llmChain.Chat(ctx, prepared, tools)
		e.events.Emit(event.Event{Kind: event.ThinkingStopped, SessionID: sessionID, Step: n})
		if err != nil {
			if ctx.Err() != nil {
				return e.interrupted(execution, "cancelled during llm call")
			}
			step.State = types.StepError
			step.Err = err
			step.EndedAt = time.Now()
			execution.Steps = append(execution.Steps, step)
			return e.failed(execution, llm.ClassifyError(err), fmt.Sprintf("llm call failed (%s)", key), err)
		}
		step.Response = resp
		execution.TotalUsage = execution.TotalUsage.Add(resp.Usage)

		assistantMsg := types.Message{
			UUID: uuid.NewString(), SessionID: sessionID, Role: types.RoleAssistant,
			Content: resp.Content, ToolCalls: resp.ToolCalls, Timestamp: time.Now(),
		}
		if len(messages) > 0 {
			assistantMsg.ParentUUID = messages[len(messages)-1].UUID
		}
		messages = append(messages, assistantMsg)
		e.recordMessage(assistantMsg)

		if len(resp.ToolCalls) == 0 {
			step.State = types.StepCompleted
			step.EndedAt = time.Now()
			execution.Steps = append(execution.Steps, step)
			execution.Success = true
			execution.FinalResult = resp.Content
			execution.EndedAt = time.Now()
			return types.Outcome{Kind: types.OutcomeSuccess, Execution: execution, FinalResult: resp.Content}
		}

		outcomes := e.orchestrator.DispatchBatch(ctx, resp.ToolCalls)
		step.State = types.StepAwaitingTool

		needsInput, question := "", ""
		for i, oc := range outcomes {
			result := oc.Result
			step.ToolResults = append(step.ToolResults, result)

			resultMsg := types.Message{
				UUID: uuid.NewString(), SessionID: sessionID, Role: types.RoleTool,
				ToolCallID: resp.ToolCalls[i].ID, Timestamp: time.Now(), ParentUUID: assistantMsg.UUID,
			}
			if result.Success {
				resultMsg.Content = result.Output
			} else {
				resultMsg.Content = result.Error
			}
			messages = append(messages, resultMsg)
			e.recordMessage(resultMsg)

			e.events.Emit(event.Event{
				Kind: event.ToolExecutionCompleted, SessionID: sessionID, Step: n,
				ToolName: result.ToolName, ToolCall: result.CallID, Success: result.Success,
			})

			if v, ok := result.Metadata[NeedsInputSignal].(string); ok && v != "" {
				needsInput, question = v, v
			}
		}

		if needsInput != "" {
			step.State = types.StepInterrupted
			step.EndedAt = time.Now()
			execution.Steps = append(execution.Steps, step)
			execution.EndedAt = time.Now()
			return types.Outcome{Kind: types.OutcomeNeedsUserInput, Execution: execution, LastResponse: resp.Content, Question: question}
		}

		step.State = types.StepCompleted
		step.EndedAt = time.Now()
		execution.Steps = append(execution.Steps, step)

		if ctx.Err() != nil {
			return e.interrupted(execution, "cancelled during tool dispatch")
		}
	}
}

func (e *Executor) interrupted(execution types.Execution, reason string) types.Outcome {
	execution.EndedAt = time.Now()
	if e.recorder != nil {
		_ = e.recorder.AppendMetadataPatch(map[string]any{"extra": map[string]any{"terminal_reason": reason}})
	}
	e.mu.Lock()
	userCancelled := e.cancelled
	e.mu.Unlock()
	if userCancelled {
		return types.Outcome{Kind: types.OutcomeUserCancelled, Execution: execution, InterruptReason: reason}
	}
	return types.Outcome{Kind: types.OutcomeInterrupted, Execution: execution, InterruptReason: reason}
}

func (e *Executor) failed(execution types.Execution, kind types.ErrorKind, message string, cause error) types.Outcome {
	execution.EndedAt = time.Now()
	return types.Outcome{
		Kind:      types.OutcomeFailed,
		Execution: execution,
		Err:       &types.ExecutionError{Kind: kind, Message: message, Cause: cause},
	}
}
