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

// Package subagent implements the sub-agent supervisor of spec §4.7: it
// spawns bounded child Executors with a reduced tool set and its own step
// budget, links the child's cancellation to the parent's, and reports
// progress back to the parent's event stream.
package subagent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warpcore/warp/pkg/agent"
	"github.com/warpcore/warp/pkg/contextwindow"
	"github.com/warpcore/warp/pkg/event"
	"github.com/warpcore/warp/pkg/llm"
	"github.com/warpcore/warp/pkg/tool"
	"github.com/warpcore/warp/pkg/types"
)

// Spec is the concrete argument shape of the sub-agent tool (SPEC_FULL.md §3.1).
type Spec struct {
	AgentType       string
	Task            types.Task
	AllowedTools    []string
	MaxSteps        int
	Temperature     float64
	ParentSessionID string
}

// Result is the aggregated, textual summary of a completed child execution
// plus the metadata a caller (typically the "task" tool) surfaces to the model.
type Result struct {
	Outcome  types.Outcome
	Summary  string
	Duration time.Duration
	Usage    types.TokenUsage
}

// Supervisor builds and runs child Executors. It holds the collaborators a
// child needs that are shared with the parent (LLM chain, checkpointing,
// permissions, recorder, events) so Spawn only needs a reduced tool set and
// a budget.
type Supervisor struct {
	registry     *tool.Registry
	chain        *llm.Chain
	checker      *tool.Checker
	checkpoints  tool.Checkpointer
	dispatchCfg  tool.Config
	ctxCfg       contextwindow.Config
	summarizer   contextwindow.Summarizer
	recorder     agent.Recorder
	events       *event.Manager
	logger       *zap.Logger
}

// New builds a Supervisor. checker and checkpoints may be nil; recorder and
// events may be nil, matching agent.New's own tolerance for absent collaborators.
func New(registry *tool.Registry, chain *llm.Chain, checker *tool.Checker, checkpoints tool.Checkpointer, dispatchCfg tool.Config, ctxCfg contextwindow.Config, summarizer contextwindow.Summarizer, recorder agent.Recorder, events *event.Manager, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		registry: registry, chain: chain, checker: checker, checkpoints: checkpoints,
		dispatchCfg: dispatchCfg, ctxCfg: ctxCfg, summarizer: summarizer,
		recorder: recorder, events: events, logger: logger,
	}
}

// Spawn runs spec to a terminal outcome, reporting progress to the parent's
// event stream under the same sessionID as the parent (so a UI can group
// them) but with every emitted message marked as a sidechain.
func (s *Supervisor) Spawn(ctx context.Context, spec Spec) (Result, error) {
	subset, missing := s.registry.Subset(spec.AllowedTools)
	if len(missing) > 0 {
		return Result{}, fmt.Errorf("subagent: unknown tools requested: %v", missing)
	}

	childCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	orch := tool.NewOrchestrator(subset, s.checker, s.checkpoints, s.dispatchCfg, s.logger)

	ctxMgr := contextwindow.NewManager(s.ctxCfg, s.summarizer, nil)

	cfg := agent.Config{MaxSteps: spec.MaxSteps, Temperature: spec.Temperature}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 10
	}

	childID := uuid.NewString()
	recorder := &sidechainRecorder{inner: s.recorder, childID: childID, parentID: spec.ParentSessionID}

	child := agent.New(cfg, s.chain, orch, subset, ctxMgr, recorder, s.events, s.logger)

	s.logger.Info("subagent_spawned",
		zap.String("agent_type", spec.AgentType),
		zap.String("parent_session", spec.ParentSessionID),
		zap.String("child_session", childID),
		zap.Int("max_steps", cfg.MaxSteps))

	start := time.Now()
	outcome := child.Execute(childCtx, spec.Task)
	duration := time.Since(start)

	return Result{
		Outcome:  outcome,
		Summary:  summarize(outcome),
		Duration: duration,
		Usage:    outcome.Execution.TotalUsage,
	}, nil
}

func summarize(outcome types.Outcome) string {
	switch outcome.Kind {
	case types.OutcomeSuccess:
		return outcome.FinalResult
	case types.OutcomeFailed:
		if outcome.Err != nil {
			return "sub-agent failed: " + outcome.Err.Message
		}
		return "sub-agent failed"
	case types.OutcomeMaxSteps:
		return "sub-agent reached its step budget without finishing"
	case types.OutcomeInterrupted, types.OutcomeUserCancelled:
		return "sub-agent was interrupted: " + outcome.InterruptReason
	case types.OutcomeNeedsUserInput:
		return "sub-agent needs input: " + outcome.Question
	default:
		return ""
	}
}

// sidechainRecorder wraps the parent's recorder, marking every message a
// child writes as belonging to a sidechain (spec §4.2's sub-agent tool
// clause, §4.5's sidechain decision in DESIGN.md).
type sidechainRecorder struct {
	inner    agent.Recorder
	childID  string
	parentID string
}

func (r *sidechainRecorder) AppendMessage(m types.Message) error {
	if r.inner == nil {
		return nil
	}
	m.Sidechain = true
	if m.SessionID == "" {
		m.SessionID = r.childID
	}
	return r.inner.AppendMessage(m)
}

func (r *sidechainRecorder) AppendMetadataPatch(patch map[string]any) error {
	if r.inner == nil {
		return nil
	}
	if patch == nil {
		patch = map[string]any{}
	}
	patch["sidechain_of"] = r.parentID
	patch["sidechain_id"] = r.childID
	return r.inner.AppendMetadataPatch(patch)
}
