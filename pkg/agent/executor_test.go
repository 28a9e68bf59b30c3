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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warpcore/warp/pkg/contextwindow"
	"github.com/warpcore/warp/pkg/llm"
	"github.com/warpcore/warp/pkg/tool"
	"github.com/warpcore/warp/pkg/types"
)

type stubProvider struct {
	name      string
	responses []*types.LLMResponse
	calls     int
}

func (s *stubProvider) Name() string  { return s.name }
func (s *stubProvider) Model() string { return "stub-model" }
func (s *stubProvider) Chat(ctx context.Context, messages []types.Message, tools []tool.Tool) (*types.LLMResponse, error) {
	if s.calls >= len(s.responses) {
		return s.responses[len(s.responses)-1], nil
	}
	r := s.responses[s.calls]
	s.calls++
	return r, nil
}

type stubTool struct {
	name   string
	output string
}

func (t *stubTool) Name() string                  { return t.name }
func (t *stubTool) Description() string            { return "stub tool" }
func (t *stubTool) InputSchema() *tool.JSONSchema  { return &tool.JSONSchema{Type: "object"} }
func (t *stubTool) ReadOnly() bool                  { return true }
func (t *stubTool) Mutating() bool                  { return false }
func (t *stubTool) MaxDuration() time.Duration       { return 0 }
func (t *stubTool) Execute(ctx context.Context, call types.ToolCall) (types.ToolResult, error) {
	return types.ToolResult{CallID: call.ID, ToolName: t.name, Success: true, Output: t.output}, nil
}

type memRecorder struct {
	messages []types.Message
	patches  []map[string]any
}

func (m *memRecorder) AppendMessage(msg types.Message) error {
	m.messages = append(m.messages, msg)
	return nil
}
func (m *memRecorder) AppendMetadataPatch(p map[string]any) error {
	m.patches = append(m.patches, p)
	return nil
}

func newTestExecutor(t *testing.T, provider *stubProvider, tools ...tool.Tool) (*Executor, *tool.Registry) {
	reg := tool.NewRegistry()
	for _, tl := range tools {
		reg.Register(tl)
	}
	orch := tool.NewOrchestrator(reg, nil, nil, tool.DefaultConfig(), nil)
	chain := llm.NewChain([]llm.Candidate{{Provider: provider, Model: "stub-model"}}, llm.DefaultChainConfig(), nil)
	ctxMgr := contextwindow.NewManager(contextwindow.DefaultConfig(), nil, nil)
	return New(DefaultConfig(), chain, orch, reg, ctxMgr, &memRecorder{}, nil, nil), reg
}

func TestExecutor_NoToolChat_Succeeds(t *testing.T) {
	provider := &stubProvider{name: "stub", responses: []*types.LLMResponse{
		{Content: "hi", FinishReason: types.FinishStop},
	}}
	exec, _ := newTestExecutor(t, provider)

	outcome := exec.Execute(context.Background(), types.Task{ID: "t1", Description: "say hi"})
	require.Equal(t, types.OutcomeSuccess, outcome.Kind)
	assert.Equal(t, "hi", outcome.FinalResult)
	assert.Len(t, outcome.Execution.Steps, 1)
	assert.Empty(t, outcome.Execution.Steps[0].ToolCalls)
}

func TestExecutor_SingleToolRoundTrip(t *testing.T) {
	glob := &stubTool{name: "glob", output: `["a","b"]`}
	provider := &stubProvider{name: "stub", responses: []*types.LLMResponse{
		{ToolCalls: []types.ToolCall{{ID: "call-1", Name: "glob", Arguments: map[string]any{"pattern": "*"}}}, FinishReason: types.FinishToolUse},
		{Content: "Found a, b", FinishReason: types.FinishStop},
	}}
	exec, _ := newTestExecutor(t, provider, glob)

	outcome := exec.Execute(context.Background(), types.Task{ID: "t2", Description: "list files"})
	require.Equal(t, types.OutcomeSuccess, outcome.Kind)
	assert.Equal(t, "Found a, b", outcome.FinalResult)
	assert.Len(t, outcome.Execution.Steps, 2)
	require.Len(t, outcome.Execution.Steps[0].ToolResults, 1)
	assert.True(t, outcome.Execution.Steps[0].ToolResults[0].Success)
}

func TestExecutor_MaxStepsZero_ReturnsImmediately(t *testing.T) {
	provider := &stubProvider{name: "stub", responses: []*types.LLMResponse{{Content: "never", FinishReason: types.FinishStop}}}
	exec, _ := newTestExecutor(t, provider)
	exec.cfg.MaxSteps = 0

	outcome := exec.Execute(context.Background(), types.Task{ID: "t3", Description: "anything"})
	assert.Equal(t, types.OutcomeMaxSteps, outcome.Kind)
	assert.Zero(t, provider.calls)
}

func TestExecutor_Cancellation_ReturnsInterrupted(t *testing.T) {
	provider := &stubProvider{name: "stub", responses: []*types.LLMResponse{{Content: "hi", FinishReason: types.FinishStop}}}
	exec, _ := newTestExecutor(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcome := exec.Execute(ctx, types.Task{ID: "t4", Description: "anything"})
	assert.Equal(t, types.OutcomeInterrupted, outcome.Kind)
}
