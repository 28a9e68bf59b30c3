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
package subagent

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

type fakeProvider struct {
	name string
}

func (p *fakeProvider) Name() string  { return p.name }
func (p *fakeProvider) Model() string { return "fake-model" }
func (p *fakeProvider) Chat(ctx context.Context, messages []types.Message, tools []tool.Tool) (*types.LLMResponse, error) {
	return &types.LLMResponse{Content: "child done", FinishReason: types.FinishStop}, nil
}

type recordingRecorder struct {
	messages []types.Message
	patches  []map[string]any
}

func (r *recordingRecorder) AppendMessage(m types.Message) error {
	r.messages = append(r.messages, m)
	return nil
}
func (r *recordingRecorder) AppendMetadataPatch(p map[string]any) error {
	r.patches = append(r.patches, p)
	return nil
}

func TestSupervisor_Spawn_Succeeds(t *testing.T) {
	reg := tool.NewRegistry()
	chain := llm.NewChain([]llm.Candidate{{Provider: &fakeProvider{name: "fake"}, Model: "fake-model"}}, llm.DefaultChainConfig(), nil)
	rec := &recordingRecorder{}

	sup := New(reg, chain, nil, nil, tool.DefaultConfig(), contextwindow.DefaultConfig(), nil, rec, nil, nil)

	result, err := sup.Spawn(context.Background(), Spec{
		AgentType: "reviewer",
		Task:      types.Task{ID: "sub-1", Description: "review the diff"},
		MaxSteps:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeSuccess, result.Outcome.Kind)
	assert.Equal(t, "child done", result.Summary)
	assert.GreaterOrEqual(t, result.Duration, time.Duration(0))

	require.NotEmpty(t, rec.messages)
	for _, m := range rec.messages {
		assert.True(t, m.Sidechain, "every message recorded by a sub-agent must be marked sidechain")
	}
}

func TestSupervisor_Spawn_UnknownToolRejected(t *testing.T) {
	reg := tool.NewRegistry()
	chain := llm.NewChain([]llm.Candidate{{Provider: &fakeProvider{name: "fake"}, Model: "fake-model"}}, llm.DefaultChainConfig(), nil)
	sup := New(reg, chain, nil, nil, tool.DefaultConfig(), contextwindow.DefaultConfig(), nil, nil, nil, nil)

	_, err := sup.Spawn(context.Background(), Spec{
		AgentType:    "reviewer",
		Task:         types.Task{ID: "sub-2", Description: "x"},
		AllowedTools: []string{"does_not_exist"},
	})
	assert.Error(t, err)
}
