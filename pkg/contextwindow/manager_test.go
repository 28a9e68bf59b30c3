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
package contextwindow

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warpcore/warp/pkg/types"
)

func bigMessage(role types.Role, words int) types.Message {
	return types.Message{Role: role, Content: strings.Repeat("token ", words)}
}

func TestManager_PrepareMessages_UnderBudgetIsNoop(t *testing.T) {
	cfg := DefaultConfig()
	m := NewManager(cfg, nil, nil)

	messages := []types.Message{
		{Role: types.RoleSystem, Content: "system prompt"},
		{Role: types.RoleUser, Content: "hello"},
	}
	out, err := m.PrepareMessages(context.Background(), messages)
	require.NoError(t, err)
	assert.Equal(t, messages, out)
}

func TestManager_PrepareMessages_ErrorStrategy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContextWindow = 100
	cfg.ReservedResponse = 10
	cfg.Strategy = StrategyError
	m := NewManager(cfg, nil, nil)

	messages := []types.Message{bigMessage(types.RoleUser, 500)}
	_, err := m.PrepareMessages(context.Background(), messages)
	require.Error(t, err)
	var overflow *ErrOverflow
	require.ErrorAs(t, err, &overflow)
}

func TestManager_AutoCompact_PreservesBoundaryAndSuffix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContextWindow = 2000
	cfg.ReservedResponse = 100
	cfg.Threshold = 0.8
	cfg.Hysteresis = 0.3
	cfg.Strategy = StrategyAutoCompact

	var compacted []CompactedEvent
	m := NewManager(cfg, func(ctx context.Context, prefix []types.Message) (string, error) {
		return "SUMMARY", nil
	}, func(e CompactedEvent) { compacted = append(compacted, e) })

	messages := []types.Message{{Role: types.RoleSystem, Content: "sys"}}
	for i := 0; i < 20; i++ {
		messages = append(messages, bigMessage(types.RoleUser, 100))
	}
	latest := types.Message{Role: types.RoleUser, Content: "what's next?"}
	messages = append(messages, latest)

	out, err := m.PrepareMessages(context.Background(), messages)
	require.NoError(t, err)
	require.Len(t, compacted, 1)

	assert.Equal(t, types.RoleSystem, out[0].Role)
	assert.Equal(t, "sys", out[0].Content)
	assert.Equal(t, BoundaryTag, out[1].Content)
	assert.Contains(t, out[2].Content, SummaryTag)
	assert.Contains(t, out[2].Content, "SUMMARY")
	assert.Equal(t, latest, out[len(out)-1])
}

func TestGroupBoundaries_KeepsToolCallAdjacencyIntact(t *testing.T) {
	messages := []types.Message{
		{Role: types.RoleUser, Content: "go"},
		{Role: types.RoleAssistant, ToolCalls: []types.ToolCall{{ID: "1", Name: "glob"}}},
		{Role: types.RoleTool, ToolCallID: "1", Content: "result"},
		{Role: types.RoleAssistant, Content: "done"},
	}
	bounds := groupBoundaries(messages)
	// assistant-with-tool-calls + its tool-result form one group: [1,3)
	assert.Contains(t, bounds, 1)
	assert.NotContains(t, bounds, 2)
}

func TestManager_PruneOldest_NeverSplitsToolAdjacency(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ContextWindow = 150
	cfg.ReservedResponse = 50
	cfg.Strategy = StrategyTruncateOldest
	m := NewManager(cfg, nil, nil)

	messages := []types.Message{
		{Role: types.RoleSystem, Content: "sys"},
		bigMessage(types.RoleUser, 30),
		{Role: types.RoleAssistant, Content: strings.Repeat("x ", 30), ToolCalls: []types.ToolCall{{ID: "1", Name: "glob"}}},
		{Role: types.RoleTool, ToolCallID: "1", Content: strings.Repeat("y ", 30)},
		{Role: types.RoleUser, Content: "latest question"},
	}

	out, err := m.PrepareMessages(context.Background(), messages)
	require.NoError(t, err)
	assert.Equal(t, types.RoleSystem, out[0].Role)
	assert.Equal(t, "latest question", out[len(out)-1].Content)
	for i, msg := range out {
		if msg.Role == types.RoleTool {
			require.Greater(t, i, 0)
			assert.Len(t, out[i-1].ToolCalls, 1, "tool result must not be split from its assistant call")
		}
	}
}
