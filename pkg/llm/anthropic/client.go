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

// Package anthropic adapts the Anthropic Messages API to the llm.Provider
// contract using the official SDK.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/warpcore/warp/pkg/llm"
	"github.com/warpcore/warp/pkg/tool"
	"github.com/warpcore/warp/pkg/types"
)

const defaultModel = "claude-sonnet-4-5"

// Config configures a Client.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int64
	Temperature float64
	BaseURL     string
}

// Client implements llm.Provider for Claude models.
type Client struct {
	sdk       anthropic.Client
	model     string
	maxTokens int64
	temp      float64
}

// NewClient builds an Anthropic client from Config.
func NewClient(cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		sdk:       anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		temp:      cfg.Temperature,
	}
}

func (c *Client) Name() string  { return "anthropic" }
func (c *Client) Model() string { return c.model }

// Chat sends messages and tool schemas to Claude and returns a normalized response.
func (c *Client) Chat(ctx context.Context, messages []types.Message, tools []tool.Tool) (*types.LLMResponse, error) {
	system, apiMessages := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  apiMessages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	resp, err := c.sdk.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	return convertResponse(resp), nil
}

// ChatStream streams content deltas, satisfying llm.StreamingProvider.
func (c *Client) ChatStream(ctx context.Context, messages []types.Message, tools []tool.Tool) (<-chan llm.StreamChunk, error) {
	system, apiMessages := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  apiMessages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	stream := c.sdk.Messages.NewStreaming(ctx, params)
	out := make(chan llm.StreamChunk, 16)

	go func() {
		defer close(out)
		var acc anthropic.Message
		for stream.Next() {
			event := stream.Current()
			if err := acc.Accumulate(event); err != nil {
				out <- llm.StreamChunk{Kind: llm.ChunkError, Err: err}
				return
			}
			if delta, ok := event.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				out <- llm.StreamChunk{Kind: llm.ChunkContent, Text: delta.Text}
			}
		}
		if err := stream.Err(); err != nil {
			out <- llm.StreamChunk{Kind: llm.ChunkError, Err: err}
			return
		}
		out <- llm.StreamChunk{Kind: llm.ChunkFinal, Response: convertResponse(&acc)}
	}()

	return out, nil
}

func convertMessages(messages []types.Message) (string, []anthropic.MessageParam) {
	var system string
	var out []anthropic.MessageParam
	for _, m := range messages {
		switch m.Role {
		case types.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		case types.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case types.RoleAssistant:
			blocks := []anthropic.ContentBlockParamUnion{}
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, tc.Arguments, tc.Name))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case types.RoleTool:
			out = append(out, anthropic.NewUserMessage(anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false)))
		}
	}
	return system, out
}

func convertTools(tools []tool.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := t.InputSchema()
		props := map[string]interface{}{}
		if schema != nil {
			b, _ := json.Marshal(schema.Properties)
			_ = json.Unmarshal(b, &props)
		}
		out = append(out, anthropic.ToolUnionParamOfTool(anthropic.ToolInputSchemaParam{
			Properties: props,
		}, t.Name()))
	}
	return out
}

func convertResponse(resp *anthropic.Message) *types.LLMResponse {
	out := &types.LLMResponse{
		Usage: types.TokenUsage{
			Input:  int(resp.Usage.InputTokens),
			Output: int(resp.Usage.OutputTokens),
		},
		Metadata: map[string]any{"model": string(resp.Model), "stop_reason": string(resp.StopReason)},
	}
	switch resp.StopReason {
	case anthropic.StopReasonToolUse:
		out.FinishReason = types.FinishToolUse
	case anthropic.StopReasonMaxTokens:
		out.FinishReason = types.FinishMaxTokens
	default:
		out.FinishReason = types.FinishStop
	}
	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.Content += variant.Text
		case anthropic.ToolUseBlock:
			var args map[string]any
			_ = json.Unmarshal(variant.Input, &args)
			out.ToolCalls = append(out.ToolCalls, types.ToolCall{ID: variant.ID, Name: variant.Name, Arguments: args})
		}
	}
	return out
}
