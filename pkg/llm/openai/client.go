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

// Package openai adapts the OpenAI Chat Completions API to the llm.Provider
// contract using the official SDK.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/warpcore/warp/pkg/llm"
	"github.com/warpcore/warp/pkg/tool"
	"github.com/warpcore/warp/pkg/types"
)

const defaultModel = "gpt-4o"

// Config configures a Client.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int64
	Temperature float64
	BaseURL     string
}

// Client implements llm.Provider for OpenAI chat models.
type Client struct {
	sdk       openai.Client
	model     string
	maxTokens int64
	temp      float64
}

// NewClient builds an OpenAI client from Config.
func NewClient(cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		sdk:       openai.NewClient(opts...),
		model:     model,
		maxTokens: cfg.MaxTokens,
		temp:      cfg.Temperature,
	}
}

func (c *Client) Name() string  { return "openai" }
func (c *Client) Model() string { return c.model }

// Chat sends messages and tool schemas to a chat model and returns a
// normalized response.
func (c *Client) Chat(ctx context.Context, messages []types.Message, tools []tool.Tool) (*types.LLMResponse, error) {
	params := c.buildParams(messages, tools)
	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return convertResponse(resp), nil
}

// ChatStream streams content deltas, satisfying llm.StreamingProvider.
func (c *Client) ChatStream(ctx context.Context, messages []types.Message, tools []tool.Tool) (<-chan llm.StreamChunk, error) {
	params := c.buildParams(messages, tools)
	stream := c.sdk.Chat.Completions.NewStreaming(ctx, params)
	out := make(chan llm.StreamChunk, 16)

	go func() {
		defer close(out)
		acc := openai.ChatCompletionAccumulator{}
		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)
			if len(chunk.Choices) > 0 {
				if delta := chunk.Choices[0].Delta.Content; delta != "" {
					out <- llm.StreamChunk{Kind: llm.ChunkContent, Text: delta}
				}
			}
		}
		if err := stream.Err(); err != nil {
			out <- llm.StreamChunk{Kind: llm.ChunkError, Err: err}
			return
		}
		out <- llm.StreamChunk{Kind: llm.ChunkFinal, Response: convertResponse(&acc.ChatCompletion)}
	}()

	return out, nil
}

func (c *Client) buildParams(messages []types.Message, tools []tool.Tool) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: convertMessages(messages),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = param.NewOpt(c.maxTokens)
	}
	if c.temp > 0 {
		params.Temperature = param.NewOpt(c.temp)
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}
	return params
}

func convertMessages(messages []types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case types.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case types.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case types.RoleAssistant:
			msg := openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				msg.Content.OfString = param.NewOpt(m.Content)
			}
			for _, tc := range m.ToolCalls {
				args, _ := json.Marshal(tc.Arguments)
				msg.ToolCalls = append(msg.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: string(args),
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &msg})
		case types.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}
	return out
}

func convertTools(tools []tool.Tool) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := t.InputSchema()
		params := map[string]any{"type": "object"}
		if schema != nil {
			b, _ := json.Marshal(schema)
			_ = json.Unmarshal(b, &params)
		}
		out = append(out, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: param.NewOpt(t.Description()),
			Parameters:  params,
		}))
	}
	return out
}

func convertResponse(resp *openai.ChatCompletion) *types.LLMResponse {
	out := &types.LLMResponse{
		Usage: types.TokenUsage{
			Input:  int(resp.Usage.PromptTokens),
			Output: int(resp.Usage.CompletionTokens),
		},
		Metadata: map[string]any{"model": resp.Model},
	}
	if len(resp.Choices) == 0 {
		out.FinishReason = types.FinishStop
		return out
	}
	choice := resp.Choices[0]
	out.Content = choice.Message.Content
	out.Metadata["finish_reason"] = choice.FinishReason

	switch choice.FinishReason {
	case "tool_calls":
		out.FinishReason = types.FinishToolUse
	case "length":
		out.FinishReason = types.FinishMaxTokens
	default:
		out.FinishReason = types.FinishStop
	}

	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		out.ToolCalls = append(out.ToolCalls, types.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	return out
}
