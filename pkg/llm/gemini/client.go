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

// Package gemini adapts Google's Gemini API to the llm.Provider contract
// using the google.golang.org/genai SDK.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/warpcore/warp/pkg/llm"
	"github.com/warpcore/warp/pkg/tool"
	"github.com/warpcore/warp/pkg/types"
)

const defaultModel = "gemini-2.5-pro"

// Config configures a Client.
type Config struct {
	APIKey string
	Model  string
}

// Client implements llm.Provider for Gemini models.
type Client struct {
	sdk   *genai.Client
	model string
}

// NewClient builds a Gemini client from Config.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Client{sdk: c, model: model}, nil
}

func (c *Client) Name() string  { return "gemini" }
func (c *Client) Model() string { return c.model }

// Chat sends messages and tool schemas to Gemini and returns a normalized response.
func (c *Client) Chat(ctx context.Context, messages []types.Message, tools []tool.Tool) (*types.LLMResponse, error) {
	system, contents := convertMessages(messages)
	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if len(tools) > 0 {
		cfg.Tools = convertTools(tools)
	}

	resp, err := c.sdk.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return convertResponse(resp), nil
}

// ChatStream streams content deltas, satisfying llm.StreamingProvider.
func (c *Client) ChatStream(ctx context.Context, messages []types.Message, tools []tool.Tool) (<-chan llm.StreamChunk, error) {
	system, contents := convertMessages(messages)
	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if len(tools) > 0 {
		cfg.Tools = convertTools(tools)
	}

	out := make(chan llm.StreamChunk, 16)
	go func() {
		defer close(out)
		var final *genai.GenerateContentResponse
		for resp, err := range c.sdk.Models.GenerateContentStream(ctx, c.model, contents, cfg) {
			if err != nil {
				out <- llm.StreamChunk{Kind: llm.ChunkError, Err: err}
				return
			}
			final = resp
			if text := resp.Text(); text != "" {
				out <- llm.StreamChunk{Kind: llm.ChunkContent, Text: text}
			}
		}
		out <- llm.StreamChunk{Kind: llm.ChunkFinal, Response: convertResponse(final)}
	}()
	return out, nil
}

func convertMessages(messages []types.Message) (string, []*genai.Content) {
	var system string
	var out []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case types.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		case types.RoleUser:
			out = append(out, genai.NewContentFromText(m.Content, genai.RoleUser))
		case types.RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, genai.NewPartFromFunctionCall(tc.Name, tc.Arguments))
			}
			out = append(out, genai.NewContentFromParts(parts, genai.RoleModel))
		case types.RoleTool:
			resp := map[string]any{"result": m.Content}
			out = append(out, genai.NewContentFromParts(
				[]*genai.Part{genai.NewPartFromFunctionResponse(m.ToolCallID, resp)},
				genai.RoleUser,
			))
		}
	}
	return system, out
}

func convertTools(tools []tool.Tool) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		schema := t.InputSchema()
		raw := map[string]any{"type": "object"}
		if schema != nil {
			b, _ := json.Marshal(schema)
			_ = json.Unmarshal(b, &raw)
		}
		var params genai.Schema
		b, _ := json.Marshal(raw)
		_ = json.Unmarshal(b, &params)
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  &params,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func convertResponse(resp *genai.GenerateContentResponse) *types.LLMResponse {
	if resp == nil {
		return &types.LLMResponse{FinishReason: types.FinishError}
	}
	out := &types.LLMResponse{
		Content: resp.Text(),
		Metadata: map[string]any{
			"model_version": resp.ModelVersion,
		},
	}
	if resp.UsageMetadata != nil {
		out.Usage = types.TokenUsage{
			Input:  int(resp.UsageMetadata.PromptTokenCount),
			Output: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	out.FinishReason = types.FinishStop
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		switch cand.FinishReason {
		case genai.FinishReasonMaxTokens:
			out.FinishReason = types.FinishMaxTokens
		}
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if part.FunctionCall != nil {
					out.FinishReason = types.FinishToolUse
					out.ToolCalls = append(out.ToolCalls, types.ToolCall{
						ID:        part.FunctionCall.ID,
						Name:      part.FunctionCall.Name,
						Arguments: part.FunctionCall.Args,
					})
				}
			}
		}
	}
	return out
}
