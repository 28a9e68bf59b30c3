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

// Package bedrock adapts AWS Bedrock's Converse API to the llm.Provider contract.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go/document"

	"github.com/warpcore/warp/pkg/tool"
	"github.com/warpcore/warp/pkg/types"
)

// Config configures a Client.
type Config struct {
	Region string
	ModelID string
}

// Client implements llm.Provider over the Bedrock Converse API.
type Client struct {
	sdk     *bedrockruntime.Client
	modelID string
}

// NewClient builds a Bedrock client, loading AWS credentials from the
// default provider chain.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("bedrock: load aws config: %w", err)
	}
	return &Client{sdk: bedrockruntime.NewFromConfig(awsCfg), modelID: cfg.ModelID}, nil
}

func (c *Client) Name() string  { return "bedrock" }
func (c *Client) Model() string { return c.modelID }

// Chat sends a Converse request and returns a normalized response.
func (c *Client) Chat(ctx context.Context, messages []types.Message, tools []tool.Tool) (*types.LLMResponse, error) {
	system, msgs := convertMessages(messages)
	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(c.modelID),
		Messages: msgs,
	}
	if system != "" {
		input.System = []brtypes.SystemContentBlock{&brtypes.SystemContentBlockMemberText{Value: system}}
	}
	if len(tools) > 0 {
		input.ToolConfig = convertTools(tools)
	}

	resp, err := c.sdk.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("bedrock: %w", err)
	}
	return convertResponse(resp), nil
}

func convertMessages(messages []types.Message) (string, []brtypes.Message) {
	var system string
	var out []brtypes.Message
	for _, m := range messages {
		switch m.Role {
		case types.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		case types.RoleUser:
			out = append(out, brtypes.Message{
				Role:    brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Content}},
			})
		case types.RoleAssistant:
			var blocks []brtypes.ContentBlock
			if m.Content != "" {
				blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: m.Content})
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, &brtypes.ContentBlockMemberToolUse{
					Value: brtypes.ToolUseBlock{
						ToolUseId: aws.String(tc.ID),
						Name:      aws.String(tc.Name),
						Input:     document.NewLazyDocument(tc.Arguments),
					},
				})
			}
			out = append(out, brtypes.Message{Role: brtypes.ConversationRoleAssistant, Content: blocks})
		case types.RoleTool:
			out = append(out, brtypes.Message{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberToolResult{
					Value: brtypes.ToolResultBlock{
						ToolUseId: aws.String(m.ToolCallID),
						Content:   []brtypes.ToolResultContentBlock{&brtypes.ToolResultContentBlockMemberText{Value: m.Content}},
					},
				}},
			})
		}
	}
	return system, out
}

func convertTools(tools []tool.Tool) *brtypes.ToolConfiguration {
	specs := make([]brtypes.Tool, 0, len(tools))
	for _, t := range tools {
		schema := t.InputSchema()
		raw := map[string]any{"type": "object"}
		if schema != nil {
			b, _ := json.Marshal(schema)
			_ = json.Unmarshal(b, &raw)
		}
		specs = append(specs, &brtypes.ToolMemberToolSpec{
			Value: brtypes.ToolSpecification{
				Name:        aws.String(t.Name()),
				Description: aws.String(t.Description()),
				InputSchema: &brtypes.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(raw)},
			},
		})
	}
	return &brtypes.ToolConfiguration{Tools: specs}
}

func convertResponse(resp *bedrockruntime.ConverseOutput) *types.LLMResponse {
	out := &types.LLMResponse{
		Usage: types.TokenUsage{
			Input:  int(aws.ToInt32(resp.Usage.InputTokens)),
			Output: int(aws.ToInt32(resp.Usage.OutputTokens)),
		},
		Metadata: map[string]any{"stop_reason": string(resp.StopReason)},
	}
	switch resp.StopReason {
	case brtypes.StopReasonToolUse:
		out.FinishReason = types.FinishToolUse
	case brtypes.StopReasonMaxTokens:
		out.FinishReason = types.FinishMaxTokens
	default:
		out.FinishReason = types.FinishStop
	}

	msgOut, ok := resp.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return out
	}
	for _, block := range msgOut.Value.Content {
		switch v := block.(type) {
		case *brtypes.ContentBlockMemberText:
			out.Content += v.Value
		case *brtypes.ContentBlockMemberToolUse:
			var args map[string]any
			_ = v.Value.Input.UnmarshalSmithyDocument(&args)
			out.ToolCalls = append(out.ToolCalls, types.ToolCall{
				ID:        aws.ToString(v.Value.ToolUseId),
				Name:      aws.ToString(v.Value.Name),
				Arguments: args,
			})
		}
	}
	return out
}
