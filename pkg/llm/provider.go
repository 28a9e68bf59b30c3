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

// Package llm defines the provider-agnostic chat contract and the
// reliability layer (retry, circuit breaker, fallback chain) the executor
// calls through. Concrete wire formats live in the anthropic, bedrock,
// openai and gemini subpackages.
package llm

import (
	"context"

	"github.com/warpcore/warp/pkg/tool"
	"github.com/warpcore/warp/pkg/types"
)

// ChunkKind discriminates a StreamChunk.
type ChunkKind int

const (
	ChunkContent ChunkKind = iota
	ChunkFinal
	ChunkError
)

// StreamChunk is one element of a ChatStream response.
type StreamChunk struct {
	Kind     ChunkKind
	Text     string
	Response *types.LLMResponse // set on ChunkFinal
	Err      error               // set on ChunkError
}

// Provider is the uniform chat contract every LLM backend implements.
type Provider interface {
	Name() string
	Model() string
	Chat(ctx context.Context, messages []types.Message, tools []tool.Tool) (*types.LLMResponse, error)
}

// StreamingProvider extends Provider with token-by-token delivery. Not every
// provider implements it; callers should type-assert.
type StreamingProvider interface {
	Provider
	ChatStream(ctx context.Context, messages []types.Message, tools []tool.Tool) (<-chan StreamChunk, error)
}

// SupportsStreaming reports whether p also implements StreamingProvider.
func SupportsStreaming(p Provider) bool {
	_, ok := p.(StreamingProvider)
	return ok
}
