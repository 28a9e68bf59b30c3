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

// Package tool defines the tool capability contract and the dispatch
// pipeline that validates, authorizes, checkpoints, executes and records
// every tool invocation the model requests.
package tool

import (
	"context"
	"time"

	"github.com/warpcore/warp/pkg/types"
)

// JSONSchema is a minimal JSON-schema tree, enough to describe tool
// parameters and to be handed to providers that want a native schema
// object rather than a pre-serialized blob.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Items       *JSONSchema            `json:"items,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Enum        []any                  `json:"enum,omitempty"`
	Default     any                    `json:"default,omitempty"`
}

// Tool is the capability every executable operation must expose. The
// Executor never knows anything about bash, file edits, or web fetches: it
// only knows this shape.
type Tool interface {
	Name() string
	Description() string
	InputSchema() *JSONSchema

	// Execute runs the tool body. It must never panic across the call
	// boundary; orchestrator.Dispatch recovers defensively regardless.
	Execute(ctx context.Context, call types.ToolCall) (types.ToolResult, error)

	// ReadOnly tools may be dispatched concurrently and are eligible for
	// result caching.
	ReadOnly() bool

	// Mutating tools are checkpointed before execution and are candidates
	// for auto-rollback on failure.
	Mutating() bool

	// MaxDuration bounds a single execution; zero means use the
	// orchestrator default.
	MaxDuration() time.Duration
}

// NeedsInputTool is implemented by tools whose result can signal that the
// loop must pause for a human answer (spec §4.1 step 6). Ordinary tools do
// not implement it.
type NeedsInputTool interface {
	Tool
	// AsksForInput inspects a completed result and reports whether it is
	// requesting user input, plus the question to surface.
	AsksForInput(result types.ToolResult) (asked bool, question string)
}
