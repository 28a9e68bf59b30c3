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

// Package builtin implements the reference tool set SPEC_FULL.md §4.2/§8
// expects the executor to have something to dispatch: read/write/edit
// file tools (write and edit are checkpointed, since they mutate the
// workspace; read is read-only), glob/grep
// search tools (read-only, cacheable), and a bash tool that funnels through
// the orchestrator's ValidateCommand sandboxing step by name alone.
package builtin

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/warpcore/warp/internal/fsext"
	"github.com/warpcore/warp/pkg/tool"
	"github.com/warpcore/warp/pkg/types"
)

func strArg(call types.ToolCall, key string) (string, error) {
	v, ok := call.Arguments[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", key)
	}
	return s, nil
}

func result(call types.ToolCall, output string) types.ToolResult {
	return types.ToolResult{CallID: call.ID, ToolName: call.Name, Output: output, Success: true}
}

func failure(call types.ToolCall, err error) (types.ToolResult, error) {
	return types.ToolResult{CallID: call.ID, ToolName: call.Name, Error: err.Error()}, nil
}

// ReadFile reads a file's full contents.
type ReadFile struct{}

func (ReadFile) Name() string        { return "read_file" }
func (ReadFile) Description() string { return "Reads the contents of a file at the given path." }
func (ReadFile) InputSchema() *tool.JSONSchema {
	return &tool.JSONSchema{
		Type:       "object",
		Properties: map[string]*tool.JSONSchema{"path": {Type: "string", Description: "Path to the file to read."}},
		Required:   []string{"path"},
	}
}
func (ReadFile) ReadOnly() bool           { return true }
func (ReadFile) Mutating() bool           { return false }
func (ReadFile) MaxDuration() time.Duration { return 10 * time.Second }

func (ReadFile) Execute(_ context.Context, call types.ToolCall) (types.ToolResult, error) {
	path, err := strArg(call, "path")
	if err != nil {
		return failure(call, err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return failure(call, fmt.Errorf("read %s: %w", fsext.PrettyPath(path), err))
	}
	return result(call, string(b)), nil
}

// WriteFile creates or overwrites a file with the given content. Mutating,
// so the orchestrator checkpoints the workspace before it runs.
type WriteFile struct{}

func (WriteFile) Name() string        { return "write_file" }
func (WriteFile) Description() string { return "Writes content to a file, creating or overwriting it." }
func (WriteFile) InputSchema() *tool.JSONSchema {
	return &tool.JSONSchema{
		Type: "object",
		Properties: map[string]*tool.JSONSchema{
			"path":    {Type: "string", Description: "Path to the file to write."},
			"content": {Type: "string", Description: "Full content to write."},
		},
		Required: []string{"path", "content"},
	}
}
func (WriteFile) ReadOnly() bool           { return false }
func (WriteFile) Mutating() bool           { return true }
func (WriteFile) MaxDuration() time.Duration { return 10 * time.Second }

func (WriteFile) Execute(_ context.Context, call types.ToolCall) (types.ToolResult, error) {
	path, err := strArg(call, "path")
	if err != nil {
		return failure(call, err)
	}
	content, err := strArg(call, "content")
	if err != nil {
		return failure(call, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return failure(call, fmt.Errorf("write %s: %w", fsext.PrettyPath(path), err))
	}
	return result(call, fmt.Sprintf("wrote %d bytes to %s", len(content), fsext.PrettyPath(path))), nil
}

// EditFile replaces old_text with new_text in an existing file. old_text
// must occur exactly once; zero or several matches fail without writing.
// Mutating, same as WriteFile.
type EditFile struct{}

func (EditFile) Name() string        { return "edit_file" }
func (EditFile) Description() string { return "Replaces old_text, which must occur exactly once, with new_text in a file." }
func (EditFile) InputSchema() *tool.JSONSchema {
	return &tool.JSONSchema{
		Type: "object",
		Properties: map[string]*tool.JSONSchema{
			"path":     {Type: "string", Description: "Path to the file to edit."},
			"old_text": {Type: "string", Description: "Exact text to replace; must appear exactly once."},
			"new_text": {Type: "string", Description: "Replacement text."},
		},
		Required: []string{"path", "old_text", "new_text"},
	}
}
func (EditFile) ReadOnly() bool           { return false }
func (EditFile) Mutating() bool           { return true }
func (EditFile) MaxDuration() time.Duration { return 10 * time.Second }

func (EditFile) Execute(_ context.Context, call types.ToolCall) (types.ToolResult, error) {
	path, err := strArg(call, "path")
	if err != nil {
		return failure(call, err)
	}
	oldText, err := strArg(call, "old_text")
	if err != nil {
		return failure(call, err)
	}
	newText, err := strArg(call, "new_text")
	if err != nil {
		return failure(call, err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return failure(call, fmt.Errorf("read %s: %w", fsext.PrettyPath(path), err))
	}
	contents := string(b)

	count := strings.Count(contents, oldText)
	switch count {
	case 0:
		return failure(call, fmt.Errorf("old_text not found in %s", fsext.PrettyPath(path)))
	case 1:
		// exactly one match, proceed below
	default:
		return failure(call, fmt.Errorf("old_text is ambiguous: %d matches in %s, must match exactly once", count, fsext.PrettyPath(path)))
	}

	updated := strings.Replace(contents, oldText, newText, 1)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return failure(call, fmt.Errorf("write %s: %w", fsext.PrettyPath(path), err))
	}
	return result(call, fmt.Sprintf("edited %s", fsext.PrettyPath(path))), nil
}
