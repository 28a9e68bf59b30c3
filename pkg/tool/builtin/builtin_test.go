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
package builtin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warpcore/warp/pkg/types"
)

func TestWriteFile_ThenReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")

	wres, err := WriteFile{}.Execute(context.Background(), types.ToolCall{
		ID: "1", Name: "write_file", Arguments: map[string]any{"path": path, "content": "hello"},
	})
	require.NoError(t, err)
	assert.True(t, wres.Success)

	rres, err := ReadFile{}.Execute(context.Background(), types.ToolCall{
		ID: "2", Name: "read_file", Arguments: map[string]any{"path": path},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", rres.Output)
}

func TestReadFile_MissingPathFails(t *testing.T) {
	res, err := ReadFile{}.Execute(context.Background(), types.ToolCall{ID: "1", Name: "read_file", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestEditFile_RequiresExactlyOneMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.go")
	require.NoError(t, os.WriteFile(path, []byte("foo\nfoo\n"), 0o644))

	res, err := EditFile{}.Execute(context.Background(), types.ToolCall{
		ID: "1", Name: "edit_file",
		Arguments: map[string]any{"path": path, "old_text": "foo", "new_text": "bar"},
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "ambiguous")
}

func TestEditFile_ReplacesSingleMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc old() {}\n"), 0o644))

	res, err := EditFile{}.Execute(context.Background(), types.ToolCall{
		ID: "1", Name: "edit_file",
		Arguments: map[string]any{"path": path, "old_text": "func old() {}", "new_text": "func new() {}"},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "func new() {}")
}

func TestGlob_ListsDirectoryWithoutPattern(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	res, err := Glob{}.Execute(context.Background(), types.ToolCall{ID: "1", Name: "glob", Arguments: map[string]any{"path": dir}})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Output, "a.txt")
}

func TestGlob_MatchesPattern(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0o644))

	res, err := Glob{}.Execute(context.Background(), types.ToolCall{
		ID: "1", Name: "glob", Arguments: map[string]any{"path": dir, "pattern": "*.go"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Output, "a.go")
	assert.NotContains(t, res.Output, "b.txt")
}

func TestGrep_FindsMatchingLines(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package main\nfunc TODO() {}\n"), 0o644))

	res, err := Grep{}.Execute(context.Background(), types.ToolCall{
		ID: "1", Name: "grep", Arguments: map[string]any{"path": dir, "pattern": "TODO"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Output, "TODO")
	assert.Contains(t, res.Output, "a.go:2:")
}

func TestBash_RunsCommand(t *testing.T) {
	res, err := Bash{}.Execute(context.Background(), types.ToolCall{
		ID: "1", Name: "bash", Arguments: map[string]any{"command": "echo hi"},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Output, "hi")
}

func TestBash_ReportsCommandFailure(t *testing.T) {
	res, err := Bash{}.Execute(context.Background(), types.ToolCall{
		ID: "1", Name: "bash", Arguments: map[string]any{"command": "exit 1"},
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestTask_NoSupervisorFailsGracefully(t *testing.T) {
	res, err := Task{}.Execute(context.Background(), types.ToolCall{
		ID: "1", Name: "task", Arguments: map[string]any{"description": "do a thing"},
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no supervisor")
}
