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
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/warpcore/warp/internal/fsext"
	"github.com/warpcore/warp/pkg/tool"
	"github.com/warpcore/warp/pkg/types"
)

// Glob matches files against a shell glob pattern, read-only and
// cacheable. With no pattern it falls back to a plain directory listing via
// internal/fsext.ListDirectory.
type Glob struct{}

func (Glob) Name() string        { return "glob" }
func (Glob) Description() string { return "Lists files matching a glob pattern, or a directory's contents if no pattern is given." }
func (Glob) InputSchema() *tool.JSONSchema {
	return &tool.JSONSchema{
		Type: "object",
		Properties: map[string]*tool.JSONSchema{
			"pattern": {Type: "string", Description: "Glob pattern relative to path, e.g. \"*.go\"; ** is not recursive. Optional."},
			"path":    {Type: "string", Description: "Directory to search or list. Defaults to the working directory."},
		},
	}
}
func (Glob) ReadOnly() bool           { return true }
func (Glob) Mutating() bool           { return false }
func (Glob) MaxDuration() time.Duration { return 15 * time.Second }

func (Glob) Execute(_ context.Context, call types.ToolCall) (types.ToolResult, error) {
	dir, _ := call.Arguments["path"].(string)
	if dir == "" {
		dir = "."
	}
	pattern, _ := call.Arguments["pattern"].(string)

	if pattern == "" {
		names, truncated, err := fsext.ListDirectory(dir, nil, 2, 500)
		if err != nil {
			return failure(call, fmt.Errorf("list %s: %w", fsext.PrettyPath(dir), err))
		}
		out := strings.Join(names, "\n")
		if truncated {
			out += "\n(truncated)"
		}
		return result(call, out), nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return failure(call, fmt.Errorf("invalid glob pattern %q: %w", pattern, err))
	}
	sort.Strings(matches)
	return result(call, strings.Join(matches, "\n")), nil
}

// Grep searches file contents for a literal substring, read-only and
// cacheable, reporting path:line:text for each match.
type Grep struct{}

func (Grep) Name() string        { return "grep" }
func (Grep) Description() string { return "Searches files under a directory for lines containing a substring." }
func (Grep) InputSchema() *tool.JSONSchema {
	return &tool.JSONSchema{
		Type: "object",
		Properties: map[string]*tool.JSONSchema{
			"pattern": {Type: "string", Description: "Literal substring to search for."},
			"path":    {Type: "string", Description: "Directory to search. Defaults to the working directory."},
		},
		Required: []string{"pattern"},
	}
}
func (Grep) ReadOnly() bool           { return true }
func (Grep) Mutating() bool           { return false }
func (Grep) MaxDuration() time.Duration { return 30 * time.Second }

func (Grep) Execute(_ context.Context, call types.ToolCall) (types.ToolResult, error) {
	pattern, err := strArg(call, "pattern")
	if err != nil {
		return failure(call, err)
	}
	dir, _ := call.Arguments["path"].(string)
	if dir == "" {
		dir = "."
	}

	var matches []string
	const maxMatches = 200
	walkErr := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || len(matches) >= maxMatches {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return nil
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			if strings.Contains(scanner.Text(), pattern) {
				matches = append(matches, fmt.Sprintf("%s:%d:%s", path, lineNo, scanner.Text()))
				if len(matches) >= maxMatches {
					break
				}
			}
		}
		return nil
	})
	if walkErr != nil {
		return failure(call, fmt.Errorf("grep %s: %w", fsext.PrettyPath(dir), walkErr))
	}
	if len(matches) == 0 {
		return result(call, "(no matches)"), nil
	}
	return result(call, strings.Join(matches, "\n")), nil
}
