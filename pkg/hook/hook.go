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

// Package hook implements the command-based slash-command/hook subsystem of
// SPEC_FULL.md §4.9: a HookDefinition matches a tool-name glob against
// PreToolExecution/PostToolExecution events and runs as a bounded-timeout
// child process via os/exec, communicating over a small JSON envelope on
// stdin/stdout. This is distinct from pkg/tool's in-process PreHook/PostHook
// mechanism, which Registry.BuildHooks produces closures for.
package hook

import (
	"path"
	"time"
)

// Event discriminates which dispatch step a hook fires on.
type Event string

const (
	PreToolExecution  Event = "pre_tool_execution"
	PostToolExecution Event = "post_tool_execution"
)

// HookDefinition is a registered command-based hook, typically loaded from a
// .warp/commands/*.md file (see Watcher).
type HookDefinition struct {
	Name    string
	Event   Event
	Matcher string // tool-name glob, e.g. "bash*" or "*"
	Command []string
	Timeout time.Duration
}

// Matches reports whether toolName satisfies the hook's glob matcher. An
// empty matcher matches every tool, mirroring path.Match's "*" behavior
// without forcing every definition to spell it out.
func (d HookDefinition) Matches(toolName string) bool {
	if d.Matcher == "" {
		return true
	}
	ok, err := path.Match(d.Matcher, toolName)
	return err == nil && ok
}
