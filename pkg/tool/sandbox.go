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
package tool

import (
	"fmt"
	"regexp"
	"strings"
)

// dangerousCommandPatterns are rejected outright by ValidateCommand: heredoc
// injection against sensitive files, destructive recursive deletes of
// critical paths, and crude privilege escalation.
var dangerousCommandPatterns = []*regexp.Regexp{
	regexp.MustCompile(`<<['"]?EOF['"]?\s*>\s*/etc/`),
	regexp.MustCompile(`rm\s+-rf\s+(/|/etc|/usr|/bin|/home)\s*($|[;&|])`),
	regexp.MustCompile(`:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`), // fork bomb
	regexp.MustCompile(`\bsudo\b.*\b(passwd|visudo|chown\s+root)\b`),
	regexp.MustCompile(`>\s*/dev/sd[a-z]\b`),
}

var forbiddenWritePaths = []string{"/etc/passwd", "/etc/shadow", "/etc/sudoers"}

// ValidateCommand runs the command-validation pipeline from spec §4.2 step
// 6 against a shell command string destined for a bash-class tool. It never
// executes anything; it only pattern-matches the text.
func ValidateCommand(command string) error {
	for _, re := range dangerousCommandPatterns {
		if re.MatchString(command) {
			return fmt.Errorf("command rejected by sandbox validation: matches forbidden pattern %q", re.String())
		}
	}
	for _, p := range forbiddenWritePaths {
		if strings.Contains(command, ">"+p) || strings.Contains(command, "> "+p) {
			return fmt.Errorf("command rejected: writes to forbidden location %q", p)
		}
	}
	return nil
}

// ResourceLimits describes bounds for a child process spawned by a
// bash-class tool. ApplyResourceLimits (sandbox_unix.go) does not enforce
// these values on any platform.
type ResourceLimits struct {
	MaxMemoryBytes uint64
	MaxCPUSeconds  uint64
	MaxOpenFiles   uint64
	MaxStackBytes  uint64
}

// DefaultResourceLimits returns conservative defaults suitable for agent-run
// shell commands.
func DefaultResourceLimits() ResourceLimits {
	return ResourceLimits{
		MaxMemoryBytes: 2 << 30,  // 2 GiB
		MaxCPUSeconds:  120,
		MaxOpenFiles:   256,
		MaxStackBytes:  64 << 20, // 64 MiB
	}
}
