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

// Package agent implements the execution loop: the state machine that
// drives one task to a terminal ExecutionOutcome by alternating LLM calls
// with tool dispatch through the orchestrator.
package agent

import (
	"runtime"
	"time"
)

// Config tunes one Executor.
type Config struct {
	MaxSteps     int
	SystemPrompt string
	Temperature  float64
}

// DefaultConfig caps a task at 50 steps, matching the teacher's conservative default.
func DefaultConfig() Config {
	return Config{MaxSteps: 50, Temperature: 0.7}
}

// PlatformFacts are folded into the system message per spec §4.1 step 2.
type PlatformFacts struct {
	OS         string
	GitBranch  string
	WorkingDir string
	Now        time.Time
}

// CurrentPlatformFacts reads ambient OS/working-directory facts. GitBranch
// is left for the caller to fill in (requires a git invocation this package
// does not perform itself).
func CurrentPlatformFacts(workingDir string) PlatformFacts {
	return PlatformFacts{OS: runtime.GOOS, WorkingDir: workingDir}
}
