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

//go:build unix

package tool

import (
	"os/exec"
	"syscall"
)

// ApplyResourceLimits prepares a bash-class tool's child process by setting
// SysProcAttr.Setsid, so the child runs in its own session. It does not
// apply limits: no rlimit is set and no parent-death signal is configured,
// so the child inherits this process's own resource limits.
func ApplyResourceLimits(cmd *exec.Cmd, limits ResourceLimits) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
}
