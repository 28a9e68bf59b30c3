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

import "github.com/warpcore/warp/pkg/tool"

// RegisterCore installs the file, search and bash tools into reg. The task
// tool is registered separately (RegisterTask) since it needs a
// subagent.Supervisor that is only constructible once reg itself exists.
func RegisterCore(reg *tool.Registry, workingDir string) {
	for _, t := range []tool.Tool{
		ReadFile{}, WriteFile{}, EditFile{}, Glob{}, Grep{}, Bash{WorkingDir: workingDir},
	} {
		reg.Register(t)
	}
}

// RegisterTask installs the task tool once its supervisor is available.
func RegisterTask(reg *tool.Registry, t Task) {
	reg.Register(t)
}
