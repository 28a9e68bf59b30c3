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
package checkpoint

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DescribeChange renders a short human-readable line-diff summary between a
// checkpoint's prior file content and its current content, for display in
// event sinks and CLI output. Content that is not valid UTF-8 is summarized
// by byte-size delta instead; text of any size is diffed.
func DescribeChange(before, after []byte) string {
	if !utf8.Valid(before) || !utf8.Valid(after) {
		return fmt.Sprintf("binary change: %d -> %d bytes", len(before), len(after))
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(before), string(after), false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var added, removed int
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += strings.Count(d.Text, "\n") + 1
		case diffmatchpatch.DiffDelete:
			removed += strings.Count(d.Text, "\n") + 1
		}
	}
	return fmt.Sprintf("+%d -%d lines", added, removed)
}
