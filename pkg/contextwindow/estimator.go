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

// Package contextwindow manages the message list sent to an LLM call: token
// estimation, overflow strategy selection, auto-compaction and pruning.
package contextwindow

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/warpcore/warp/pkg/types"
)

// perMessageOverhead approximates the token cost of role/formatting wrapper
// each provider adds around message content.
const perMessageOverhead = 10

// Estimator approximates token counts using a cl100k_base encoding, a close
// enough stand-in across provider families since estimates only gate budget
// decisions, never billing.
type Estimator struct {
	mu      sync.Mutex
	encoder *tiktoken.Tiktoken
}

// NewEstimator builds an Estimator, falling back to a char-based heuristic
// if the encoding table cannot be loaded (e.g. offline environments).
func NewEstimator() *Estimator {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return &Estimator{encoder: nil}
	}
	return &Estimator{encoder: enc}
}

// CountText estimates the token count of a single string.
func (e *Estimator) CountText(text string) int {
	if e.encoder == nil {
		return len(text) / 4
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.encoder.Encode(text, nil, nil))
}

// CountMessage estimates the token count of one message, including its tool
// calls and per-message formatting overhead.
func (e *Estimator) CountMessage(m types.Message) int {
	total := perMessageOverhead + e.CountText(m.Content)
	for _, tc := range m.ToolCalls {
		total += e.CountText(tc.Name) + e.CountText(fmt.Sprintf("%v", tc.Arguments))
	}
	return total
}

// CountMessages estimates the total token count of a message list.
func (e *Estimator) CountMessages(messages []types.Message) int {
	total := 0
	for _, m := range messages {
		total += e.CountMessage(m)
	}
	return total
}
