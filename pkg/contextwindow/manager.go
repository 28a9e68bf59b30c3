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
package contextwindow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warpcore/warp/pkg/types"
)

// OverflowStrategy selects what the manager does once a transcript exceeds
// its budget.
type OverflowStrategy string

const (
	// StrategyError refuses to trim; PrepareMessages returns an error instead.
	StrategyError OverflowStrategy = "error"
	// StrategyTruncateOldest drops the oldest eligible messages outright.
	StrategyTruncateOldest OverflowStrategy = "truncate_oldest"
	// StrategySummarizeOldest is an alias of auto-compact kept for
	// per-provider config compatibility; it behaves identically to AutoCompact.
	StrategySummarizeOldest OverflowStrategy = "summarize_oldest"
	// StrategyAutoCompact replaces the oldest prefix with a boundary+summary pair.
	StrategyAutoCompact OverflowStrategy = "auto_compact"
)

const (
	// BoundaryTag marks a synthetic message left behind after compaction.
	BoundaryTag = "compact_boundary"
	// SummaryTag marks the synthetic summary message following a boundary.
	SummaryTag = "compact_summary"
)

// Config tunes one provider family's context budget.
type Config struct {
	ContextWindow    int
	ReservedResponse int
	Threshold        float64 // compact once usage >= Threshold * ContextWindow
	Hysteresis       float64 // target usage after compaction: (Threshold-Hysteresis) * ContextWindow
	Strategy         OverflowStrategy
}

// DefaultConfig matches a 200K-context provider reserving 8K tokens for the
// response, compacting at 92% down to 80%.
func DefaultConfig() Config {
	return Config{
		ContextWindow:    200_000,
		ReservedResponse: 8_000,
		Threshold:        0.92,
		Hysteresis:       0.12,
		Strategy:         StrategyAutoCompact,
	}
}

func (c Config) budget() int { return c.ContextWindow - c.ReservedResponse }

// Summarizer submits a prefix of messages to the LLM for compaction and
// returns prose summarizing it. The executor supplies this using its own
// LLM client so the context manager stays provider-agnostic.
type Summarizer func(ctx context.Context, prefix []types.Message) (string, error)

// CompactedEvent is emitted whenever auto-compaction rewrites the transcript.
type CompactedEvent struct {
	Before int
	After  int
	Ratio  float64
}

// Manager prepares the message list handed to each LLM call.
type Manager struct {
	cfg        Config
	estimator  *Estimator
	summarizer Summarizer
	onCompact  func(CompactedEvent)
}

// NewManager builds a Manager. summarizer may be nil only if cfg.Strategy
// never resolves to AutoCompact/SummarizeOldest.
func NewManager(cfg Config, summarizer Summarizer, onCompact func(CompactedEvent)) *Manager {
	return &Manager{cfg: cfg, estimator: NewEstimator(), summarizer: summarizer, onCompact: onCompact}
}

// ErrOverflow is returned by PrepareMessages under StrategyError when the
// transcript cannot be made to fit.
type ErrOverflow struct {
	Estimated, Budget int
}

func (e *ErrOverflow) Error() string {
	return fmt.Sprintf("contextwindow: estimated %d tokens exceeds budget %d", e.Estimated, e.Budget)
}

// PrepareMessages returns a message list within budget, preserving any
// system message and the latest user turn, and never splitting a
// (assistant-with-tool-calls, tool-results…) adjacency. Under the
// compacting strategies it also compacts once usage reaches Threshold.
func (m *Manager) PrepareMessages(ctx context.Context, messages []types.Message) ([]types.Message, error) {
	budget := m.cfg.budget()
	estimated := m.estimator.CountMessages(messages)
	compacting := m.cfg.Strategy == StrategyAutoCompact || m.cfg.Strategy == StrategySummarizeOldest
	overThreshold := compacting && m.cfg.Threshold > 0 &&
		float64(estimated) >= m.cfg.Threshold*float64(m.cfg.ContextWindow)
	if estimated <= budget && !overThreshold {
		return messages, nil
	}

	switch m.cfg.Strategy {
	case StrategyError:
		return nil, &ErrOverflow{Estimated: m.estimator.CountMessages(messages), Budget: budget}
	case StrategyTruncateOldest:
		return m.pruneOldest(messages, budget), nil
	case StrategySummarizeOldest, StrategyAutoCompact:
		return m.autoCompact(ctx, messages, budget)
	default:
		return m.pruneOldest(messages, budget), nil
	}
}

// groupBoundaries returns indices i such that messages[i:j] for consecutive
// boundaries form an atomic unit: an assistant message with tool calls is
// glued to the tool-result messages immediately following it.
func groupBoundaries(messages []types.Message) []int {
	bounds := make([]int, 0, len(messages)+1)
	i := 0
	for i < len(messages) {
		bounds = append(bounds, i)
		if messages[i].Role == types.RoleAssistant && len(messages[i].ToolCalls) > 0 {
			j := i + 1
			for j < len(messages) && messages[j].Role == types.RoleTool {
				j++
			}
			i = j
			continue
		}
		i++
	}
	bounds = append(bounds, len(messages))
	return bounds
}

// pruneOldest drops oldest atomic groups (never splitting a tool-call/
// tool-result adjacency) until the list fits budget, always keeping any
// leading system message and the final group (the latest user turn).
func (m *Manager) pruneOldest(messages []types.Message, budget int) []types.Message {
	if len(messages) == 0 {
		return messages
	}
	bounds := groupBoundaries(messages)
	groups := len(bounds) - 1

	keepFromSystem := 0
	if messages[0].Role == types.RoleSystem {
		keepFromSystem = 1
	}

	start := keepFromSystem
	for start < groups-1 {
		candidate := append(append([]types.Message{}, messages[:bounds[keepFromSystem]]...), messages[bounds[start+1]:]...)
		if m.estimator.CountMessages(candidate) <= budget {
			return candidate
		}
		start++
	}
	return append(append([]types.Message{}, messages[:bounds[keepFromSystem]]...), messages[bounds[groups-1]:]...)
}

// autoCompact implements spec §4.3's auto-compact protocol: pick the oldest
// contiguous prefix whose removal brings usage under (threshold-hysteresis),
// summarize it, and splice in a boundary+summary pair.
func (m *Manager) autoCompact(ctx context.Context, messages []types.Message, budget int) ([]types.Message, error) {
	target := int(float64(m.cfg.ContextWindow) * (m.cfg.Threshold - m.cfg.Hysteresis))
	bounds := groupBoundaries(messages)
	groups := len(bounds) - 1

	keepFromSystem := 0
	if len(messages) > 0 && messages[0].Role == types.RoleSystem {
		keepFromSystem = 1
	}

	cut := keepFromSystem
	for cut < groups-1 {
		suffix := messages[bounds[cut+1]:]
		if m.estimator.CountMessages(suffix)+m.estimator.CountMessage(boundaryMessage(messages[0].SessionID))+m.estimator.CountMessage(summaryMessage(messages[0].SessionID, "")) <= target {
			break
		}
		cut++
	}
	if cut <= keepFromSystem {
		if m.estimator.CountMessages(messages) <= budget {
			return messages, nil
		}
		return m.pruneOldest(messages, budget), nil
	}

	prefix := messages[bounds[keepFromSystem]:bounds[cut+1]]
	summaryText := "summary unavailable"
	if m.summarizer != nil {
		s, err := m.summarizer(ctx, prefix)
		if err == nil && s != "" {
			summaryText = s
		}
	}

	sessionID := ""
	if len(messages) > 0 {
		sessionID = messages[0].SessionID
	}

	out := make([]types.Message, 0, len(messages)-len(prefix)+2)
	out = append(out, messages[:bounds[keepFromSystem]]...)
	out = append(out, boundaryMessage(sessionID), summaryMessage(sessionID, summaryText))
	out = append(out, messages[bounds[cut+1]:]...)

	if m.onCompact != nil {
		before := m.estimator.CountMessages(messages)
		after := m.estimator.CountMessages(out)
		ratio := 0.0
		if before > 0 {
			ratio = float64(after) / float64(before)
		}
		m.onCompact(CompactedEvent{Before: before, After: after, Ratio: ratio})
	}

	if m.estimator.CountMessages(out) > budget {
		return m.pruneOldest(out, budget), nil
	}
	return out, nil
}

func boundaryMessage(sessionID string) types.Message {
	return types.Message{
		UUID:      uuid.NewString(),
		SessionID: sessionID,
		Role:      types.RoleSystem,
		Content:   BoundaryTag,
		Timestamp: time.Now(),
	}
}

func summaryMessage(sessionID, text string) types.Message {
	return types.Message{
		UUID:      uuid.NewString(),
		SessionID: sessionID,
		Role:      types.RoleSystem,
		Content:   SummaryTag + ": " + text,
		Timestamp: time.Now(),
	}
}
