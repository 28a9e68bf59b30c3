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
package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warpcore/warp/pkg/tool"
	"github.com/warpcore/warp/pkg/types"
)

// Candidate is one entry of a fallback chain: a provider bound to a model name.
type Candidate struct {
	Provider Provider
	Model    string
}

// FallbackEvent is emitted whenever the chain advances past an unhealthy head.
type FallbackEvent struct {
	From, To string
	Reason   error
}

// ChainConfig tunes unavailability tracking.
type ChainConfig struct {
	Retry               RetryConfig
	Breaker             CircuitBreakerConfig
	UnavailableAfter    int           // consecutive failures before marking a candidate unavailable
	UnavailableWindow   time.Duration
	Cooldown            time.Duration // time before an unavailable candidate is retried
	OnFallback          func(FallbackEvent)
}

// DefaultChainConfig mirrors the retry/breaker defaults with a 3-strikes,
// 2-minute-cooldown unavailability policy.
func DefaultChainConfig() ChainConfig {
	return ChainConfig{
		Retry:             DefaultRetryConfig(),
		Breaker:           DefaultCircuitBreakerConfig(),
		UnavailableAfter:  3,
		UnavailableWindow: time.Minute,
		Cooldown:          2 * time.Minute,
	}
}

type candidateHealth struct {
	failures     []time.Time
	unavailable  bool
	markedAt     time.Time
}

// Chain is an ordered fallback list of (provider, model) pairs. Chat tries
// the head; on a non-retryable failure (or an exhausted retry budget, or an
// open circuit) it advances to the next healthy candidate.
type Chain struct {
	mu         sync.Mutex
	candidates []Candidate
	breakers   *Breakers
	cfg        ChainConfig
	health     map[string]*candidateHealth
	logger     *zap.Logger
}

// NewChain builds a fallback chain. Order matters: candidates[0] is the
// primary.
func NewChain(candidates []Candidate, cfg ChainConfig, logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{
		candidates: candidates,
		breakers:   NewBreakers(cfg.Breaker, logger),
		cfg:        cfg,
		health:     make(map[string]*candidateHealth),
		logger:     logger,
	}
}

func candidateKey(c Candidate) string { return c.Provider.Name() + "/" + c.Model }

// Chat walks the chain starting at the first available candidate, applying
// per-candidate retry and circuit breaking, and returns the first success.
func (c *Chain) Chat(ctx context.Context, messages []types.Message, tools []tool.Tool) (*types.LLMResponse, string, error) {
	var lastErr error
	for i, cand := range c.candidates {
		key := candidateKey(cand)
		if c.isUnavailable(key) {
			continue
		}
		breaker := c.breakers.For(cand.Provider.Name())
		if err := breaker.Allow(); err != nil {
			lastErr = err
			continue
		}

		resp, err := WithRetry(ctx, c.cfg.Retry, c.logger, func(ctx context.Context) (*types.LLMResponse, error) {
			return cand.Provider.Chat(ctx, messages, tools)
		})
		if err == nil {
			breaker.RecordSuccess()
			c.recordSuccess(key)
			return resp, key, nil
		}

		breaker.RecordFailure()
		c.recordFailure(key)
		lastErr = err

		if i+1 < len(c.candidates) {
			next := candidateKey(c.candidates[i+1])
			if c.cfg.OnFallback != nil {
				c.cfg.OnFallback(FallbackEvent{From: key, To: next, Reason: err})
			}
			c.logger.Warn("llm_fallback_advance", zap.String("from", key), zap.String("to", next), zap.Error(err))
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no healthy candidate in fallback chain")
	}
	return nil, "", lastErr
}

func (c *Chain) recordFailure(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.health[key]
	if !ok {
		h = &candidateHealth{}
		c.health[key] = h
	}
	now := time.Now()
	h.failures = append(h.failures, now)
	cutoff := now.Add(-c.cfg.UnavailableWindow)
	kept := h.failures[:0]
	for _, t := range h.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	h.failures = kept
	if len(h.failures) >= c.cfg.UnavailableAfter {
		h.unavailable = true
		h.markedAt = now
	}
}

func (c *Chain) recordSuccess(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.health, key)
}

func (c *Chain) isUnavailable(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.health[key]
	if !ok || !h.unavailable {
		return false
	}
	if time.Since(h.markedAt) >= c.cfg.Cooldown {
		h.unavailable = false
		h.failures = nil
		return false
	}
	return true
}
