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
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warpcore/warp/pkg/types"
)

// CircuitState is one of the three states of a per-provider breaker.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig tunes one breaker.
type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
	OnStateChange    func(provider string, from, to CircuitState)
}

// DefaultCircuitBreakerConfig opens after 5 consecutive failures and probes
// again after an exponentially growing timeout capped at 60s.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{FailureThreshold: 5, SuccessThreshold: 2, Timeout: 30 * time.Second}
}

// CircuitBreaker isolates one provider: once it trips, calls fail fast
// until the reset timeout elapses, at which point a handful of probe calls
// (half-open) decide whether to resume or reopen.
type CircuitBreaker struct {
	mu               sync.RWMutex
	provider         string
	state            CircuitState
	failureCount     int
	successCount     int
	consecutiveOpens int
	lastFailureTime  time.Time
	lastStateChange  time.Time
	config           CircuitBreakerConfig
	logger           *zap.Logger
}

// NewCircuitBreaker creates a breaker for one named provider.
func NewCircuitBreaker(provider string, config CircuitBreakerConfig, logger *zap.Logger) *CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CircuitBreaker{provider: provider, state: StateClosed, config: config, lastStateChange: time.Now(), logger: logger}
}

// Allow reports whether a call may proceed, transitioning Open->HalfOpen
// when the reset timeout has elapsed.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.RLock()
	state := cb.state
	lastFailure := cb.lastFailureTime
	cb.mu.RUnlock()

	switch state {
	case StateClosed, StateHalfOpen:
		return nil
	case StateOpen:
		timeout := cb.timeout()
		if time.Since(lastFailure) >= timeout {
			cb.transition(StateHalfOpen)
			return nil
		}
		return fmt.Errorf("circuit breaker open for provider %q, retry after %v", cb.provider, timeout-time.Since(lastFailure))
	default:
		return fmt.Errorf("unknown circuit breaker state for %q", cb.provider)
	}
}

// RecordSuccess reports a successful call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.SuccessThreshold {
			cb.failureCount, cb.successCount, cb.consecutiveOpens = 0, 0, 0
			cb.setState(StateClosed)
		}
	}
}

// RecordFailure reports a failed call.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = time.Now()

	switch cb.state {
	case StateClosed:
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.consecutiveOpens++
			cb.setState(StateOpen)
		}
	case StateHalfOpen:
		cb.successCount = 0
		cb.consecutiveOpens++
		cb.setState(StateOpen)
	}
}

func (cb *CircuitBreaker) setState(next CircuitState) {
	if cb.state == next {
		return
	}
	prev := cb.state
	cb.state = next
	cb.lastStateChange = time.Now()
	cb.logger.Info("circuit_breaker_transition", zap.String("provider", cb.provider),
		zap.String("from", prev.String()), zap.String("to", next.String()))
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.provider, prev, next)
	}
}

func (cb *CircuitBreaker) transition(next CircuitState) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(next)
}

// timeout computes the exponential backoff reset timeout, capped at 60s.
func (cb *CircuitBreaker) timeout() time.Duration {
	if cb.consecutiveOpens <= 0 {
		return cb.config.Timeout
	}
	delay := cb.config.Timeout * (1 << uint(cb.consecutiveOpens-1))
	if max := 60 * time.Second; delay > max {
		return max
	}
	return delay
}

// State returns the current state, for status reporting.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Reset forces the breaker back to Closed, used for manual operator recovery.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failureCount, cb.successCount, cb.consecutiveOpens = 0, 0, 0
	cb.setState(StateClosed)
}

// Breakers manages one CircuitBreaker per provider name.
type Breakers struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
	config   CircuitBreakerConfig
	logger   *zap.Logger
}

// NewBreakers creates a manager applying config to every provider it sees.
func NewBreakers(config CircuitBreakerConfig, logger *zap.Logger) *Breakers {
	return &Breakers{breakers: make(map[string]*CircuitBreaker), config: config, logger: logger}
}

// For returns (creating if necessary) the breaker for a provider, using
// double-checked locking so the common case only takes a read lock.
func (b *Breakers) For(provider string) *CircuitBreaker {
	b.mu.RLock()
	cb, ok := b.breakers[provider]
	b.mu.RUnlock()
	if ok {
		return cb
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.breakers[provider]; ok {
		return cb
	}
	cb = NewCircuitBreaker(provider, b.config, b.logger)
	b.breakers[provider] = cb
	return cb
}

// ClassifyError maps a raw provider error into the spec's closed error taxonomy.
func ClassifyError(err error) types.ErrorKind {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case containsAny(msg, "unauthorized", "invalid api key", "authentication", "401", "403"):
		return types.ErrAuthentication
	case containsAny(msg, "rate limit", "429", "too many requests"):
		return types.ErrRateLimit
	case containsAny(msg, "503", "unavailable", "overloaded"):
		return types.ErrServiceUnavailable
	case containsAny(msg, "timeout", "deadline exceeded"):
		return types.ErrTimeout
	case containsAny(msg, "connection", "network", "dial", "no such host"):
		return types.ErrNetwork
	case containsAny(msg, "invalid request", "400", "validation"):
		return types.ErrValidation
	default:
		return types.ErrOther
	}
}

// Retryable reports whether the error taxonomy in spec §4.4 calls for a retry.
func Retryable(kind types.ErrorKind) bool {
	switch kind {
	case types.ErrNetwork, types.ErrTimeout, types.ErrServiceUnavailable, types.ErrRateLimit:
		return true
	default:
		return false
	}
}

func containsAny(haystack string, needles ...string) bool {
	low := strings.ToLower(haystack)
	for _, n := range needles {
		if strings.Contains(low, n) {
			return true
		}
	}
	return false
}
