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
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/warpcore/warp/pkg/types"
)

// RetryConfig tunes the exponential-backoff-with-full-jitter policy.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig matches the teacher's conservative client defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 4, BaseDelay: 500 * time.Millisecond, MaxDelay: 30 * time.Second}
}

// RetryAfterError lets a provider surface a server-specified backoff.
type RetryAfterError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *RetryAfterError) Error() string { return e.Err.Error() }
func (e *RetryAfterError) Unwrap() error { return e.Err }

// WithRetry calls op, retrying on retryable error kinds with exponential
// backoff and full jitter. Authentication, validation and configuration
// errors are not retried. Cancellation aborts immediately.
func WithRetry(ctx context.Context, cfg RetryConfig, logger *zap.Logger, op func(ctx context.Context) (*types.LLMResponse, error)) (*types.LLMResponse, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := op(ctx)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		kind := ClassifyError(err)
		if !Retryable(kind) {
			return nil, err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := backoffDelay(cfg, attempt)
		if ra, ok := err.(*RetryAfterError); ok && ra.RetryAfter > 0 {
			delay = ra.RetryAfter
		}
		logger.Warn("llm_call_retry", zap.Int("attempt", attempt+1), zap.Duration("delay", delay), zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

// backoffDelay computes base*2^attempt capped at MaxDelay, then applies full jitter.
func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	capped := cfg.BaseDelay * time.Duration(uint64(1)<<uint(attempt))
	if capped > cfg.MaxDelay || capped <= 0 {
		capped = cfg.MaxDelay
	}
	//nolint:gosec // jitter does not need cryptographic randomness
	return time.Duration(rand.Int63n(int64(capped) + 1))
}
