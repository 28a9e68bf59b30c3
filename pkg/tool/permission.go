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
	"context"
	"errors"
	"time"

	"github.com/warpcore/warp/pkg/types"
)

// ErrPermissionDenied is returned by Checker.Check when a call is denied.
var ErrPermissionDenied = errors.New("tool call denied by permission policy")

// InputChannel is the injected collaborator an Ask decision is routed
// through. Implementations might prompt a terminal, a chat UI, or (in
// non-interactive mode) apply a fixed policy.
type InputChannel interface {
	// AskPermission blocks until the user answers or ctx is cancelled.
	AskPermission(ctx context.Context, toolName, description string, args map[string]any) (bool, error)
}

// AutoChannel answers every ask with a fixed decision, for non-interactive
// runs. It never blocks.
type AutoChannel bool

func (a AutoChannel) AskPermission(context.Context, string, string, map[string]any) (bool, error) {
	return bool(a), nil
}

// Config holds permission policy configuration.
type Config struct {
	RequireApproval bool
	YOLO            bool
	AllowedTools    []string
	DisabledTools   []string
	DefaultAction   string // "allow" or "deny", applied on ask-channel timeout
	AskTimeout       time.Duration
}

// Checker decides whether a tool call may proceed.
type Checker struct {
	requireApproval bool
	yolo            bool
	allowed         map[string]bool
	disabled        map[string]bool
	defaultAllow    bool
	askTimeout      time.Duration
	channel         InputChannel
}

// NewChecker builds a Checker. channel may be nil, in which case Ask
// decisions resolve to the configured default action.
func NewChecker(cfg Config, channel InputChannel) *Checker {
	allowed := make(map[string]bool, len(cfg.AllowedTools))
	for _, n := range cfg.AllowedTools {
		allowed[n] = true
	}
	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, n := range cfg.DisabledTools {
		disabled[n] = true
	}
	timeout := cfg.AskTimeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Checker{
		requireApproval: cfg.RequireApproval,
		yolo:            cfg.YOLO,
		allowed:         allowed,
		disabled:        disabled,
		defaultAllow:    cfg.DefaultAction == "allow",
		askTimeout:      timeout,
		channel:         channel,
	}
}

// Check applies the YOLO, disabled and allowed settings and, when approval
// is required, consults the injected input channel. It does not grade the
// call's risk: the mutating flag does not change the decision. It returns
// nil when the call may proceed.
func (c *Checker) Check(ctx context.Context, call types.ToolCall, description string, mutating bool) error {
	if c.yolo {
		return nil
	}
	if c.disabled[call.Name] {
		return errors.New("tool " + call.Name + " is disabled by configuration")
	}
	if c.allowed[call.Name] {
		return nil
	}
	if !c.requireApproval && !mutating {
		return nil
	}
	if !c.requireApproval {
		return nil
	}

	if c.channel == nil {
		if c.defaultAllow {
			return nil
		}
		return ErrPermissionDenied
	}

	askCtx, cancel := context.WithTimeout(ctx, c.askTimeout)
	defer cancel()
	granted, err := c.channel.AskPermission(askCtx, call.Name, description, call.Arguments)
	if err != nil {
		if c.defaultAllow {
			return nil
		}
		return ErrPermissionDenied
	}
	if !granted {
		return ErrPermissionDenied
	}
	return nil
}

// IsYOLO reports whether approval checks are globally bypassed.
func (c *Checker) IsYOLO() bool { return c.yolo }
