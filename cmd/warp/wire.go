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

// Package main is warp's composition root: the only place in the module
// that wires concrete pkg/llm providers, pkg/tool's builtin tool set,
// pkg/checkpoint, pkg/contextwindow, pkg/session, pkg/hook, pkg/metrics and
// pkg/trajectory together into a runnable Executor, per SPEC_FULL.md §4.10's
// decoupling requirement that none of those packages know about each other
// directly.
package main

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/warpcore/warp/internal/config"
	"github.com/warpcore/warp/internal/permission"
	"github.com/warpcore/warp/pkg/agent"
	"github.com/warpcore/warp/pkg/checkpoint"
	warpconfig "github.com/warpcore/warp/pkg/config"
	"github.com/warpcore/warp/pkg/contextwindow"
	"github.com/warpcore/warp/pkg/event"
	"github.com/warpcore/warp/pkg/hook"
	"github.com/warpcore/warp/pkg/llm"
	"github.com/warpcore/warp/pkg/llm/anthropic"
	"github.com/warpcore/warp/pkg/llm/bedrock"
	"github.com/warpcore/warp/pkg/llm/gemini"
	"github.com/warpcore/warp/pkg/llm/openai"
	"github.com/warpcore/warp/pkg/metrics"
	"github.com/warpcore/warp/pkg/subagent"
	"github.com/warpcore/warp/pkg/tool"
	"github.com/warpcore/warp/pkg/tool/builtin"
	"github.com/warpcore/warp/pkg/types"
)

// runtime bundles every collaborator a single CLI invocation wires together,
// so run and resume share the exact same construction path.
type runtime struct {
	executor   *agent.Executor
	registry   *tool.Registry
	checkpoint *checkpoint.Manager
	collector  *metrics.Collector
	hooks      *hook.Registry
	watcher    *hook.Watcher
	events     *event.Manager
	logger     *zap.Logger
}

func (rt *runtime) Close() {
	if rt.watcher != nil {
		rt.watcher.Close()
	}
	if rt.checkpoint != nil {
		rt.checkpoint.GC()
	}
	if rt.events != nil {
		rt.events.Close()
	}
}

// buildProvider constructs the llm.Provider matching cfg.Provider. Only the
// resolved provider is instantiated; warp never pays the cost of dialing
// every credential a user doesn't have configured.
func buildProvider(ctx context.Context, cfg config.ProviderConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{
			APIKey: cfg.APIKey, Model: cfg.Model, MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature, BaseURL: cfg.BaseURL,
		}), nil
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey: cfg.APIKey, Model: cfg.Model, MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature, BaseURL: cfg.BaseURL,
		}), nil
	case "gemini":
		return gemini.NewClient(ctx, gemini.Config{APIKey: cfg.APIKey, Model: cfg.Model})
	case "bedrock":
		return bedrock.NewClient(ctx, bedrock.Config{ModelID: cfg.Model})
	default:
		return nil, fmt.Errorf("wire: unknown provider %q", cfg.Provider)
	}
}

// buildRuntime wires every collaborator for one task's execution. hookDir,
// when non-empty, starts a pkg/hook.Watcher over that directory so
// command-based hooks hot-reload; it is left empty for one-shot `warp run`
// invocations where there is no long-lived process to watch on behalf of.
// recorder may be nil, in which case the executor runs unrecorded (matching
// agent.New's own tolerance for an absent Recorder).
func buildRuntime(ctx context.Context, providerCfg config.ProviderConfig, workingDir string, dataDir string, hookDir string, recorder agent.Recorder, logger *zap.Logger) (*runtime, error) {
	provider, err := buildProvider(ctx, providerCfg)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector()

	chainCfg := llm.DefaultChainConfig()
	chainCfg.OnFallback = collector.OnFallback
	chainCfg.Breaker.OnStateChange = collector.OnCircuitStateChange
	chain := llm.NewChain([]llm.Candidate{{Provider: provider, Model: providerCfg.Model}}, chainCfg, logger)

	registry := tool.NewRegistry()
	builtin.RegisterCore(registry, workingDir)

	broker := permission.NewBroker()
	checker := tool.NewChecker(tool.Config{}, broker)

	ckptRoot := filepath.Join(dataDir, "checkpoints")
	ckptMgr, err := checkpoint.NewManager(ckptRoot, 20, logger)
	if err != nil {
		return nil, fmt.Errorf("wire: checkpoint manager: %w", err)
	}

	hookRegistry := hook.NewRegistry(logger)
	var watcher *hook.Watcher
	if hookDir != "" {
		w, err := hook.NewWatcher(hookDir, hookRegistry, logger)
		if err != nil {
			return nil, fmt.Errorf("wire: hook watcher: %w", err)
		}
		watcher = w
		go watcher.Run()
	}

	dispatchCfg := tool.DefaultConfig()
	orchestrator := tool.NewOrchestrator(registry, checker, ckptMgr, dispatchCfg, logger)
	orchestrator.SetHooks(hookRegistry.BuildHooks())

	events := event.NewManager(collector, logger)

	ctxCfg := contextwindow.DefaultConfig()
	summarizer := func(ctx context.Context, prefix []types.Message) (string, error) {
		resp, _, err := chain.Chat(ctx, prefix, nil)
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	}
	ctxMgr := contextwindow.NewManager(ctxCfg, summarizer, func(ev contextwindow.CompactedEvent) {
		collector.OnCompacted(ev.Before, ev.After)
	})

	supervisor := subagent.New(registry, chain, checker, ckptMgr, dispatchCfg, ctxCfg, summarizer, recorder, events, logger)
	builtin.RegisterTask(registry, builtin.Task{Supervisor: supervisor})

	execCfg := agent.DefaultConfig()
	exec := agent.New(execCfg, chain, orchestrator, registry, ctxMgr, recorder, events, logger)

	return &runtime{
		executor:   exec,
		registry:   registry,
		checkpoint: ckptMgr,
		collector:  collector,
		hooks:      hookRegistry,
		watcher:    watcher,
		events:     events,
		logger:     logger,
	}, nil
}

func defaultDataDir() string {
	return warpconfig.GetDataDir()
}
