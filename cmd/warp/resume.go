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
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/warpcore/warp/internal/config"
	"github.com/warpcore/warp/internal/log"
	"github.com/warpcore/warp/internal/permission"
	"github.com/warpcore/warp/pkg/session"
	"github.com/warpcore/warp/pkg/types"
)

var resumeUserMessage string

var resumeCmd = &cobra.Command{
	Use:   "resume [session-id]",
	Short: "Resumes the latest (or named) session and continues it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeUserMessage, "message", "", "user message to continue the session with")
}

func runResume(cmd *cobra.Command, args []string) error {
	logger := log.Logger()
	dd := resolvedDataDir()

	sessionID := ""
	if len(args) == 1 {
		sessionID = args[0]
	} else {
		latest, err := latestSessionID(dd)
		if err != nil {
			return fmt.Errorf("warp resume: %w", err)
		}
		sessionID = latest
	}

	replayed, err := session.Resume(dd, sessionID, logger)
	if err != nil {
		return fmt.Errorf("warp resume: %w", err)
	}

	loader, err := config.NewLoader()
	if err != nil {
		return fmt.Errorf("warp resume: %w", err)
	}
	providerCfg, err := loader.Resolve(config.Override{
		Provider: firstNonEmpty(provider, replayed.Header.Provider),
		Model:    firstNonEmpty(model, replayed.Header.Model),
	})
	if err != nil {
		return fmt.Errorf("warp resume: %w", err)
	}

	workingDir, err := config.WorkingDir("")
	if err != nil {
		return err
	}

	recorder, err := session.OpenForAppend(dd, sessionID, replayed.Header, replayed.LastSeq, logger)
	if err != nil {
		return fmt.Errorf("warp resume: %w", err)
	}
	defer recorder.Close()

	ctx := permission.WithSessionID(context.Background(), sessionID)
	ctx = session.WithSessionID(ctx, sessionID)

	rt, err := buildRuntime(ctx, providerCfg, workingDir, dd, "", recorder, logger)
	if err != nil {
		return fmt.Errorf("warp resume: %w", err)
	}
	defer rt.Close()

	task := types.Task{ID: sessionID, Description: replayed.Header.Title, WorkingDir: workingDir, CreatedAt: replayed.Header.CreatedAt}
	mainChain := replayed.MainChain()
	priorSteps := 0
	for _, m := range mainChain {
		if m.Role == types.RoleAssistant {
			priorSteps++
		}
	}
	outcome := rt.executor.Continue(ctx, task, sessionID, mainChain, priorSteps, resumeUserMessage)

	fmt.Fprintln(os.Stdout, outcome.FinalResult)
	fmt.Fprintf(os.Stdout, "session: %s (%s)\n", sessionID, outcome.Kind)
	os.Exit(outcome.ExitCode())
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// latestSessionID returns the most recently modified session directory's
// name under root/sessions, used when `warp resume` is given no argument.
func latestSessionID(root string) (string, error) {
	dir := filepath.Join(root, "sessions")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("no sessions found under %s: %w", dir, err)
	}
	type candidate struct {
		name    string
		modTime int64
	}
	var candidates []candidate
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{name: e.Name(), modTime: info.ModTime().UnixNano()})
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no sessions found under %s", dir)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].modTime > candidates[j].modTime })
	return candidates[0].name, nil
}
