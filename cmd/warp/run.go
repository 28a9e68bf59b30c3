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
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/warpcore/warp/internal/config"
	"github.com/warpcore/warp/internal/log"
	"github.com/warpcore/warp/internal/permission"
	warpconfig "github.com/warpcore/warp/pkg/config"
	"github.com/warpcore/warp/pkg/session"
	"github.com/warpcore/warp/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run [task description]",
	Short: "Executes a single task from a fresh session",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	description := strings.Join(args, " ")
	logger := log.Logger()
	dd := resolvedDataDir()

	loader, err := config.NewLoader()
	if err != nil {
		return fmt.Errorf("warp run: %w", err)
	}
	providerCfg, err := loader.Resolve(config.Override{Provider: provider, Model: model})
	if err != nil {
		return fmt.Errorf("warp run: %w", err)
	}

	workingDir, err := config.WorkingDir("")
	if err != nil {
		return err
	}

	sessionID := uuid.NewString()
	recorder, err := session.New(dd, sessionID, logger)
	if err != nil {
		return fmt.Errorf("warp run: %w", err)
	}
	defer recorder.Close()

	ctx := permission.WithSessionID(context.Background(), sessionID)
	ctx = session.WithSessionID(ctx, sessionID)

	rt, err := buildRuntime(ctx, providerCfg, workingDir, dd, "", recorder, logger)
	if err != nil {
		return fmt.Errorf("warp run: %w", err)
	}
	defer rt.Close()

	task := types.Task{ID: sessionID, Description: description, WorkingDir: workingDir, CreatedAt: time.Now()}
	outcome := rt.executor.Execute(ctx, task)

	fmt.Fprintln(os.Stdout, outcome.FinalResult)
	if outcome.Err != nil {
		fmt.Fprintln(os.Stderr, outcome.Err.Error())
	}
	fmt.Fprintf(os.Stdout, "session: %s (%s)\n", sessionID, outcome.Kind)
	os.Exit(outcome.ExitCode())
	return nil
}

func resolvedDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	return warpconfig.GetDataDir()
}
