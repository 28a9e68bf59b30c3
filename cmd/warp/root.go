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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/warpcore/warp/internal/log"
	"github.com/warpcore/warp/internal/version"
)

var (
	cfgFile   string
	logLevel  string
	provider  string
	model     string
	dataDir   string
	sandboxDir string
)

var rootCmd = &cobra.Command{
	Use:     "warp",
	Short:   "warp - autonomous LLM agent execution loop",
	Long:    `warp drives a task to completion by alternating LLM calls with sandboxed tool dispatch, recording every step to a resumable session journal.`,
	Version: version.Get(),
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "accepted but not read; warp.yaml is looked up in the current directory and $WARP_DATA_DIR")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "LLM provider (anthropic, openai, gemini, bedrock)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "model name, provider-specific")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override WARP_DATA_DIR")
	rootCmd.PersistentFlags().StringVar(&sandboxDir, "sandbox-dir", "", "accepted but not read; the sandbox directory is not configurable from the CLI")

	_ = viper.BindPFlag("provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}

// initLogging builds the process-wide zap logger at the single composition
// root, matching internal/log's global-logger convention. WARP_LOG_LEVEL
// sets the level when --log-level is not given explicitly.
func initLogging() {
	level := logLevel
	if env := os.Getenv("WARP_LOG_LEVEL"); env != "" && !rootCmd.PersistentFlags().Changed("log-level") {
		level = env
	}
	lvl := zapcore.InfoLevel
	_ = lvl.Set(level)

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewDevelopment()
	}
	log.SetLogger(logger)
}
