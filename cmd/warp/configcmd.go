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

	"github.com/spf13/cobra"

	"github.com/warpcore/warp/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect warp's resolved configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Prints the resolved ProviderConfig, with the API key redacted",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	loader, err := config.NewLoader()
	if err != nil {
		return fmt.Errorf("warp config show: %w", err)
	}
	cfg, err := loader.Resolve(config.Override{Provider: provider, Model: model})
	if err != nil {
		return fmt.Errorf("warp config show: %w", err)
	}

	redactedKey := "(not set)"
	if cfg.APIKey != "" {
		redactedKey = "***redacted***"
	}

	fmt.Printf("provider:    %s\n", cfg.Provider)
	fmt.Printf("model:       %s\n", cfg.Model)
	fmt.Printf("api_key:     %s\n", redactedKey)
	fmt.Printf("base_url:    %s\n", orDash(cfg.BaseURL))
	fmt.Printf("max_tokens:  %d\n", cfg.MaxTokens)
	fmt.Printf("temperature: %.2f\n", cfg.Temperature)
	fmt.Printf("data_dir:    %s\n", resolvedDataDir())
	return nil
}
