// Copyright © 2026 Warpcore - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package config resolves the credential/config contract of SPEC_FULL.md
// §4.10: which provider and model to talk to, the provider's API key, and
// the working directory, before the execution loop is ever constructed.
// Nothing in pkg/agent, pkg/llm, or pkg/tool imports this package; it hands
// the caller (cmd/warp) a resolved ProviderConfig and lets the caller wire
// concrete pkg/llm providers itself.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	warpconfig "github.com/warpcore/warp/pkg/config"
)

// ProviderConfig is the resolved, credentialed provider bundle the
// execution loop is built from (SPEC_FULL.md §3.1).
type ProviderConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int64
	Temperature float64
}

// apiKeyEnvVar is the standardized <PROVIDER>_API_KEY naming (spec §6).
func apiKeyEnvVar(provider string) string {
	return strings.ToUpper(provider) + "_API_KEY"
}

// Loader resolves configuration with viper, layering (lowest to highest
// precedence) a config file, environment variables, and explicit overrides
// passed at Resolve time (typically CLI flags).
type Loader struct {
	v *viper.Viper
}

// NewLoader builds a Loader rooted at warp's data directory
// (pkg/config.GetDataDir), looking for warp.yaml/warp.json/warp.toml there
// and in the current directory. A missing config file is not an error: env
// vars and overrides alone are enough to resolve a ProviderConfig.
func NewLoader() (*Loader, error) {
	v := viper.New()
	v.SetConfigName("warp")
	v.AddConfigPath(".")
	v.AddConfigPath(warpconfig.GetDataDir())
	v.SetEnvPrefix("WARP")
	v.AutomaticEnv()

	v.SetDefault("provider", "anthropic")
	v.SetDefault("model", "")
	v.SetDefault("max_tokens", int64(8192))
	v.SetDefault("temperature", 0.7)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	return &Loader{v: v}, nil
}

// Override is applied on top of file+env configuration, highest precedence;
// used to thread CLI flags through without viper's own pflag binding.
type Override struct {
	Provider    string
	Model       string
	BaseURL     string
	MaxTokens   int64
	Temperature float64
}

// Resolve produces a ProviderConfig, applying override over env over file,
// and looks up the API key via the standardized <PROVIDER>_API_KEY name.
// Returns an error if no API key is available for the resolved provider.
func (l *Loader) Resolve(override Override) (ProviderConfig, error) {
	provider := l.v.GetString("provider")
	if override.Provider != "" {
		provider = override.Provider
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return ProviderConfig{}, fmt.Errorf("config: no provider configured (set provider in warp.yaml, WARP_PROVIDER, or --provider)")
	}

	model := l.v.GetString("model")
	if override.Model != "" {
		model = override.Model
	}

	baseURL := l.v.GetString("base_url")
	if override.BaseURL != "" {
		baseURL = override.BaseURL
	}

	maxTokens := l.v.GetInt64("max_tokens")
	if override.MaxTokens != 0 {
		maxTokens = override.MaxTokens
	}

	temperature := l.v.GetFloat64("temperature")
	if override.Temperature != 0 {
		temperature = override.Temperature
	}

	apiKey := os.Getenv(apiKeyEnvVar(provider))
	if apiKey == "" && provider != "bedrock" {
		// Bedrock uses the AWS SDK's own default credential chain instead
		// of a single env var (SPEC_FULL.md §6).
		return ProviderConfig{}, fmt.Errorf("config: missing %s for provider %q", apiKeyEnvVar(provider), provider)
	}

	return ProviderConfig{
		Provider:    provider,
		Model:       model,
		APIKey:      apiKey,
		BaseURL:     baseURL,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}, nil
}

// WorkingDir resolves the task working directory: an explicit override, else
// the process's current directory.
func WorkingDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("config: resolving working directory: %w", err)
	}
	return wd, nil
}
