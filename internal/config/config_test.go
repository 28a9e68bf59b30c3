// Copyright © 2026 Warpcore - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Resolve_UsesEnvAPIKey(t *testing.T) {
	require.NoError(t, os.Setenv("ANTHROPIC_API_KEY", "test-key"))
	defer os.Unsetenv("ANTHROPIC_API_KEY")

	l, err := NewLoader()
	require.NoError(t, err)

	cfg, err := l.Resolve(Override{Provider: "anthropic", Model: "claude-opus"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "claude-opus", cfg.Model)
	assert.Equal(t, "test-key", cfg.APIKey)
}

func TestLoader_Resolve_MissingAPIKeyErrors(t *testing.T) {
	os.Unsetenv("OPENAI_API_KEY")

	l, err := NewLoader()
	require.NoError(t, err)

	_, err = l.Resolve(Override{Provider: "openai"})
	assert.Error(t, err)
}

func TestLoader_Resolve_BedrockSkipsAPIKeyRequirement(t *testing.T) {
	os.Unsetenv("BEDROCK_API_KEY")

	l, err := NewLoader()
	require.NoError(t, err)

	cfg, err := l.Resolve(Override{Provider: "bedrock", Model: "anthropic.claude-3"})
	require.NoError(t, err)
	assert.Equal(t, "bedrock", cfg.Provider)
	assert.Empty(t, cfg.APIKey)
}

func TestWorkingDir_DefaultsToCwd(t *testing.T) {
	wd, err := WorkingDir("")
	require.NoError(t, err)
	assert.NotEmpty(t, wd)

	custom, err := WorkingDir("/tmp/custom")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom", custom)
}
