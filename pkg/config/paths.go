// Copyright © 2026 Warpcore - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"os"
	"path/filepath"
	"strings"
)

// GetDataDir returns the warp data directory.
//
// Priority:
// 1. WARP_DATA_DIR environment variable (if set and non-empty)
// 2. ~/.warp (default)
//
// The returned path is always absolute. Tilde (~) in WARP_DATA_DIR is expanded to the user's home directory.
// Relative paths in WARP_DATA_DIR are converted to absolute paths.
//
// This function is called during bootstrap (before config file is loaded) to locate the config file itself.
//
// Examples:
//
//	WARP_DATA_DIR=/custom/warp        -> /custom/warp
//	WARP_DATA_DIR=~/my-warp           -> /home/user/my-warp
//	WARP_DATA_DIR=relative/path       -> /current/dir/relative/path
//	WARP_DATA_DIR not set             -> /home/user/.warp
//
// Note: This function reads directly from os.Getenv(), not from viper, to avoid
// circular dependency during config initialization.
func GetDataDir() string {
	// Check environment variable first
	if dataDir := os.Getenv("WARP_DATA_DIR"); dataDir != "" {
		return expandPath(dataDir)
	}

	// Fall back to ~/.warp
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir cannot be determined
		return ".warp"
	}
	return filepath.Join(homeDir, ".warp")
}

// GetSandboxDir returns the agent execution sandbox directory.
//
// Priority:
// 1. WARP_SANDBOX_DIR environment variable (if set and non-empty)
// 2. WARP_DATA_DIR (default)
//
// No caller in this module reads it.
// It is separate from WARP_DATA_DIR (which stores internal warp data like databases, artifacts, and configs).
//
// The returned path is always absolute. Tilde (~) in WARP_SANDBOX_DIR is expanded to the user's home directory.
//
// Examples:
//
//	WARP_SANDBOX_DIR=/project/myapp    -> /project/myapp
//	WARP_SANDBOX_DIR=~/workspace       -> /home/user/workspace
//	WARP_SANDBOX_DIR not set           -> /home/user/.warp (WARP_DATA_DIR)
//
// Note: This provides clear separation of concerns:
//   - WARP_DATA_DIR: Internal warp data (databases, artifacts, configs)
//   - WARP_SANDBOX_DIR: Agent execution context (where shell commands run)
func GetSandboxDir() string {
	// Check environment variable first
	if sandboxDir := os.Getenv("WARP_SANDBOX_DIR"); sandboxDir != "" {
		return expandPath(sandboxDir)
	}

	// Default to WARP_DATA_DIR (changed from cwd)
	return GetDataDir()
}

// GetSubDir returns a subdirectory within the warp data directory.
// Example: GetSubDir("agents") returns ~/.warp/agents
func GetSubDir(subdir string) string {
	return filepath.Join(GetDataDir(), subdir)
}

// expandPath expands ~ and resolves to absolute path
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path // Return as-is if we can't get home dir
		}
		return filepath.Join(homeDir, path[2:])
	}

	// Make path absolute
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path // Return as-is if we can't make it absolute
	}
	return absPath
}
