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
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/warpcore/warp/internal/fsext"
)

// PruneStale removes session directories whose header.json UpdatedAt is
// older than maxAge. It is meant to run from a cron sweep (cmd/warp serve),
// not from the hot Recorder path, since it touches every session directory
// under root rather than just the one in flight.
func PruneStale(root string, maxAge time.Duration, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sessionsDir := filepath.Join(root, "sessions")
	if !fsext.Exists(sessionsDir) {
		return 0, nil
	}
	entries, err := os.ReadDir(sessionsDir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	pruned := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(sessionsDir, e.Name())
		headerPath := filepath.Join(dir, "header.json")
		b, err := os.ReadFile(headerPath)
		if err != nil {
			continue
		}
		var h Header
		if err := json.Unmarshal(b, &h); err != nil {
			continue
		}
		if h.UpdatedAt.After(cutoff) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("session_gc_remove_failed", zap.String("session_id", e.Name()), zap.Error(err))
			continue
		}
		logger.Info("session_gc_pruned", zap.String("session_id", e.Name()), zap.Time("last_updated", h.UpdatedAt))
		pruned++
	}
	return pruned, nil
}
