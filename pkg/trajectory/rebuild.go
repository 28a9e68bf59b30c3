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
package trajectory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/warpcore/warp/internal/fsext"
)

// header mirrors the subset of pkg/session.Header this package needs,
// declared locally to avoid an import cycle (pkg/session does not, and
// should not, need to know about pkg/trajectory).
type header struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Title     string    `json:"title"`
	Usage     struct {
		Input        int     `json:"Input"`
		Output       int     `json:"Output"`
		CacheRead    int     `json:"CacheRead"`
		CacheWrite   int     `json:"CacheWrite"`
		CostEstimate float64 `json:"CostEstimate"`
	} `json:"usage"`
}

// Rebuild walks root/sessions/*/header.json and upserts a Record for each,
// since the index is, by design, fully derivable from the journal (spec
// §3.1): a corrupted or deleted trajectory.db is never data loss.
func (ix *Index) Rebuild(ctx context.Context, root string) (int, error) {
	sessionsDir := filepath.Join(root, "sessions")
	if !fsext.Exists(sessionsDir) {
		return 0, nil
	}
	entries, err := os.ReadDir(sessionsDir)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		b, err := os.ReadFile(filepath.Join(sessionsDir, e.Name(), "header.json"))
		if err != nil {
			continue
		}
		var h header
		if err := json.Unmarshal(b, &h); err != nil {
			continue
		}
		rec := Record{
			SessionID:       h.SessionID,
			StartedAt:       h.CreatedAt,
			EndedAt:         h.UpdatedAt,
			TaskDescription: h.Title,
		}
		rec.TotalUsage.Input = h.Usage.Input
		rec.TotalUsage.Output = h.Usage.Output
		rec.TotalUsage.CacheRead = h.Usage.CacheRead
		rec.TotalUsage.CacheWrite = h.Usage.CacheWrite
		rec.TotalUsage.CostEstimate = h.Usage.CostEstimate
		if err := ix.Upsert(ctx, rec); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
