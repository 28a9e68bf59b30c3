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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warpcore/warp/pkg/types"
)

func TestIndex_UpsertAndList(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trajectory.db")
	ix, err := Open(dbPath)
	require.NoError(t, err)
	defer ix.Close()

	ctx := context.Background()
	require.NoError(t, ix.Upsert(ctx, Record{
		SessionID: "sess-1", StartedAt: time.Now().Add(-time.Hour),
		TaskDescription: "refactor the parser", TotalUsage: types.TokenUsage{Input: 100, Output: 50},
	}))
	require.NoError(t, ix.Upsert(ctx, Record{
		SessionID: "sess-2", StartedAt: time.Now(),
		TaskDescription: "fix flaky test", TotalUsage: types.TokenUsage{Input: 10, Output: 5},
	}))

	recs, err := ix.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "sess-2", recs[0].SessionID) // newest first

	// Upsert again with an ended_at should update, not duplicate.
	require.NoError(t, ix.Upsert(ctx, Record{
		SessionID: "sess-1", StartedAt: recs[1].StartedAt, EndedAt: time.Now(),
		OutcomeKind: "success", TotalUsage: types.TokenUsage{Input: 100, Output: 50},
	}))
	recs, err = ix.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
}

func TestIndex_List_RespectsLimit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trajectory.db")
	ix, err := Open(dbPath)
	require.NoError(t, err)
	defer ix.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, ix.Upsert(ctx, Record{SessionID: string(rune('a' + i)), StartedAt: time.Now()}))
	}

	recs, err := ix.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestIndex_Rebuild_FromSessionHeaders(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "sessions", "sess-x")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	h := map[string]any{
		"sessionId": "sess-x",
		"createdAt": time.Now().Add(-time.Hour).Format(time.RFC3339Nano),
		"updatedAt": time.Now().Format(time.RFC3339Nano),
		"title":     "investigate timeout",
		"usage":     map[string]any{"Input": 42, "Output": 7},
	}
	b, err := json.Marshal(h)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "header.json"), b, 0o644))

	dbPath := filepath.Join(t.TempDir(), "trajectory.db")
	ix, err := Open(dbPath)
	require.NoError(t, err)
	defer ix.Close()

	n, err := ix.Rebuild(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	recs, err := ix.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "investigate timeout", recs[0].TaskDescription)
	assert.Equal(t, 42, recs[0].TotalUsage.Input)
}
