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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPruneStale_RemovesOldSessionsOnly(t *testing.T) {
	dir := t.TempDir()

	stale, err := New(dir, "stale", nil)
	require.NoError(t, err)
	require.NoError(t, stale.AppendMetadataPatch(map[string]any{"title": "old"}))
	require.NoError(t, stale.Close())

	fresh, err := New(dir, "fresh", nil)
	require.NoError(t, err)
	require.NoError(t, fresh.AppendMetadataPatch(map[string]any{"title": "new"}))
	require.NoError(t, fresh.Close())

	// Back-date the stale session's header so it falls outside the window.
	h := stale.Header()
	h.UpdatedAt = time.Now().Add(-48 * time.Hour)
	patched := &Recorder{dir: stale.Dir(), header: h}
	require.NoError(t, patched.writeHeader())

	n, err := PruneStale(dir, 24*time.Hour, nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = Resume(dir, "fresh", nil)
	require.NoError(t, err)
	_, err = Resume(dir, "stale", nil)
	require.Error(t, err)
}
