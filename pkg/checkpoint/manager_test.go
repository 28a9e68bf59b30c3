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
package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SnapshotRestore_RoundTrip(t *testing.T) {
	workdir := t.TempDir()
	ckptRoot := t.TempDir()

	m, err := NewManager(ckptRoot, 50, nil)
	require.NoError(t, err)

	existing := filepath.Join(workdir, "y.txt")
	require.NoError(t, os.WriteFile(existing, []byte("original"), 0o644))
	created := filepath.Join(workdir, "x.txt")

	id, err := m.Snapshot(context.Background(), []string{existing, created}, "pre_write")
	require.NoError(t, err)

	// simulate the mutating tool: modifies y.txt, creates x.txt
	require.NoError(t, os.WriteFile(existing, []byte("mutated"), 0o644))
	require.NoError(t, os.WriteFile(created, []byte("new file"), 0o644))

	require.NoError(t, m.Restore(context.Background(), id))

	b, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "original", string(b))

	_, err = os.Stat(created)
	assert.True(t, os.IsNotExist(err))
}

func TestManager_Snapshot_LargeFileGoesToContentPool(t *testing.T) {
	workdir := t.TempDir()
	ckptRoot := t.TempDir()
	m, err := NewManager(ckptRoot, 50, nil)
	require.NoError(t, err)

	large := filepath.Join(workdir, "big.bin")
	require.NoError(t, os.WriteFile(large, []byte(strings.Repeat("a", inlineThreshold+1)), 0o644))

	id, err := m.Snapshot(context.Background(), []string{large}, "pre_write")
	require.NoError(t, err)

	cp, err := m.load(id)
	require.NoError(t, err)
	require.Len(t, cp.Files, 1)
	assert.Nil(t, cp.Files[0].Inline)
	assert.NotEmpty(t, cp.Files[0].Hash)

	entries, err := os.ReadDir(filepath.Join(ckptRoot, "content"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDescribeChange_TextVsBinary(t *testing.T) {
	assert.Contains(t, DescribeChange([]byte("a\nb\n"), []byte("a\nb\nc\n")), "+")
	assert.Contains(t, DescribeChange([]byte{0xff, 0xfe, 0x00}, []byte{0x00, 0x01}), "binary change")
}

func TestManager_GC_KeepsOnlyMaxKeepCheckpoints(t *testing.T) {
	workdir := t.TempDir()
	ckptRoot := t.TempDir()
	m, err := NewManager(ckptRoot, 2, nil)
	require.NoError(t, err)

	f := filepath.Join(workdir, "z.txt")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(f, []byte("v"), 0o644))
		_, err := m.Snapshot(context.Background(), []string{f}, "pre_write")
		require.NoError(t, err)
	}

	m.GC()

	entries, err := os.ReadDir(ckptRoot)
	require.NoError(t, err)
	n := 0
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			n++
		}
	}
	assert.LessOrEqual(t, n, 2)
}
