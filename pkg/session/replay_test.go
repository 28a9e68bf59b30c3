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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warpcore/warp/pkg/types"
)

func TestResume_ReplaysMessagesInOrder(t *testing.T) {
	dir := t.TempDir()
	rec, err := New(dir, "sess-1", nil)
	require.NoError(t, err)

	require.NoError(t, rec.AppendMessage(types.Message{UUID: "u1", Role: types.RoleUser, Content: "hi"}))
	require.NoError(t, rec.AppendMessage(types.Message{UUID: "u2", Role: types.RoleAssistant, Content: "hello"}))
	require.NoError(t, rec.Close())

	replayed, err := Resume(dir, "sess-1", nil)
	require.NoError(t, err)
	require.Len(t, replayed.Messages, 2)
	require.Equal(t, uint64(1), replayed.LastSeq)

	idx, ok := replayed.IndexOf("u2")
	require.True(t, ok)
	require.Equal(t, 1, idx)
}

func TestReplayed_MainChainExcludesSidechain(t *testing.T) {
	dir := t.TempDir()
	rec, err := New(dir, "sess-2", nil)
	require.NoError(t, err)

	require.NoError(t, rec.AppendMessage(types.Message{UUID: "u1", Role: types.RoleUser, Content: "do the thing"}))
	require.NoError(t, rec.AppendMessage(types.Message{UUID: "u2", Role: types.RoleAssistant, Content: "sub-agent turn", Sidechain: true}))
	require.NoError(t, rec.AppendMessage(types.Message{UUID: "u3", Role: types.RoleAssistant, Content: "done"}))
	require.NoError(t, rec.Close())

	replayed, err := Resume(dir, "sess-2", nil)
	require.NoError(t, err)
	require.Len(t, replayed.Messages, 3)

	main := replayed.MainChain()
	require.Len(t, main, 2)
	for _, m := range main {
		require.False(t, m.Sidechain)
	}

	idx, ok := replayed.IndexOf("u2")
	require.True(t, ok)
	require.True(t, replayed.Messages[idx].Sidechain)
}

func TestResume_TruncatesOnCorruptTail(t *testing.T) {
	dir := t.TempDir()
	rec, err := New(dir, "sess-3", nil)
	require.NoError(t, err)
	require.NoError(t, rec.AppendMessage(types.Message{UUID: "u1", Role: types.RoleUser, Content: "hi"}))
	require.NoError(t, rec.Close())

	journal, err := os.OpenFile(filepath.Join(dir, "sessions", "sess-3", "messages.jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = journal.WriteString("not json\n")
	require.NoError(t, err)
	require.NoError(t, journal.Close())

	replayed, err := Resume(dir, "sess-3", nil)
	require.NoError(t, err)
	require.Len(t, replayed.Messages, 1)
}
