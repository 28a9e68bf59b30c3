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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warpcore/warp/pkg/types"
)

func TestOpenForAppend_ContinuesSeqAfterResume(t *testing.T) {
	dir := t.TempDir()

	rec, err := New(dir, "sess-1", nil)
	require.NoError(t, err)
	require.NoError(t, rec.AppendMessage(types.Message{UUID: "a", Role: types.RoleUser, Content: "hi"}))
	require.NoError(t, rec.Close())

	replayed, err := Resume(dir, "sess-1", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), replayed.LastSeq)

	rec2, err := OpenForAppend(dir, "sess-1", replayed.Header, replayed.LastSeq, nil)
	require.NoError(t, err)
	require.NoError(t, rec2.AppendMessage(types.Message{UUID: "b", Role: types.RoleAssistant, Content: "hello"}))
	require.NoError(t, rec2.Close())

	replayed2, err := Resume(dir, "sess-1", nil)
	require.NoError(t, err)
	require.Len(t, replayed2.Messages, 2)
	assert.Equal(t, uint64(1), replayed2.LastSeq)
}
