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
package permission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_AskPermission_SkipRequestsAutoGrants(t *testing.T) {
	b := NewBroker()
	b.SetSkipRequests(true)

	ok, err := b.AskPermission(context.Background(), "write_file", "write foo.txt", nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBroker_AskPermission_BlocksUntilGranted(t *testing.T) {
	b := NewBroker()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reqs := b.Subscribe(ctx)
	done := make(chan bool, 1)
	go func() {
		ok, err := b.AskPermission(ctx, "bash", "run ls", map[string]any{"command": "ls"})
		assert.NoError(t, err)
		done <- ok
	}()

	select {
	case ev := <-reqs:
		b.Grant(ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for permission request")
	}

	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for AskPermission")
	}
}

func TestBroker_AskPermission_DeniedReturnsFalse(t *testing.T) {
	b := NewBroker()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reqs := b.Subscribe(ctx)
	done := make(chan bool, 1)
	go func() {
		ok, _ := b.AskPermission(ctx, "bash", "rm -rf /tmp/x", nil)
		done <- ok
	}()

	ev := <-reqs
	b.Deny(ev.Payload)

	assert.False(t, <-done)
}

func TestBroker_AutoApproveSession_SkipsFuturePrompts(t *testing.T) {
	b := NewBroker()
	ctx := WithSessionID(context.Background(), "sess-1")
	b.AutoApproveSession("sess-1")

	ok, err := b.AskPermission(ctx, "write_file", "write", nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
