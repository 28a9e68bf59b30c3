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
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/warpcore/warp/internal/csync"
	"github.com/warpcore/warp/internal/pubsub"
)

// Broker is the concrete, in-process Service: it publishes each permission
// request as a pubsub event and blocks the asking goroutine on a per-request
// channel until some subscriber calls Grant/Deny (or the context is
// cancelled). AskPermission additionally satisfies pkg/tool.InputChannel
// structurally, without either package importing the other.
type Broker struct {
	mu          sync.Mutex
	skip        bool
	autoApprove map[string]bool

	granted *csync.Map[string, bool]
	waiters *csync.Map[string, chan bool]
	reqSubs *csync.Slice[chan pubsub.Event[PermissionRequest]]
	notifySubs *csync.Slice[chan pubsub.Event[PermissionNotification]]
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{
		autoApprove: map[string]bool{},
		granted:     csync.NewMap[string, bool](),
		waiters:     csync.NewMap[string, chan bool](),
		reqSubs:     csync.NewSlice[chan pubsub.Event[PermissionRequest]](),
		notifySubs:  csync.NewSlice[chan pubsub.Event[PermissionNotification]](),
	}
}

var _ Service = (*Broker)(nil)

// SetSkipRequests toggles YOLO-style auto-grant for every future request.
func (b *Broker) SetSkipRequests(skip bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.skip = skip
}

// SkipRequests reports the current auto-grant setting.
func (b *Broker) SkipRequests() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.skip
}

// Grant marks perm granted and wakes the asker, if still waiting.
func (b *Broker) Grant(perm PermissionRequest) {
	b.resolve(perm, true)
}

// GrantPersistent grants perm and auto-approves the rest of its session.
func (b *Broker) GrantPersistent(perm PermissionRequest) {
	b.AutoApproveSession(perm.SessionID)
	b.resolve(perm, true)
}

// Deny marks perm denied and wakes the asker, if still waiting.
func (b *Broker) Deny(perm PermissionRequest) {
	b.resolve(perm, false)
}

func (b *Broker) resolve(perm PermissionRequest, ok bool) {
	b.granted.Set(perm.ToolCallID, ok)
	b.notifySubs.Range(func(_ int, ch chan pubsub.Event[PermissionNotification]) bool {
		select {
		case ch <- pubsub.NewCreatedEvent(PermissionNotification{ToolCallID: perm.ToolCallID, Granted: ok}):
		default:
		}
		return true
	})
	if ch, found := b.waiters.Get(perm.ToolCallID); found {
		select {
		case ch <- ok:
		default:
		}
	}
}

// IsGranted reports the last decision recorded for toolCallID.
func (b *Broker) IsGranted(toolCallID string) bool {
	v, ok := b.granted.Get(toolCallID)
	return ok && v
}

// Subscribe returns a channel of permission requests as they arrive.
func (b *Broker) Subscribe(ctx context.Context) <-chan pubsub.Event[PermissionRequest] {
	ch := make(chan pubsub.Event[PermissionRequest], 16)
	b.reqSubs.Append(ch)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}

// SubscribeNotifications returns a channel of grant/deny notifications.
func (b *Broker) SubscribeNotifications(ctx context.Context) <-chan pubsub.Event[PermissionNotification] {
	ch := make(chan pubsub.Event[PermissionNotification], 16)
	b.notifySubs.Append(ch)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}

// AutoApproveSession grants every future request for sessionID without
// prompting, used after a user picks "always allow" once.
func (b *Broker) AutoApproveSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.autoApprove[sessionID] = true
}

func (b *Broker) sessionAutoApproved(sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return sessionID != "" && b.autoApprove[sessionID]
}

// AskPermission implements pkg/tool.InputChannel's structural contract:
// func(ctx, toolName, description string, args map[string]any) (bool, error).
// It publishes a PermissionRequest and blocks until a subscriber resolves it.
func (b *Broker) AskPermission(ctx context.Context, toolName, description string, args map[string]any) (bool, error) {
	if b.SkipRequests() {
		return true, nil
	}

	sessionID := SessionIDFromContext(ctx)
	if b.sessionAutoApproved(sessionID) {
		return true, nil
	}

	argsJSON, _ := json.Marshal(args)
	reqID := fmt.Sprintf("%s-%d", toolName, time.Now().UnixNano())
	req := PermissionRequest{
		ID: reqID, ToolName: toolName, ToolCallID: reqID, SessionID: sessionID,
		Description: description, Arguments: string(argsJSON),
	}

	wait := make(chan bool, 1)
	b.waiters.Set(reqID, wait)
	defer b.waiters.Delete(reqID)

	b.reqSubs.Range(func(_ int, ch chan pubsub.Event[PermissionRequest]) bool {
		select {
		case ch <- pubsub.NewCreatedEvent(req):
		default:
		}
		return true
	})

	select {
	case granted := <-wait:
		return granted, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// sessionIDKey is a local, unexported mirror of pkg/session's context key so
// Broker can read the session id without importing pkg/session (which would
// create an import cycle back through pkg/tool). cmd/warp sets both.
type sessionIDKeyType struct{}

var sessionIDKey = sessionIDKeyType{}

// WithSessionID attaches sessionID to ctx for AskPermission to read back.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionIDFromContext reads back a session id set by WithSessionID.
func SessionIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}
