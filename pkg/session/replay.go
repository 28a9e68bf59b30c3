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
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/warpcore/warp/internal/ordered"
	"github.com/warpcore/warp/internal/slice"
	"github.com/warpcore/warp/pkg/types"
)

// Replayed is the reconstructed state of a session directory.
type Replayed struct {
	Header   Header
	Messages []types.Message
	LastSeq  uint64
	// CompactionBoundary is the index (within Messages) of the most recent
	// compact_boundary message, or -1 if none exists. Resume can skip replay
	// of everything before it when only context is needed.
	CompactionBoundary int
	// index maps a message UUID to its position in Messages, built once
	// during replay rather than re-scanned on every lookup (spec §9: an
	// ordered slice plus, where needed, a uuid -> index side map).
	index *ordered.Map[string, int]
}

// IndexOf returns the position of the message with the given UUID in
// Messages, if it was replayed.
func (r *Replayed) IndexOf(uuid string) (int, bool) {
	if r.index == nil {
		return 0, false
	}
	return r.index.Get(uuid)
}

// MainChain returns Messages with sub-agent sidechain turns excluded. A
// resumed parent session replays only the main chain by default; sidechain
// transcripts stay addressable via IndexOf/Messages for tooling that wants
// them explicitly.
func (r *Replayed) MainChain() []types.Message {
	return slice.Filter(r.Messages, func(m types.Message) bool { return !m.Sidechain })
}

// Resume opens an existing session directory, reads header.json, and
// replays messages.jsonl in seq order. A corrupt tail record truncates
// replay at the last valid record and logs a warning rather than failing.
func Resume(root, sessionID string, logger *zap.Logger) (*Replayed, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := filepath.Join(root, "sessions", sessionID)

	headerBytes, err := os.ReadFile(filepath.Join(dir, "header.json"))
	if err != nil {
		return nil, fmt.Errorf("session: read header: %w", err)
	}
	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("session: parse header: %w", err)
	}

	f, err := os.Open(filepath.Join(dir, "messages.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("session: open journal: %w", err)
	}
	defer f.Close()

	out := &Replayed{Header: header, CompactionBoundary: -1, index: ordered.New[string, int]()}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var lastGood uint64
	seenAny := false
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			logger.Warn("session_journal_truncated", zap.String("session_id", sessionID), zap.Error(err))
			break
		}

		switch rec.RecordType {
		case RecordMessage:
			if rec.Message == nil {
				logger.Warn("session_journal_truncated", zap.String("session_id", sessionID))
				goto done
			}
			msg := types.Message{
				UUID: rec.Message.UUID, ParentUUID: rec.Message.ParentUUID,
				SessionID: rec.SessionID, Role: rec.Message.Role, Content: rec.Message.Content,
				ToolCalls: rec.Message.ToolCalls, ToolCallID: rec.Message.ToolCallID,
				Timestamp: rec.Timestamp, Sidechain: rec.Message.Sidechain,
			}
			out.Messages = append(out.Messages, msg)
			out.index.Set(msg.UUID, len(out.Messages)-1)
			if msg.Role == types.RoleSystem && msg.Content == BoundaryTagCompat {
				out.CompactionBoundary = len(out.Messages) - 1
			}
		case RecordMetadataPatch:
			out.Header = out.Header.merge(rec.Patch)
		case RecordSnapshot:
			// snapshots are consulted by the checkpoint manager directly by ID;
			// the replay only needs to preserve message order around them.
		}
		lastGood = rec.Seq
		seenAny = true
	}
done:
	if err := scanner.Err(); err != nil {
		logger.Warn("session_journal_scan_error", zap.Error(err))
	}
	if seenAny {
		out.LastSeq = lastGood
	}
	return out, nil
}

// BoundaryTagCompat mirrors contextwindow.BoundaryTag without creating an
// import cycle between session and contextwindow.
const BoundaryTagCompat = "compact_boundary"
