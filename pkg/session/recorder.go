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

// Package session implements the append-only journal the executor writes
// to and resumes from: a header.json of latest-wins metadata patches and a
// messages.jsonl stream of monotonically sequenced records.
package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warpcore/warp/pkg/types"
)

// RecordType discriminates the payload of a SessionRecord.
type RecordType string

const (
	RecordMessage       RecordType = "message"
	RecordSnapshot      RecordType = "snapshot"
	RecordMetadataPatch RecordType = "metadata_patch"
)

// Record is one line of messages.jsonl. Field names match Claude-Code-style
// camelCase for interop per spec §6.
type Record struct {
	Seq        uint64          `json:"seq"`
	Timestamp  time.Time       `json:"timestamp"`
	SessionID  string          `json:"sessionId"`
	RecordType RecordType      `json:"recordType"`
	Message    *MessageRecord  `json:"message,omitempty"`
	Snapshot   *SnapshotRecord `json:"snapshot,omitempty"`
	Patch      map[string]any  `json:"patch,omitempty"`
}

// MessageRecord is the camelCase wire shape of types.Message.
type MessageRecord struct {
	UUID       string          `json:"uuid"`
	ParentUUID string          `json:"parentUuid,omitempty"`
	Role       types.Role      `json:"role"`
	Content    string          `json:"content"`
	ToolCalls  []types.ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	Sidechain  bool            `json:"sidechain,omitempty"`
}

// SnapshotRecord references a checkpoint taken alongside a message.
type SnapshotRecord struct {
	CheckpointID string `json:"checkpointId"`
	Kind         string `json:"kind"`
}

// Header is the session's latest-wins metadata, persisted to header.json.
type Header struct {
	SessionID string         `json:"sessionId"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Model     string         `json:"model,omitempty"`
	Provider  string         `json:"provider,omitempty"`
	Title     string         `json:"title,omitempty"`
	Usage     types.TokenUsage `json:"usage"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// merge applies non-zero fields of patch onto h, latest-wins.
func (h Header) merge(patch map[string]any) Header {
	out := h
	if v, ok := patch["model"].(string); ok && v != "" {
		out.Model = v
	}
	if v, ok := patch["provider"].(string); ok && v != "" {
		out.Provider = v
	}
	if v, ok := patch["title"].(string); ok && v != "" {
		out.Title = v
	}
	if v, ok := patch["extra"].(map[string]any); ok {
		if out.Extra == nil {
			out.Extra = map[string]any{}
		}
		for k, vv := range v {
			out.Extra[k] = vv
		}
	}
	return out
}

// Recorder is the single writer for one session's journal. All writes go
// through its mutex; the executor hands it records rather than touching the
// filesystem directly.
type Recorder struct {
	mu        sync.Mutex
	dir       string
	header    Header
	file      *os.File
	writer    *bufio.Writer
	nextSeq   uint64
	logger    *zap.Logger
}

// New creates a fresh session directory and journal.
func New(root, sessionID string, logger *zap.Logger) (*Recorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := filepath.Join(root, "sessions", sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session: mkdir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "messages.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("session: open journal: %w", err)
	}
	now := time.Now()
	r := &Recorder{
		dir:    dir,
		header: Header{SessionID: sessionID, CreatedAt: now, UpdatedAt: now},
		file:   f,
		writer: bufio.NewWriter(f),
		logger: logger,
	}
	if err := r.writeHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

// OpenForAppend reopens an existing session's journal so the executor can
// continue appending after session.Resume has replayed it, picking up the
// monotonic seq counter where the journal left off rather than restarting
// it at zero (which would duplicate seq numbers on continuation).
func OpenForAppend(root, sessionID string, header Header, lastSeq uint64, logger *zap.Logger) (*Recorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := filepath.Join(root, "sessions", sessionID)
	f, err := os.OpenFile(filepath.Join(dir, "messages.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("session: reopen journal: %w", err)
	}
	return &Recorder{
		dir:     dir,
		header:  header,
		file:    f,
		writer:  bufio.NewWriter(f),
		nextSeq: lastSeq + 1,
		logger:  logger,
	}, nil
}

// Dir returns the session's directory.
func (r *Recorder) Dir() string { return r.dir }

// Header returns a copy of the current header.
func (r *Recorder) Header() Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header
}

func (r *Recorder) writeHeader() error {
	b, err := json.MarshalIndent(r.header, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal header: %w", err)
	}
	return os.WriteFile(filepath.Join(r.dir, "header.json"), b, 0o644)
}

// AppendMessage writes one message record with the next monotonic seq.
func (r *Recorder) AppendMessage(m types.Message) error {
	return r.append(Record{
		RecordType: RecordMessage,
		Message: &MessageRecord{
			UUID: m.UUID, ParentUUID: m.ParentUUID, Role: m.Role,
			Content: m.Content, ToolCalls: m.ToolCalls, ToolCallID: m.ToolCallID,
			Sidechain: m.Sidechain,
		},
	})
}

// AppendSnapshot records that a checkpoint was taken alongside the current message stream.
func (r *Recorder) AppendSnapshot(checkpointID, kind string) error {
	return r.append(Record{RecordType: RecordSnapshot, Snapshot: &SnapshotRecord{CheckpointID: checkpointID, Kind: kind}})
}

// AppendMetadataPatch merges patch into the header (latest field wins) and
// also journals it so replay can reconstruct header state independently.
func (r *Recorder) AppendMetadataPatch(patch map[string]any) error {
	r.mu.Lock()
	r.header = r.header.merge(patch)
	r.header.UpdatedAt = time.Now()
	r.mu.Unlock()

	if err := r.append(Record{RecordType: RecordMetadataPatch, Patch: patch}); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeHeader()
}

func (r *Recorder) append(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.Seq = r.nextSeq
	r.nextSeq++
	rec.Timestamp = time.Now()
	rec.SessionID = r.header.SessionID

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session: marshal record: %w", err)
	}
	if _, err := r.writer.Write(b); err != nil {
		return fmt.Errorf("session: write record: %w", err)
	}
	if err := r.writer.WriteByte('\n'); err != nil {
		return err
	}
	if err := r.writer.Flush(); err != nil {
		return fmt.Errorf("session: flush: %w", err)
	}
	return r.file.Sync()
}

// Close flushes and closes the journal file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writer.Flush(); err != nil {
		return err
	}
	return r.file.Close()
}
