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

// Package checkpoint snapshots workspace files before mutating tool calls
// and restores them on rollback. Small files are embedded inline; large
// files are stored once in a content-addressed, zstd-compressed pool keyed
// by sha256.
package checkpoint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/warpcore/warp/internal/fsext"
)

// ChangeKind classifies how a file differs from the prior known snapshot.
type ChangeKind string

const (
	ChangeCreated  ChangeKind = "created"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeModified ChangeKind = "modified"
	ChangeUnchanged ChangeKind = "unchanged"
)

// inlineThreshold is the file size below which content is embedded directly
// in the checkpoint JSON rather than the content-addressed pool.
const inlineThreshold = 16 * 1024

// FileEntry is one file's before-state captured in a Checkpoint.
type FileEntry struct {
	Path    string     `json:"path"`
	Kind    ChangeKind `json:"kind"`
	Existed bool       `json:"existed"` // whether the file existed before the mutation
	Mode    os.FileMode `json:"mode,omitempty"`
	Hash    string     `json:"hash,omitempty"`   // sha256 of prior content, if Existed
	Inline  []byte     `json:"inline,omitempty"` // prior content, if small
}

// Checkpoint is the persisted record of one snapshot.
type Checkpoint struct {
	ID        string      `json:"id"`
	Kind      string      `json:"kind"`
	CreatedAt time.Time   `json:"createdAt"`
	Files     []FileEntry `json:"files"`
}

// Manager owns the checkpoint directory and the in-memory last-known state
// used to compute incremental diffs.
type Manager struct {
	mu       sync.Mutex
	root     string // <session root>/checkpoints
	lastHash map[string]string // path -> sha256 of last captured content
	logger   *zap.Logger
	count    int
	maxKeep  int
}

// NewManager creates (if needed) the checkpoint directory tree.
func NewManager(root string, maxKeep int, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxKeep <= 0 {
		maxKeep = 50
	}
	if err := os.MkdirAll(filepath.Join(root, "content"), 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint: mkdir: %w", err)
	}
	return &Manager{root: root, lastHash: map[string]string{}, logger: logger, maxKeep: maxKeep}, nil
}

// Snapshot captures the current state of paths before a mutating tool runs,
// diffed incrementally against the last known content hash per path.
func (m *Manager) Snapshot(ctx context.Context, paths []string, kind string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]FileEntry, 0, len(paths))
	for _, p := range paths {
		entry, hash, err := m.captureFile(p)
		if err != nil {
			return "", err
		}
		if entry.Existed && m.lastHash[p] == hash {
			entry.Kind = ChangeUnchanged
		}
		entries = append(entries, entry)
		if entry.Existed {
			m.lastHash[p] = hash
		} else {
			delete(m.lastHash, p)
		}
	}

	cp := Checkpoint{ID: uuid.NewString(), Kind: kind, CreatedAt: time.Now(), Files: entries}
	if err := m.persist(cp); err != nil {
		return "", err
	}
	m.count++
	if m.count%10 == 0 {
		m.gc()
	}
	return cp.ID, nil
}

func (m *Manager) captureFile(path string) (FileEntry, string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return FileEntry{Path: path, Kind: ChangeCreated, Existed: false}, "", nil
	}
	if err != nil {
		return FileEntry{}, "", fmt.Errorf("checkpoint: read %s: %w", path, err)
	}
	info, statErr := os.Stat(path)
	var mode os.FileMode
	if statErr == nil {
		mode = info.Mode()
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	entry := FileEntry{Path: path, Kind: ChangeModified, Existed: true, Mode: mode, Hash: hash}
	if len(data) <= inlineThreshold {
		entry.Inline = data
	} else if err := m.writeContentAddressed(hash, data); err != nil {
		return FileEntry{}, "", err
	}
	return entry, hash, nil
}

func (m *Manager) contentPath(hash string) string {
	return filepath.Join(m.root, "content", hash+".dat")
}

func (m *Manager) writeContentAddressed(hash string, data []byte) error {
	dst := m.contentPath(hash)
	if fsext.Exists(dst) {
		return nil // already pooled
	}
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("checkpoint: create pool entry: %w", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("checkpoint: zstd writer: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return fmt.Errorf("checkpoint: zstd write: %w", err)
	}
	return enc.Close()
}

func (m *Manager) readContentAddressed(hash string) ([]byte, error) {
	f, err := os.Open(m.contentPath(hash))
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open pool entry: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: zstd reader: %w", err)
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

func (m *Manager) persist(cp Checkpoint) error {
	b, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: marshal: %w", err)
	}
	return os.WriteFile(filepath.Join(m.root, cp.ID+".json"), b, 0o644)
}

func (m *Manager) load(id string) (Checkpoint, error) {
	b, err := os.ReadFile(filepath.Join(m.root, id+".json"))
	if err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: read %s: %w", id, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(b, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint: parse %s: %w", id, err)
	}
	return cp, nil
}

// Restore applies the reverse diff of checkpoint id: files marked Created
// are deleted, Deleted files are re-created, Modified files are restored to
// their prior content. Each file is restored atomically (write to a temp
// file then rename); the overall restore is best-effort, not cross-file
// transactional.
func (m *Manager) Restore(ctx context.Context, id string) error {
	cp, err := m.load(id)
	if err != nil {
		return err
	}

	var firstErr error
	for _, entry := range cp.Files {
		if entry.Existed {
			if current, readErr := os.ReadFile(entry.Path); readErr == nil {
				m.logger.Info("checkpoint_restore_file",
					zap.String("path", fsext.PrettyPath(entry.Path)), zap.String("diff", DescribeChange(current, entry.Inline)))
			}
		}
		if err := m.restoreFile(entry); err != nil && firstErr == nil {
			firstErr = err
			m.logger.Warn("checkpoint_restore_file_failed", zap.String("path", entry.Path), zap.Error(err))
		}
	}
	return firstErr
}

func (m *Manager) restoreFile(entry FileEntry) error {
	if !entry.Existed {
		// file was created by the mutation; reverse = delete it.
		if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("checkpoint: remove %s: %w", entry.Path, err)
		}
		return nil
	}

	content := entry.Inline
	if content == nil && entry.Hash != "" {
		data, err := m.readContentAddressed(entry.Hash)
		if err != nil {
			return err
		}
		content = data
	}

	mode := entry.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := os.MkdirAll(filepath.Dir(entry.Path), 0o755); err != nil {
		return fmt.Errorf("checkpoint: mkdir for restore: %w", err)
	}
	tmp := entry.Path + ".restore.tmp"
	if err := os.WriteFile(tmp, content, mode); err != nil {
		return fmt.Errorf("checkpoint: write temp restore file: %w", err)
	}
	return os.Rename(tmp, entry.Path)
}

// GC deletes the oldest checkpoints past maxKeep. Snapshot already runs it
// inline every tenth call; a cron sweep (cmd/warp serve) calls it directly
// so an idle session's checkpoint directory doesn't grow unbounded between
// mutating tool calls.
func (m *Manager) GC() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gc()
}

// gc deletes the oldest checkpoints past maxKeep, keyed by file mtime.
func (m *Manager) gc() {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return
	}
	type named struct {
		name    string
		modTime time.Time
	}
	var cps []named
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		cps = append(cps, named{name: e.Name(), modTime: info.ModTime()})
	}
	if len(cps) <= m.maxKeep {
		return
	}
	sort.Slice(cps, func(i, j int) bool { return cps[i].modTime.Before(cps[j].modTime) })
	for _, c := range cps[:len(cps)-m.maxKeep] {
		_ = os.Remove(filepath.Join(m.root, c.name))
	}
}
