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

// Package trajectory is the optional, rebuildable SQLite index of past
// sessions SPEC_FULL.md §3.1 describes: a denormalized TrajectoryRecord per
// session backing the `sessions list` CLI verb. The journal
// (pkg/session.Recorder) remains the source of truth; this index exists so
// listing sessions doesn't require replaying every journal on every
// invocation. It registers against the "sqlite3" driver name that
// internal/sqlitedriver's build-tag-gated init() installs (modernc.org/sqlite
// without cgo, mutecomm/go-sqlcipher/v4 with cgo, for encryption at rest).
package trajectory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/warpcore/warp/internal/sqlitedriver"
	"github.com/warpcore/warp/pkg/types"
)

// Record is one denormalized row over a completed or in-flight session.
type Record struct {
	SessionID       string
	StartedAt       time.Time
	EndedAt         time.Time
	OutcomeKind     string
	TotalUsage      types.TokenUsage
	TaskDescription string
}

const schema = `
CREATE TABLE IF NOT EXISTS trajectories (
	session_id       TEXT PRIMARY KEY,
	started_at       TIMESTAMP NOT NULL,
	ended_at         TIMESTAMP,
	outcome_kind     TEXT NOT NULL DEFAULT '',
	task_description TEXT NOT NULL DEFAULT '',
	input_tokens     INTEGER NOT NULL DEFAULT 0,
	output_tokens    INTEGER NOT NULL DEFAULT 0,
	cache_read       INTEGER NOT NULL DEFAULT 0,
	cache_write      INTEGER NOT NULL DEFAULT 0,
	cost_estimate    REAL NOT NULL DEFAULT 0
);
`

// Index owns the trajectory database handle.
type Index struct {
	db *sql.DB
}

// Open creates (if needed) the trajectory database at path and ensures its
// schema exists. cmd/warp passes trajectory.db under the resolved data
// directory.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("trajectory: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("trajectory: migrate schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Upsert records or updates rec, keyed by SessionID: a session is appended
// once at start (EndedAt zero) and updated again on terminal Outcome.
func (ix *Index) Upsert(ctx context.Context, rec Record) error {
	_, err := ix.db.ExecContext(ctx, `
		INSERT INTO trajectories (session_id, started_at, ended_at, outcome_kind, task_description,
			input_tokens, output_tokens, cache_read, cache_write, cost_estimate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			ended_at = excluded.ended_at,
			outcome_kind = excluded.outcome_kind,
			input_tokens = excluded.input_tokens,
			output_tokens = excluded.output_tokens,
			cache_read = excluded.cache_read,
			cache_write = excluded.cache_write,
			cost_estimate = excluded.cost_estimate
	`, rec.SessionID, rec.StartedAt, nullableTime(rec.EndedAt), rec.OutcomeKind, rec.TaskDescription,
		rec.TotalUsage.Input, rec.TotalUsage.Output, rec.TotalUsage.CacheRead, rec.TotalUsage.CacheWrite, rec.TotalUsage.CostEstimate)
	if err != nil {
		return fmt.Errorf("trajectory: upsert %s: %w", rec.SessionID, err)
	}
	return nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// List returns the most recently started sessions, newest first, up to limit
// (0 means unlimited).
func (ix *Index) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT session_id, started_at, ended_at, outcome_kind, task_description,
		input_tokens, output_tokens, cache_read, cache_write, cost_estimate
		FROM trajectories ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := ix.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("trajectory: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var endedAt sql.NullTime
		if err := rows.Scan(&rec.SessionID, &rec.StartedAt, &endedAt, &rec.OutcomeKind, &rec.TaskDescription,
			&rec.TotalUsage.Input, &rec.TotalUsage.Output, &rec.TotalUsage.CacheRead, &rec.TotalUsage.CacheWrite, &rec.TotalUsage.CostEstimate); err != nil {
			return nil, fmt.Errorf("trajectory: scan: %w", err)
		}
		if endedAt.Valid {
			rec.EndedAt = endedAt.Time
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}
