/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// language=SQL
// dialect=SQLite
const insertSourceSnapshotSQL = `INSERT INTO source_snapshots(script, ts, text) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSourceSnapshotSQL = `SELECT ts, text FROM source_snapshots WHERE script = ? ORDER BY ts DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listSourceSnapshotsSQL = `SELECT ts, text FROM source_snapshots WHERE script = ? ORDER BY ts DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSourceSnapshotsSQL = `DELETE FROM source_snapshots WHERE script = ? AND id NOT IN (
	SELECT id FROM source_snapshots WHERE script = ? ORDER BY ts DESC LIMIT ?
)`

// SourceSnapshot is one captured revision of a script's raw text.
type SourceSnapshot struct {
	Script string
	TS     time.Time
	Text   string
}

// SaveSourceSnapshot persists a script's raw source text with a timestamp.
// The index database is ephemeral and derived; this history is meant for change
// tracking across re-imports, not canonical storage.
func SaveSourceSnapshot(ctx context.Context, h *CorpusHandle, script, text string, ts time.Time) error {
	if h == nil {
		return errors.New("nil CorpusHandle")
	}
	// Open or init index DB
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertSourceSnapshotSQL, script, ts.UTC().Format(time.RFC3339Nano), text)
	return err
}

// GetLatestSourceSnapshot returns the latest snapshot text and timestamp for a
// script, or empty values if none exists.
func GetLatestSourceSnapshot(ctx context.Context, h *CorpusHandle, script string) (string, time.Time, error) {
	if h == nil {
		return "", time.Time{}, errors.New("nil CorpusHandle")
	}
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return "", time.Time{}, err
	}
	defer func() { _ = db.Close() }()
	var tsStr string
	var txt string
	err = db.QueryRowContext(ctx, selectLatestSourceSnapshotSQL, script).Scan(&tsStr, &txt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return txt, time.Time{}, nil
	}
	return txt, ts, nil
}

// ListSourceSnapshots returns up to limit most recent snapshots of one script.
func ListSourceSnapshots(ctx context.Context, h *CorpusHandle, script string, limit int) ([]SourceSnapshot, error) {
	if h == nil {
		return nil, errors.New("nil CorpusHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listSourceSnapshotsSQL, script, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []SourceSnapshot
	for rows.Next() {
		var tsStr string
		var txt string
		if err := rows.Scan(&tsStr, &txt); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, SourceSnapshot{Script: script, TS: ts, Text: txt})
	}
	return out, rows.Err()
}

// PruneOldSourceSnapshots keeps at most keepLast snapshots of one script and
// deletes older ones.
func PruneOldSourceSnapshots(ctx context.Context, h *CorpusHandle, script string, keepLast int) (int64, error) {
	if h == nil {
		return 0, errors.New("nil CorpusHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldSourceSnapshotsSQL, script, script, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
