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
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// TestMigrations_UpgradeV1ToV2 ensures that an older DB (schema=1) is migrated to schemaVersion (2) and new indexes exist.
func TestMigrations_UpgradeV1ToV2(t *testing.T) {
	root := t.TempDir()
	idx := IndexPath(root)
	// Ensure .slg directory exists
	if err := os.MkdirAll(filepath.Dir(idx), 0o755); err != nil {
		t.Fatalf("mk .slg: %v", err)
	}
	// Create a minimal v1 database
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(idx))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	// Create minimal schema representing v1: no speaker/scene indexes, and
	// the FTS table still contentless. One element row exists but is not in
	// the FTS index.
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version(id, schema, app, created_at, updated_at) VALUES(1, 1, 'test', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z');`,
		`CREATE TABLE IF NOT EXISTS elements (elem_id INTEGER PRIMARY KEY, script TEXT NOT NULL, seq INTEGER NOT NULL, type TEXT NOT NULL, scene TEXT, speaker TEXT, text TEXT NOT NULL);`,
		`INSERT INTO elements(script, seq, type, scene, speaker, text) VALUES('empire', 0, 'DIALOGUE', NULL, 'HAN', 'Never tell me the odds!');`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_elements USING fts5(text, content='', tokenize='unicode61');`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1 schema: %v (q=%s)", err, q)
		}
	}
	// Close and reopen through InitOrOpenIndex which will run migrations
	db.Close()
	mdb, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex: %v", err)
	}
	defer mdb.Close()
	// Version should be 2
	var schema int
	if err := mdb.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if schema < 2 {
		t.Fatalf("expected schema >= 2 after migration, got %d", schema)
	}
	// Indexes should exist
	var cnt int
	if err := mdb.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name in ('idx_elements_speaker','idx_elements_scene')`).Scan(&cnt); err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("expected speaker/scene indexes after migration, got %d", cnt)
	}
	// The FTS rebuild must have picked up the pre-existing element row.
	var sn string
	err = mdb.QueryRowContext(ctx, `SELECT snippet(fts_elements, 0, '[', ']', '…', 10)
		FROM fts_elements JOIN elements e ON fts_elements.rowid = e.elem_id
		WHERE fts_elements MATCH 'odds'`).Scan(&sn)
	if err != nil {
		t.Fatalf("post-migration fts query: %v", err)
	}
	if sn != "Never tell me the [odds]!" {
		t.Fatalf("post-migration snippet = %q", sn)
	}
}
