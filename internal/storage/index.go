/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "slugline/internal/log"
	"slugline/internal/screenplay"
	"slugline/internal/version"

	"log/slog"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores all per-corpus ephemeral/index data under the corpus root.
	IndexDirName  = ".slg"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// IndexPath returns the full path to the corpus's embedded index database file.
func IndexPath(corpusRoot string) string {
	return filepath.Join(corpusRoot, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures that the per-corpus SQLite index exists at .slg/index.sqlite,
// opens the database, enables WAL mode, and ensures the meta/version tables exist.
// The returned *sql.DB is ready for use. Callers may close it when no longer needed.
func InitOrOpenIndex(corpusRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", corpusRoot),
	)
	if strings.TrimSpace(corpusRoot) == "" {
		return nil, errors.New("corpus root is required")
	}
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Join(corpusRoot, IndexDirName), 0o755); err != nil {
		l.Error("create .slg dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .slg dir: %w", err)
	}

	path := IndexPath(corpusRoot)
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	uriPath := filepath.ToSlash(path)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Set reasonable connection pool limits for embedded usage.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Ensure WAL mode is active.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	// Enforce foreign keys just in case future schema uses them.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}

	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	// Ensure core index schema exists (elements, FTS, source snapshots)
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	// Run migrations to bring DB schema up to date
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	// Create tables if not exist
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	// Seed or update single-row version info
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	// Check if a version row exists
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Insert new row with current schemaVersion for a fresh DB
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Update app and timestamp only; keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Do not downgrade; just log and continue
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			// Add speaker/scene lookup indexes and rebuild the FTS table as
			// external content. v1 kept it contentless, which left snippet()
			// without row text to excerpt.
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_elements_speaker ON elements(speaker);`,
				`CREATE INDEX IF NOT EXISTS idx_elements_scene ON elements(scene);`,
				`DROP TABLE IF EXISTS fts_elements;`,
				`CREATE VIRTUAL TABLE fts_elements USING fts5(
					text,
					content='elements',
					content_rowid='elem_id',
					tokenize = 'unicode61'
				);`,
				`INSERT INTO fts_elements(fts_elements) VALUES('rebuild');`,
			}
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
			// Best-effort FTS optimize (outside the tx)
			if _, err := db.ExecContext(ctx, `INSERT INTO fts_elements(fts_elements) VALUES('optimize')`); err != nil {
				// best-effort optimize; ignore errors
			}
		default:
			// Unknown future step; break
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates core index tables and FTS structures if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// Core elements table: one row per typed screenplay element per script.
		`CREATE TABLE IF NOT EXISTS elements (
			elem_id  INTEGER PRIMARY KEY,
			script   TEXT    NOT NULL,
			seq      INTEGER NOT NULL,
			type     TEXT    NOT NULL,
			scene    TEXT,
			speaker  TEXT,
			text     TEXT    NOT NULL
		);`,
		// Helpful indices for lookup
		`CREATE INDEX IF NOT EXISTS idx_elements_script ON elements(script);`,
		`CREATE INDEX IF NOT EXISTS idx_elements_type ON elements(type);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_elements_script_seq ON elements(script, seq);`,

		// FTS5 index fed from elements via triggers. External content keeps
		// the token index small while snippet() can still read the row text.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_elements USING fts5(
			text,
			content='elements',
			content_rowid='elem_id',
			tokenize = 'unicode61'
		);`,

		// Source snapshots (history of raw script text for change tracking)
		`CREATE TABLE IF NOT EXISTS source_snapshots (
			id     INTEGER PRIMARY KEY,
			script TEXT    NOT NULL,
			ts     TEXT    NOT NULL,
			text   TEXT    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_source_snapshots_script_ts ON source_snapshots(script, ts);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	// Triggers for contentless FTS synchronization with elements.text
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS elements_ai AFTER INSERT ON elements BEGIN
			INSERT INTO fts_elements(rowid, text) VALUES (new.elem_id, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS elements_ad AFTER DELETE ON elements BEGIN
			INSERT INTO fts_elements(fts_elements, rowid, text) VALUES ('delete', old.elem_id, old.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS elements_au AFTER UPDATE OF text ON elements BEGIN
			INSERT INTO fts_elements(fts_elements, rowid, text) VALUES ('delete', old.elem_id, old.text);
			INSERT INTO fts_elements(rowid, text) VALUES (new.elem_id, new.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// UpdateScriptElements replaces the indexed rows for one script with the given
// element stream. The speaker column is carried over from CHARACTER cues so
// dialogue rows can be filtered by who speaks them.
func UpdateScriptElements(ctx context.Context, corpusRoot, script string, els []screenplay.Element) error {
	db, err := InitOrOpenIndex(corpusRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	return indexScriptElements(ctx, db, script, els)
}

func indexScriptElements(ctx context.Context, db *sql.DB, script string, els []screenplay.Element) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM elements WHERE script=?;", script); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear script elements: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO elements(script, seq, type, scene, speaker, text) VALUES(?,?,?,?,?,?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	var speaker sql.NullString
	for seq, el := range els {
		scene := sql.NullString{}
		if el.Scene != nil {
			scene = sql.NullString{String: *el.Scene, Valid: true}
		}
		row := sql.NullString{}
		switch el.Type {
		case screenplay.ElementCharacter:
			speaker = sql.NullString{String: el.Text, Valid: true}
			row = speaker
		case screenplay.ElementDialogue:
			row = speaker
		default:
			// A scene heading or action block interrupts any open cue.
			speaker = sql.NullString{}
		}
		if _, err := ins.ExecContext(ctx, script, seq, string(el.Type), scene, row, el.Text); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert element: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RemoveScriptFromIndex drops all indexed rows belonging to one script.
func RemoveScriptFromIndex(ctx context.Context, corpusRoot, script string) error {
	db, err := InitOrOpenIndex(corpusRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, "DELETE FROM elements WHERE script=?;", script); err != nil {
		return fmt.Errorf("remove script elements: %w", err)
	}
	return nil
}

// RebuildIndex drops and recreates the element tables and rebuilds content from
// the processed element files. It preserves meta/version and the source snapshot
// history. This is a safe operation; the element rows are derived entirely from
// processed/*.json.
func RebuildIndex(ctx context.Context, h *CorpusHandle) error {
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return err
	}
	defer db.Close()
	// Drop core tables inside a transaction and recreate schema
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// source_snapshots is kept: unlike the element rows it is not derivable
	// from processed/*.json.
	drops := []string{
		"DROP TRIGGER IF EXISTS elements_ai;",
		"DROP TRIGGER IF EXISTS elements_ad;",
		"DROP TRIGGER IF EXISTS elements_au;",
		"DROP TABLE IF EXISTS elements;",
		"DROP TABLE IF EXISTS fts_elements;",
	}
	for _, q := range drops {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("drop commit: %w", err)
	}
	// Recreate schema and populate
	if err := ensureIndexSchema(ctx, db); err != nil {
		return err
	}
	return rebuildElementsFromProcessed(ctx, db, h)
}

// BuildIndexIfEmpty ensures the DB exists and, if the elements table is empty,
// populates it from the processed element files.
func BuildIndexIfEmpty(ctx context.Context, h *CorpusHandle) error {
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		return err
	}
	defer db.Close()
	// Check if elements has any rows
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM elements;").Scan(&cnt); err != nil {
		return fmt.Errorf("check elements count: %w", err)
	}
	if cnt > 0 {
		return nil // already built
	}
	return rebuildElementsFromProcessed(ctx, db, h)
}

// DetectAndRebuildIndex checks for corruption or missing schema and rebuilds the index if needed.
// It returns true when a rebuild was performed.
func DetectAndRebuildIndex(ctx context.Context, h *CorpusHandle) (bool, error) {
	path := IndexPath(h.Root)
	// Try to open DB; if fails, attempt backup+delete+rebuild
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		backupIndexFile(path)
		_ = os.Remove(path)
		if rbErr := RebuildIndex(ctx, h); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	needs := false
	// quick_check for corruption
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	// Probe core table
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM elements LIMIT 1;`); err != nil {
			needs = true
		}
	}
	_ = db.Close()
	if !needs {
		return false, nil
	}
	// Backup and remove existing DB file
	backupIndexFile(path)
	_ = os.Remove(path)
	// Rebuild
	if err := RebuildIndex(ctx, h); err != nil {
		return false, err
	}
	return true, nil
}

// backupIndexFile copies the current index file into a timestamped backup in .slg/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

// rebuildElementsFromProcessed replaces the elements table content from the
// corpus's processed element files.
func rebuildElementsFromProcessed(ctx context.Context, db *sql.DB, h *CorpusHandle) error {
	names, err := ListProcessed(h)
	if err != nil {
		return fmt.Errorf("list processed: %w", err)
	}
	for _, name := range names {
		els, err := ReadElements(h, name)
		if err != nil {
			return fmt.Errorf("read elements %s: %w", name, err)
		}
		if err := indexScriptElements(ctx, db, name, els); err != nil {
			return fmt.Errorf("index %s: %w", name, err)
		}
	}
	return nil
}
