/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Query describes the in-corpus search request.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Filters are optional. Type restricts to one element kind (SCENE, CHARACTER,
// DIALOGUE, ACTION); Character matches the attributed speaker; Scene matches
// the owning scene heading by substring; Script restricts to one script name.
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type Query struct {
	Text      string
	Type      string
	Character string
	Scene     string
	Script    string
	Limit     int
	Offset    int
}

// Result represents a single match row.
// Snippet is an optional highlighted excerpt using [ ] markers when FTS text is used.
// Scene and Speaker are empty when the element carries neither.
type Result struct {
	ElemID  int64
	Script  string
	Seq     int
	Type    string
	Scene   string
	Speaker string
	Text    string
	Snippet string
}

// Search performs full-text search with optional filters over the embedded index.
// When q.Text is empty, it falls back to a non-FTS scan over elements with filters applied.
func Search(ctx context.Context, corpusRoot string, q Query) ([]Result, error) {
	if strings.TrimSpace(corpusRoot) == "" {
		return nil, errors.New("corpus root is required")
	}
	db, err := InitOrOpenIndex(corpusRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q Query) ([]Result, error) {
	// Build dynamic SQL
	var args []any
	var sb strings.Builder
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		sb.WriteString("SELECT e.elem_id, e.script, e.seq, e.type, e.scene, e.speaker, e.text, snippet(fts_elements, 0, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_elements JOIN elements e ON fts_elements.rowid = e.elem_id\n")
		sb.WriteString("WHERE fts_elements MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT e.elem_id, e.script, e.seq, e.type, e.scene, e.speaker, e.text, ''\n")
		sb.WriteString("FROM elements e\nWHERE 1=1\n")
	}
	// Filters
	if s := strings.TrimSpace(q.Type); s != "" {
		sb.WriteString(" AND e.type = ?\n")
		args = append(args, strings.ToUpper(s))
	}
	if s := strings.TrimSpace(q.Script); s != "" {
		sb.WriteString(" AND e.script = ?\n")
		args = append(args, s)
	}
	// Character filter: the speaker column carries the attributed cue name
	if s := strings.TrimSpace(q.Character); s != "" {
		sb.WriteString(" AND (e.speaker IS NOT NULL AND lower(e.speaker) = ?)\n")
		args = append(args, strings.ToLower(s))
	}
	// Scene filter: substring match against the owning heading
	if s := strings.TrimSpace(q.Scene); s != "" {
		sb.WriteString(" AND (e.scene IS NOT NULL AND lower(e.scene) LIKE ?)\n")
		args = append(args, likeContains(strings.ToLower(s)))
	}
	// Order and pagination
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("ORDER BY e.script, e.seq\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []Result
	for rows.Next() {
		var r Result
		var scene, speaker, sn sql.NullString
		if err := rows.Scan(&r.ElemID, &r.Script, &r.Seq, &r.Type, &scene, &speaker, &r.Text, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if scene.Valid {
			r.Scene = scene.String
		}
		if speaker.Valid {
			r.Speaker = speaker.String
		}
		if sn.Valid {
			r.Snippet = sn.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CharacterLines returns the dialogue spoken by one character, in script order.
// Script may be empty to search the whole corpus.
func CharacterLines(ctx context.Context, corpusRoot, script, character string, limit, offset int) ([]Result, error) {
	if strings.TrimSpace(character) == "" {
		return nil, errors.New("character is required")
	}
	return Search(ctx, corpusRoot, Query{
		Type:      "DIALOGUE",
		Character: character,
		Script:    script,
		Limit:     limit,
		Offset:    offset,
	})
}

// SceneList returns the distinct scene headings of one script, in first-seen order.
func SceneList(ctx context.Context, corpusRoot, script string) ([]string, error) {
	if strings.TrimSpace(script) == "" {
		return nil, errors.New("script is required")
	}
	db, err := InitOrOpenIndex(corpusRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	q := `SELECT text FROM elements
		WHERE script = ? AND type = 'SCENE'
		ORDER BY seq`
	rows, err := db.QueryContext(ctx, q, script)
	if err != nil {
		return nil, fmt.Errorf("scene list query: %w", err)
	}
	defer rows.Close()
	var out []string
	seen := make(map[string]bool)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, rows.Err()
}

func likeContains(s string) string { return "%" + s + "%" }
