/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"slugline/internal/storage"
)

// SearchPG executes a search over the published elements table using tsvector
// and filters, and returns results mapped to storage.Result so parity with the
// embedded SQLite search can be checked directly.
func SearchPG(ctx context.Context, db *sql.DB, screenplayID int64, q storage.Query) ([]storage.Result, error) {
	var (
		args []any
		b    strings.Builder
	)
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		b.WriteString("SELECT e.id, s.name, e.seq, e.type, COALESCE(e.scene,''), COALESCE(e.speaker,''), e.text, ")
		b.WriteString("COALESCE(ts_headline('simple', e.text, plainto_tsquery('simple', $1), 'StartSel=[, StopSel=], MaxFragments=1, MaxWords=12'), '') AS snippet ")
		b.WriteString("FROM elements e JOIN screenplays s ON s.id = e.screenplay_id ")
		b.WriteString("WHERE e.screenplay_id = $2 AND e.search_vector @@ plainto_tsquery('simple', $1) ")
		args = append(args, q.Text, screenplayID)
	} else {
		b.WriteString("SELECT e.id, s.name, e.seq, e.type, COALESCE(e.scene,''), COALESCE(e.speaker,''), e.text, '' AS snippet ")
		b.WriteString("FROM elements e JOIN screenplays s ON s.id = e.screenplay_id ")
		b.WriteString("WHERE e.screenplay_id = $1 ")
		args = append(args, screenplayID)
	}

	// Helper to add parameter and return placeholder like $n
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if s := strings.TrimSpace(q.Type); s != "" {
		b.WriteString(" AND e.type = " + place(strings.ToUpper(s)) + " ")
	}
	if s := strings.TrimSpace(q.Script); s != "" {
		b.WriteString(" AND s.name = " + place(s) + " ")
	}
	if s := strings.TrimSpace(q.Character); s != "" {
		b.WriteString(" AND (e.speaker IS NOT NULL AND lower(e.speaker) = " + place(strings.ToLower(s)) + ") ")
	}
	if s := strings.TrimSpace(q.Scene); s != "" {
		b.WriteString(" AND (e.scene IS NOT NULL AND lower(e.scene) LIKE " + place("%"+strings.ToLower(s)+"%") + ") ")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(" ORDER BY e.seq ")
	b.WriteString(" LIMIT " + place(limit) + " OFFSET " + place(offset))

	rows, err := db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search pg query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []storage.Result
	for rows.Next() {
		var r storage.Result
		if err := rows.Scan(&r.ElemID, &r.Script, &r.Seq, &r.Type, &r.Scene, &r.Speaker, &r.Text, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
