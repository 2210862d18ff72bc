/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package backend

import (
	"strings"
	"testing"
	"time"
)

func TestTokenRoundtrip(t *testing.T) {
	tok, err := signToken("s3cret", "archivist", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sub, err := verifyToken("s3cret", tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "archivist" {
		t.Fatalf("subject = %q, want archivist", sub)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	tok, err := signToken("s3cret", "archivist", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := verifyToken("other", tok); err == nil {
		t.Fatalf("expected bad signature error")
	}
}

func TestTokenRejectsTampering(t *testing.T) {
	tok, err := signToken("s3cret", "archivist", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	parts := strings.Split(tok, ".")
	if len(parts) != 2 {
		t.Fatalf("unexpected token shape: %s", tok)
	}
	mangled := parts[0] + "x." + parts[1]
	if _, err := verifyToken("s3cret", mangled); err == nil {
		t.Fatalf("expected error for tampered payload")
	}
	if _, err := verifyToken("s3cret", "not-a-token"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	tok, err := signToken("s3cret", "archivist", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := verifyToken("s3cret", tok); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestParseVersion(t *testing.T) {
	cases := []struct {
		name    string
		want    int64
		wantErr bool
	}{
		{"0001_init.sql", 1, false},
		{"0002_search.sql", 2, false},
		{"10_big.sql", 10, false},
		{"init.sql", 0, true},
	}
	for _, c := range cases {
		got, err := parseVersion(c.name)
		if c.wantErr {
			if err == nil {
				t.Fatalf("parseVersion(%q): expected error", c.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseVersion(%q): %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("parseVersion(%q) = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestEmbeddedMigrationsWellFormed(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("no embedded migrations")
	}
	seen := map[int64]bool{}
	for _, e := range entries {
		v, err := parseVersion(e.Name())
		if err != nil {
			t.Fatalf("bad migration name %s: %v", e.Name(), err)
		}
		if seen[v] {
			t.Fatalf("duplicate migration version %d", v)
		}
		seen[v] = true
		b, err := migrationsFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		if len(b) == 0 {
			t.Fatalf("empty migration %s", e.Name())
		}
	}
	if !seen[1] {
		t.Fatalf("missing base migration 0001")
	}
}
