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
	"testing"
	"time"

	"slugline/internal/domain"
	"slugline/internal/screenplay"
)

func seedProcessedCorpus(t *testing.T) (*CorpusHandle, int) {
	t.Helper()
	root := t.TempDir()
	h, err := InitCorpus(root, domain.Corpus{Name: "Indexed"})
	if err != nil {
		t.Fatalf("InitCorpus: %v", err)
	}
	a := screenplay.Process([]string{
		"INT. HANGAR - DAY",
		"",
		"WEDGE",
		"Look at the size of that thing!",
	})
	b := screenplay.Process([]string{
		"EXT. DAGOBAH - SWAMP",
		"",
		"The X-wing sinks deeper into the bog.",
	})
	if err := WriteElements(h, "a_new_hope", a); err != nil {
		t.Fatalf("WriteElements a: %v", err)
	}
	if err := WriteElements(h, "empire", b); err != nil {
		t.Fatalf("WriteElements b: %v", err)
	}
	return h, len(a) + len(b)
}

func countElements(t *testing.T, h *CorpusHandle) int {
	t.Helper()
	db, err := InitOrOpenIndex(h.Root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex: %v", err)
	}
	defer db.Close()
	var cnt int
	if err := db.QueryRow(`SELECT COUNT(*) FROM elements`).Scan(&cnt); err != nil {
		t.Fatalf("count elements: %v", err)
	}
	return cnt
}

func TestBuildIndexIfEmptyPopulatesFromProcessed(t *testing.T) {
	h, total := seedProcessedCorpus(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := BuildIndexIfEmpty(ctx, h); err != nil {
		t.Fatalf("BuildIndexIfEmpty: %v", err)
	}
	if got := countElements(t, h); got != total {
		t.Fatalf("expected %d indexed elements, got %d", total, got)
	}

	// Second call is a no-op on a populated index
	if err := BuildIndexIfEmpty(ctx, h); err != nil {
		t.Fatalf("BuildIndexIfEmpty (again): %v", err)
	}
	if got := countElements(t, h); got != total {
		t.Fatalf("repeat build changed row count: got %d want %d", got, total)
	}
}

func TestRebuildIndexKeepsSourceSnapshots(t *testing.T) {
	h, total := seedProcessedCorpus(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := BuildIndexIfEmpty(ctx, h); err != nil {
		t.Fatalf("BuildIndexIfEmpty: %v", err)
	}
	when := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	if err := SaveSourceSnapshot(ctx, h, "a_new_hope", "raw text v1", when); err != nil {
		t.Fatalf("SaveSourceSnapshot: %v", err)
	}

	if err := RebuildIndex(ctx, h); err != nil {
		t.Fatalf("RebuildIndex: %v", err)
	}
	if got := countElements(t, h); got != total {
		t.Fatalf("expected %d indexed elements after rebuild, got %d", total, got)
	}
	txt, ts, err := GetLatestSourceSnapshot(ctx, h, "a_new_hope")
	if err != nil {
		t.Fatalf("GetLatestSourceSnapshot: %v", err)
	}
	if txt != "raw text v1" || !ts.Equal(when) {
		t.Fatalf("snapshot history lost across rebuild: %q %v", txt, ts)
	}
}
