/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"slugline/internal/domain"
)

func TestSaveAsScaffoldsNewRoot(t *testing.T) {
	root := t.TempDir()
	h, err := InitCorpus(root, domain.Corpus{Name: "Orig"})
	if err != nil {
		t.Fatalf("InitCorpus: %v", err)
	}

	// Change corpus and SaveAs to new root
	h.Corpus.Name = "Renamed"
	newRoot := filepath.Join(root, "newcorpus")
	if err := SaveAs(h, newRoot); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if h.Root != newRoot || h.ManifestPath != filepath.Join(newRoot, ManifestFileName) {
		t.Fatalf("CorpusHandle paths not updated: %+v", h)
	}

	// Manifest at new location should reflect updated name
	b, err := os.ReadFile(h.ManifestPath)
	if err != nil {
		t.Fatalf("read new manifest: %v", err)
	}
	var got domain.Corpus
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal new manifest: %v", err)
	}
	if got.Name != "Renamed" {
		t.Fatalf("unexpected corpus name in new manifest: %q", got.Name)
	}

	// Scripts folder should be scaffolded under the new root
	if fi, err := os.Stat(filepath.Join(newRoot, ScriptsDirName)); err != nil || !fi.IsDir() {
		t.Fatalf("expected scripts dir under new root")
	}
}

func TestUpsertScriptReplacesAndSorts(t *testing.T) {
	root := t.TempDir()
	h, err := InitCorpus(root, domain.Corpus{Name: "Upsert"})
	if err != nil {
		t.Fatalf("InitCorpus: %v", err)
	}

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	h.UpsertScript(domain.ScriptRef{Name: "zulu", Source: "scripts/zulu.txt", ProcessedAt: now})
	h.UpsertScript(domain.ScriptRef{Name: "alpha", Source: "scripts/alpha.txt", ProcessedAt: now})
	h.UpsertScript(domain.ScriptRef{Name: "zulu", Source: "scripts/zulu.pdf", ProcessedAt: now})

	if len(h.Corpus.Scripts) != 2 {
		t.Fatalf("expected 2 scripts, got %d", len(h.Corpus.Scripts))
	}
	if h.Corpus.Scripts[0].Name != "alpha" || h.Corpus.Scripts[1].Name != "zulu" {
		t.Fatalf("scripts not sorted by name: %+v", h.Corpus.Scripts)
	}
	if got := h.FindScript("zulu"); got == nil || got.Source != "scripts/zulu.pdf" {
		t.Fatalf("upsert did not replace entry: %+v", got)
	}
	if h.FindScript("nope") != nil {
		t.Fatalf("FindScript should return nil for unknown script")
	}
}

func TestImportSourceCopiesIntoScripts(t *testing.T) {
	root := t.TempDir()
	h, err := InitCorpus(root, domain.Corpus{Name: "Import"})
	if err != nil {
		t.Fatalf("InitCorpus: %v", err)
	}

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "a_new_hope.txt")
	content := "INT. DEATH STAR - DETENTION BLOCK\n"
	if err := os.WriteFile(src, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	rel, err := ImportSource(h, src)
	if err != nil {
		t.Fatalf("ImportSource: %v", err)
	}
	if rel != filepath.Join(ScriptsDirName, "a_new_hope.txt") {
		t.Fatalf("unexpected relative path: %q", rel)
	}
	b, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		t.Fatalf("read imported copy: %v", err)
	}
	if string(b) != content {
		t.Fatalf("imported content mismatch: %q", string(b))
	}
}
