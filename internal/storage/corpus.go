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
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"slugline/internal/domain"
)

const (
	ManifestFileName = "corpus.json"
	BackupsDirName   = "backups"
	ScriptsDirName   = "scripts"
	ProcessedDirName = "processed"
	ExportsDirName   = "exports"
)

// Standard subfolders of a corpus directory.
var standardSubDirs = []string{
	ScriptsDirName,
	ProcessedDirName,
	ExportsDirName,
	BackupsDirName,
}

// CorpusHandle keeps track of the corpus state loaded/saved from disk.
// Root is the corpus directory containing corpus.json and subfolders.
// Corpus holds the in-memory representation of the manifest.
type CorpusHandle struct {
	Root         string
	ManifestPath string
	Corpus       domain.Corpus
}

// InitCorpus creates a new corpus directory at root (creating it if it doesn't
// exist), scaffolds the standard subfolders, and writes the given manifest
// file transactionally.
func InitCorpus(root string, c domain.Corpus) (*CorpusHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create corpus root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	if c.Scripts == nil {
		c.Scripts = []domain.ScriptRef{}
	}

	h := &CorpusHandle{
		Root:         root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		Corpus:       c,
	}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open loads an existing corpus from the given root directory.
// If the current manifest cannot be read or parsed, it will attempt last backup.
func Open(root string) (*CorpusHandle, error) {
	mpath := filepath.Join(root, ManifestFileName)
	b, err := os.ReadFile(mpath)
	if err != nil {
		c, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
		}
		return &CorpusHandle{Root: root, ManifestPath: mpath, Corpus: *c}, nil
	}
	var c domain.Corpus
	if uerr := json.Unmarshal(b, &c); uerr != nil {
		bc, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("parse manifest: %w; backup attempt: %v", uerr, berr)
		}
		return &CorpusHandle{Root: root, ManifestPath: mpath, Corpus: *bc}, nil
	}
	return &CorpusHandle{Root: root, ManifestPath: mpath, Corpus: c}, nil
}

// Save writes the current CorpusHandle.Corpus to disk with transactional
// semantics and a timestamped backup of the previous manifest (if present).
func Save(h *CorpusHandle) error {
	if h == nil {
		return errors.New("nil CorpusHandle")
	}
	if h.Root == "" || h.ManifestPath == "" {
		return errors.New("invalid CorpusHandle: missing paths")
	}
	// Marshal in human-readable form
	data, err := json.MarshalIndent(h.Corpus, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	// If a current manifest exists, copy it to a timestamped backup before replacing
	if _, statErr := os.Stat(h.ManifestPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bname := fmt.Sprintf("%s.%s.bak", ManifestFileName, stamp)
		bpath := filepath.Join(bdir, bname)
		if cerr := copyFile(h.ManifestPath, bpath); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	dir := filepath.Dir(h.ManifestPath)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", ManifestFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp manifest: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(h.ManifestPath); err == nil {
		_ = os.Remove(h.ManifestPath)
	}
	if rerr := os.Rename(temp, h.ManifestPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace manifest: %w", rerr)
	}
	return nil
}

// SaveAs writes the manifest to a new root folder, scaffolding structure if
// needed, and updates the handle.
func SaveAs(h *CorpusHandle, newRoot string) error {
	if h == nil {
		return errors.New("nil CorpusHandle")
	}
	if newRoot == "" {
		return errors.New("new root is empty")
	}
	if err := os.MkdirAll(newRoot, 0o755); err != nil {
		return fmt.Errorf("create new root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(newRoot, d), 0o755); err != nil {
			return fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	h.Root = newRoot
	h.ManifestPath = filepath.Join(newRoot, ManifestFileName)
	return Save(h)
}

// FindScript returns the manifest entry for name, or nil if the corpus does
// not track it.
func (h *CorpusHandle) FindScript(name string) *domain.ScriptRef {
	for i := range h.Corpus.Scripts {
		if h.Corpus.Scripts[i].Name == name {
			return &h.Corpus.Scripts[i]
		}
	}
	return nil
}

// UpsertScript records ref in the manifest, replacing a previous entry with
// the same name. The manifest keeps scripts sorted by name.
func (h *CorpusHandle) UpsertScript(ref domain.ScriptRef) {
	for i := range h.Corpus.Scripts {
		if h.Corpus.Scripts[i].Name == ref.Name {
			h.Corpus.Scripts[i] = ref
			return
		}
	}
	h.Corpus.Scripts = append(h.Corpus.Scripts, ref)
	sort.Slice(h.Corpus.Scripts, func(i, j int) bool {
		return h.Corpus.Scripts[i].Name < h.Corpus.Scripts[j].Name
	})
}

// ImportSource copies a source document into the corpus scripts folder and
// returns its corpus-relative path. An existing file of the same base name is
// overwritten.
func ImportSource(h *CorpusHandle, srcPath string) (string, error) {
	if h == nil {
		return "", errors.New("nil CorpusHandle")
	}
	base := filepath.Base(srcPath)
	rel := filepath.Join(ScriptsDirName, base)
	if err := copyFile(srcPath, filepath.Join(h.Root, rel)); err != nil {
		return "", fmt.Errorf("import source: %w", err)
	}
	return rel, nil
}

// AutosaveCrashSnapshot writes the in-memory manifest to the backups folder
// without touching corpus.json. Used by the crash handler, where replacing
// the live manifest would be riskier than leaving a snapshot beside it.
func AutosaveCrashSnapshot(h *CorpusHandle) (string, error) {
	if h == nil {
		return "", errors.New("nil CorpusHandle")
	}
	data, err := json.MarshalIndent(h.Corpus, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')
	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(bdir, fmt.Sprintf("autosave-%s.json", stamp))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write autosave: %w", err)
	}
	return path, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	if err := df.Sync(); err != nil {
		return err
	}
	return nil
}

// openFromLatestBackup tries to open the latest timestamped backup.
func openFromLatestBackup(root string) (*domain.Corpus, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	var c domain.Corpus
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse latest backup: %w", err)
	}
	return &c, nil
}
