/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package bundle

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "slugline/internal/log"
	"slugline/internal/storage"
)

// ManifestName is the human-readable summary file placed at the archive root.
const ManifestName = "bundle.manifest.txt"

// ExportCorpusBundle zips the corpus's scripts and processed directories into a single .zip file.
// The produced archive preserves the directory structure and adds a small manifest file at the root
// named bundle.manifest.txt for quick human inspection.
// If the source directories do not exist or are empty, it still creates the archive with only the manifest.
func ExportCorpusBundle(corpusRoot string, destZipPath string) error {
	l := applog.WithOperation(applog.WithComponent("bundle"), "export").With(slog.String("corpus", corpusRoot))
	if strings.TrimSpace(corpusRoot) == "" {
		return errors.New("corpusRoot is required")
	}
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}

	// Ensure target directory exists
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)
	defer func() { _ = zw.Close() }()

	// Add manifest text
	manifest := fmt.Sprintf("Slugline Corpus Bundle\nCreated: %s\nCorpus: %s\n\nContents mirror the corpus's /scripts and /processed directories.\n",
		time.Now().Format(time.RFC3339), corpusRoot)
	w, err := zw.Create(ManifestName)
	if err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}
	if _, err := w.Write([]byte(manifest)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	// Walk both content folders and add files
	added := 0
	for _, dirName := range []string{storage.ScriptsDirName, storage.ProcessedDirName} {
		dir := filepath.Join(corpusRoot, dirName)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			// Create empty dir semantics
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("ensure %s dir: %w", dirName, err)
			}
		}
		err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(corpusRoot, path)
			if err != nil {
				return err
			}
			// Normalize to forward slashes inside zip
			zipName := filepath.ToSlash(rel)
			fw, err := zw.Create(zipName)
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			if _, err := io.Copy(fw, f); err != nil {
				return err
			}
			added++
			return nil
		})
		if err != nil {
			l.Error("zip build failed", slog.Any("err", err))
			return fmt.Errorf("build zip: %w", err)
		}
	}
	l.Info("corpus bundle exported", slog.Int("files", added), slog.String("zip", destZipPath))
	return nil
}

// InstallBundle extracts the given .zip bundle into the corpus root.
// Existing files are not overwritten; if a file already exists, it is skipped.
// Entries that would climb out of the corpus root are ignored.
// Returns the count of files installed (skipped files are not counted).
func InstallBundle(corpusRoot string, bundleZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("bundle"), "install").With(slog.String("corpus", corpusRoot))
	if strings.TrimSpace(corpusRoot) == "" {
		return 0, errors.New("corpusRoot is required")
	}
	if strings.TrimSpace(bundleZipPath) == "" {
		return 0, errors.New("bundleZipPath is required")
	}
	scriptsDir := filepath.Join(corpusRoot, storage.ScriptsDirName)
	if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure scripts dir: %w", err)
	}

	r, err := zip.OpenReader(bundleZipPath)
	if err != nil {
		return 0, fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		name := f.Name
		// Skip top-level manifest file
		if name == ManifestName {
			continue
		}
		// Rooted names and names with ".." elements escape the corpus root; drop them.
		if !fs.ValidPath(strings.TrimSuffix(name, "/")) {
			l.Warn("skip unsafe entry", slog.String("name", name))
			continue
		}
		// Entries already under scripts/ or processed/ keep their place; anything else
		// is placed under scripts/.
		targetRel := name
		if !strings.HasPrefix(targetRel, storage.ScriptsDirName+"/") && !strings.HasPrefix(targetRel, storage.ProcessedDirName+"/") {
			targetRel = filepath.ToSlash(filepath.Join(storage.ScriptsDirName, targetRel))
		}
		targetPath := filepath.Join(corpusRoot, filepath.FromSlash(targetRel))
		// If file exists, skip
		if _, err := os.Stat(targetPath); err == nil {
			l.Warn("skip existing file", slog.String("path", targetPath))
			continue
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(targetPath, 0o755); err != nil {
				return installed, err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return installed, err
		}
		rc, err := f.Open()
		if err != nil {
			return installed, err
		}
		out, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			_ = rc.Close()
			return installed, err
		}
		if _, err := io.Copy(out, rc); err != nil {
			_ = out.Close()
			_ = rc.Close()
			return installed, err
		}
		_ = out.Close()
		_ = rc.Close()
		installed++
	}
	l.Info("corpus bundle installed", slog.Int("files", installed))
	return installed, nil
}
