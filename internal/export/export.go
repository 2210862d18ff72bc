/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"slugline/internal/storage"
)

// Format identifies an export output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatEPUB Format = "epub"
)

// Export renders one processed script to outPath, selecting the exporter from
// the file extension. Formats carry their default options; callers wanting
// more control use ExportPDF / ExportEPUB directly.
func Export(h *storage.CorpusHandle, script, outPath string) error {
	switch ext := strings.ToLower(filepath.Ext(outPath)); ext {
	case ".pdf":
		return ExportPDF(h, script, outPath, PDFOptions{})
	case ".epub":
		return ExportEPUB(h, script, outPath, EPUBOptions{})
	default:
		return fmt.Errorf("unknown export format %q (want .pdf or .epub)", ext)
	}
}

// BatchOptions controls batch export across scripts and formats.
//
// Path semantics:
//   - If OutDir is empty or relative, outputs land under <corpus>/exports/.
//   - Outputs are grouped per format: <OutDir>/pdf/<script>.pdf and
//     <OutDir>/epub/<script>.epub.
//
//nolint:revive // keep fields explicit for clarity
type BatchOptions struct {
	Scripts []string // script names; empty means every processed script
	Formats []Format // empty means pdf and epub
	OutDir  string
}

// BatchExport renders a set of processed scripts to a set of formats.
func BatchExport(h *storage.CorpusHandle, opt BatchOptions) error {
	if h == nil {
		return fmt.Errorf("corpus handle is nil")
	}
	scripts := opt.Scripts
	if len(scripts) == 0 {
		var err error
		scripts, err = storage.ListProcessed(h)
		if err != nil {
			return fmt.Errorf("list processed: %w", err)
		}
	}
	if len(scripts) == 0 {
		return fmt.Errorf("corpus has no processed scripts")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = []Format{FormatPDF, FormatEPUB}
	}

	baseOut := opt.OutDir
	if !filepath.IsAbs(baseOut) {
		baseOut = filepath.Join(h.Root, storage.ExportsDirName, baseOut)
	}

	for _, script := range scripts {
		for _, f := range formats {
			out := filepath.Join(baseOut, string(f), script+"."+string(f))
			switch f {
			case FormatPDF:
				if err := ExportPDF(h, script, out, PDFOptions{}); err != nil {
					return fmt.Errorf("pdf %s: %w", script, err)
				}
			case FormatEPUB:
				if err := ExportEPUB(h, script, out, EPUBOptions{}); err != nil {
					return fmt.Errorf("epub %s: %w", script, err)
				}
			default:
				return fmt.Errorf("unknown format: %s", f)
			}
		}
	}
	return nil
}
