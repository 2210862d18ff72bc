/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"slugline/internal/screenplay"
	"slugline/internal/storage"
)

// PDFOptions controls screenplay PDF rendering.
// Zero values select the standard format: Courier 12pt on Letter portrait
// with 1in margins, single-spaced at one line per font size.
//
// Layout (measured from the left margin):
// - Scene headings flush left, bold.
// - Character cues indented 2.2in.
// - Dialogue indented 1.5in, wrapped to a 3.5in measure.
// - Action flush left across the full 6.5in measure.
//
//nolint:revive // keep options grouped and explicit for clarity
type PDFOptions struct {
	FontSize float64 // pt; default 12
	Title    string  // document metadata; defaults to the script name
	Author   string  // document metadata; defaults to the corpus curator
}

// Letter portrait in points.
const (
	pdfPageWidth  = 612.0
	pdfPageHeight = 792.0
	pdfMargin     = 72.0 // 1in

	cueIndent       = 158.4 // 2.2in
	dialogueIndent  = 108.0 // 1.5in
	dialogueMeasure = 252.0 // 3.5in
)

// ExportPDF renders the processed element stream of one script to a formatted
// screenplay PDF at outPath. A relative outPath is placed under the corpus
// exports folder.
func ExportPDF(h *storage.CorpusHandle, script, outPath string, opt PDFOptions) error {
	if h == nil {
		return fmt.Errorf("corpus handle is nil")
	}
	els, err := storage.ReadElements(h, script)
	if err != nil {
		return fmt.Errorf("export pdf: %w", err)
	}
	if len(els) == 0 {
		return fmt.Errorf("script %q has no elements", script)
	}

	fontSize := opt.FontSize
	if fontSize <= 0 {
		fontSize = 12
	}
	title := opt.Title
	if title == "" {
		title = script
	}
	author := opt.Author
	if author == "" {
		author = h.Corpus.Metadata.Curator
	}

	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetTitle(title, true)
	if author != "" {
		pdf.SetAuthor(author, true)
	}
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	// Core Courier is cp1252; translate curly quotes and friends.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Courier advances 0.6em per glyph, so a measure holds measure/(0.6*size)
	// columns. At 12pt that is the classic 10 cpi grid.
	lineH := fontSize
	charW := 0.6 * fontSize
	colsFor := func(measure float64) int { return int(measure / charW) }
	fullMeasure := pdfPageWidth - 2*pdfMargin

	emit := func(x float64, cols int, bold bool, text string) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Courier", style, fontSize)
		for _, ln := range wrapMono(text, cols) {
			pdf.SetX(x)
			pdf.CellFormat(0, lineH, tr(ln), "", 1, "L", false, 0, "")
		}
	}
	// Blank lines ahead of a block, skipped at the top of a page.
	gap := func(lines int) {
		if pdf.GetY() > pdfMargin+0.5 {
			pdf.Ln(float64(lines) * lineH)
		}
	}

	for _, el := range els {
		switch el.Type {
		case screenplay.ElementScene:
			gap(2)
			// Heading text already carries its production number when present.
			emit(pdfMargin, colsFor(fullMeasure), true, el.Text)
		case screenplay.ElementCharacter:
			gap(1)
			emit(pdfMargin+cueIndent, colsFor(fullMeasure-cueIndent), false, el.Text)
		case screenplay.ElementDialogue:
			emit(pdfMargin+dialogueIndent, colsFor(dialogueMeasure), false, el.Text)
		case screenplay.ElementAction:
			gap(1)
			emit(pdfMargin, colsFor(fullMeasure), false, el.Text)
		}
	}

	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(h.Root, storage.ExportsDirName, outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
