/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"slugline/internal/screenplay"
	"slugline/internal/storage"
)

// EPUBOptions controls EPUB export behavior. Empty metadata fields fall back
// to the corpus manifest: Author to the curator, Publisher to the archive,
// Description to the notes.
//
//nolint:revive // clarity
type EPUBOptions struct {
	Title       string
	Author      string
	Language    string // e.g. "en"
	Publisher   string
	Description string
}

// chapter is one spine entry: a scene plus everything under it, or the
// material ahead of the first heading.
type chapter struct {
	title string
	els   []screenplay.Element
}

// ExportEPUB renders the processed element stream of one script as a
// reflowable EPUB 3 package with one XHTML chapter per scene. Material before
// the first scene heading becomes a leading "Opening" chapter. A relative
// outPath is placed under the corpus exports folder.
func ExportEPUB(h *storage.CorpusHandle, script, outPath string, opt EPUBOptions) error {
	if h == nil {
		return fmt.Errorf("corpus handle is nil")
	}
	els, err := storage.ReadElements(h, script)
	if err != nil {
		return fmt.Errorf("export epub: %w", err)
	}

	if opt.Language == "" {
		opt.Language = "en"
	}
	meta := h.Corpus.Metadata
	if opt.Title == "" {
		opt.Title = script
	}
	if opt.Author == "" {
		opt.Author = meta.Curator
	}
	if opt.Publisher == "" {
		opt.Publisher = meta.Archive
	}
	if opt.Description == "" {
		opt.Description = meta.Notes
	}

	chapters := splitChapters(els)
	if len(chapters) == 0 {
		return fmt.Errorf("script %q has no elements", script)
	}

	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(h.Root, storage.ExportsDirName, outPath)
	}
	if !strings.HasSuffix(strings.ToLower(outPath), ".epub") {
		outPath += ".epub"
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create epub: %w", err)
	}
	defer func() { _ = f.Close() }()
	zw := zip.NewWriter(f)

	// 1) mimetype first, uncompressed, as the EPUB OCF requires.
	if err := addStoredZipFile(zw, "mimetype", []byte("application/epub+zip")); err != nil {
		_ = zw.Close()
		return fmt.Errorf("write mimetype: %w", err)
	}

	// 2) META-INF/container.xml
	containerXML := "" +
		"<?xml version=\"1.0\" encoding=\"utf-8\"?>\n" +
		"<container version=\"1.0\" xmlns=\"urn:oasis:names:tc:opendocument:xmlns:container\">\n" +
		"  <rootfiles>\n" +
		"    <rootfile full-path=\"OEBPS/content.opf\" media-type=\"application/oebps-package+xml\"/>\n" +
		"  </rootfiles>\n" +
		"</container>\n"
	if err := addZipFile(zw, "META-INF/container.xml", []byte(containerXML)); err != nil {
		_ = zw.Close()
		return fmt.Errorf("write container.xml: %w", err)
	}

	// 3) stylesheet approximating the screenplay page in reflowable text
	css := "body { font-family: \"Courier New\", Courier, monospace; margin: 1em 8%; }\n" +
		"h2.scene { font-weight: bold; font-size: 1em; margin: 2em 0 1em 0; }\n" +
		"p { margin: 0; }\n" +
		"p.action { margin: 1em 0; }\n" +
		"p.character { margin: 1em 0 0 30%; }\n" +
		"p.dialogue { margin: 0 15% 0 15%; }\n"
	if err := addZipFile(zw, "OEBPS/styles/epub.css", []byte(css)); err != nil {
		_ = zw.Close()
		return fmt.Errorf("write css: %w", err)
	}

	pad := 1
	if n := len(chapters); n >= 1000 {
		pad = 4
	} else if n >= 100 {
		pad = 3
	} else if n >= 10 {
		pad = 2
	}

	// 4) chapters plus the nav document
	navBuf := &bytes.Buffer{}
	navBuf.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	navBuf.WriteString("<html xmlns=\"http://www.w3.org/1999/xhtml\" xmlns:epub=\"http://www.idpf.org/2007/ops\">\n<head><title>Table of Contents</title></head>\n<body>\n")
	navBuf.WriteString("<nav epub:type=\"toc\" id=\"toc\"><ol>\n")

	chapterIDs := make([]string, 0, len(chapters))
	for i, ch := range chapters {
		name := fmt.Sprintf("OEBPS/chapter-%0*d.xhtml", pad, i+1)
		if err := addZipFile(zw, name, chapterXHTML(ch)); err != nil {
			_ = zw.Close()
			return fmt.Errorf("write chapter xhtml: %w", err)
		}
		chapterIDs = append(chapterIDs, fmt.Sprintf("ch-%0*d", pad, i+1))
		navBuf.WriteString(fmt.Sprintf("<li><a href=\"chapter-%0*d.xhtml\">%s</a></li>\n", pad, i+1, xmlEsc(ch.title)))
	}
	navBuf.WriteString("</ol></nav>\n</body>\n</html>\n")
	if err := addZipFile(zw, "OEBPS/nav.xhtml", navBuf.Bytes()); err != nil {
		_ = zw.Close()
		return fmt.Errorf("write nav.xhtml: %w", err)
	}

	// 5) content.opf
	mod := time.Now().UTC().Format("2006-01-02T15:04:05Z")
	uid := fmt.Sprintf("urn:uuid:%d", time.Now().UnixNano())

	opf := &bytes.Buffer{}
	opf.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	opf.WriteString("<package version=\"3.0\" unique-identifier=\"pub-id\" xmlns=\"http://www.idpf.org/2007/opf\">\n")
	opf.WriteString("  <metadata xmlns:dc=\"http://purl.org/dc/elements/1.1/\" xmlns:opf=\"http://www.idpf.org/2007/opf\">\n")
	opf.WriteString(fmt.Sprintf("    <dc:identifier id=\"pub-id\">%s</dc:identifier>\n", uid))
	opf.WriteString(fmt.Sprintf("    <dc:title>%s</dc:title>\n", xmlEsc(opt.Title)))
	opf.WriteString(fmt.Sprintf("    <dc:language>%s</dc:language>\n", xmlEsc(opt.Language)))
	if strings.TrimSpace(opt.Author) != "" {
		opf.WriteString(fmt.Sprintf("    <dc:creator>%s</dc:creator>\n", xmlEsc(opt.Author)))
	}
	if strings.TrimSpace(opt.Publisher) != "" {
		opf.WriteString(fmt.Sprintf("    <dc:publisher>%s</dc:publisher>\n", xmlEsc(opt.Publisher)))
	}
	if strings.TrimSpace(opt.Description) != "" {
		opf.WriteString(fmt.Sprintf("    <dc:description>%s</dc:description>\n", xmlEsc(opt.Description)))
	}
	opf.WriteString(fmt.Sprintf("    <meta property=\"dcterms:modified\">%s</meta>\n", mod))
	opf.WriteString("  </metadata>\n")
	opf.WriteString("  <manifest>\n")
	opf.WriteString("    <item id=\"nav\" href=\"nav.xhtml\" media-type=\"application/xhtml+xml\" properties=\"nav\"/>\n")
	opf.WriteString("    <item id=\"css\" href=\"styles/epub.css\" media-type=\"text/css\"/>\n")
	for i, id := range chapterIDs {
		opf.WriteString(fmt.Sprintf("    <item id=\"%s\" href=\"chapter-%0*d.xhtml\" media-type=\"application/xhtml+xml\"/>\n", id, pad, i+1))
	}
	opf.WriteString("  </manifest>\n")
	opf.WriteString("  <spine page-progression-direction=\"ltr\">\n")
	for _, id := range chapterIDs {
		opf.WriteString(fmt.Sprintf("    <itemref idref=\"%s\"/>\n", id))
	}
	opf.WriteString("  </spine>\n")
	opf.WriteString("</package>\n")
	if err := addZipFile(zw, "OEBPS/content.opf", opf.Bytes()); err != nil {
		_ = zw.Close()
		return fmt.Errorf("write content.opf: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}

// splitChapters groups an element stream into per-scene chapters. A SCENE
// element opens a chapter titled by its heading; anything ahead of the first
// heading forms a leading "Opening" chapter.
func splitChapters(els []screenplay.Element) []chapter {
	var out []chapter
	cur := -1
	for _, el := range els {
		if el.Type == screenplay.ElementScene {
			// Heading text already carries its production number when present.
			out = append(out, chapter{title: el.Text})
			cur = len(out) - 1
		}
		if cur < 0 {
			out = append(out, chapter{title: "Opening"})
			cur = 0
		}
		out[cur].els = append(out[cur].els, el)
	}
	return out
}

func chapterXHTML(ch chapter) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	buf.WriteString("<html xmlns=\"http://www.w3.org/1999/xhtml\">\n<head>\n")
	buf.WriteString("<meta charset=\"utf-8\"/>\n")
	buf.WriteString(fmt.Sprintf("<title>%s</title>\n", xmlEsc(ch.title)))
	buf.WriteString("<link rel=\"stylesheet\" type=\"text/css\" href=\"styles/epub.css\"/>\n")
	buf.WriteString("</head>\n<body>\n")
	for _, el := range ch.els {
		switch el.Type {
		case screenplay.ElementScene:
			buf.WriteString(fmt.Sprintf("<h2 class=\"scene\">%s</h2>\n", xmlEsc(ch.title)))
		case screenplay.ElementCharacter:
			buf.WriteString(fmt.Sprintf("<p class=\"character\">%s</p>\n", xmlEsc(el.Text)))
		case screenplay.ElementDialogue:
			buf.WriteString(fmt.Sprintf("<p class=\"dialogue\">%s</p>\n", xmlEsc(el.Text)))
		case screenplay.ElementAction:
			buf.WriteString(fmt.Sprintf("<p class=\"action\">%s</p>\n", xmlEsc(el.Text)))
		}
	}
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes()
}

// addStoredZipFile writes an entry with STORE method (no compression),
// required for the EPUB mimetype entry.
func addStoredZipFile(zw *zip.Writer, name string, data []byte) error {
	hdr := &zip.FileHeader{Name: name, Method: zip.Store}
	hdr.Modified = time.Now()
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func xmlEsc(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '<':
			out = append(out, '&', 'l', 't', ';')
		case '>':
			out = append(out, '&', 'g', 't', ';')
		case '"':
			out = append(out, '&', 'q', 'u', 'o', 't', ';')
		case '\'':
			out = append(out, '&', 'a', 'p', 'o', 's', ';')
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
