/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package decode

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfLines extracts the text lines of a screenplay PDF in page order using
// pdfcpu content streams. Screenplays are typewriter-set: one show-text
// operation per physical line, with positioning operators between them, so
// Td/TD/T*/' mark line breaks and Tj/TJ contribute text to the current line.
// Content streams position text by coordinates, not leading spaces, so lines
// come back without their left margin; classification of PDF input leans on
// the line-length and lead-in rules instead.
func pdfLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	var lines []string
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil || len(data) == 0 {
			continue
		}
		lines = append(lines, streamLines(data)...)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no text content found in %s", path)
	}
	return lines, nil
}

// pdfStringRe matches PDF string literals including escaped characters:
// (text \(with\) escapes)
var pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// streamLines walks the content stream operators of one page and rebuilds
// physical text lines.
func streamLines(data []byte) []string {
	var out []string
	var cur strings.Builder

	endLine := func() {
		out = append(out, strings.TrimRight(cur.String(), "\r"))
		cur.Reset()
	}

	for _, raw := range bytes.Split(data, []byte{'\n'}) {
		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}

		// Positioning first: generators emit "x y Td (text) Tj" on one
		// stream line, so the break precedes this line's text.
		breaks := bytes.Contains(line, []byte(" Td")) || bytes.Contains(line, []byte(" TD")) ||
			bytes.HasSuffix(line, []byte("'")) || bytes.Contains(line, []byte(") ' "))
		if breaks && cur.Len() > 0 {
			endLine()
		}
		// T* moves by the leading even with nothing pending; that is how
		// blank lines appear in leading-based layouts.
		if bytes.Equal(line, []byte("T*")) || bytes.HasPrefix(line, []byte("T* ")) {
			endLine()
		}

		if bytes.Contains(line, []byte("Tj")) || bytes.Contains(line, []byte("TJ")) || breaks {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				cur.WriteString(decodePDFString(m[1]))
			}
		}
	}
	if cur.Len() > 0 {
		endLine()
	}
	return out
}

// decodePDFString resolves PDF string escape sequences, including octal
// character codes like \050 for "(".
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}
