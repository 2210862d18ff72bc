/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package decode turns screenplay source documents into the flat, ordered
// sequence of physical lines the classifier consumes. PDF sources go through
// pdfcpu content-stream extraction; everything else is read as plain text.
// Line structure and leading whitespace are preserved throughout because the
// classifier's margin heuristics depend on them.
package decode

import (
	"path/filepath"
	"strings"
)

// Lines returns the physical text lines of the document at path. The decoder
// is chosen by file extension; unknown extensions are treated as plain text.
func Lines(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return pdfLines(path)
	default:
		return textLines(path)
	}
}
