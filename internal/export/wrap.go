/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"strings"
	"unicode/utf8"
)

// wrapMono breaks text into lines of at most cols monospace columns. It splits
// on spaces and hard-breaks any single word wider than the measure, so every
// returned line fits. Runs of whitespace collapse to one space; element text
// is already space-normalized upstream.
func wrapMono(text string, cols int) []string {
	if cols <= 0 {
		return []string{text}
	}
	var out []string
	line := ""
	flush := func() {
		if line != "" {
			out = append(out, line)
			line = ""
		}
	}
	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > cols {
			flush()
			r := []rune(word)
			out = append(out, string(r[:cols]))
			word = string(r[cols:])
		}
		switch {
		case line == "":
			line = word
		case utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) <= cols:
			line += " " + word
		default:
			flush()
			line = word
		}
	}
	flush()
	if len(out) == 0 {
		return []string{""}
	}
	return out
}
