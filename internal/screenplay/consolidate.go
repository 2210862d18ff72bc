/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package screenplay

import "strings"

// Consolidate merges consecutive ACTION elements that belong to the same
// scene into single paragraph elements, joining their texts with spaces.
// Scene changes and any non-ACTION element are hard boundaries; all other
// elements pass through unchanged in order. The input is not modified.
//
// Running Consolidate twice yields the same stream: a merged paragraph run is
// always followed by a boundary, so there is nothing left to merge.
func Consolidate(els []Element) []Element {
	out := make([]Element, 0, len(els))
	var run []string
	var runScene *string

	flush := func() {
		if len(run) > 0 {
			out = append(out, Element{Type: ElementAction, Text: strings.Join(run, " "), Scene: runScene})
		}
		run = nil
		runScene = nil
	}

	for _, el := range els {
		if el.Type != ElementAction {
			flush()
			out = append(out, el)
			continue
		}
		if len(run) > 0 && sameScene(runScene, el.Scene) {
			run = append(run, el.Text)
			continue
		}
		flush()
		run = []string{el.Text}
		runScene = el.Scene
	}
	flush()
	return out
}

// Process runs the full pipeline over physical lines: assemble elements, then
// consolidate action runs into paragraphs.
func Process(lines []string) []Element {
	return Consolidate(Assemble(lines))
}

// sameScene compares two scene attributions; material before the first
// heading (nil) only matches other pre-heading material.
func sameScene(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
