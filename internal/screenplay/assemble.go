/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package screenplay

import "strings"

// assembler is the dialogue-buffering state machine of the block pass. A zero
// value is ready to use; one assembler serves exactly one document.
type assembler struct {
	scene      *string  // most recent heading, nil before the first one
	character  *string  // speaker of the open dialogue block, nil outside one
	buf        []string // pending dialogue lines, joined on flush
	inDialogue bool
	out        []Element
}

// Assemble runs the classifier over physical lines and assembles the typed
// element stream in document order. Dialogue lines are buffered and emitted as
// one DIALOGUE element per speech block; every non-SCENE element carries the
// scene it occurred in (nil before the first heading). A trailing speech block
// that ends with the document is flushed as if followed by a blank line.
func Assemble(lines []string) []Element {
	a := &assembler{}
	for _, ln := range lines {
		a.feed(ln)
	}
	a.flushDialogue()
	if a.out == nil {
		return []Element{}
	}
	return a.out
}

// feed advances the state machine by one physical line and returns the
// verdict the line was handled under.
func (a *assembler) feed(raw string) lineClass {
	c := classifyLine(raw, a.inDialogue)
	switch c.kind {
	case lineBlank:
		a.flushDialogue()

	case lineHeading:
		// Flush against the old scene before opening the new one.
		a.flushDialogue()
		a.out = append(a.out, Element{Type: ElementScene, Text: c.text, Number: c.number})
		s := c.text
		a.scene = &s

	case lineCue:
		a.flushDialogue()
		a.out = append(a.out, Element{Type: ElementCharacter, Text: c.text, Scene: a.scene})
		name := c.text
		a.character = &name
		a.inDialogue = true

	case lineDialogue:
		a.buf = append(a.buf, c.text)

	case lineAction:
		a.flushDialogue()
		a.out = append(a.out, Element{Type: ElementAction, Text: c.text, Scene: a.scene})
	}
	return c
}

// flushDialogue closes the open dialogue block, if any, and resets to idle.
func (a *assembler) flushDialogue() {
	if a.inDialogue && a.character != nil && len(a.buf) > 0 {
		a.out = append(a.out, Element{Type: ElementDialogue, Text: strings.Join(a.buf, " "), Scene: a.scene})
	}
	a.buf = nil
	a.inDialogue = false
	a.character = nil
}

// LineTrace records the classifier's verdict for one physical line. Speaker is
// the character whose dialogue block was open when the line was read.
type LineTrace struct {
	Line    string
	Kind    string
	Speaker string
}

// TraceLines classifies every line the way Assemble would, without building
// elements. It backs the inspect command for debugging misclassified scripts.
func TraceLines(lines []string) []LineTrace {
	a := &assembler{}
	traces := make([]LineTrace, 0, len(lines))
	for _, ln := range lines {
		c := a.feed(ln)
		tr := LineTrace{Line: ln, Kind: c.kind.String()}
		if a.character != nil {
			tr.Speaker = *a.character
		}
		traces = append(traces, tr)
	}
	return traces
}
