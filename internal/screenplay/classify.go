/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package screenplay

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Classification thresholds, measured in characters (runes).
const (
	minHeadingLen   = 5  // all-caps lines must be longer than this to be heading candidates
	longHeadingLen  = 20 // all-caps candidates longer than this are headings even without a location marker
	maxCueLen       = 30 // character cues are short...
	maxCueTokens    = 4  // ...and at most a few words
	actionMarginLen = 50 // flush-left lines longer than this read as action, not dialogue
)

// headingMarkers are location prefixes that identify a scene heading outright.
var headingMarkers = []string{"INT.", "EXT.", "INT/EXT"}

// cueExclusions are substrings that disqualify an all-caps line as a character
// cue: headings that slipped past the length gate and transition directives.
var cueExclusions = []string{"INT.", "EXT.", "FADE", "CUT TO", "DISSOLVE", "THE END"}

// actionLeadIns are sentence openers that mark un-indented prose as action
// even while dialogue is being collected.
var actionLeadIns = []string{"the ", "a ", "an ", "he ", "she ", "they ", "it ", "as ", "suddenly "}

// reContd matches "(CONT'D)" continuation annotations in any casing, with a
// straight or typographic apostrophe, or none at all.
var reContd = regexp.MustCompile(`\s*\([Cc][Oo][Nn][Tt]['’]?[Dd]\)`)

// lineKind tags the classifier's verdict for a single physical line.
type lineKind int

const (
	lineBlank lineKind = iota
	lineHeading
	lineCue
	lineDialogue
	lineAction
)

func (k lineKind) String() string {
	switch k {
	case lineBlank:
		return "blank"
	case lineHeading:
		return "heading"
	case lineCue:
		return "cue"
	case lineDialogue:
		return "dialogue"
	case lineAction:
		return "action"
	default:
		return "unknown"
	}
}

// lineClass is one classified line: the verdict plus the normalized text the
// element will carry (trimmed, and for cues with the continuation annotation
// stripped). number holds the leading digits of a numbered heading.
type lineClass struct {
	kind   lineKind
	text   string
	number string
}

// classifyLine decides what kind of screenplay element a single physical line
// belongs to. Rules apply in order of precedence:
//
//  1. Blank lines terminate any open dialogue block.
//  2. All-caps lines longer than minHeadingLen are scene headings when they
//     start with a production number, contain a location marker (INT., EXT.,
//     INT/EXT), or exceed longHeadingLen. Short unmarked candidates fall
//     through; they are more likely character names.
//  3. Character cue: after stripping a continuation annotation, an all-caps
//     line of at most maxCueLen characters and maxCueTokens words that
//     contains no heading or transition vocabulary.
//  4. While dialogue is being collected, flush-left lines longer than
//     actionMarginLen and lines opening like prose (actionLeadIns) are
//     reclassified as action; everything else continues the dialogue.
//  5. Outside dialogue, any remaining text is action.
//
// The dialogue/action disambiguation in step 4 inspects the raw line because
// indentation is the signal: dialogue sits deep in the page margin, action
// starts at the left edge.
func classifyLine(raw string, inDialogue bool) lineClass {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return lineClass{kind: lineBlank}
	}

	if isUpper(trimmed) && utf8.RuneCountInString(trimmed) > minHeadingLen {
		if n := leadingDigits(trimmed); n != "" {
			return lineClass{kind: lineHeading, text: trimmed, number: n}
		}
		if containsAny(trimmed, headingMarkers) || utf8.RuneCountInString(trimmed) > longHeadingLen {
			return lineClass{kind: lineHeading, text: trimmed}
		}
		// Unmarked short all-caps line: not a heading, try the cue rule.
	}

	if cue, ok := cueName(trimmed); ok {
		return lineClass{kind: lineCue, text: cue}
	}

	if inDialogue {
		if looksLikeAction(raw, trimmed) {
			return lineClass{kind: lineAction, text: trimmed}
		}
		return lineClass{kind: lineDialogue, text: trimmed}
	}
	return lineClass{kind: lineAction, text: trimmed}
}

// cueName reports whether trimmed is a character cue and returns the
// normalized speaker name.
func cueName(trimmed string) (string, bool) {
	clean := strings.TrimSpace(reContd.ReplaceAllString(trimmed, ""))
	if !isUpper(clean) {
		return "", false
	}
	if utf8.RuneCountInString(clean) > maxCueLen || len(strings.Fields(clean)) > maxCueTokens {
		return "", false
	}
	if containsAny(clean, cueExclusions) {
		return "", false
	}
	return clean, true
}

// looksLikeAction applies the in-dialogue action heuristic: a line starting at
// the left page edge with substantial length, or one opening like a prose
// sentence, belongs to the action track.
func looksLikeAction(raw, trimmed string) bool {
	if raw != "" {
		r, _ := utf8.DecodeRuneInString(raw)
		if !unicode.IsSpace(r) && utf8.RuneCountInString(raw) > actionMarginLen {
			return true
		}
	}
	lower := strings.ToLower(trimmed)
	for _, w := range actionLeadIns {
		if strings.HasPrefix(lower, w) {
			return true
		}
	}
	return false
}

// isUpper reports whether s contains at least one cased character and no
// lowercase ones. Digits and punctuation are caseless and do not count either
// way, so "42ND STREET" is upper but "42" alone is not.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			return false
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			cased = true
		}
	}
	return cased
}

// leadingDigits returns the run of ASCII digits s starts with, if any.
func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
