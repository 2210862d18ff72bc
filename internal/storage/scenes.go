/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"sort"
	"strings"

	"slugline/internal/screenplay"
)

// SceneBreakdown summarizes one scene of a processed screenplay.
// The pre-heading preamble, if any, appears as a leading entry with an empty
// Heading.
type SceneBreakdown struct {
	Heading   string
	Number    string
	Dialogues int
	Actions   int
	Speakers  []string // cue names in first-appearance order
}

// ComputeSceneBreakdowns walks an element stream in order and aggregates
// per-scene dialogue/action counts and the speakers heard in each scene.
func ComputeSceneBreakdowns(els []screenplay.Element) []SceneBreakdown {
	var out []SceneBreakdown
	cur := -1
	ensure := func() *SceneBreakdown {
		if cur < 0 {
			out = append(out, SceneBreakdown{})
			cur = 0
		}
		return &out[cur]
	}
	for _, el := range els {
		switch el.Type {
		case screenplay.ElementScene:
			out = append(out, SceneBreakdown{Heading: el.Text, Number: el.Number})
			cur = len(out) - 1
		case screenplay.ElementCharacter:
			b := ensure()
			seen := false
			for _, s := range b.Speakers {
				if s == el.Text {
					seen = true
					break
				}
			}
			if !seen {
				b.Speakers = append(b.Speakers, el.Text)
			}
		case screenplay.ElementDialogue:
			ensure().Dialogues++
		case screenplay.ElementAction:
			ensure().Actions++
		}
	}
	return out
}

// DialogueShare records how much one character speaks across a script.
type DialogueShare struct {
	Character string
	Lines     int
	Words     int
}

// ComputeDialogueShares tallies dialogue volume per character, most talkative
// first (ties broken by name).
func ComputeDialogueShares(els []screenplay.Element) []DialogueShare {
	type agg struct {
		lines int
		words int
	}
	byName := make(map[string]*agg)
	var speaker string
	for _, el := range els {
		switch el.Type {
		case screenplay.ElementCharacter:
			speaker = el.Text
			if byName[speaker] == nil {
				byName[speaker] = &agg{}
			}
		case screenplay.ElementDialogue:
			if speaker == "" {
				continue
			}
			a := byName[speaker]
			a.lines++
			a.words += len(strings.Fields(el.Text))
		case screenplay.ElementScene, screenplay.ElementAction:
			speaker = ""
		}
	}
	out := make([]DialogueShare, 0, len(byName))
	for name, a := range byName {
		out = append(out, DialogueShare{Character: name, Lines: a.lines, Words: a.words})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Lines != out[j].Lines {
			return out[i].Lines > out[j].Lines
		}
		return out[i].Character < out[j].Character
	})
	return out
}
