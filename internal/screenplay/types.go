/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package screenplay

// ElementType is the kind of a typed screenplay element. The values double as
// the "type" discriminator in serialized element streams.
type ElementType string

const (
	ElementScene     ElementType = "SCENE"
	ElementCharacter ElementType = "CHARACTER"
	ElementDialogue  ElementType = "DIALOGUE"
	ElementAction    ElementType = "ACTION"
)

// Element is one typed unit of a processed screenplay.
//
// Scene carries the heading text of the scene the element belongs to; it is
// nil for material before the first heading and always nil on SCENE elements
// themselves (a heading opens a scene rather than belonging to one). Number
// holds the leading production number of a numbered heading, e.g. "42" for
// "42 INT. DEATH STAR - CONTROL ROOM"; it is empty everywhere else.
type Element struct {
	Type   ElementType `json:"type"`
	Text   string      `json:"text"`
	Scene  *string     `json:"scene,omitempty"`
	Number string      `json:"number,omitempty"`
}

// Stats counts elements by type.
type Stats struct {
	Scenes     int
	Characters int
	Dialogues  int
	Actions    int
	Total      int
}

// CountStats tallies an element stream by type.
func CountStats(els []Element) Stats {
	var s Stats
	for _, el := range els {
		switch el.Type {
		case ElementScene:
			s.Scenes++
		case ElementCharacter:
			s.Characters++
		case ElementDialogue:
			s.Dialogues++
		case ElementAction:
			s.Actions++
		}
	}
	s.Total = len(els)
	return s
}
