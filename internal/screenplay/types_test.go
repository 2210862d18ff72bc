/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package screenplay

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestElementJSONOmitsAbsentFields(t *testing.T) {
	// SCENE elements carry neither a scene attribution nor, unless numbered,
	// a production number.
	b, err := json.Marshal(Element{Type: ElementScene, Text: "INT. LAB - DAY"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if strings.Contains(s, "scene") || strings.Contains(s, "number") {
		t.Fatalf("unexpected fields in %s", s)
	}

	scene := strptr("INT. LAB - DAY")
	b, err = json.Marshal(Element{Type: ElementAction, Text: "Beakers bubble.", Scene: scene})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["scene"] != "INT. LAB - DAY" {
		t.Fatalf("scene field missing or wrong: %v", m)
	}
	if m["type"] != "ACTION" {
		t.Fatalf("type discriminator wrong: %v", m["type"])
	}
}

func TestCountStats(t *testing.T) {
	scene := strptr("INT. A")
	els := []Element{
		{Type: ElementScene, Text: "INT. A"},
		{Type: ElementCharacter, Text: "HAN", Scene: scene},
		{Type: ElementDialogue, Text: "Hey.", Scene: scene},
		{Type: ElementDialogue, Text: "You there.", Scene: scene},
		{Type: ElementAction, Text: "He waves.", Scene: scene},
	}
	s := CountStats(els)
	if s.Scenes != 1 || s.Characters != 1 || s.Dialogues != 2 || s.Actions != 1 || s.Total != 5 {
		t.Fatalf("stats wrong: %+v", s)
	}
}
