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
	"reflect"
	"testing"
)

func strptr(s string) *string { return &s }

func TestConsolidateMergesSameSceneRun(t *testing.T) {
	scene := strptr("INT. TRENCH - CONTINUOUS")
	els := []Element{
		{Type: ElementAction, Text: "Luke ducks.", Scene: scene},
		{Type: ElementAction, Text: "Debris falls.", Scene: scene},
	}
	got := Consolidate(els)
	if len(got) != 1 {
		t.Fatalf("got %d elements, want 1: %+v", len(got), got)
	}
	if got[0].Text != "Luke ducks. Debris falls." {
		t.Fatalf("merged text = %q", got[0].Text)
	}
	if got[0].Scene == nil || *got[0].Scene != *scene {
		t.Fatalf("merged scene = %v", got[0].Scene)
	}
}

func TestConsolidateSceneChangeIsBoundary(t *testing.T) {
	a := strptr("INT. A")
	b := strptr("INT. B")
	els := []Element{
		{Type: ElementAction, Text: "One.", Scene: a},
		{Type: ElementScene, Text: "INT. B"},
		{Type: ElementAction, Text: "Two.", Scene: b},
	}
	got := Consolidate(els)
	if len(got) != 3 {
		t.Fatalf("got %d elements, want 3: %+v", len(got), got)
	}
	if got[0].Text != "One." || got[2].Text != "Two." {
		t.Fatalf("actions across scenes were merged: %+v", got)
	}
}

func TestConsolidateNonActionIsBoundary(t *testing.T) {
	scene := strptr("INT. A")
	els := []Element{
		{Type: ElementAction, Text: "One.", Scene: scene},
		{Type: ElementCharacter, Text: "HAN", Scene: scene},
		{Type: ElementDialogue, Text: "Hey.", Scene: scene},
		{Type: ElementAction, Text: "Two.", Scene: scene},
	}
	got := Consolidate(els)
	if len(got) != 4 {
		t.Fatalf("got %d elements, want 4: %+v", len(got), got)
	}
	if got[0].Text != "One." || got[3].Text != "Two." {
		t.Fatalf("actions across a dialogue block were merged: %+v", got)
	}
}

func TestConsolidatePreambleNilScenesMerge(t *testing.T) {
	els := []Element{
		{Type: ElementAction, Text: "FADE IN:"},
		{Type: ElementAction, Text: "A long time ago in a galaxy far, far away..."},
	}
	got := Consolidate(els)
	if len(got) != 1 {
		t.Fatalf("got %d elements, want 1: %+v", len(got), got)
	}
	if got[0].Scene != nil {
		t.Fatalf("merged preamble must keep nil scene, got %v", got[0].Scene)
	}
	if got[0].Text != "FADE IN: A long time ago in a galaxy far, far away..." {
		t.Fatalf("merged text = %q", got[0].Text)
	}
}

func TestConsolidateIdempotent(t *testing.T) {
	scene := strptr("INT. A")
	els := []Element{
		{Type: ElementScene, Text: "INT. A"},
		{Type: ElementAction, Text: "One.", Scene: scene},
		{Type: ElementAction, Text: "Two.", Scene: scene},
		{Type: ElementCharacter, Text: "HAN", Scene: scene},
		{Type: ElementDialogue, Text: "Hey.", Scene: scene},
		{Type: ElementAction, Text: "Three.", Scene: scene},
	}
	once := Consolidate(els)
	twice := Consolidate(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("consolidation is not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestConsolidateLeavesInputAlone(t *testing.T) {
	scene := strptr("INT. A")
	els := []Element{
		{Type: ElementAction, Text: "One.", Scene: scene},
		{Type: ElementAction, Text: "Two.", Scene: scene},
	}
	_ = Consolidate(els)
	if els[0].Text != "One." || els[1].Text != "Two." {
		t.Fatalf("input slice was mutated: %+v", els)
	}
}

func TestProcessEndToEnd(t *testing.T) {
	lines := []string{
		"FADE IN:",
		"A long time ago in a galaxy far, far away...",
		"",
		"42 INT. DEATH STAR - CONTROL ROOM",
		"",
		"The room hums with console lights.",
		"",
		"LUKE (CONT'D)",
		"    I have a bad feeling",
		"    about this.",
		"The ship shudders violently as the tractor beam locks on.",
		"",
		"THREEPIO",
		"    We're doomed.",
		"",
		"THE END",
	}
	got := Process(lines)

	scene := "42 INT. DEATH STAR - CONTROL ROOM"
	want := []Element{
		{Type: ElementAction, Text: "FADE IN: A long time ago in a galaxy far, far away..."},
		{Type: ElementScene, Text: scene, Number: "42"},
		{Type: ElementAction, Text: "The room hums with console lights.", Scene: &scene},
		{Type: ElementCharacter, Text: "LUKE", Scene: &scene},
		{Type: ElementDialogue, Text: "I have a bad feeling about this.", Scene: &scene},
		{Type: ElementAction, Text: "The ship shudders violently as the tractor beam locks on.", Scene: &scene},
		{Type: ElementCharacter, Text: "THREEPIO", Scene: &scene},
		{Type: ElementDialogue, Text: "We're doomed.", Scene: &scene},
		{Type: ElementAction, Text: "THE END", Scene: &scene},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d elements, want %d:\n%+v", len(got), len(want), got)
	}
	for i, w := range want {
		g := got[i]
		if g.Type != w.Type || g.Text != w.Text || g.Number != w.Number {
			t.Fatalf("element %d = {%v %q num=%q}, want {%v %q num=%q}", i, g.Type, g.Text, g.Number, w.Type, w.Text, w.Number)
		}
		if !sameScene(g.Scene, w.Scene) {
			t.Fatalf("element %d scene = %v, want %v", i, g.Scene, w.Scene)
		}
	}
}
