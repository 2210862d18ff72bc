/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package screenplay

import "testing"

func TestFormatText(t *testing.T) {
	scene := strptr("INT. LAB - DAY")
	els := []Element{
		{Type: ElementScene, Text: "INT. LAB - DAY"},
		{Type: ElementAction, Text: "Beakers bubble.", Scene: scene},
		{Type: ElementCharacter, Text: "MIRA", Scene: scene},
		{Type: ElementDialogue, Text: "We're close.", Scene: scene},
	}
	got := FormatText(els)
	want := "\n[SCENE] INT. LAB - DAY\n" +
		"[ACTION] Beakers bubble.\n" +
		"\n[CHARACTER:MIRA]\n" +
		"[DIALOGUE] We're close.\n"
	if got != want {
		t.Fatalf("formatted output mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestFormatTextEmpty(t *testing.T) {
	if got := FormatText(nil); got != "" {
		t.Fatalf("empty stream produced output: %q", got)
	}
}
