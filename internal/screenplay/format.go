/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package screenplay

import "strings"

// FormatText renders an element stream in the human-readable sidecar layout:
//
//	[SCENE] INT. LAB - DAY          (preceded by a blank line)
//	[CHARACTER:LUKE]                (preceded by a blank line)
//	[DIALOGUE] I have a bad feeling about this.
//	[ACTION] The ship shudders.
//
// SCENE and CHARACTER get a leading blank line so blocks stay readable when
// the file is paged through in a terminal.
func FormatText(els []Element) string {
	var b strings.Builder
	for _, el := range els {
		switch el.Type {
		case ElementScene:
			b.WriteString("\n[SCENE] ")
			b.WriteString(el.Text)
			b.WriteString("\n")
		case ElementCharacter:
			b.WriteString("\n[CHARACTER:")
			b.WriteString(el.Text)
			b.WriteString("]\n")
		case ElementDialogue:
			b.WriteString("[DIALOGUE] ")
			b.WriteString(el.Text)
			b.WriteString("\n")
		case ElementAction:
			b.WriteString("[ACTION] ")
			b.WriteString(el.Text)
			b.WriteString("\n")
		}
	}
	return b.String()
}
