/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package screenplay converts raw screenplay text into a stream of typed
// elements: scene headings, character cues, dialogue blocks, and action
// paragraphs.
//
// The pipeline has two passes. Assemble classifies every physical line by
// layout heuristics (capitalization, indentation, length, marker vocabulary)
// and runs a small state machine that buffers dialogue lines between a
// character cue and the next block boundary. Consolidate then merges runs of
// same-scene action elements into paragraphs. Process composes both.
//
// Both passes are pure functions over their inputs, so callers can re-run or
// compose them freely; no heading, cue, or any other structure is required of
// the input, and unstructured text degrades to plain action elements.
package screenplay
