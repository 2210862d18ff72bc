/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "time"

// This file defines the core data model structures for the slugline corpus.
// A corpus is a directory of screenplay source documents together with their
// processed element streams; the manifest serializes to human-readable JSON.

// Corpus represents a screenplay corpus and its metadata.
type Corpus struct {
	Name     string      `json:"name"`
	Metadata Metadata    `json:"metadata,omitempty"`
	Scripts  []ScriptRef `json:"scripts"`
}

// Metadata contains optional descriptive metadata for a corpus.
type Metadata struct {
	Archive string `json:"archive,omitempty"` // originating collection, e.g. "IMSDb dump 2025"
	Curator string `json:"curator,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// ScriptRef records one screenplay tracked by the corpus. Name is the
// corpus-unique stem used for all derived files (processed/<name>.json etc.).
type ScriptRef struct {
	Name        string       `json:"name"`
	Source      string       `json:"source,omitempty"` // corpus-relative path of the source document
	ProcessedAt time.Time    `json:"processedAt"`
	Elements    ElementStats `json:"elements"`
}

// ElementStats summarizes the typed elements of a processed screenplay.
type ElementStats struct {
	Scenes     int `json:"scenes"`
	Characters int `json:"characters"`
	Dialogues  int `json:"dialogues"`
	Actions    int `json:"actions"`
	Total      int `json:"total"`
}
