/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"slugline/internal/domain"
	"slugline/internal/screenplay"
)

// ElementsPath returns the processed element stream path for a script name.
func ElementsPath(h *CorpusHandle, name string) string {
	return filepath.Join(h.Root, ProcessedDirName, name+".json")
}

// SidecarPath returns the human-readable text rendering path for a script name.
func SidecarPath(h *CorpusHandle, name string) string {
	return filepath.Join(h.Root, ProcessedDirName, name+".txt")
}

// WriteElements persists a processed element stream as indented JSON together
// with its human-readable text sidecar.
func WriteElements(h *CorpusHandle, name string, els []screenplay.Element) error {
	if h == nil {
		return errors.New("nil CorpusHandle")
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("script name is required")
	}
	if err := os.MkdirAll(filepath.Join(h.Root, ProcessedDirName), 0o755); err != nil {
		return fmt.Errorf("ensure processed dir: %w", err)
	}
	data, err := json.MarshalIndent(els, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal elements: %w", err)
	}
	data = append(data, '\n')
	if err := writeFileSync(ElementsPath(h, name), data); err != nil {
		return fmt.Errorf("write elements: %w", err)
	}
	if err := writeFileSync(SidecarPath(h, name), []byte(screenplay.FormatText(els))); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

// ReadElements loads a processed element stream by script name.
func ReadElements(h *CorpusHandle, name string) ([]screenplay.Element, error) {
	if h == nil {
		return nil, errors.New("nil CorpusHandle")
	}
	b, err := os.ReadFile(ElementsPath(h, name))
	if err != nil {
		return nil, fmt.Errorf("read elements: %w", err)
	}
	var els []screenplay.Element
	if err := json.Unmarshal(b, &els); err != nil {
		return nil, fmt.Errorf("parse elements: %w", err)
	}
	return els, nil
}

// ListProcessed returns the names of all scripts with a processed element
// stream on disk, sorted.
func ListProcessed(h *CorpusHandle) ([]string, error) {
	if h == nil {
		return nil, errors.New("nil CorpusHandle")
	}
	ents, err := os.ReadDir(filepath.Join(h.Root, ProcessedDirName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read processed dir: %w", err)
	}
	var names []string
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		if n, ok := strings.CutSuffix(e.Name(), ".json"); ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

// StatsFor converts element counts into the manifest representation.
func StatsFor(els []screenplay.Element) domain.ElementStats {
	s := screenplay.CountStats(els)
	return domain.ElementStats{
		Scenes:     s.Scenes,
		Characters: s.Characters,
		Dialogues:  s.Dialogues,
		Actions:    s.Actions,
		Total:      s.Total,
	}
}
