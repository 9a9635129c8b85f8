/*
Copyright 2025 Tradepost Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package poller

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// WatermarkStore tracks the newest change timestamp seen per entity. Advances
// are max-merged, so a watermark never moves backwards regardless of the
// order candidates arrive in.
//
// Watermarks are persisted to a JSON state file with an atomic rename, so a
// restarted poller resumes where it left off. When the file cannot be
// written the store degrades to memory-only and says so once.
type WatermarkStore struct {
	mu         sync.Mutex
	path       string
	marks      map[string]time.Time
	memoryOnly bool
}

// NewWatermarkStore loads the state file at path, or starts empty when the
// file does not exist yet. An empty path means memory-only.
func NewWatermarkStore(path string) *WatermarkStore {
	s := &WatermarkStore{
		path:  path,
		marks: make(map[string]time.Time),
	}
	if path == "" {
		s.memoryOnly = true
		return s
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.Warnf("failed to read watermark state file %s, starting from zero: %v", path, err)
		}
		return s
	}
	if err := json.Unmarshal(data, &s.marks); err != nil {
		logrus.Warnf("watermark state file %s is corrupt, starting from zero: %v", path, err)
		s.marks = make(map[string]time.Time)
	}
	return s
}

// Get returns the watermark for an entity, or the zero time when none has
// been recorded.
func (s *WatermarkStore) Get(entity string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marks[entity]
}

// Advance moves the entity's watermark forward to candidate if it is newer,
// and returns the resulting watermark.
func (s *WatermarkStore) Advance(entity string, candidate time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.marks[entity]
	if !candidate.After(current) {
		return current
	}
	s.marks[entity] = candidate
	s.persist()
	return candidate
}

// persist writes the state file via a temp file and rename. Callers hold the
// mutex.
func (s *WatermarkStore) persist() {
	if s.memoryOnly {
		return
	}

	data, err := json.MarshalIndent(s.marks, "", "  ")
	if err != nil {
		logrus.Errorf("failed to marshal watermarks: %v", err)
		return
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		s.memoryOnly = true
		logrus.Warnf("watermark state file %s is not writable, continuing in memory only: %v",
			filepath.Clean(s.path), err)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.memoryOnly = true
		logrus.Warnf("failed to replace watermark state file %s, continuing in memory only: %v",
			filepath.Clean(s.path), err)
	}
}
