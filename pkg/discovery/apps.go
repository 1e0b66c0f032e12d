// Copyright 2025 LiveKit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package discovery

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/linkdata/deadlock"

	"github.com/livekit/desktop-recorder/pkg/errors"
	"github.com/livekit/desktop-recorder/pkg/source"
)

type AppEntry struct {
	source.Application
	Included bool
}

// AppSet is the ordered application exclusion set. Applications are included by default.
type AppSet struct {
	mu   deadlock.Mutex
	apps *orderedmap.OrderedMap[string, AppEntry]
}

func NewAppSet() *AppSet {
	return &AppSet{
		apps: orderedmap.NewOrderedMap[string, AppEntry](),
	}
}

// Reconcile replaces the set with apps in enumeration order, keeping the included flag of
// applications that were already listed. It returns the ids of new applications.
func (s *AppSet) Reconcile(apps []source.Application) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []string
	next := orderedmap.NewOrderedMap[string, AppEntry]()
	for _, app := range apps {
		if _, ok := next.Get(app.ID); ok {
			continue
		}
		entry := AppEntry{Application: app, Included: true}
		if prev, ok := s.apps.Get(app.ID); ok {
			entry.Included = prev.Included
		} else {
			added = append(added, app.ID)
		}
		next.Set(app.ID, entry)
	}
	s.apps = next
	return added
}

func (s *AppSet) Set(id string, included bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.apps.Get(id)
	if !ok {
		return errors.ErrApplicationNotListed
	}
	entry.Included = included
	s.apps.Set(id, entry)
	return nil
}

// Toggle flips one application and returns its new included flag.
func (s *AppSet) Toggle(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.apps.Get(id)
	if !ok {
		return false, errors.ErrApplicationNotListed
	}
	entry.Included = !entry.Included
	s.apps.Set(id, entry)
	return entry.Included, nil
}

func (s *AppSet) Invert() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for el := s.apps.Front(); el != nil; el = el.Next() {
		el.Value.Included = !el.Value.Included
	}
}

func (s *AppSet) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for el := s.apps.Front(); el != nil; el = el.Next() {
		el.Value.Included = true
	}
}

func (s *AppSet) Included(id string) (included bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.apps.Get(id)
	return entry.Included, ok
}

// Excluded returns the ids of applications to omit from display capture.
func (s *AppSet) Excluded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var excluded []string
	for el := s.apps.Front(); el != nil; el = el.Next() {
		if !el.Value.Included {
			excluded = append(excluded, el.Key)
		}
	}
	return excluded
}

func (s *AppSet) Snapshot() []AppEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]AppEntry, 0, s.apps.Len())
	for el := s.apps.Front(); el != nil; el = el.Next() {
		entries = append(entries, el.Value)
	}
	return entries
}

func (s *AppSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apps.Len()
}
