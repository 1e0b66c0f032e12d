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

package session

import (
	"github.com/livekit/desktop-recorder/pkg/types"
)

type EventType string

const (
	EventStateChanged        EventType = "state_changed"
	EventSourcesChanged      EventType = "sources_changed"
	EventSourceToggled       EventType = "source_toggled"
	EventApplicationsChanged EventType = "applications_changed"
	EventPipelineFailed      EventType = "pipeline_failed"
)

type Event struct {
	Type     EventType
	Kind     types.SourceKind
	SourceID string
	State    types.RecordingState
	Enabled  bool
	Err      error
}

// Subscribe registers fn for every event published after it returns, in subscription order.
// Events are delivered synchronously on the goroutine that caused them.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.obsMu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers.Set(id, fn)
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		s.observers.Delete(id)
		s.obsMu.Unlock()
	}
}

func (s *Session) publish(e Event) {
	s.obsMu.Lock()
	observers := make([]func(Event), 0, s.observers.Len())
	for el := s.observers.Front(); el != nil; el = el.Next() {
		observers = append(observers, el.Value)
	}
	s.obsMu.Unlock()

	for _, fn := range observers {
		fn(e)
	}
}
