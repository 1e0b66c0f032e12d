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

package gstreamer

import (
	"github.com/linkdata/deadlock"
)

type State int

const (
	StateBuilding State = iota
	StateRunning
	StateEOS
	StateStopped
)

// StateManager only moves forward. A pipeline is never restarted once stopped.
type StateManager struct {
	lock  deadlock.RWMutex
	state State
}

func (s *StateManager) GetState() State {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.state
}

// UpgradeState returns the previous state and whether the transition happened.
func (s *StateManager) UpgradeState(state State) (State, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	old := s.state
	if old >= state {
		return old, false
	}
	s.state = state
	return old, true
}

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateRunning:
		return "running"
	case StateEOS:
		return "eos"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
