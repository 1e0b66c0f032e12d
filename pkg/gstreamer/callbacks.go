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

// Callbacks are invoked from the bus watch goroutine.
type Callbacks struct {
	mu deadlock.RWMutex

	onError func(error)
	onEOS   []func()
}

func (c *Callbacks) SetOnError(f func(error)) {
	c.mu.Lock()
	c.onError = f
	c.mu.Unlock()
}

func (c *Callbacks) OnError(err error) {
	c.mu.RLock()
	onError := c.onError
	c.mu.RUnlock()
	if onError != nil {
		onError(err)
	}
}

func (c *Callbacks) AddOnEOS(f func()) {
	c.mu.Lock()
	c.onEOS = append(c.onEOS, f)
	c.mu.Unlock()
}

func (c *Callbacks) OnEOS() {
	c.mu.RLock()
	onEOS := append([]func(){}, c.onEOS...)
	c.mu.RUnlock()
	for _, f := range onEOS {
		f()
	}
}
