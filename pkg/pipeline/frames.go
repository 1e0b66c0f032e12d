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

package pipeline

import (
	"github.com/livekit/desktop-recorder/pkg/media"
	"github.com/livekit/desktop-recorder/pkg/stats"
	"github.com/livekit/desktop-recorder/pkg/types"
)

// OnFrame is called on the capture thread. Frames are appended in delivery order; the only
// drops are paused or inactive pipelines, invalid frames and audio.
func (c *capture) OnFrame(f *media.Frame) {
	kind := string(c.kind)

	switch c.State() {
	case types.RecordingStateRecording:
	case types.RecordingStatePaused:
		c.Monitor.IncFrame(kind, stats.FrameDroppedPaused)
		return
	default:
		c.Monitor.IncFrame(kind, stats.FrameDroppedIdle)
		return
	}

	if !f.Valid() {
		c.logger.Debugw("dropping invalid frame")
		c.Monitor.IncFrame(kind, stats.FrameInvalid)
		return
	}
	if f.Kind == types.MediaKindAudio {
		c.Monitor.IncFrame(kind, stats.FrameAudio)
		return
	}

	c.appendMu.Lock()
	defer c.appendMu.Unlock()

	// state may have changed while waiting for the lock
	if c.input == nil || c.State() != types.RecordingStateRecording {
		c.Monitor.IncFrame(kind, stats.FrameDroppedIdle)
		return
	}

	if c.rebase {
		c.ptsOffset = f.PTS - c.resumeAt
		c.rebase = false
	}
	pts := f.PTS - c.ptsOffset
	if c.hasLast && pts < c.lastPTS {
		c.logger.Debugw("dropping out of order frame", "pts", pts, "last", c.lastPTS)
		c.Monitor.IncFrame(kind, stats.FrameInvalid)
		return
	}

	duration := f.Duration
	if duration == 0 {
		duration = c.frameDuration
	}

	if err := c.input.Append(&media.Frame{
		Kind:     f.Kind,
		PTS:      pts,
		Duration: duration,
		HasPTS:   true,
		Keyframe: f.Keyframe,
		Data:     f.Data,
	}); err != nil {
		c.logger.Debugw("could not append frame", "error", err)
		c.Monitor.IncFrame(kind, stats.FrameAppendError)
		return
	}

	c.lastPTS, c.hasLast = pts, true
	c.currentTime.Store(pts + duration)
	c.Monitor.IncFrame(kind, stats.FrameAppended)
}
