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

// Package media defines the contracts between capture pipelines and the OS facilities that
// deliver frames and write containers. pkg/gstreamer provides the production implementation.
package media

import (
	"context"
	"time"

	"github.com/livekit/desktop-recorder/pkg/types"
)

type Frame struct {
	Kind     types.MediaKind
	PTS      time.Duration
	Duration time.Duration
	HasPTS   bool
	Keyframe bool
	Data     []byte
}

// Valid reports whether the frame can be appended to an encoder input.
func (f *Frame) Valid() bool {
	if f == nil || len(f.Data) == 0 {
		return false
	}
	return f.HasPTS && f.PTS >= 0 && f.Duration >= 0
}

// FrameSink receives frames on the capture thread. Implementations must not block.
type FrameSink interface {
	OnFrame(*Frame)
	OnStreamError(error)
}

type StreamConfig struct {
	Kind       types.SourceKind
	SourceID   string
	DevicePath string
	X          int32
	Y          int32
	Width      int32
	Height     int32
	Framerate  int32

	ShowPointer bool
	XDisplay    string

	// application ids to omit from display capture
	Excluded []string
}

type Stream interface {
	Start(ctx context.Context) error
	// Stop returns once no further frames will be delivered.
	Stop()
}

type Capturer interface {
	NewStream(conf StreamConfig, sink FrameSink) (Stream, error)
}

type WriterConfig struct {
	Filepath    string
	Width       int32
	Height      int32
	Framerate   int32
	Bitrate     int32 // kbps
	SpeedPreset string
	KeyFrameInt int32 // seconds
	Codec       types.MimeType
	InputFormat types.MimeType

	MaxQueueBytes uint64
	EOSTimeout    time.Duration
}

type Input interface {
	ReadyForMoreData() bool
	// Ready is signalled whenever the input transitions to ready-for-more-data.
	Ready() <-chan struct{}
	Append(*Frame) error
	MarkFinished()
}

type Writer interface {
	Input() Input
	// Finalize closes the container. Input.MarkFinished must be called first.
	Finalize(ctx context.Context) error
	// Abort tears the writer down without producing a file.
	Abort()
}

type WriterFactory interface {
	NewWriter(conf WriterConfig) (Writer, error)
}
