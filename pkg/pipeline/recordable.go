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
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/desktop-recorder/pkg/media"
	"github.com/livekit/desktop-recorder/pkg/stats"
	"github.com/livekit/desktop-recorder/pkg/types"
	"github.com/livekit/desktop-recorder/pkg/uploader"
)

// Recordable is the lifecycle shared by display and camera pipelines.
//
// Every operation is a no-op on a disabled pipeline. StartRecording returns immediately and
// reports the outcome of the asynchronous setup on the returned channel, which is closed
// without a value when there was nothing to do.
type Recordable interface {
	ID() string
	Kind() types.SourceKind
	Name() string

	Enabled() bool
	SetEnabled(enabled bool) error
	State() types.RecordingState
	Err() error

	StartRecording(ctx context.Context) <-chan error
	PauseRecording()
	ResumeRecording()
	StopRecording(ctx context.Context) error
	SaveRecording(ctx context.Context) (*OutputInfo, error)
	CurrentTime() time.Duration

	media.FrameSink
}

type Uploader interface {
	Upload(rec *uploader.Recording, deleteAfterUpload bool) (string, int64, error)
}

type Journal interface {
	Record(info *OutputInfo) error
}

// Options are the collaborators shared by every pipeline of a session.
type Options struct {
	Capturer media.Capturer
	Writers  media.WriterFactory

	// optional
	Uploader          Uploader
	DeleteAfterUpload bool
	Journal           Journal
	Monitor           *stats.Monitor
	Clock             clock.Clock
	Logger            logger.Logger

	// OnError is called when setup or a running stream fails.
	OnError func(r Recordable, err error)
}
