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
	"context"
	"os"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/linkdata/deadlock"
	"go.opentelemetry.io/otel"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/desktop-recorder/pkg/config"
	"github.com/livekit/desktop-recorder/pkg/discovery"
	"github.com/livekit/desktop-recorder/pkg/errors"
	"github.com/livekit/desktop-recorder/pkg/pipeline"
	"github.com/livekit/desktop-recorder/pkg/source"
	"github.com/livekit/desktop-recorder/pkg/types"
)

var tracer = otel.Tracer("github.com/livekit/desktop-recorder/pkg/session")

// Session fans recording operations out to every camera and display pipeline. Its state is
// the requested state; individual pipelines may lag behind or have failed.
type Session struct {
	conf       *config.Config
	enumerator discovery.Enumerator
	opts       pipeline.Options
	logger     logger.Logger
	ownPID     int

	mu       deadlock.Mutex
	state    types.RecordingState
	displays []*pipeline.DisplayPipeline
	cameras  []*pipeline.CameraPipeline
	apps     *discovery.AppSet
	pending  []<-chan error

	// set after the first successful display enumeration
	displaysDiscovered bool

	obsMu        deadlock.Mutex
	observers    *orderedmap.OrderedMap[uint64, func(Event)]
	nextObserver uint64
}

func New(conf *config.Config, enumerator discovery.Enumerator, opts pipeline.Options) *Session {
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}

	s := &Session{
		conf:       conf,
		enumerator: enumerator,
		logger:     opts.Logger.WithValues("component", "session"),
		ownPID:     os.Getpid(),
		apps:       discovery.NewAppSet(),
		observers:  orderedmap.NewOrderedMap[uint64, func(Event)](),
	}

	onError := opts.OnError
	opts.OnError = func(r pipeline.Recordable, err error) {
		s.publish(Event{
			Type:     EventPipelineFailed,
			Kind:     r.Kind(),
			SourceID: r.ID(),
			State:    r.State(),
			Enabled:  r.Enabled(),
			Err:      err,
		})
		if onError != nil {
			onError(r, err)
		}
	}
	s.opts = opts
	return s
}

// Start starts every enabled pipeline, cameras first. Setup continues in the background;
// use WaitStarted to wait for it.
func (s *Session) Start(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Session.Start")
	defer span.End()

	s.mu.Lock()
	if s.recordersDisabledLocked() {
		s.mu.Unlock()
		return errors.ErrNoEnabledSources
	}
	s.state = types.RecordingStateRecording
	recordables := s.recordablesLocked()
	s.pending = s.pending[:0]
	for _, r := range recordables {
		s.pending = append(s.pending, r.StartRecording(ctx))
	}
	s.mu.Unlock()

	s.logger.Infow("session started", "pipelines", len(recordables))
	s.publish(Event{Type: EventStateChanged, State: types.RecordingStateRecording})
	return nil
}

// WaitStarted blocks until every pipeline setup issued by the last Start has completed.
func (s *Session) WaitStarted(ctx context.Context) error {
	s.mu.Lock()
	pending := append([]<-chan error(nil), s.pending...)
	s.mu.Unlock()

	errs := &errors.ErrArray{}
	for _, res := range pending {
		select {
		case err := <-res:
			errs.Check(err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if errs.Len() == 0 {
		return nil
	}
	return errs.ToError()
}

func (s *Session) Pause() {
	s.mu.Lock()
	s.state = types.RecordingStatePaused
	for _, r := range s.recordablesLocked() {
		r.PauseRecording()
	}
	s.mu.Unlock()

	s.publish(Event{Type: EventStateChanged, State: types.RecordingStatePaused})
}

func (s *Session) Resume() {
	s.mu.Lock()
	s.state = types.RecordingStateRecording
	for _, r := range s.recordablesLocked() {
		r.ResumeRecording()
	}
	s.mu.Unlock()

	s.publish(Event{Type: EventStateChanged, State: types.RecordingStateRecording})
}

// Stop stops every pipeline, waiting for any setup still in progress.
func (s *Session) Stop(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Session.Stop")
	defer span.End()

	s.mu.Lock()
	s.state = types.RecordingStateStopped
	recordables := s.recordablesLocked()
	s.mu.Unlock()

	errs := &errors.ErrArray{}
	for _, r := range recordables {
		errs.Check(r.StopRecording(ctx))
	}

	s.logger.Infow("session stopped")
	s.publish(Event{Type: EventStateChanged, State: types.RecordingStateStopped})
	if errs.Len() == 0 {
		return nil
	}
	return errs.ToError()
}

// Save finalizes every pipeline's current round and returns the files that were written.
func (s *Session) Save(ctx context.Context) ([]*pipeline.OutputInfo, error) {
	ctx, span := tracer.Start(ctx, "Session.Save")
	defer span.End()

	s.mu.Lock()
	s.state = types.RecordingStateStopped
	recordables := s.recordablesLocked()
	s.mu.Unlock()

	var outputs []*pipeline.OutputInfo
	errs := &errors.ErrArray{}
	for _, r := range recordables {
		info, err := r.SaveRecording(ctx)
		errs.Check(err)
		if info != nil {
			outputs = append(outputs, info)
		}
	}

	s.logger.Infow("session saved", "files", len(outputs), "errors", errs.Len())
	s.publish(Event{Type: EventStateChanged, State: types.RecordingStateStopped})
	if errs.Len() == 0 {
		return outputs, nil
	}
	return outputs, errs.ToError()
}

func (s *Session) State() types.RecordingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RecordersDisabled is true when no pipeline is enabled.
func (s *Session) RecordersDisabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordersDisabledLocked()
}

func (s *Session) recordersDisabledLocked() bool {
	for _, r := range s.recordablesLocked() {
		if r.Enabled() {
			return false
		}
	}
	return true
}

// CurrentTime is the running time of the first enabled display, else the first enabled
// camera. Pipelines are not clock synchronized, so this is representative only.
func (s *Session) CurrentTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.displays {
		if p.Enabled() {
			return p.CurrentTime()
		}
	}
	for _, p := range s.cameras {
		if p.Enabled() {
			return p.CurrentTime()
		}
	}
	return 0
}

func (s *Session) Displays() []*pipeline.DisplayPipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*pipeline.DisplayPipeline(nil), s.displays...)
}

func (s *Session) Cameras() []*pipeline.CameraPipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*pipeline.CameraPipeline(nil), s.cameras...)
}

func (s *Session) Applications() []discovery.AppEntry {
	return s.apps.Snapshot()
}

// recordablesLocked returns cameras followed by displays.
func (s *Session) recordablesLocked() []pipeline.Recordable {
	recordables := make([]pipeline.Recordable, 0, len(s.cameras)+len(s.displays))
	for _, p := range s.cameras {
		recordables = append(recordables, p)
	}
	for _, p := range s.displays {
		recordables = append(recordables, p)
	}
	return recordables
}

func (s *Session) findLocked(kind types.SourceKind, id string) pipeline.Recordable {
	switch kind {
	case types.SourceKindDisplay:
		for _, p := range s.displays {
			if p.ID() == id {
				return p
			}
		}
	case types.SourceKindCamera:
		for _, p := range s.cameras {
			if p.ID() == id {
				return p
			}
		}
	}
	return nil
}

func (s *Session) newDisplayPipeline(d source.Display) *pipeline.DisplayPipeline {
	return pipeline.NewDisplayPipeline(s.conf, d, s.apps.Excluded, s.opts)
}

func (s *Session) newCameraPipeline(c source.Camera) *pipeline.CameraPipeline {
	return pipeline.NewCameraPipeline(s.conf, c, s.opts)
}
