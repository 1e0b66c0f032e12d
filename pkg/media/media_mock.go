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

package media

import (
	"context"
	"os"
	"path"
	"time"

	"github.com/linkdata/deadlock"
	"go.uber.org/atomic"

	"github.com/livekit/desktop-recorder/pkg/errors"
)

// MockCapturer hands out MockStreams. It stands in for the OS capture facility in tests.
type MockCapturer struct {
	NewStreamErr error
	StartErr     error
	StartDelay   time.Duration

	mu      deadlock.Mutex
	streams []*MockStream
}

func (c *MockCapturer) NewStream(conf StreamConfig, sink FrameSink) (Stream, error) {
	if c.NewStreamErr != nil {
		return nil, c.NewStreamErr
	}

	s := &MockStream{
		Config:     conf,
		sink:       sink,
		startErr:   c.StartErr,
		startDelay: c.StartDelay,
	}
	c.mu.Lock()
	c.streams = append(c.streams, s)
	c.mu.Unlock()
	return s, nil
}

func (c *MockCapturer) Streams() []*MockStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*MockStream(nil), c.streams...)
}

func (c *MockCapturer) Last() *MockStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.streams) == 0 {
		return nil
	}
	return c.streams[len(c.streams)-1]
}

type MockStream struct {
	Config StreamConfig

	sink       FrameSink
	startErr   error
	startDelay time.Duration

	// held while delivering so Stop waits out an in-flight callback
	mu      deadlock.Mutex
	started atomic.Bool
	stopped atomic.Bool
}

func (s *MockStream) Start(ctx context.Context) error {
	if s.startDelay > 0 {
		select {
		case <-time.After(s.startDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.startErr != nil {
		return s.startErr
	}
	s.started.Store(true)
	return nil
}

func (s *MockStream) Stop() {
	s.mu.Lock()
	s.stopped.Store(true)
	s.mu.Unlock()
}

func (s *MockStream) Started() bool {
	return s.started.Load()
}

func (s *MockStream) Stopped() bool {
	return s.stopped.Load()
}

// Deliver pushes a frame to the sink unless the stream is not running. It reports whether the
// frame was delivered.
func (s *MockStream) Deliver(f *Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started.Load() || s.stopped.Load() {
		return false
	}
	s.sink.OnFrame(f)
	return true
}

func (s *MockStream) Fail(err error) {
	s.sink.OnStreamError(err)
}

// MockWriterFactory hands out MockWriters that write appended frame data to their file path.
type MockWriterFactory struct {
	NewWriterErr error
	FinalizeErr  error
	NewDelay     time.Duration
	// inputs start out not ready for more data
	NotReady bool

	mu      deadlock.Mutex
	writers []*MockWriter
}

func (f *MockWriterFactory) NewWriter(conf WriterConfig) (Writer, error) {
	if f.NewDelay > 0 {
		time.Sleep(f.NewDelay)
	}
	if f.NewWriterErr != nil {
		return nil, f.NewWriterErr
	}

	w := &MockWriter{
		Config:      conf,
		finalizeErr: f.FinalizeErr,
		input: &MockInput{
			ready: make(chan struct{}, 1),
		},
	}
	w.input.readyForMore.Store(!f.NotReady)

	f.mu.Lock()
	f.writers = append(f.writers, w)
	f.mu.Unlock()
	return w, nil
}

func (f *MockWriterFactory) Writers() []*MockWriter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*MockWriter(nil), f.writers...)
}

func (f *MockWriterFactory) Last() *MockWriter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.writers) == 0 {
		return nil
	}
	return f.writers[len(f.writers)-1]
}

type MockWriter struct {
	Config WriterConfig

	input       *MockInput
	finalizeErr error
	finalized   atomic.Int32
	aborted     atomic.Bool
}

func (w *MockWriter) Input() Input {
	return w.input
}

func (w *MockWriter) MockInput() *MockInput {
	return w.input
}

func (w *MockWriter) Finalize(_ context.Context) error {
	w.finalized.Inc()
	if w.finalizeErr != nil {
		return w.finalizeErr
	}
	if !w.input.Finished() {
		return errors.ErrWriterFailed
	}
	if w.Config.Filepath == "" {
		return nil
	}

	if err := os.MkdirAll(path.Dir(w.Config.Filepath), 0755); err != nil {
		return err
	}
	var data []byte
	for _, f := range w.input.Frames() {
		data = append(data, f.Data...)
	}
	return os.WriteFile(w.Config.Filepath, data, 0644)
}

func (w *MockWriter) Abort() {
	w.aborted.Store(true)
}

func (w *MockWriter) Finalized() int {
	return int(w.finalized.Load())
}

func (w *MockWriter) Aborted() bool {
	return w.aborted.Load()
}

type MockInput struct {
	readyForMore atomic.Bool
	ready        chan struct{}

	mu       deadlock.Mutex
	frames   []*Frame
	finished bool
}

func (i *MockInput) ReadyForMoreData() bool {
	return i.readyForMore.Load()
}

func (i *MockInput) Ready() <-chan struct{} {
	return i.ready
}

// SetReady changes readiness, signalling Ready on the transition to true.
func (i *MockInput) SetReady(ready bool) {
	if i.readyForMore.Swap(ready) || !ready {
		return
	}
	select {
	case i.ready <- struct{}{}:
	default:
	}
}

func (i *MockInput) Append(f *Frame) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.finished {
		return errors.ErrInputFinished
	}
	i.frames = append(i.frames, f)
	return nil
}

func (i *MockInput) MarkFinished() {
	i.mu.Lock()
	i.finished = true
	i.mu.Unlock()
}

func (i *MockInput) Finished() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.finished
}

func (i *MockInput) Frames() []*Frame {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]*Frame(nil), i.frames...)
}
