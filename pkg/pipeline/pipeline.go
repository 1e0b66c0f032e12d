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
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/frostbyte73/core"
	"github.com/linkdata/deadlock"
	"go.opentelemetry.io/otel"
	"go.uber.org/atomic"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/desktop-recorder/pkg/config"
	"github.com/livekit/desktop-recorder/pkg/errors"
	"github.com/livekit/desktop-recorder/pkg/media"
	"github.com/livekit/desktop-recorder/pkg/types"
)

var tracer = otel.Tracer("github.com/livekit/desktop-recorder/pkg/pipeline")

// capture owns one source's stream and writer. DisplayPipeline and CameraPipeline embed it and
// supply the stream and writer configs for their source kind.
type capture struct {
	Options

	conf      *config.Config
	kind      types.SourceKind
	id        string
	name      string
	outputDir string
	self      Recordable
	logger    logger.Logger

	streamConfig func() media.StreamConfig
	writerConfig func(location string) media.WriterConfig

	state         atomic.Int32
	currentTime   atomic.Duration
	frameDuration time.Duration

	mu         deadlock.Mutex
	enabled    bool
	err        error
	round      uint64
	setupDone  *core.Fuse
	cancel     context.CancelFunc
	stream     media.Stream
	writer     media.Writer
	output     *OutputInfo
	finalizing bool

	// held by the frame callback for the duration of an append
	appendMu  deadlock.Mutex
	input     media.Input
	rebase    bool
	ptsOffset time.Duration
	resumeAt  time.Duration
	lastPTS   time.Duration
	hasLast   bool
}

func newCapture(conf *config.Config, kind types.SourceKind, id, name, outputDir string, opts Options) *capture {
	c := &capture{
		Options:   opts,
		conf:      conf,
		kind:      kind,
		id:        id,
		name:      name,
		outputDir: outputDir,
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	if c.Logger == nil {
		c.Logger = logger.GetLogger()
	}
	c.logger = c.Logger.WithValues("sourceKind", kind, "sourceID", id)
	if conf.Encoding.Framerate > 0 {
		c.frameDuration = time.Second / time.Duration(conf.Encoding.Framerate)
	}
	return c
}

func (c *capture) ID() string {
	return c.id
}

func (c *capture) Kind() types.SourceKind {
	return c.kind
}

func (c *capture) Name() string {
	return c.name
}

func (c *capture) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// SetEnabled is refused while a round is in progress or waiting to be saved.
func (c *capture) SetEnabled(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enabled == enabled {
		return nil
	}
	if c.State() != types.RecordingStateStopped || c.writer != nil || c.finalizing || c.setupPendingLocked() {
		return errors.ErrPipelineActive
	}

	c.enabled = enabled
	c.logger.Debugw("enabled changed", "enabled", enabled)
	return nil
}

func (c *capture) State() types.RecordingState {
	return types.RecordingState(c.state.Load())
}

func (c *capture) setState(state types.RecordingState) {
	if old := types.RecordingState(c.state.Swap(int32(state))); old != state {
		c.logger.Debugw("recording state changed", "old", old.String(), "new", state.String())
	}
}

func (c *capture) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *capture) CurrentTime() time.Duration {
	return c.currentTime.Load()
}

func (c *capture) setupPendingLocked() bool {
	return c.setupDone != nil && !c.setupDone.IsBroken()
}

func (c *capture) StartRecording(ctx context.Context) <-chan error {
	res := make(chan error, 1)

	c.mu.Lock()
	if !c.enabled || c.State().Active() {
		c.mu.Unlock()
		close(res)
		return res
	}
	if c.finalizing {
		c.mu.Unlock()
		res <- errors.ErrFinalizeInProgress
		close(res)
		return res
	}

	c.round++
	round := c.round
	info := newOutputInfo(c.kind, c.id, c.outputDir, c.Clock.Now())

	// a stream that failed at runtime is still attached, and an unsaved round still holds its writer
	stale := c.stream
	c.stream = nil
	prevWriter, prevInfo := c.takeRoundLocked()

	setupCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := &core.Fuse{}
	c.setupDone, c.cancel = done, cancel
	c.err = nil
	c.setState(types.RecordingStateRecording)
	c.mu.Unlock()

	c.logger.Infow("starting recording", "filename", info.Filename)

	go func() {
		defer close(res)
		defer done.Break()

		if stale != nil {
			stale.Stop()
			c.Monitor.PipelineStopped(string(c.kind))
		}
		if prevWriter != nil {
			c.logger.Infow("saving previous recording", "filename", prevInfo.Filename)
			if _, err := c.finalize(setupCtx, prevWriter, prevInfo); err != nil {
				c.logger.Warnw("could not save previous recording", err)
			}
		}

		if err := c.setup(setupCtx, round, info); err != nil {
			cancel()
			res <- c.setupFailed(round, err)
		}
	}()

	return res
}

func (c *capture) setup(ctx context.Context, round uint64, info *OutputInfo) error {
	ctx, span := tracer.Start(ctx, "Pipeline.setup")
	defer span.End()

	if err := os.MkdirAll(c.outputDir, 0755); err != nil {
		return err
	}

	writer, err := c.Writers.NewWriter(c.writerConfig(info.Location))
	if err != nil {
		return err
	}

	stream, err := c.Capturer.NewStream(c.streamConfig(), c.self)
	if err != nil {
		writer.Abort()
		return err
	}

	// the input is attached before the stream starts so the first frames have somewhere to go
	input := writer.Input()
	c.appendMu.Lock()
	c.input = input
	c.rebase = true
	c.resumeAt = 0
	c.hasLast = false
	c.currentTime.Store(0)
	c.appendMu.Unlock()

	err = stream.Start(ctx)

	c.mu.Lock()
	if err == nil && (ctx.Err() != nil || c.round != round) {
		err = errors.ErrSetupTimeout
	}
	if err == nil {
		c.writer, c.stream, c.output = writer, stream, info
		c.mu.Unlock()

		c.Monitor.PipelineStarted(string(c.kind))
		c.logger.Debugw("pipeline setup complete")
		return nil
	}
	c.mu.Unlock()

	stream.Stop()
	c.appendMu.Lock()
	if c.input == input {
		c.input = nil
	}
	c.appendMu.Unlock()
	writer.Abort()
	return err
}

func (c *capture) setupFailed(round uint64, err error) error {
	setupErr := &errors.SetupError{Kind: c.kind, ID: c.id, Err: err}

	c.mu.Lock()
	if c.round == round {
		c.err = setupErr
		c.setState(types.RecordingStateStopped)
	}
	c.mu.Unlock()

	c.logger.Errorw("pipeline setup failed", err)
	c.Monitor.IncSetupFailure(string(c.kind))
	if c.OnError != nil {
		c.OnError(c.self, setupErr)
	}
	return setupErr
}

func (c *capture) PauseRecording() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled || c.State() != types.RecordingStateRecording {
		return
	}
	c.setState(types.RecordingStatePaused)
}

func (c *capture) ResumeRecording() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled || c.State() != types.RecordingStatePaused {
		return
	}

	// the next frame continues where the output left off
	c.appendMu.Lock()
	c.rebase = true
	c.resumeAt = c.currentTime.Load()
	c.appendMu.Unlock()

	c.setState(types.RecordingStateRecording)
}

// StopRecording waits for a pending setup, up to the setup timeout, before stopping the
// stream. On timeout the setup is cancelled and tears itself down.
func (c *capture) StopRecording(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Pipeline.StopRecording")
	defer span.End()

	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return nil
	}
	done, cancel := c.setupDone, c.cancel
	c.mu.Unlock()

	var err error
	if done != nil {
		select {
		case <-done.Watch():
		case <-time.After(c.conf.SetupTimeout):
			err = errors.ErrSetupTimeout
		case <-ctx.Done():
			err = ctx.Err()
		}
		cancel()
	}

	c.mu.Lock()
	prev := c.State()
	stream := c.stream
	c.stream = nil
	c.setState(types.RecordingStateStopped)
	c.mu.Unlock()

	if stream != nil {
		stream.Stop()
		c.Monitor.PipelineStopped(string(c.kind))
	}
	if prev != types.RecordingStateStopped {
		c.logger.Infow("recording stopped", "previous", prev.String())
	}
	if err != nil {
		c.logger.Warnw("setup did not complete before stop", err)
	}
	return err
}

func (c *capture) OnStreamError(err error) {
	c.mu.Lock()
	if !c.State().Active() {
		c.mu.Unlock()
		c.logger.Debugw("stream error while inactive", "error", err)
		return
	}
	streamErr := &errors.StreamError{Kind: c.kind, ID: c.id, Err: err}
	c.err = streamErr
	c.setState(types.RecordingStateFailed)
	c.mu.Unlock()

	c.logger.Errorw("capture stream failed", err)
	if c.OnError != nil {
		c.OnError(c.self, streamErr)
	}
}
