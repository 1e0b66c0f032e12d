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

	"github.com/livekit/desktop-recorder/pkg/errors"
	"github.com/livekit/desktop-recorder/pkg/media"
	"github.com/livekit/desktop-recorder/pkg/types"
	"github.com/livekit/desktop-recorder/pkg/uploader"
)

// SaveRecording stops the stream if needed and finalizes the current round. It returns
// nil, nil when the pipeline is disabled or has nothing to save.
func (c *capture) SaveRecording(ctx context.Context) (*OutputInfo, error) {
	ctx, span := tracer.Start(ctx, "Pipeline.SaveRecording")
	defer span.End()

	if !c.Enabled() {
		return nil, nil
	}
	if err := c.StopRecording(ctx); err != nil {
		c.logger.Warnw("could not stop recording cleanly", err)
	}

	c.mu.Lock()
	if c.finalizing {
		c.mu.Unlock()
		return nil, errors.ErrFinalizeInProgress
	}
	writer, info := c.takeRoundLocked()
	c.mu.Unlock()

	if writer == nil {
		return nil, nil
	}
	return c.finalize(ctx, writer, info)
}

// takeRoundLocked detaches the current writer and marks the pipeline as finalizing.
func (c *capture) takeRoundLocked() (media.Writer, *OutputInfo) {
	if c.writer == nil || c.finalizing {
		return nil, nil
	}

	writer, info := c.writer, c.output
	c.writer, c.output = nil, nil
	c.finalizing = true
	return writer, info
}

func (c *capture) finalize(ctx context.Context, writer media.Writer, info *OutputInfo) (*OutputInfo, error) {
	ctx, span := tracer.Start(ctx, "Pipeline.finalize")
	defer span.End()

	defer func() {
		c.mu.Lock()
		c.finalizing = false
		c.mu.Unlock()
	}()

	start := time.Now()
	err := c.drain(ctx, info)
	if err == nil {
		err = writer.Finalize(ctx)
	} else {
		writer.Abort()
	}
	c.Monitor.ObserveFinalize(string(c.kind), time.Since(start), err)

	if err != nil {
		finalizeErr := &errors.FinalizeError{Kind: c.kind, ID: c.id, Err: err}
		c.logger.Errorw("could not save recording", err, "filename", info.Filename)
		c.mu.Lock()
		c.err = finalizeErr
		c.mu.Unlock()
		return nil, finalizeErr
	}

	info.EndedAt = c.Clock.Now()
	if fi, statErr := os.Stat(info.Location); statErr == nil {
		info.Size = fi.Size()
	}
	c.logger.Infow("recording saved",
		"location", info.Location,
		"duration", info.Duration,
		"size", info.Size,
	)

	if c.Uploader != nil {
		location, size, uploadErr := c.Uploader.Upload(&uploader.Recording{
			LocalPath:  info.Location,
			Filename:   info.Filename,
			OutputType: types.OutputTypeMP4,
			SourceKind: c.kind,
			SourceID:   c.id,
			StartedAt:  info.StartedAt,
			Duration:   info.Duration,
		}, c.DeleteAfterUpload)
		if uploadErr != nil {
			c.logger.Warnw("could not upload recording", uploadErr, "location", info.Location)
		} else {
			info.UploadLocation = location
			info.Size = size
		}
	}
	if c.Journal != nil {
		if journalErr := c.Journal.Record(info); journalErr != nil {
			c.logger.Warnw("could not write journal entry", journalErr)
		}
	}

	return info, nil
}

// drain detaches the input under the append lock, so an in-flight frame completes first, then
// waits for the input to accept more data before marking it finished.
func (c *capture) drain(ctx context.Context, info *OutputInfo) error {
	c.appendMu.Lock()
	defer c.appendMu.Unlock()

	input := c.input
	c.input = nil
	info.Duration = c.currentTime.Load()
	if input == nil {
		return errors.ErrStreamNotStarted
	}

	err := c.waitReady(ctx, input)
	input.MarkFinished()
	return err
}

// waitReady polls with exponential backoff, waking early on the input's ready signal, and
// gives up after the configured ready timeout.
func (c *capture) waitReady(ctx context.Context, input media.Input) error {
	if input.ReadyForMoreData() {
		return nil
	}

	deadline := time.NewTimer(c.conf.Finalize.ReadyTimeout)
	defer deadline.Stop()

	delay := c.conf.Finalize.MinReadyDelay
	for {
		poll := time.NewTimer(delay)
		select {
		case <-input.Ready():
		case <-poll.C:
		case <-deadline.C:
			poll.Stop()
			return errors.ErrFinalizeTimeout
		case <-ctx.Done():
			poll.Stop()
			return ctx.Err()
		}
		poll.Stop()

		if input.ReadyForMoreData() {
			return nil
		}
		delay = min(delay*2, c.conf.Finalize.MaxReadyDelay)
	}
}
