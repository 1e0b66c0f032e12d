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
	"context"

	"github.com/frostbyte73/core"
	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"
	"go.uber.org/atomic"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/desktop-recorder/pkg/errors"
	"github.com/livekit/desktop-recorder/pkg/media"
	"github.com/livekit/desktop-recorder/pkg/types"
)

// Capturer opens ximagesrc and v4l2src capture pipelines.
type Capturer struct {
	logger logger.Logger
}

func NewCapturer(l logger.Logger) *Capturer {
	if l == nil {
		l = logger.GetLogger()
	}
	return &Capturer{logger: l}
}

func (c *Capturer) NewStream(conf media.StreamConfig, sink media.FrameSink) (media.Stream, error) {
	description, err := buildCaptureDescription(conf)
	if err != nil {
		return nil, err
	}
	if err = CheckElements(RequiredElements(conf.Kind)...); err != nil {
		return nil, err
	}

	l := c.logger.WithValues("sourceKind", conf.Kind, "sourceID", conf.SourceID)
	p, err := NewPipeline(description, l)
	if err != nil {
		return nil, err
	}

	element, err := p.GetElementByName(captureSinkName)
	if err != nil {
		p.Stop()
		return nil, err
	}
	appSink := app.SinkFromElement(element)
	if appSink == nil {
		p.Stop()
		return nil, errors.ErrGstElementNotFound
	}

	s := &stream{
		pipeline: p,
		appSink:  appSink,
		sink:     sink,
		logger:   l,
	}
	p.SetOnError(s.onError)
	p.AddOnEOS(func() {
		s.onError(errors.ErrInputFinished)
	})
	appSink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: s.onNewSample,
	})
	return s, nil
}

type stream struct {
	pipeline *Pipeline
	appSink  *app.Sink
	sink     media.FrameSink
	logger   logger.Logger

	firstSample core.Fuse
	failed      core.Fuse
	stopped     atomic.Bool
	startErr    atomic.Error
}

// Start plays the pipeline and returns once the first frame arrives, so a missing device or
// display fails here rather than at runtime.
func (s *stream) Start(ctx context.Context) error {
	if err := s.pipeline.Play(); err != nil {
		return err
	}

	select {
	case <-s.firstSample.Watch():
		return nil
	case <-s.failed.Watch():
		return s.startErr.Load()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *stream) Stop() {
	s.stopped.Store(true)
	s.pipeline.Stop()
}

func (s *stream) onError(err error) {
	if !s.firstSample.IsBroken() {
		s.startErr.Store(err)
		s.failed.Break()
		return
	}
	if !s.stopped.Load() {
		// runs on the bus watch, and the sink may stop this stream in response
		go s.sink.OnStreamError(err)
	}
}

func (s *stream) onNewSample(sink *app.Sink) gst.FlowReturn {
	if s.stopped.Load() {
		return gst.FlowEOS
	}

	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowOK
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	if mapInfo == nil {
		return gst.FlowOK
	}
	// the buffer is only valid during this callback
	data := make([]byte, len(mapInfo.Bytes()))
	copy(data, mapInfo.Bytes())
	buffer.Unmap()

	frame := &media.Frame{
		Kind:     types.MediaKindVideo,
		Keyframe: !buffer.HasFlags(gst.BufferFlagDeltaUnit),
		Data:     data,
	}
	if pts := buffer.PresentationTimestamp().AsDuration(); pts != nil {
		frame.PTS = *pts
		frame.HasPTS = true
	}
	if duration := buffer.Duration().AsDuration(); duration != nil {
		frame.Duration = *duration
	}

	s.firstSample.Break()
	s.sink.OnFrame(frame)
	return gst.FlowOK
}
