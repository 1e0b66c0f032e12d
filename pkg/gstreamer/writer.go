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
	"fmt"
	"os"

	"github.com/frostbyte73/core"
	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"
	"go.uber.org/atomic"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/desktop-recorder/pkg/errors"
	"github.com/livekit/desktop-recorder/pkg/media"
)

// WriterFactory builds appsrc ! x264enc ! mp4mux ! filesink pipelines.
type WriterFactory struct {
	logger logger.Logger
}

func NewWriterFactory(l logger.Logger) *WriterFactory {
	if l == nil {
		l = logger.GetLogger()
	}
	return &WriterFactory{logger: l}
}

func (f *WriterFactory) NewWriter(conf media.WriterConfig) (media.Writer, error) {
	description, err := buildWriterDescription(conf)
	if err != nil {
		return nil, err
	}

	l := f.logger.WithValues("location", conf.Filepath)
	p, err := NewPipeline(description, l)
	if err != nil {
		return nil, err
	}

	src, err := configureSource(p, conf)
	if err != nil {
		p.Stop()
		return nil, err
	}

	w := &writer{
		conf:     conf,
		pipeline: p,
		logger:   l,
	}
	w.input = &input{
		src:    src,
		ready:  make(chan struct{}, 1),
		logger: l,
	}
	w.input.readyForMore.Store(true)

	src.SetCallbacks(&app.SourceCallbacks{
		NeedDataFunc: func(_ *app.Source, _ uint) {
			w.input.setReady(true)
		},
		EnoughDataFunc: func(_ *app.Source) {
			w.input.setReady(false)
		},
	})
	p.SetOnError(func(err error) {
		w.err.Store(err)
		w.input.fail()
	})

	if err = p.Play(); err != nil {
		p.Stop()
		return nil, err
	}
	return w, nil
}

func configureSource(p *Pipeline, conf media.WriterConfig) (*app.Source, error) {
	element, err := p.GetElementByName(writerSrcName)
	if err != nil {
		return nil, err
	}
	src := app.SrcFromElement(element)
	if src == nil {
		return nil, errors.ErrGstElementNotFound
	}
	if err = src.SetProperty("caps", gst.NewCapsFromString(rawVideoCaps(conf.Width, conf.Height, conf.Framerate))); err != nil {
		return nil, errors.ErrGstPipelineError(err)
	}
	if conf.MaxQueueBytes > 0 {
		if err = src.SetProperty("max-bytes", conf.MaxQueueBytes); err != nil {
			return nil, errors.ErrGstPipelineError(err)
		}
	}
	return src, nil
}

type writer struct {
	conf     media.WriterConfig
	pipeline *Pipeline
	input    *input
	logger   logger.Logger

	err atomic.Error
}

func (w *writer) Input() media.Input {
	return w.input
}

func (w *writer) Finalize(ctx context.Context) error {
	defer w.pipeline.Stop()

	if !w.input.finished.IsBroken() {
		return fmt.Errorf("%w: input not finished", errors.ErrWriterFailed)
	}
	if err := w.err.Load(); err != nil {
		return err
	}
	if err := w.pipeline.WaitEOS(ctx, w.conf.EOSTimeout); err != nil {
		return err
	}
	if err := w.err.Load(); err != nil {
		return err
	}

	w.logger.Debugw("writer finalized")
	return nil
}

func (w *writer) Abort() {
	w.input.fail()
	w.pipeline.Stop()
	if err := os.Remove(w.conf.Filepath); err != nil && !os.IsNotExist(err) {
		w.logger.Warnw("could not remove aborted output", err)
	}
}

type input struct {
	src    *app.Source
	logger logger.Logger

	readyForMore atomic.Bool
	ready        chan struct{}
	finished     core.Fuse
	failed       atomic.Bool
}

func (i *input) ReadyForMoreData() bool {
	return i.readyForMore.Load()
}

func (i *input) Ready() <-chan struct{} {
	return i.ready
}

func (i *input) setReady(ready bool) {
	if i.readyForMore.Swap(ready) || !ready {
		return
	}
	select {
	case i.ready <- struct{}{}:
	default:
	}
}

func (i *input) Append(f *media.Frame) error {
	if i.finished.IsBroken() || i.failed.Load() {
		return errors.ErrInputFinished
	}

	b := gst.NewBufferFromBytes(f.Data)
	b.SetPresentationTimestamp(gst.ClockTime(uint64(f.PTS)))
	if f.Duration > 0 {
		b.SetDuration(gst.ClockTime(uint64(f.Duration)))
	}
	if !f.Keyframe {
		b.SetFlags(b.GetFlags() | gst.BufferFlagDeltaUnit)
	}

	if flow := i.src.PushBuffer(b); flow != gst.FlowOK {
		return fmt.Errorf("%w: unexpected flow return %s", errors.ErrWriterFailed, flow.String())
	}
	return nil
}

func (i *input) MarkFinished() {
	i.finished.Once(func() {
		if i.failed.Load() {
			return
		}
		if flow := i.src.EndStream(); flow != gst.FlowOK && flow != gst.FlowFlushing {
			i.logger.Errorw("unexpected flow return", nil, "flowReturn", flow.String())
		}
	})
}

// fail unblocks anything waiting for readiness once the pipeline can no longer accept data.
func (i *input) fail() {
	i.failed.Store(true)
	i.setReady(true)
}
