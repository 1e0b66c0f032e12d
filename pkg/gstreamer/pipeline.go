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
	"regexp"
	"time"

	"github.com/frostbyte73/core"
	"github.com/go-gst/go-gst/gst"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/desktop-recorder/pkg/errors"
)

const busPollInterval = time.Millisecond * 100

// Pipeline is a parsed launch description with a polling bus watch.
type Pipeline struct {
	StateManager
	*Callbacks

	pipeline *gst.Pipeline
	logger   logger.Logger

	eos     core.Fuse
	stopped core.Fuse
	watched core.Fuse
}

func NewPipeline(description string, l logger.Logger) (*Pipeline, error) {
	Init()

	pipeline, err := gst.NewPipelineFromString(description)
	if err != nil {
		return nil, errors.ErrGstPipelineError(err)
	}

	l.Debugw("pipeline created", "description", description)
	return &Pipeline{
		Callbacks: &Callbacks{},
		pipeline:  pipeline,
		logger:    l,
	}, nil
}

func (p *Pipeline) GetElementByName(name string) (*gst.Element, error) {
	element, err := p.pipeline.GetElementByName(name)
	if err != nil || element == nil {
		return nil, errors.ErrGstElementNotFound
	}
	return element, nil
}

func (p *Pipeline) Play() error {
	if _, ok := p.UpgradeState(StateRunning); !ok {
		return nil
	}

	go p.watch()

	p.logger.Debugw("setting state to playing")
	if err := p.pipeline.SetState(gst.StatePlaying); err != nil {
		return errors.ErrGstPipelineError(err)
	}
	return nil
}

// WaitEOS blocks until the bus reports end of stream.
func (p *Pipeline) WaitEOS(ctx context.Context, timeout time.Duration) error {
	select {
	case <-p.eos.Watch():
		return nil
	case <-p.stopped.Watch():
		return errors.ErrInputFinished
	case <-time.After(timeout):
		return errors.ErrEOSTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop sets the pipeline to null and waits for the bus watch to exit. It must not be called
// from a bus callback.
func (p *Pipeline) Stop() {
	p.stopped.Once(func() {
		old, _ := p.UpgradeState(StateStopped)
		p.logger.Debugw("setting state to null")
		if err := p.pipeline.SetState(gst.StateNull); err != nil {
			p.logger.Warnw("could not stop pipeline", err)
		}
		if old == StateBuilding {
			p.watched.Break()
		}
	})
	<-p.watched.Watch()
}

func (p *Pipeline) watch() {
	defer p.watched.Break()

	bus := p.pipeline.GetPipelineBus()
	if bus == nil {
		return
	}

	for !p.stopped.IsBroken() {
		msg := bus.TimedPop(gst.ClockTime(busPollInterval))
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageEOS:
			p.logger.Debugw("EOS received")
			p.UpgradeState(StateEOS)
			p.eos.Break()
			p.OnEOS()

		case gst.MessageError:
			if gErr := msg.ParseError(); gErr != nil {
				element, message := parseDebugInfo(gErr)
				err := errors.ErrGstPipelineError(errors.New(gErr.Error()))
				p.logger.Errorw("pipeline error", err, "element", element, "message", message)
				p.OnError(err)
			}

		case gst.MessageWarning:
			if gWarn := msg.ParseWarning(); gWarn != nil {
				p.logger.Warnw("pipeline warning", errors.New(gWarn.Error()), "source", msg.Source())
			}
		}
	}
}

// Debug info comes in the following format:
// file.c(line): method_name (): /GstPipeline:pipeline0/GstElement:element_name:\nError message
var debugRegExp = regexp.MustCompile(`(?s)GstPipeline:[^/]*/(?:.*/)?([^:/]*):([^:]*)(?::\n)?(.*)`)

func parseDebugInfo(gErr *gst.GError) (element, message string) {
	match := debugRegExp.FindStringSubmatch(gErr.DebugString())
	if match == nil {
		return "", gErr.DebugString()
	}
	return match[1] + ":" + match[2], match[3]
}
