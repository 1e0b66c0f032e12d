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
	"github.com/livekit/desktop-recorder/pkg/config"
	"github.com/livekit/desktop-recorder/pkg/media"
	"github.com/livekit/desktop-recorder/pkg/source"
	"github.com/livekit/desktop-recorder/pkg/types"
)

// DisplayPipeline records one display region into the display output directory.
type DisplayPipeline struct {
	*capture

	display  source.Display
	excluded func() []string
}

// NewDisplayPipeline creates a disabled pipeline. excluded is read at every start and may be nil.
func NewDisplayPipeline(conf *config.Config, display source.Display, excluded func() []string, opts Options) *DisplayPipeline {
	p := &DisplayPipeline{
		capture:  newCapture(conf, types.SourceKindDisplay, display.ID, display.Name, conf.Output.DisplayDir, opts),
		display:  display,
		excluded: excluded,
	}
	p.self = p
	p.streamConfig = p.getStreamConfig
	p.writerConfig = p.getWriterConfig
	return p
}

func (p *DisplayPipeline) Display() source.Display {
	return p.display
}

func (p *DisplayPipeline) getStreamConfig() media.StreamConfig {
	sc := media.StreamConfig{
		Kind:        types.SourceKindDisplay,
		SourceID:    p.display.ID,
		X:           p.display.X,
		Y:           p.display.Y,
		Width:       p.display.Width,
		Height:      p.display.Height,
		Framerate:   p.conf.Encoding.Framerate,
		ShowPointer: p.conf.Capture.ShowPointer,
		XDisplay:    p.conf.Capture.XDisplay,
	}
	if p.excluded != nil {
		sc.Excluded = p.excluded()
	}
	if len(sc.Excluded) > 0 {
		p.logger.Infow("excluding applications", "applications", sc.Excluded)
	}
	return sc
}

func (p *DisplayPipeline) getWriterConfig(location string) media.WriterConfig {
	return newWriterConfig(p.conf, location, p.display.Width, p.display.Height)
}

func newWriterConfig(conf *config.Config, location string, width, height int32) media.WriterConfig {
	return media.WriterConfig{
		Filepath:      location,
		Width:         width,
		Height:        height,
		Framerate:     conf.Encoding.Framerate,
		Bitrate:       conf.Encoding.VideoBitrate,
		SpeedPreset:   conf.Encoding.SpeedPreset,
		KeyFrameInt:   conf.Encoding.KeyFrameSecs,
		Codec:         types.DefaultVideoCodecs[types.OutputTypeMP4],
		InputFormat:   types.MimeTypeRawVideo,
		MaxQueueBytes: conf.Capture.MaxQueueBytes,
		EOSTimeout:    conf.Finalize.EOSTimeout,
	}
}
