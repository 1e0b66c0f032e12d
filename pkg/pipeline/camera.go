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

// CameraPipeline records one camera device into the camera output directory.
type CameraPipeline struct {
	*capture

	camera source.Camera
}

func NewCameraPipeline(conf *config.Config, camera source.Camera, opts Options) *CameraPipeline {
	p := &CameraPipeline{
		capture: newCapture(conf, types.SourceKindCamera, camera.ID, camera.Name, conf.Output.CameraDir, opts),
		camera:  camera,
	}
	p.self = p
	p.streamConfig = p.getStreamConfig
	p.writerConfig = p.getWriterConfig
	return p
}

func (p *CameraPipeline) Camera() source.Camera {
	return p.camera
}

func (p *CameraPipeline) getStreamConfig() media.StreamConfig {
	return media.StreamConfig{
		Kind:       types.SourceKindCamera,
		SourceID:   p.camera.ID,
		DevicePath: p.camera.DevicePath,
		Width:      p.camera.Width,
		Height:     p.camera.Height,
		Framerate:  p.conf.Encoding.Framerate,
	}
}

func (p *CameraPipeline) getWriterConfig(location string) media.WriterConfig {
	return newWriterConfig(p.conf, location, p.camera.Width, p.camera.Height)
}
