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

	"github.com/go-gst/go-gst/gst"

	"github.com/livekit/desktop-recorder/pkg/errors"
	"github.com/livekit/desktop-recorder/pkg/source"
)

const videoSourceClass = "Video/Source"

// device path keys, v4l2 provider first, then pipewire
var devicePathKeys = []string{"device.path", "api.v4l2.path", "object.path"}

// CameraLister probes video capture devices through a GStreamer device monitor.
type CameraLister struct{}

func (CameraLister) ListCameras(_ context.Context) ([]source.Camera, error) {
	Init()

	monitor := gst.NewDeviceMonitor()
	monitor.AddFilter(videoSourceClass, nil)
	if !monitor.Start() {
		return nil, fmt.Errorf("%w: device monitor did not start", errors.ErrGstElementNotFound)
	}
	defer monitor.Stop()

	var cameras []source.Camera
	for _, device := range monitor.GetDevices() {
		devicePath := devicePathOf(device)
		if devicePath == "" {
			continue
		}
		camera := source.Camera{
			ID:         devicePath,
			Name:       device.GetDisplayName(),
			DevicePath: devicePath,
		}
		camera.Width, camera.Height = largestResolution(device.GetCaps())
		cameras = append(cameras, camera)
	}
	return cameras, nil
}

func devicePathOf(device *gst.Device) string {
	props := device.GetProperties()
	if props == nil {
		return ""
	}
	for _, key := range devicePathKeys {
		if v, err := props.GetValue(key); err == nil {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func largestResolution(caps *gst.Caps) (int32, int32) {
	if caps == nil {
		return 0, 0
	}

	var width, height int32
	for i := 0; i < caps.GetSize(); i++ {
		st := caps.GetStructureAt(i)
		if st == nil || st.Name() != "video/x-raw" {
			continue
		}
		w, wOK := intValue(st, "width")
		h, hOK := intValue(st, "height")
		if wOK && hOK && w*h > width*height {
			width, height = w, h
		}
	}
	return width, height
}

func intValue(st *gst.Structure, key string) (int32, bool) {
	v, err := st.GetValue(key)
	if err != nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return int32(n), true
	case int32:
		return n, true
	case int64:
		return int32(n), true
	default:
		// ranges and lists carry no single value
		return 0, false
	}
}
