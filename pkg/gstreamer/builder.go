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
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-gst/go-gst/gst"

	"github.com/livekit/desktop-recorder/pkg/errors"
	"github.com/livekit/desktop-recorder/pkg/media"
	"github.com/livekit/desktop-recorder/pkg/types"
)

const (
	captureSinkName = "capture_sink"
	writerSrcName   = "writer_src"

	defaultCameraWidth  = 1280
	defaultCameraHeight = 720
	defaultFramerate    = 30
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		gst.Init(nil)
	})
}

// CheckElements returns ErrGstElementNotFound naming the first missing plugin element.
func CheckElements(elements ...string) error {
	Init()
	for _, element := range elements {
		if gst.Find(element) == nil {
			return fmt.Errorf("%w: %s", errors.ErrGstElementNotFound, element)
		}
	}
	return nil
}

// RequiredElements lists the plugin elements a source kind needs.
func RequiredElements(kind types.SourceKind) []string {
	elements := []string{"appsrc", "appsink", "videoconvert", "videoscale", "x264enc", "h264parse", "mp4mux", "filesink"}
	switch kind {
	case types.SourceKindDisplay:
		elements = append(elements, "ximagesrc")
	case types.SourceKindCamera:
		elements = append(elements, "v4l2src")
	}
	return elements
}

// rawVideoCaps is shared by the capture sink and writer source so both ends agree on the
// negotiated format. x264 requires even dimensions.
func rawVideoCaps(width, height, framerate int32) string {
	if width <= 0 || height <= 0 {
		width, height = defaultCameraWidth, defaultCameraHeight
	}
	if framerate <= 0 {
		framerate = defaultFramerate
	}
	return fmt.Sprintf("video/x-raw,format=I420,width=%d,height=%d,framerate=%d/1,pixel-aspect-ratio=1/1",
		width&^1, height&^1, framerate)
}

func buildCaptureDescription(conf media.StreamConfig) (string, error) {
	var src string
	switch conf.Kind {
	case types.SourceKindDisplay:
		if conf.Width <= 0 || conf.Height <= 0 {
			return "", errors.ErrInvalidConfig("display dimensions")
		}
		props := []string{"ximagesrc"}
		if conf.XDisplay != "" {
			props = append(props, "display-name="+strconv.Quote(conf.XDisplay))
		}
		props = append(props,
			fmt.Sprintf("startx=%d", conf.X),
			fmt.Sprintf("starty=%d", conf.Y),
			fmt.Sprintf("endx=%d", conf.X+conf.Width-1),
			fmt.Sprintf("endy=%d", conf.Y+conf.Height-1),
			fmt.Sprintf("show-pointer=%t", conf.ShowPointer),
			"use-damage=false",
		)
		src = strings.Join(props, " ")

	case types.SourceKindCamera:
		if conf.DevicePath == "" {
			return "", errors.ErrInvalidConfig("camera device")
		}
		src = "v4l2src device=" + strconv.Quote(conf.DevicePath)

	default:
		return "", errors.ErrInvalidConfig("source kind")
	}

	return strings.Join([]string{
		src,
		"queue max-size-buffers=4 leaky=downstream",
		"videoconvert",
		"videoscale",
		"videorate",
		rawVideoCaps(conf.Width, conf.Height, conf.Framerate),
		fmt.Sprintf("appsink name=%s emit-signals=true sync=false max-buffers=8 drop=true", captureSinkName),
	}, " ! "), nil
}

func buildWriterDescription(conf media.WriterConfig) (string, error) {
	if conf.Filepath == "" {
		return "", errors.ErrInvalidConfig("output location")
	}
	if conf.Codec != types.MimeTypeH264 {
		return "", errors.ErrInvalidConfig("video codec")
	}

	keyInt := conf.KeyFrameInt * conf.Framerate
	if keyInt <= 0 {
		keyInt = defaultFramerate * 2
	}
	encoder := []string{
		"x264enc",
		fmt.Sprintf("bitrate=%d", conf.Bitrate),
		"tune=zerolatency",
		fmt.Sprintf("key-int-max=%d", keyInt),
	}
	if conf.SpeedPreset != "" {
		encoder = append(encoder, "speed-preset="+conf.SpeedPreset)
	}

	return strings.Join([]string{
		fmt.Sprintf("appsrc name=%s format=time is-live=true do-timestamp=false", writerSrcName),
		"queue",
		"videoconvert",
		strings.Join(encoder, " "),
		"video/x-h264,profile=main",
		"h264parse",
		"mp4mux faststart=true",
		"filesink location=" + strconv.Quote(conf.Filepath),
	}, " ! "), nil
}
