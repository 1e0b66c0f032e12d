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

package types

type RecordingState int
type SourceKind string
type MediaKind string
type MimeType string
type OutputType string
type FileExtension string

const (
	// recording states
	RecordingStateStopped RecordingState = iota
	RecordingStateRecording
	RecordingStatePaused
	RecordingStateFailed
)

const (
	// source kinds
	SourceKindDisplay SourceKind = "display"
	SourceKindCamera  SourceKind = "camera"

	// media kinds
	MediaKindVideo MediaKind = "video"
	MediaKindAudio MediaKind = "audio"

	// codecs
	MimeTypeH264     MimeType = "video/h264"
	MimeTypeRawVideo MimeType = "video/x-raw"

	// output types
	OutputTypeMP4 OutputType = "video/mp4"

	// file extensions
	FileExtensionMP4 FileExtension = ".mp4"
)

var (
	FileExtensionForOutputType = map[OutputType]FileExtension{
		OutputTypeMP4: FileExtensionMP4,
	}

	DefaultVideoCodecs = map[OutputType]MimeType{
		OutputTypeMP4: MimeTypeH264,
	}
)

func (s RecordingState) String() string {
	switch s {
	case RecordingStateStopped:
		return "stopped"
	case RecordingStateRecording:
		return "recording"
	case RecordingStatePaused:
		return "paused"
	case RecordingStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Active is true while a round is in progress.
func (s RecordingState) Active() bool {
	return s == RecordingStateRecording || s == RecordingStatePaused
}
