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
	"fmt"
	"path"
	"time"

	"github.com/livekit/desktop-recorder/pkg/source"
	"github.com/livekit/desktop-recorder/pkg/types"
)

const filenameTimeFormat = "20060102-150405.000"

type OutputInfo struct {
	SourceKind     types.SourceKind `json:"source_kind"`
	SourceID       string           `json:"source_id"`
	Filename       string           `json:"filename"`
	Location       string           `json:"location"`
	UploadLocation string           `json:"upload_location,omitempty"`
	Size           int64            `json:"size"`
	StartedAt      time.Time        `json:"started_at"`
	EndedAt        time.Time        `json:"ended_at"`
	Duration       time.Duration    `json:"duration"`
}

func newOutputInfo(kind types.SourceKind, id, dir string, startedAt time.Time) *OutputInfo {
	filename := outputFilename(kind, id, startedAt)
	return &OutputInfo{
		SourceKind: kind,
		SourceID:   id,
		Filename:   filename,
		Location:   path.Join(dir, filename),
		StartedAt:  startedAt,
	}
}

// outputFilename returns <kind>-<id>-<timestamp>.mp4
func outputFilename(kind types.SourceKind, id string, t time.Time) string {
	return fmt.Sprintf("%s-%s-%s%s",
		kind, source.SafeID(id), t.Format(filenameTimeFormat), types.FileExtensionForOutputType[types.OutputTypeMP4],
	)
}
