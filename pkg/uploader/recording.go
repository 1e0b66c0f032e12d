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

package uploader

import (
	"path"
	"strconv"
	"time"

	"github.com/livekit/desktop-recorder/pkg/source"
	"github.com/livekit/desktop-recorder/pkg/types"
	"github.com/livekit/desktop-recorder/version"
)

const keyDateFormat = "2006-01-02"

// metadata keys use underscores, azure rejects anything that is not a valid identifier
const (
	metaSourceKind = "source_kind"
	metaSourceID   = "source_id"
	metaStartedAt  = "started_at"
	metaDurationMs = "duration_ms"
	metaVersion    = "recorder_version"
)

// Recording is a finalized file and the source it was captured from.
type Recording struct {
	LocalPath  string
	Filename   string
	OutputType types.OutputType
	SourceKind types.SourceKind
	SourceID   string
	StartedAt  time.Time
	Duration   time.Duration
}

// ObjectKey groups rounds by source and day: <kind>/<source>/<yyyy-mm-dd>/<filename>.
func (r *Recording) ObjectKey() string {
	filename := r.Filename
	if filename == "" {
		filename = path.Base(r.LocalPath)
	}
	if r.SourceKind == "" {
		return filename
	}

	key := path.Join(string(r.SourceKind), source.SafeID(r.SourceID))
	if !r.StartedAt.IsZero() {
		key = path.Join(key, r.StartedAt.UTC().Format(keyDateFormat))
	}
	return path.Join(key, filename)
}

func (r *Recording) Metadata() map[string]string {
	m := map[string]string{
		metaVersion: version.Version,
	}
	if r.SourceKind != "" {
		m[metaSourceKind] = string(r.SourceKind)
		m[metaSourceID] = r.SourceID
	}
	if !r.StartedAt.IsZero() {
		m[metaStartedAt] = r.StartedAt.UTC().Format(time.RFC3339Nano)
	}
	if r.Duration > 0 {
		m[metaDurationMs] = strconv.FormatInt(r.Duration.Milliseconds(), 10)
	}
	return m
}

func (r *Recording) contentType() types.OutputType {
	if r.OutputType == "" {
		return types.OutputTypeMP4
	}
	return r.OutputType
}
