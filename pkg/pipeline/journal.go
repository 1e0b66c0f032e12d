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
	"encoding/json"

	"github.com/linkdata/deadlock"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileJournal appends one JSON line per saved recording to a size-rotated file.
type FileJournal struct {
	mu deadlock.Mutex
	w  *lumberjack.Logger
}

func NewFileJournal(filename string) *FileJournal {
	return &FileJournal{
		w: &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     90, // days
			Compress:   true,
		},
	}
}

func (j *FileJournal) Record(info *OutputInfo) error {
	b, err := json.Marshal(info)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.w.Write(b)
	return err
}

func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.w.Close()
}
