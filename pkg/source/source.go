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

// Package source describes the things that can be recorded: displays and cameras, plus the
// applications that can be excluded from display capture.
package source

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"github.com/livekit/desktop-recorder/pkg/types"
)

type Source interface {
	SourceID() string
	SourceKind() types.SourceKind
	DisplayName() string
	Dimensions() (width, height int32)
}

type Display struct {
	ID     string // monitor index, stable across refreshes
	Name   string // output name, e.g. HDMI-1
	X      int32
	Y      int32
	Width  int32
	Height int32
}

func (d Display) SourceID() string             { return d.ID }
func (d Display) SourceKind() types.SourceKind { return types.SourceKindDisplay }
func (d Display) DisplayName() string          { return d.Name }
func (d Display) Dimensions() (int32, int32)   { return d.Width, d.Height }

func (d Display) String() string {
	return fmt.Sprintf("%s (%dx%d+%d+%d)", d.Name, d.Width, d.Height, d.X, d.Y)
}

type Camera struct {
	ID         string // device path or serial, stable across refreshes
	Name       string
	DevicePath string
	Width      int32
	Height     int32
}

func (c Camera) SourceID() string             { return c.ID }
func (c Camera) SourceKind() types.SourceKind { return types.SourceKindCamera }
func (c Camera) DisplayName() string          { return c.Name }
func (c Camera) Dimensions() (int32, int32)   { return c.Width, c.Height }

type Application struct {
	ID   string // process name
	Name string // window or application title
	PID  int
}

// CompareIDs orders numeric ids numerically and everything else lexically, so display 10
// sorts after display 9.
func CompareIDs(a, b string) int {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(na, nb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}

// SafeID maps an id such as a device path onto characters usable in file names and object
// keys.
func SafeID(id string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, id)
	s = strings.Trim(s, "_")
	if s == "" {
		return "source"
	}
	return s
}
