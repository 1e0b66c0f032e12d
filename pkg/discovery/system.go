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

package discovery

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/desktop-recorder/pkg/errors"
	"github.com/livekit/desktop-recorder/pkg/source"
)

type CameraLister interface {
	ListCameras(ctx context.Context) ([]source.Camera, error)
}

// SystemEnumerator lists X11 monitors with xrandr, top-level windows with wmctrl and cameras
// through a CameraLister.
type SystemEnumerator struct {
	cameras CameraLister
	logger  logger.Logger

	run      func(ctx context.Context, name string, args ...string) ([]byte, error)
	procName func(pid int) (string, error)
}

func NewSystemEnumerator(cameras CameraLister, l logger.Logger) *SystemEnumerator {
	if l == nil {
		l = logger.GetLogger()
	}
	return &SystemEnumerator{
		cameras:  cameras,
		logger:   l,
		run:      runCommand,
		procName: readProcName,
	}
}

func (e *SystemEnumerator) Displays(ctx context.Context) ([]source.Display, error) {
	out, err := e.run(ctx, "xrandr", "--listmonitors")
	if err != nil {
		return nil, err
	}
	return parseMonitors(out), nil
}

func (e *SystemEnumerator) Applications(ctx context.Context) ([]source.Application, error) {
	out, err := e.run(ctx, "wmctrl", "-lp")
	if err != nil {
		return nil, err
	}

	// one entry per process name, titled by its first window that has a title
	seen := make(map[string]int)
	var apps []source.Application
	for _, w := range parseWindows(out) {
		id, err := e.procName(w.pid)
		if err != nil {
			e.logger.Debugw("could not resolve window process", "pid", w.pid, "error", err)
			id = fmt.Sprintf("pid-%d", w.pid)
		}
		if i, ok := seen[id]; ok {
			if apps[i].Name == "" && w.title != "" {
				apps[i].Name = w.title
				apps[i].PID = w.pid
			}
			continue
		}
		seen[id] = len(apps)
		apps = append(apps, source.Application{ID: id, Name: w.title, PID: w.pid})
	}
	return apps, nil
}

func (e *SystemEnumerator) Cameras(ctx context.Context) ([]source.Camera, error) {
	if e.cameras == nil {
		return nil, nil
	}
	return e.cameras.ListCameras(ctx)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var b, e bytes.Buffer
	cmd.Stdout = &b
	cmd.Stderr = &e
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v %s", errors.ErrCommandFailed, name, err, strings.TrimSpace(e.String()))
	}
	return b.Bytes(), nil
}

func readProcName(pid int) (string, error) {
	b, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// " 1: +HDMI-1 2560/597x1440/336+1920+0  HDMI-1"
var monitorRegExp = regexp.MustCompile(`^\s*(\d+):\s+\+?\*?(\S+)\s+(\d+)/\d+x(\d+)/\d+([+-]\d+)([+-]\d+)`)

func parseMonitors(out []byte) []source.Display {
	var displays []source.Display
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		match := monitorRegExp.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}
		displays = append(displays, source.Display{
			ID:     match[1],
			Name:   match[2],
			Width:  atoi32(match[3]),
			Height: atoi32(match[4]),
			X:      atoi32(match[5]),
			Y:      atoi32(match[6]),
		})
	}
	return displays
}

type window struct {
	id    string
	pid   int
	title string
}

// "0x03a00003  0 2345   host Terminal - bash"
var windowRegExp = regexp.MustCompile(`^(0x[0-9a-fA-F]+)\s+(-?\d+)\s+(\d+)\s+\S+\s*(.*)$`)

func parseWindows(out []byte) []window {
	var windows []window
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		match := windowRegExp.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}
		// sticky windows (desktop -1) are panels and docks
		if match[2] == "-1" {
			continue
		}
		pid, _ := strconv.Atoi(match[3])
		windows = append(windows, window{
			id:    match[1],
			pid:   pid,
			title: strings.TrimSpace(match[4]),
		})
	}
	return windows
}

func atoi32(s string) int32 {
	i, _ := strconv.ParseInt(s, 10, 32)
	return int32(i)
}
