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


package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/desktop-recorder/pkg/discovery"
	"github.com/livekit/desktop-recorder/pkg/gstreamer"
	"github.com/livekit/desktop-recorder/pkg/source"
)

type sourceList struct {
	Displays     []source.Display     `json:"displays"`
	Cameras      []source.Camera      `json:"cameras"`
	Applications []source.Application `json:"applications"`
}

func runList(ctx context.Context, c *cli.Command) error {
	if _, err := getConfig(c); err != nil {
		return err
	}

	enumerator := discovery.NewSystemEnumerator(gstreamer.CameraLister{}, logger.GetLogger())

	var list sourceList
	var err error
	if list.Displays, err = enumerator.Displays(ctx); err != nil {
		logger.Warnw("could not list displays", err)
	}
	if list.Cameras, err = enumerator.Cameras(ctx); err != nil {
		logger.Warnw("could not list cameras", err)
	}
	apps, err := enumerator.Applications(ctx)
	if err != nil {
		logger.Warnw("could not list applications", err)
	}
	list.Applications = discovery.FilterApplications(apps, os.Getpid())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}
