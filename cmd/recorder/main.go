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
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/livekit/desktop-recorder/pkg/config"
	"github.com/livekit/desktop-recorder/version"
)

func main() {
	cmd := &cli.Command{
		Name:        "recorder",
		Usage:       "Desktop Recorder",
		Version:     version.Version,
		Description: "records displays and cameras to mp4",
		Commands: []*cli.Command{
			{
				Name:        "list",
				Description: "lists displays, cameras and applications",
				Action:      runList,
			},
			{
				Name:        "record",
				Description: "records until interrupted, SIGUSR1 toggles pause",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "display",
						Usage: "display id to record, defaults to the first display",
					},
					&cli.BoolFlag{
						Name:  "no-display",
						Usage: "do not record any display",
					},
					&cli.StringSliceFlag{
						Name:  "camera",
						Usage: "camera id or device path to record",
					},
					&cli.StringSliceFlag{
						Name:  "exclude",
						Usage: "application id or name to exclude from display capture",
					},
					&cli.DurationFlag{
						Name:  "duration",
						Usage: "stop and save after this long",
					},
				},
				Action: runRecord,
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Desktop Recorder yaml config file",
				Sources: cli.EnvVars("RECORDER_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "config-body",
				Usage:   "Desktop Recorder yaml config body",
				Sources: cli.EnvVars("RECORDER_CONFIG_BODY"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// getConfig falls back to defaults when neither flag is set.
func getConfig(c *cli.Command) (*config.Config, error) {
	configFile := c.String("config")
	configBody := c.String("config-body")
	if configBody == "" && configFile != "" {
		content, err := os.ReadFile(configFile)
		if err != nil {
			return nil, err
		}
		configBody = string(content)
	}

	conf, err := config.NewConfig(configBody)
	if err != nil {
		return nil, err
	}
	if err = conf.InitLogger(); err != nil {
		return nil, err
	}
	return conf, nil
}
