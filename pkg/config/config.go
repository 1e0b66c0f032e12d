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

package config

import (
	"os"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/desktop-recorder/pkg/errors"
)

const (
	defaultFramerate    = 30
	defaultVideoBitrate = 4500
	defaultXDisplay     = ":0"

	defaultSetupTimeout      = time.Second * 10
	defaultReadyTimeout      = time.Second * 3
	defaultMinReadyDelay     = time.Millisecond * 5
	defaultMaxReadyDelay     = time.Millisecond * 200
	defaultEOSTimeout        = time.Second * 30
	defaultDiscoveryInterval = time.Second * 5
)

type Config struct {
	Logging        *logger.Config  `yaml:"logging"`         // logging config
	Output         OutputConfig    `yaml:"output"`          // where recordings are written
	Encoding       EncodingConfig  `yaml:"encoding"`        // fixed encoder parameters
	Capture        CaptureConfig   `yaml:"capture"`         // capture stream parameters
	SetupTimeout   time.Duration   `yaml:"setup_timeout"`   // max time stop waits for a pending start
	Finalize       FinalizeConfig  `yaml:"finalize"`        // save timeouts
	Discovery      DiscoveryConfig `yaml:"discovery"`       // source discovery
	StorageConfig  *StorageConfig  `yaml:"storage"`         // optional upload of finalized recordings
	BackupConfig   *StorageConfig  `yaml:"backup"`          // backup storage, for upload failures
	PrometheusPort int             `yaml:"prometheus_port"` // serve /metrics when non-zero
}

type OutputConfig struct {
	DisplayDir string `yaml:"display_dir"` // defaults to a temp directory
	CameraDir  string `yaml:"camera_dir"`  // defaults to the user's videos directory
	Journal    string `yaml:"journal"`     // recordings journal, empty to disable
}

type EncodingConfig struct {
	VideoBitrate int32  `yaml:"video_bitrate"` // kbps
	Framerate    int32  `yaml:"framerate"`
	SpeedPreset  string `yaml:"speed_preset"`
	KeyFrameSecs int32  `yaml:"key_frame_interval"`
}

type CaptureConfig struct {
	XDisplay      string `yaml:"x_display"`      // X display used for display capture
	ShowPointer   bool   `yaml:"show_pointer"`   // draw the cursor into display recordings
	MaxQueueBytes uint64 `yaml:"max_queue_bytes"` // encoder input queue size
}

type FinalizeConfig struct {
	ReadyTimeout  time.Duration `yaml:"ready_timeout"`   // max wait for the encoder input to drain
	MinReadyDelay time.Duration `yaml:"min_ready_delay"` // first poll interval
	MaxReadyDelay time.Duration `yaml:"max_ready_delay"` // poll interval cap
	EOSTimeout    time.Duration `yaml:"eos_timeout"`     // max wait for the muxer to close the file
}

type DiscoveryConfig struct {
	Interval time.Duration `yaml:"interval"` // 0 disables periodic refresh
}

func NewConfig(confString string) (*Config, error) {
	conf := &Config{
		Logging: &logger.Config{
			Level: "info",
		},
		Encoding: EncodingConfig{
			VideoBitrate: defaultVideoBitrate,
			Framerate:    defaultFramerate,
			SpeedPreset:  "veryfast",
			KeyFrameSecs: 2,
		},
		Capture: CaptureConfig{
			XDisplay:      os.Getenv("DISPLAY"),
			ShowPointer:   true,
			MaxQueueBytes: 64 << 20,
		},
		SetupTimeout: defaultSetupTimeout,
		Finalize: FinalizeConfig{
			ReadyTimeout:  defaultReadyTimeout,
			MinReadyDelay: defaultMinReadyDelay,
			MaxReadyDelay: defaultMaxReadyDelay,
			EOSTimeout:    defaultEOSTimeout,
		},
		Discovery: DiscoveryConfig{
			Interval: defaultDiscoveryInterval,
		},
	}

	if confString != "" {
		if err := yaml.Unmarshal([]byte(confString), conf); err != nil {
			return nil, errors.ErrCouldNotParseConfig(err)
		}
	}

	if err := conf.applyDefaults(); err != nil {
		return nil, err
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func (c *Config) applyDefaults() error {
	if c.Capture.XDisplay == "" {
		c.Capture.XDisplay = defaultXDisplay
	}
	if c.Output.DisplayDir == "" {
		c.Output.DisplayDir = path.Join(os.TempDir(), "recordings")
	}
	if c.Output.CameraDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c.Output.CameraDir = path.Join(home, "Videos")
	}
	if c.Finalize.MinReadyDelay <= 0 {
		c.Finalize.MinReadyDelay = defaultMinReadyDelay
	}
	if c.Finalize.MaxReadyDelay < c.Finalize.MinReadyDelay {
		c.Finalize.MaxReadyDelay = c.Finalize.MinReadyDelay
	}
	for _, sc := range []*StorageConfig{c.StorageConfig, c.BackupConfig} {
		if sc != nil && sc.S3 != nil {
			sc.S3.applyDefaults()
		}
	}
	return nil
}

func (c *Config) validate() error {
	switch {
	case c.Encoding.VideoBitrate <= 0:
		return errors.ErrInvalidConfig("encoding.video_bitrate")
	case c.Encoding.Framerate <= 0:
		return errors.ErrInvalidConfig("encoding.framerate")
	case c.SetupTimeout <= 0:
		return errors.ErrInvalidConfig("setup_timeout")
	case c.Finalize.ReadyTimeout <= 0:
		return errors.ErrInvalidConfig("finalize.ready_timeout")
	case c.Finalize.EOSTimeout <= 0:
		return errors.ErrInvalidConfig("finalize.eos_timeout")
	}
	return nil
}

func (c *Config) InitLogger(values ...interface{}) error {
	_, exists := os.LookupEnv("GST_DEBUG")

	// If GST_DEBUG is not set, use pre-defined values based on logging level
	if !exists {
		var gstDebug []string
		switch c.Logging.Level {
		case "debug":
			gstDebug = []string{"3"}
		case "info", "warn":
			gstDebug = []string{"2"}
		case "error":
			gstDebug = []string{"1"}
		}
		gstDebug = append(gstDebug, "ximagesrc:2", "v4l2src:2")

		if err := os.Setenv("GST_DEBUG", strings.Join(gstDebug, ",")); err != nil {
			return err
		}
	}

	zl, err := logger.NewZapLogger(c.Logging)
	if err != nil {
		return err
	}

	logger.SetLogger(zl.WithValues(values...), "recorder")
	return nil
}
