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
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/desktop-recorder/pkg/config"
	"github.com/livekit/desktop-recorder/pkg/discovery"
	"github.com/livekit/desktop-recorder/pkg/gstreamer"
	"github.com/livekit/desktop-recorder/pkg/pipeline"
	"github.com/livekit/desktop-recorder/pkg/session"
	"github.com/livekit/desktop-recorder/pkg/stats"
	"github.com/livekit/desktop-recorder/pkg/types"
	"github.com/livekit/desktop-recorder/pkg/uploader"
)

func runRecord(ctx context.Context, c *cli.Command) error {
	conf, err := getConfig(c)
	if err != nil {
		return err
	}

	opts, closeJournal, err := getOptions(conf)
	if err != nil {
		return err
	}
	defer closeJournal()

	enumerator := discovery.NewSystemEnumerator(gstreamer.CameraLister{}, logger.GetLogger())
	s := session.New(conf, enumerator, opts)
	s.Subscribe(func(e session.Event) {
		if e.Type == session.EventPipelineFailed {
			logger.Warnw("pipeline failed", e.Err, "sourceKind", e.Kind, "sourceID", e.SourceID)
		}
	})

	if err = s.Refresh(ctx); err != nil {
		logger.Warnw("source discovery incomplete", err)
	}
	if err = selectSources(s, c); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		_ = s.Run(runCtx)
	}()

	if err = s.Start(ctx); err != nil {
		return err
	}
	if err = s.WaitStarted(ctx); err != nil {
		logger.Warnw("not all pipelines started", err)
	}
	logger.Infow("recording", "state", s.State().String())

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	pauseChan := make(chan os.Signal, 1)
	signal.Notify(pauseChan, syscall.SIGUSR1)

	var timeout <-chan time.Time
	if d := c.Duration("duration"); d > 0 {
		timeout = time.After(d)
	}

wait:
	for {
		select {
		case <-pauseChan:
			if s.State() == types.RecordingStatePaused {
				s.Resume()
			} else {
				s.Pause()
			}
			logger.Infow("recording toggled", "state", s.State().String(), "elapsed", s.CurrentTime())
		case sig := <-stopChan:
			logger.Infow("exit requested, saving recordings", "signal", sig)
			break wait
		case <-timeout:
			logger.Infow("duration reached, saving recordings")
			break wait
		}
	}
	cancel()

	outputs, err := s.Save(context.Background())
	for _, info := range outputs {
		logger.Infow("recording saved",
			"sourceKind", info.SourceKind,
			"sourceID", info.SourceID,
			"location", info.Location,
			"uploadLocation", info.UploadLocation,
			"duration", info.Duration,
			"size", info.Size,
		)
	}
	return err
}

func getOptions(conf *config.Config) (pipeline.Options, func(), error) {
	monitor := stats.NewMonitor(nil)
	if conf.PrometheusPort > 0 {
		go serveMetrics(conf.PrometheusPort)
	}

	opts := pipeline.Options{
		Capturer: gstreamer.NewCapturer(logger.GetLogger()),
		Writers:  gstreamer.NewWriterFactory(logger.GetLogger()),
		Monitor:  monitor,
		Logger:   logger.GetLogger(),
	}

	if conf.StorageConfig != nil {
		u, err := uploader.New(conf.StorageConfig, conf.BackupConfig, monitor)
		if err != nil {
			return opts, nil, err
		}
		opts.Uploader = u
		opts.DeleteAfterUpload = conf.StorageConfig.DeleteAfterUpload
	}

	closeJournal := func() {}
	if conf.Output.Journal != "" {
		j := pipeline.NewFileJournal(conf.Output.Journal)
		opts.Journal = j
		closeJournal = func() {
			if err := j.Close(); err != nil {
				logger.Warnw("could not close journal", err)
			}
		}
	}
	return opts, closeJournal, nil
}

// selectSources applies the display, camera and exclude flags on top of discovery defaults.
func selectSources(s *session.Session, c *cli.Command) error {
	displays := c.StringSlice("display")
	if c.Bool("no-display") || len(displays) > 0 {
		for _, p := range s.Displays() {
			if err := s.SetSourceEnabled(types.SourceKindDisplay, p.ID(), slices.Contains(displays, p.ID())); err != nil {
				return err
			}
		}
	}

	for _, id := range c.StringSlice("camera") {
		if err := s.SetSourceEnabled(types.SourceKindCamera, id, true); err != nil {
			return err
		}
	}

	for _, name := range c.StringSlice("exclude") {
		matched := false
		for _, app := range s.Applications() {
			if app.ID == name || app.Name == name {
				if err := s.SetApplicationIncluded(app.ID, false); err != nil {
					return err
				}
				matched = true
			}
		}
		if !matched {
			logger.Warnw("application not found", nil, "application", name)
		}
	}
	return nil
}
