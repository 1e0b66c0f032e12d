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

package session

import (
	"context"
	"slices"
	"time"

	"github.com/livekit/desktop-recorder/pkg/discovery"
	"github.com/livekit/desktop-recorder/pkg/errors"
	"github.com/livekit/desktop-recorder/pkg/pipeline"
	"github.com/livekit/desktop-recorder/pkg/types"
)

func (s *Session) ToggleDisplay(id string) error {
	return s.toggle(types.SourceKindDisplay, id)
}

func (s *Session) ToggleCamera(id string) error {
	return s.toggle(types.SourceKindCamera, id)
}

func (s *Session) toggle(kind types.SourceKind, id string) error {
	s.mu.Lock()
	r := s.findLocked(kind, id)
	s.mu.Unlock()
	if r == nil {
		return errors.ErrDeviceNotFound(kind, id)
	}
	return s.setEnabled(r, !r.Enabled())
}

// SetSourceEnabled sets one pipeline's enabled flag.
func (s *Session) SetSourceEnabled(kind types.SourceKind, id string, enabled bool) error {
	s.mu.Lock()
	r := s.findLocked(kind, id)
	s.mu.Unlock()
	if r == nil {
		return errors.ErrDeviceNotFound(kind, id)
	}
	return s.setEnabled(r, enabled)
}

func (s *Session) setEnabled(r pipeline.Recordable, enabled bool) error {
	if r.Enabled() == enabled {
		return nil
	}
	if err := r.SetEnabled(enabled); err != nil {
		return err
	}

	s.logger.Debugw("source toggled", "sourceKind", r.Kind(), "sourceID", r.ID(), "enabled", enabled)
	s.publish(Event{
		Type:     EventSourceToggled,
		Kind:     r.Kind(),
		SourceID: r.ID(),
		State:    r.State(),
		Enabled:  enabled,
	})
	return nil
}

func (s *Session) ToggleApplication(id string) error {
	if _, err := s.apps.Toggle(id); err != nil {
		return err
	}
	s.publish(Event{Type: EventApplicationsChanged})
	return nil
}

func (s *Session) SetApplicationIncluded(id string, included bool) error {
	if err := s.apps.Set(id, included); err != nil {
		return err
	}
	s.publish(Event{Type: EventApplicationsChanged})
	return nil
}

func (s *Session) InvertApplications() {
	s.apps.Invert()
	s.publish(Event{Type: EventApplicationsChanged})
}

// ResetApps includes every application again and refreshes discovery.
func (s *Session) ResetApps(ctx context.Context) error {
	s.apps.ResetAll()
	s.publish(Event{Type: EventApplicationsChanged})
	return s.Refresh(ctx)
}

// RemoveSource drops a pipeline. It is refused while the pipeline is recording or holds an
// unsaved round.
func (s *Session) RemoveSource(kind types.SourceKind, id string) error {
	s.mu.Lock()
	r := s.findLocked(kind, id)
	if r == nil {
		s.mu.Unlock()
		return errors.ErrDeviceNotFound(kind, id)
	}
	if err := r.SetEnabled(false); err != nil {
		s.mu.Unlock()
		return err
	}
	switch kind {
	case types.SourceKindDisplay:
		s.displays = slices.DeleteFunc(s.displays, func(p *pipeline.DisplayPipeline) bool { return p.ID() == id })
	case types.SourceKindCamera:
		s.cameras = slices.DeleteFunc(s.cameras, func(p *pipeline.CameraPipeline) bool { return p.ID() == id })
	}
	s.mu.Unlock()

	s.logger.Infow("source removed", "sourceKind", kind, "sourceID", id)
	s.publish(Event{Type: EventSourcesChanged, Kind: kind, SourceID: id})
	return nil
}

// Refresh enumerates sources and reconciles them with the existing pipelines. A failure to
// enumerate one kind leaves that kind untouched.
func (s *Session) Refresh(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Session.Refresh")
	defer span.End()

	errs := &errors.ErrArray{}

	displays, err := s.enumerator.Displays(ctx)
	if err != nil {
		s.logger.Warnw("could not list displays", err)
		errs.AppendErr(err)
	}
	apps, appsErr := s.enumerator.Applications(ctx)
	if appsErr != nil {
		s.logger.Warnw("could not list applications", appsErr)
		errs.AppendErr(appsErr)
	}
	cameras, camerasErr := s.enumerator.Cameras(ctx)
	if camerasErr != nil {
		s.logger.Warnw("could not list cameras", camerasErr)
		errs.AppendErr(camerasErr)
	}

	s.mu.Lock()
	var addedDisplays []*pipeline.DisplayPipeline
	var addedCameras []*pipeline.CameraPipeline
	if err == nil {
		first := !s.displaysDiscovered
		s.displaysDiscovered = true
		s.displays, addedDisplays = discovery.Reconcile(s.displays, displays, s.newDisplayPipeline)
		if first && len(s.displays) > 0 {
			// sorted, so the lowest id comes first
			if enableErr := s.displays[0].SetEnabled(true); enableErr != nil {
				s.logger.Warnw("could not enable default display", enableErr)
			}
		}
	}
	if camerasErr == nil {
		s.cameras, addedCameras = discovery.Reconcile(s.cameras, cameras, s.newCameraPipeline)
	}
	s.mu.Unlock()

	if appsErr == nil {
		s.apps.Reconcile(discovery.FilterApplications(apps, s.ownPID))
	}

	s.logger.Debugw("sources refreshed",
		"displays", len(displays),
		"addedDisplays", len(addedDisplays),
		"cameras", len(cameras),
		"addedCameras", len(addedCameras),
		"applications", s.apps.Len(),
	)
	s.publish(Event{Type: EventSourcesChanged})

	if errs.Len() == 0 {
		return nil
	}
	return errs.ToError()
}

// Run refreshes discovery on the configured interval until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	interval := s.conf.Discovery.Interval
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Debugw("periodic refresh incomplete", "error", err)
			}
		}
	}
}
