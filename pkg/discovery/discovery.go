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

// Package discovery enumerates recordable sources and merges them into existing pipelines.
package discovery

import (
	"context"
	"slices"
	"strings"

	"github.com/livekit/desktop-recorder/pkg/source"
)

type Enumerator interface {
	Displays(ctx context.Context) ([]source.Display, error)
	Applications(ctx context.Context) ([]source.Application, error)
	Cameras(ctx context.Context) ([]source.Camera, error)
}

// FilterApplications drops the recorder's own process and windows without a title.
func FilterApplications(apps []source.Application, ownPID int) []source.Application {
	filtered := make([]source.Application, 0, len(apps))
	for _, app := range apps {
		if app.PID == ownPID || strings.TrimSpace(app.Name) == "" {
			continue
		}
		filtered = append(filtered, app)
	}
	return filtered
}

type identified interface {
	ID() string
}

// Reconcile wraps sources not yet present in existing with create, keeps every existing
// pipeline untouched, and returns the union sorted by id along with the newly created ones.
// Pipelines whose source disappeared are kept; removal is explicit.
func Reconcile[S source.Source, P identified](existing []P, discovered []S, create func(S) P) (merged []P, added []P) {
	known := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		known[p.ID()] = struct{}{}
	}

	merged = make([]P, 0, len(existing)+len(discovered))
	merged = append(merged, existing...)
	for _, s := range discovered {
		id := s.SourceID()
		if _, ok := known[id]; ok {
			continue
		}
		known[id] = struct{}{}
		p := create(s)
		added = append(added, p)
		merged = append(merged, p)
	}

	slices.SortStableFunc(merged, func(a, b P) int {
		return source.CompareIDs(a.ID(), b.ID())
	})
	return merged, added
}
