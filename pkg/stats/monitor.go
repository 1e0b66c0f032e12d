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

package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	FrameAppended      = "appended"
	FrameDroppedPaused = "paused"
	FrameDroppedIdle   = "inactive"
	FrameInvalid       = "invalid"
	FrameAudio         = "audio"
	FrameAppendError   = "append_error"
)

// Monitor records pipeline and upload metrics. A nil *Monitor is valid and records nothing.
type Monitor struct {
	frames          *prometheus.CounterVec
	finalizeCounter *prometheus.CounterVec
	finalizeTime    *prometheus.HistogramVec
	setupFailures   *prometheus.CounterVec
	activePipelines *prometheus.GaugeVec

	uploadsCounter      *prometheus.CounterVec
	uploadsResponseTime *prometheus.HistogramVec
	backupCounter       *prometheus.CounterVec
}

// NewMonitor registers all collectors with reg, or the default registerer when reg is nil.
func NewMonitor(reg prometheus.Registerer) *Monitor {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Monitor{}
	m.initPrometheus(reg)
	return m
}

func (m *Monitor) IncFrame(sourceKind, result string) {
	if m == nil {
		return
	}
	m.frames.With(prometheus.Labels{"source_kind": sourceKind, "result": result}).Inc()
}

func (m *Monitor) IncSetupFailure(sourceKind string) {
	if m == nil {
		return
	}
	m.setupFailures.With(prometheus.Labels{"source_kind": sourceKind}).Inc()
}

func (m *Monitor) PipelineStarted(sourceKind string) {
	if m == nil {
		return
	}
	m.activePipelines.With(prometheus.Labels{"source_kind": sourceKind}).Inc()
}

func (m *Monitor) PipelineStopped(sourceKind string) {
	if m == nil {
		return
	}
	m.activePipelines.With(prometheus.Labels{"source_kind": sourceKind}).Dec()
}

func (m *Monitor) ObserveFinalize(sourceKind string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	labels := prometheus.Labels{"source_kind": sourceKind, "status": status}
	m.finalizeCounter.With(labels).Inc()
	m.finalizeTime.With(labels).Observe(float64(elapsed.Milliseconds()))
}
