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
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "livekit"
	subsystem = "recorder"
)

func (m *Monitor) initPrometheus(reg prometheus.Registerer) {
	m.frames = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frames",
		Help:      "Frames delivered by capture streams, by outcome",
	}, []string{"source_kind", "result"})

	m.setupFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "setup_failures",
		Help:      "Pipelines that failed to build their writer or stream",
	}, []string{"source_kind"})

	m.activePipelines = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_pipelines",
		Help:      "Pipelines with a live capture stream",
	}, []string{"source_kind"})

	m.finalizeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "finalized",
		Help:      "Finalize attempts with status labels",
	}, []string{"source_kind", "status"})

	m.finalizeTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "finalize_time_ms",
		Help:      "A histogram of finalize latencies in milliseconds.",
		Buckets:   []float64{10, 20, 50, 100, 200, 500, 1000, 2000, 5000, 10000, 30000},
	}, []string{"source_kind", "status"})

	m.uploadsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "uploads",
		Help:      "Number of uploads with type and status labels",
	}, []string{"type", "status"})

	m.uploadsResponseTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "upload_response_time_ms",
		Help:      "A histogram of latencies for upload requests in milliseconds.",
		Buckets:   []float64{10, 20, 50, 100, 200, 500, 1000, 2000, 5000, 10000, 15000, 20000, 30000},
	}, []string{"type", "status"})

	m.backupCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "backup_storage_writes",
		Help:      "Number of writes to backup storage",
	}, []string{"type"})

	reg.MustRegister(
		m.frames, m.setupFailures, m.activePipelines, m.finalizeCounter, m.finalizeTime,
		m.uploadsCounter, m.uploadsResponseTime, m.backupCounter,
	)
}
