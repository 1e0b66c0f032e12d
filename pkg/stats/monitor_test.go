package stats

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMonitor(t *testing.T) {
	m := NewMonitor(prometheus.NewRegistry())

	m.IncFrame("display", FrameAppended)
	m.IncFrame("display", FrameAppended)
	m.IncFrame("display", FrameDroppedPaused)
	require.Equal(t, float64(2), testutil.ToFloat64(m.frames.WithLabelValues("display", FrameAppended)))
	require.Equal(t, float64(1), testutil.ToFloat64(m.frames.WithLabelValues("display", FrameDroppedPaused)))

	m.PipelineStarted("camera")
	m.PipelineStarted("camera")
	m.PipelineStopped("camera")
	require.Equal(t, float64(1), testutil.ToFloat64(m.activePipelines.WithLabelValues("camera")))

	m.ObserveFinalize("camera", time.Millisecond*20, nil)
	m.ObserveFinalize("camera", time.Millisecond*20, errors.New("eos timeout"))
	require.Equal(t, float64(1), testutil.ToFloat64(m.finalizeCounter.WithLabelValues("camera", "success")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.finalizeCounter.WithLabelValues("camera", "failure")))

	m.IncUploadCountFailure("video/mp4", 10)
	m.IncBackupStorageWrites("video/mp4")
	require.Equal(t, float64(1), testutil.ToFloat64(m.uploadsCounter.WithLabelValues("video/mp4", "failure")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.backupCounter.WithLabelValues("video/mp4")))
}

func TestNilMonitor(t *testing.T) {
	var m *Monitor
	require.NotPanics(t, func() {
		m.IncFrame("display", FrameAppended)
		m.IncSetupFailure("display")
		m.PipelineStarted("display")
		m.PipelineStopped("display")
		m.ObserveFinalize("display", time.Second, nil)
		m.IncUploadCountSuccess("video/mp4", 1)
		m.IncUploadCountFailure("video/mp4", 1)
		m.IncBackupStorageWrites("video/mp4")
	})
}
