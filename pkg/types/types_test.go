package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordingState(t *testing.T) {
	require.Equal(t, "stopped", RecordingStateStopped.String())
	require.Equal(t, "recording", RecordingStateRecording.String())
	require.Equal(t, "paused", RecordingStatePaused.String())
	require.Equal(t, "failed", RecordingStateFailed.String())
	require.Equal(t, "unknown", RecordingState(42).String())

	require.False(t, RecordingStateStopped.Active())
	require.True(t, RecordingStateRecording.Active())
	require.True(t, RecordingStatePaused.Active())
	require.False(t, RecordingStateFailed.Active())
}

func TestFileExtensions(t *testing.T) {
	require.Equal(t, FileExtensionMP4, FileExtensionForOutputType[OutputTypeMP4])
	require.Equal(t, MimeTypeH264, DefaultVideoCodecs[OutputTypeMP4])
}
