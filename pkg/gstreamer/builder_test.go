package gstreamer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/livekit/desktop-recorder/pkg/media"
	"github.com/livekit/desktop-recorder/pkg/types"
)

func TestCaptureDescription(t *testing.T) {
	desc, err := buildCaptureDescription(media.StreamConfig{
		Kind:        types.SourceKindDisplay,
		SourceID:    "1",
		X:           1920,
		Y:           0,
		Width:       1281,
		Height:      720,
		Framerate:   25,
		ShowPointer: true,
		XDisplay:    ":1",
	})
	require.NoError(t, err)
	require.Contains(t, desc, `ximagesrc display-name=":1" startx=1920 starty=0 endx=3200 endy=719 show-pointer=true use-damage=false`)
	require.Contains(t, desc, "video/x-raw,format=I420,width=1280,height=720,framerate=25/1")
	require.Contains(t, desc, "appsink name="+captureSinkName)

	desc, err = buildCaptureDescription(media.StreamConfig{
		Kind:       types.SourceKindCamera,
		SourceID:   "/dev/video0",
		DevicePath: "/dev/video0",
	})
	require.NoError(t, err)
	require.Contains(t, desc, `v4l2src device="/dev/video0"`)
	require.Contains(t, desc, "width=1280,height=720,framerate=30/1")

	_, err = buildCaptureDescription(media.StreamConfig{Kind: types.SourceKindCamera})
	require.Error(t, err)
	_, err = buildCaptureDescription(media.StreamConfig{Kind: types.SourceKindDisplay})
	require.Error(t, err)
}

func TestWriterDescription(t *testing.T) {
	desc, err := buildWriterDescription(media.WriterConfig{
		Filepath:    "/tmp/display-1.mp4",
		Width:       1920,
		Height:      1080,
		Framerate:   30,
		Bitrate:     3000,
		SpeedPreset: "veryfast",
		KeyFrameInt: 2,
		Codec:       types.MimeTypeH264,
		InputFormat: types.MimeTypeRawVideo,
	})
	require.NoError(t, err)
	require.Contains(t, desc, "appsrc name="+writerSrcName)
	require.Contains(t, desc, "x264enc bitrate=3000 tune=zerolatency key-int-max=60 speed-preset=veryfast")
	require.Contains(t, desc, "mp4mux faststart=true")
	require.Contains(t, desc, `filesink location="/tmp/display-1.mp4"`)

	_, err = buildWriterDescription(media.WriterConfig{Codec: types.MimeTypeH264})
	require.Error(t, err)
	_, err = buildWriterDescription(media.WriterConfig{Filepath: "/tmp/out.mp4", Codec: types.MimeTypeRawVideo})
	require.Error(t, err)
}

func TestStateManager(t *testing.T) {
	s := &StateManager{}
	require.Equal(t, StateBuilding, s.GetState())

	old, ok := s.UpgradeState(StateRunning)
	require.True(t, ok)
	require.Equal(t, StateBuilding, old)

	_, ok = s.UpgradeState(StateRunning)
	require.False(t, ok)

	_, ok = s.UpgradeState(StateStopped)
	require.True(t, ok)
	_, ok = s.UpgradeState(StateEOS)
	require.False(t, ok)
	require.Equal(t, "stopped", s.GetState().String())
}

func TestRequiredElements(t *testing.T) {
	require.Contains(t, RequiredElements(types.SourceKindDisplay), "ximagesrc")
	require.NotContains(t, RequiredElements(types.SourceKindDisplay), "v4l2src")
	require.Contains(t, RequiredElements(types.SourceKindCamera), "v4l2src")
}
