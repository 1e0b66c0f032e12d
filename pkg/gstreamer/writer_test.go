package gstreamer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/desktop-recorder/pkg/errors"
	"github.com/livekit/desktop-recorder/pkg/media"
)

func TestConfigureSourceMissingElement(t *testing.T) {
	if err := CheckElements("videotestsrc", "fakesink"); err != nil {
		t.Skip(err)
	}

	p, err := NewPipeline("videotestsrc ! fakesink", logger.GetLogger())
	require.NoError(t, err)

	_, err = configureSource(p, media.WriterConfig{Width: 640, Height: 480, Framerate: 30})
	require.ErrorIs(t, err, errors.ErrGstElementNotFound)

	// an unplayed pipeline must release without waiting on a bus watch
	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second * 5):
		t.Fatal("stopping an unplayed pipeline blocked")
	}
	require.Equal(t, StateStopped, p.GetState())
}
