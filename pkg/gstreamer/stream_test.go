package gstreamer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/livekit/desktop-recorder/pkg/errors"
	"github.com/livekit/desktop-recorder/pkg/media"
)

type blockingSink struct {
	errs    chan error
	release chan struct{}
}

func (s *blockingSink) OnFrame(*media.Frame) {}

func (s *blockingSink) OnStreamError(err error) {
	s.errs <- err
	<-s.release
}

func TestStreamErrorDoesNotBlockBusWatch(t *testing.T) {
	sink := &blockingSink{
		errs:    make(chan error, 1),
		release: make(chan struct{}),
	}
	s := &stream{sink: sink}
	s.firstSample.Break()

	returned := make(chan struct{})
	go func() {
		s.onError(errors.ErrInputFinished)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("error callback blocked on the sink")
	}

	select {
	case err := <-sink.errs:
		require.ErrorIs(t, err, errors.ErrInputFinished)
	case <-time.After(time.Second):
		t.Fatal("sink never received the error")
	}
	close(sink.release)
}

func TestStreamErrorBeforeFirstSample(t *testing.T) {
	sink := &blockingSink{errs: make(chan error, 1)}
	s := &stream{sink: sink}

	s.onError(errors.ErrInputFinished)
	require.True(t, s.failed.IsBroken())
	require.ErrorIs(t, s.startErr.Load(), errors.ErrInputFinished)
	require.Empty(t, sink.errs)
}

func TestStoppedStreamIgnoresErrors(t *testing.T) {
	sink := &blockingSink{errs: make(chan error, 1)}
	s := &stream{sink: sink}
	s.firstSample.Break()
	s.stopped.Store(true)

	s.onError(errors.ErrInputFinished)
	time.Sleep(time.Millisecond * 50)
	require.Empty(t, sink.errs)
}
