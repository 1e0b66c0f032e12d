package pipeline

import (
	"context"
	"os"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/desktop-recorder/pkg/config"
	"github.com/livekit/desktop-recorder/pkg/errors"
	"github.com/livekit/desktop-recorder/pkg/media"
	"github.com/livekit/desktop-recorder/pkg/source"
	"github.com/livekit/desktop-recorder/pkg/stats"
	"github.com/livekit/desktop-recorder/pkg/types"
	"github.com/livekit/desktop-recorder/pkg/uploader"
)

type testEnv struct {
	conf     *config.Config
	capturer *media.MockCapturer
	writers  *media.MockWriterFactory
	clock    *clock.Mock
	opts     Options

	mu     sync.Mutex
	errors []error
}

func newTestEnv(t *testing.T) *testEnv {
	conf, err := config.NewConfig("")
	require.NoError(t, err)
	conf.Output.DisplayDir = t.TempDir()
	conf.Output.CameraDir = t.TempDir()
	conf.SetupTimeout = time.Second
	conf.Finalize.ReadyTimeout = time.Millisecond * 100

	env := &testEnv{
		conf:     conf,
		capturer: &media.MockCapturer{},
		writers:  &media.MockWriterFactory{},
		clock:    clock.NewMock(),
	}
	env.clock.Set(time.Date(2025, 3, 14, 15, 9, 26, 535000000, time.UTC))
	env.opts = Options{
		Capturer: env.capturer,
		Writers:  env.writers,
		Monitor:  stats.NewMonitor(prometheus.NewRegistry()),
		Clock:    env.clock,
		Logger:   logger.GetLogger(),
		OnError: func(_ Recordable, err error) {
			env.mu.Lock()
			env.errors = append(env.errors, err)
			env.mu.Unlock()
		},
	}
	return env
}

func (e *testEnv) reportedErrors() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]error(nil), e.errors...)
}

func (e *testEnv) display(t *testing.T, enabled bool) *DisplayPipeline {
	p := NewDisplayPipeline(e.conf, source.Display{ID: "1", Name: "HDMI-1", Width: 1920, Height: 1080}, nil, e.opts)
	require.NoError(t, p.SetEnabled(enabled))
	return p
}

func (e *testEnv) camera(t *testing.T, enabled bool) *CameraPipeline {
	p := NewCameraPipeline(e.conf, source.Camera{ID: "/dev/video0", Name: "Webcam", DevicePath: "/dev/video0"}, e.opts)
	require.NoError(t, p.SetEnabled(enabled))
	return p
}

func videoFrame(pts time.Duration) *media.Frame {
	return &media.Frame{
		Kind:     types.MediaKindVideo,
		PTS:      pts,
		Duration: time.Millisecond * 10,
		HasPTS:   true,
		Data:     []byte{0, 0, 0, 1},
	}
}

func start(t *testing.T, r Recordable) {
	select {
	case err := <-r.StartRecording(context.Background()):
		require.NoError(t, err)
	case <-time.After(time.Second * 5):
		t.Fatal("setup did not complete")
	}
}

func TestDisabledPipelineNeverStarts(t *testing.T) {
	env := newTestEnv(t)

	for _, r := range []Recordable{env.display(t, false), env.camera(t, false)} {
		res := r.StartRecording(context.Background())
		_, ok := <-res
		require.False(t, ok, "expected closed channel")
		require.Equal(t, types.RecordingStateStopped, r.State())

		r.PauseRecording()
		r.ResumeRecording()
		require.Equal(t, types.RecordingStateStopped, r.State())
		require.NoError(t, r.StopRecording(context.Background()))

		info, err := r.SaveRecording(context.Background())
		require.NoError(t, err)
		require.Nil(t, info)
		require.Equal(t, types.RecordingStateStopped, r.State())
	}

	require.Empty(t, env.capturer.Streams())
	require.Empty(t, env.writers.Writers())
}

func TestRecordingLifecycle(t *testing.T) {
	env := newTestEnv(t)
	p := env.display(t, true)

	start(t, p)
	require.Equal(t, types.RecordingStateRecording, p.State())
	stream := env.capturer.Last()
	require.True(t, stream.Started())
	require.Equal(t, int32(1920), stream.Config.Width)

	base := time.Hour
	require.True(t, stream.Deliver(videoFrame(base)))
	require.True(t, stream.Deliver(videoFrame(base+time.Millisecond*10)))
	require.Equal(t, time.Millisecond*20, p.CurrentTime())

	p.PauseRecording()
	require.Equal(t, types.RecordingStatePaused, p.State())
	require.True(t, stream.Deliver(videoFrame(base+time.Millisecond*20)))

	p.ResumeRecording()
	require.Equal(t, types.RecordingStateRecording, p.State())
	require.True(t, stream.Deliver(videoFrame(base+time.Second)))

	require.NoError(t, p.StopRecording(context.Background()))
	require.Equal(t, types.RecordingStateStopped, p.State())
	require.True(t, stream.Stopped())
	require.False(t, stream.Deliver(videoFrame(base+time.Second*2)))

	info, err := p.SaveRecording(context.Background())
	require.NoError(t, err)
	require.NotNil(t, info)
	require.Equal(t, types.RecordingStateStopped, p.State())

	// the paused frame was dropped and the resumed frame continues without a gap
	writer := env.writers.Last()
	frames := writer.MockInput().Frames()
	require.Len(t, frames, 3)
	require.Equal(t, time.Duration(0), frames[0].PTS)
	require.Equal(t, time.Millisecond*10, frames[1].PTS)
	require.Equal(t, time.Millisecond*20, frames[2].PTS)
	require.Equal(t, 1, writer.Finalized())

	require.Equal(t, "display-1-20250314-150926.535.mp4", info.Filename)
	require.Equal(t, time.Millisecond*30, info.Duration)
	require.Equal(t, int64(12), info.Size)

	entries, err := os.ReadDir(env.conf.Output.DisplayDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, info.Filename, entries[0].Name())

	// nothing left to save
	info, err = p.SaveRecording(context.Background())
	require.NoError(t, err)
	require.Nil(t, info)
}

func TestStopThenSaveIsBounded(t *testing.T) {
	env := newTestEnv(t)
	env.writers.NotReady = true
	p := env.camera(t, true)

	start(t, p)
	env.capturer.Last().Deliver(videoFrame(time.Second))

	require.NoError(t, p.StopRecording(context.Background()))

	started := time.Now()
	info, err := p.SaveRecording(context.Background())
	require.Nil(t, info)
	require.ErrorIs(t, err, errors.ErrFinalizeTimeout)
	require.Less(t, time.Since(started), env.conf.Finalize.ReadyTimeout+time.Second)
	require.Equal(t, types.RecordingStateStopped, p.State())

	var finalizeErr *errors.FinalizeError
	require.ErrorAs(t, p.Err(), &finalizeErr)
	require.True(t, env.writers.Last().Aborted())
}

func TestSaveWakesOnReady(t *testing.T) {
	env := newTestEnv(t)
	env.writers.NotReady = true
	env.conf.Finalize.ReadyTimeout = time.Second * 5
	env.conf.Finalize.MinReadyDelay = time.Second
	env.conf.Finalize.MaxReadyDelay = time.Second
	p := env.display(t, true)

	start(t, p)
	env.capturer.Last().Deliver(videoFrame(0))

	go func() {
		time.Sleep(time.Millisecond * 50)
		env.writers.Last().MockInput().SetReady(true)
	}()

	started := time.Now()
	info, err := p.SaveRecording(context.Background())
	require.NoError(t, err)
	require.NotNil(t, info)
	require.Less(t, time.Since(started), time.Second)
}

func TestFrameFiltering(t *testing.T) {
	env := newTestEnv(t)
	p := env.display(t, true)
	start(t, p)
	stream := env.capturer.Last()

	stream.Deliver(&media.Frame{Kind: types.MediaKindAudio, PTS: 0, HasPTS: true, Data: []byte{1}})
	stream.Deliver(&media.Frame{Kind: types.MediaKindVideo, Data: []byte{1}})
	stream.Deliver(&media.Frame{Kind: types.MediaKindVideo, PTS: 0, HasPTS: true})
	stream.Deliver(videoFrame(time.Second))
	stream.Deliver(videoFrame(time.Millisecond * 500))

	frames := env.writers.Last().MockInput().Frames()
	require.Len(t, frames, 1)
	require.Equal(t, types.MediaKindVideo, frames[0].Kind)
}

func TestSetupFailure(t *testing.T) {
	env := newTestEnv(t)
	env.capturer.NewStreamErr = errors.New("no display")
	p := env.display(t, true)

	err := <-p.StartRecording(context.Background())
	var setupErr *errors.SetupError
	require.ErrorAs(t, err, &setupErr)
	require.Equal(t, types.SourceKindDisplay, setupErr.Kind)

	require.Equal(t, types.RecordingStateStopped, p.State())
	require.ErrorAs(t, p.Err(), &setupErr)
	require.True(t, env.writers.Last().Aborted())
	require.Len(t, env.reportedErrors(), 1)

	// no partial pair left behind
	info, err := p.SaveRecording(context.Background())
	require.NoError(t, err)
	require.Nil(t, info)

	// the next round can succeed
	env.capturer.NewStreamErr = nil
	start(t, p)
	require.Nil(t, p.Err())
}

func TestStreamStartFailure(t *testing.T) {
	env := newTestEnv(t)
	env.capturer.StartErr = errors.New("device busy")
	p := env.camera(t, true)

	err := <-p.StartRecording(context.Background())
	require.Error(t, err)
	require.Equal(t, types.RecordingStateStopped, p.State())
	require.True(t, env.capturer.Last().Stopped())
	require.True(t, env.writers.Last().Aborted())
}

func TestStreamRuntimeFailure(t *testing.T) {
	env := newTestEnv(t)
	p := env.camera(t, true)
	start(t, p)

	stream := env.capturer.Last()
	stream.Deliver(videoFrame(0))
	stream.Fail(errors.New("device unplugged"))

	require.Equal(t, types.RecordingStateFailed, p.State())
	var streamErr *errors.StreamError
	require.ErrorAs(t, p.Err(), &streamErr)
	require.Len(t, env.reportedErrors(), 1)

	// frames are dropped while failed
	stream.Deliver(videoFrame(time.Millisecond * 10))

	require.NoError(t, p.StopRecording(context.Background()))
	require.Equal(t, types.RecordingStateStopped, p.State())

	// what was captured before the failure is still saved
	info, err := p.SaveRecording(context.Background())
	require.NoError(t, err)
	require.NotNil(t, info)
	require.Len(t, env.writers.Last().MockInput().Frames(), 1)
}

func TestStopWaitsForSetup(t *testing.T) {
	env := newTestEnv(t)
	env.writers.NewDelay = time.Millisecond * 100
	p := env.display(t, true)

	res := p.StartRecording(context.Background())
	require.NoError(t, p.StopRecording(context.Background()))
	require.NoError(t, <-res)

	require.Equal(t, types.RecordingStateStopped, p.State())
	require.True(t, env.capturer.Last().Stopped())

	info, err := p.SaveRecording(context.Background())
	require.NoError(t, err)
	require.NotNil(t, info)
}

func TestStopSetupTimeout(t *testing.T) {
	env := newTestEnv(t)
	env.conf.SetupTimeout = time.Millisecond * 50
	env.capturer.StartDelay = time.Second * 10
	p := env.display(t, true)

	res := p.StartRecording(context.Background())
	err := p.StopRecording(context.Background())
	require.ErrorIs(t, err, errors.ErrSetupTimeout)
	require.Equal(t, types.RecordingStateStopped, p.State())

	// cancelled setup tears down what it built
	require.Error(t, <-res)
	require.True(t, env.capturer.Last().Stopped())
	require.True(t, env.writers.Last().Aborted())
	require.Equal(t, types.RecordingStateStopped, p.State())
}

func TestEnableWhileActive(t *testing.T) {
	env := newTestEnv(t)
	p := env.display(t, true)
	start(t, p)

	require.ErrorIs(t, p.SetEnabled(false), errors.ErrPipelineActive)
	require.NoError(t, p.SetEnabled(true))

	require.NoError(t, p.StopRecording(context.Background()))
	// unsaved round
	require.ErrorIs(t, p.SetEnabled(false), errors.ErrPipelineActive)

	_, err := p.SaveRecording(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.SetEnabled(false))
	require.False(t, p.Enabled())
}

func TestUnsavedRoundFinalizedOnStart(t *testing.T) {
	env := newTestEnv(t)
	p := env.camera(t, true)

	start(t, p)
	env.capturer.Last().Deliver(videoFrame(0))
	require.NoError(t, p.StopRecording(context.Background()))

	env.clock.Add(time.Second)
	start(t, p)

	writers := env.writers.Writers()
	require.Len(t, writers, 2)
	require.Equal(t, 1, writers[0].Finalized())
	require.Zero(t, writers[1].Finalized())
	require.Zero(t, p.CurrentTime())
}

func TestSaveDuringDelivery(t *testing.T) {
	env := newTestEnv(t)
	p := env.display(t, true)
	start(t, p)
	stream := env.capturer.Last()

	done := make(chan struct{})
	go func() {
		defer close(done)
		pts := time.Duration(0)
		for stream.Deliver(videoFrame(pts)) {
			pts += time.Millisecond * 10
		}
	}()

	time.Sleep(time.Millisecond * 20)
	info, err := p.SaveRecording(context.Background())
	require.NoError(t, err)
	require.NotNil(t, info)
	<-done

	frames := env.writers.Last().MockInput().Frames()
	require.NotEmpty(t, frames)
	for i := 1; i < len(frames); i++ {
		require.Greater(t, frames[i].PTS, frames[i-1].PTS)
	}
}

func TestFinalizeNotReentrant(t *testing.T) {
	env := newTestEnv(t)
	env.writers.NotReady = true
	env.conf.Finalize.ReadyTimeout = time.Millisecond * 300
	p := env.display(t, true)
	start(t, p)

	first := make(chan error, 1)
	go func() {
		_, err := p.SaveRecording(context.Background())
		first <- err
	}()

	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.finalizing
	}, time.Second, time.Millisecond*5)

	_, err := p.SaveRecording(context.Background())
	require.ErrorIs(t, err, errors.ErrFinalizeInProgress)
	require.ErrorIs(t, <-p.StartRecording(context.Background()), errors.ErrFinalizeInProgress)

	require.ErrorIs(t, <-first, errors.ErrFinalizeTimeout)
}

type recordingUploader struct {
	rec *uploader.Recording
}

func (u *recordingUploader) Upload(rec *uploader.Recording, _ bool) (string, int64, error) {
	u.rec = rec
	return "s3://bucket/" + rec.ObjectKey(), 42, nil
}

func TestUploadAndJournal(t *testing.T) {
	env := newTestEnv(t)
	up := &recordingUploader{}
	journalPath := path.Join(t.TempDir(), "journal.log")
	journal := NewFileJournal(journalPath)
	t.Cleanup(func() { _ = journal.Close() })

	env.opts.Uploader = up
	env.opts.Journal = journal
	p := env.camera(t, true)
	start(t, p)
	env.capturer.Last().Deliver(videoFrame(0))

	info, err := p.SaveRecording(context.Background())
	require.NoError(t, err)
	require.Equal(t, info.Location, up.rec.LocalPath)
	require.Equal(t, types.SourceKindCamera, up.rec.SourceKind)
	require.Equal(t, "/dev/video0", up.rec.SourceID)
	require.Equal(t, info.StartedAt, up.rec.StartedAt)
	require.Equal(t, "s3://bucket/"+up.rec.ObjectKey(), info.UploadLocation)
	require.Equal(t, int64(42), info.Size)

	b, err := os.ReadFile(journalPath)
	require.NoError(t, err)
	require.Contains(t, string(b), info.Filename)
	require.Contains(t, string(b), `"source_kind":"camera"`)
}

func TestOutputFilename(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 6000000, time.UTC)
	require.Equal(t, "display-2-20240102-030405.006.mp4", outputFilename(types.SourceKindDisplay, "2", ts))
	require.Equal(t, "camera-dev_video0-20240102-030405.006.mp4", outputFilename(types.SourceKindCamera, "/dev/video0", ts))
	require.Equal(t, "camera-source-20240102-030405.006.mp4", outputFilename(types.SourceKindCamera, "//", ts))
}
