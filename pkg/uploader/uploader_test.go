package uploader

import (
	"os"
	"path"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/livekit/desktop-recorder/pkg/config"
	"github.com/livekit/desktop-recorder/pkg/errors"
	"github.com/livekit/desktop-recorder/pkg/stats"
	"github.com/livekit/desktop-recorder/pkg/types"
	"github.com/livekit/desktop-recorder/version"
)

type failingUploader struct{}

func (failingUploader) upload(string, string, types.OutputType, map[string]string) (string, int64, error) {
	return "", 0, errors.ErrUploadFailed("test", errors.New("unavailable"))
}

func writeRecording(t *testing.T) string {
	local := path.Join(t.TempDir(), "display-1.mp4")
	require.NoError(t, os.WriteFile(local, []byte("recording"), 0644))
	return local
}

func TestLocalUploader(t *testing.T) {
	dest := t.TempDir()
	u, err := New(&config.StorageConfig{
		Prefix: "desk",
		Local:  &config.LocalConfig{Dir: dest},
	}, nil, stats.NewMonitor(prometheus.NewRegistry()))
	require.NoError(t, err)

	local := writeRecording(t)
	location, size, err := u.Upload(&Recording{
		LocalPath:  local,
		SourceKind: types.SourceKindDisplay,
		SourceID:   "1",
		StartedAt:  time.Date(2025, 3, 4, 23, 30, 0, 0, time.UTC),
	}, true)
	require.NoError(t, err)
	require.Equal(t, path.Join(dest, "desk", "display", "1", "2025-03-04", "display-1.mp4"), location)
	require.Equal(t, int64(len("recording")), size)

	b, err := os.ReadFile(location)
	require.NoError(t, err)
	require.Equal(t, "recording", string(b))
	require.NoFileExists(t, local)
}

func TestBackupUploader(t *testing.T) {
	dest := t.TempDir()
	backup, err := newLocalUploader(&config.LocalConfig{Dir: dest})
	require.NoError(t, err)

	u := &Uploader{
		primary: failingUploader{},
		backup:  backup,
		monitor: stats.NewMonitor(prometheus.NewRegistry()),
	}

	local := writeRecording(t)
	rec := &Recording{LocalPath: local}
	location, _, err := u.Upload(rec, false)
	require.NoError(t, err)
	require.Equal(t, path.Join(dest, "display-1.mp4"), location)
	require.FileExists(t, local)

	u.backup = failingUploader{}
	_, _, err = u.Upload(rec, false)
	require.Error(t, err)
	require.FileExists(t, local)
}

func TestS3Location(t *testing.T) {
	conf := &config.S3Config{Bucket: "recordings"}
	require.Equal(t, "https://recordings.s3.amazonaws.com/display/a.mp4", s3Location(conf, "display/a.mp4"))

	conf.Endpoint = "https://minio.local:9000"
	conf.ForcePathStyle = true
	require.Equal(t, "https://minio.local:9000/recordings/display/a.mp4", s3Location(conf, "display/a.mp4"))
}

func TestRecordingObjectKey(t *testing.T) {
	startedAt := time.Date(2025, 3, 4, 23, 30, 0, 0, time.FixedZone("PST", -8*3600))
	rec := &Recording{
		LocalPath:  "/tmp/camera-dev_video0-20250304-233000.000.mp4",
		Filename:   "camera-dev_video0-20250304-233000.000.mp4",
		SourceKind: types.SourceKindCamera,
		SourceID:   "/dev/video0",
		StartedAt:  startedAt,
		Duration:   time.Second * 90,
	}

	// days are UTC
	require.Equal(t, "camera/dev_video0/2025-03-05/camera-dev_video0-20250304-233000.000.mp4", rec.ObjectKey())
	require.Equal(t, map[string]string{
		"source_kind":      "camera",
		"source_id":        "/dev/video0",
		"started_at":       "2025-03-05T07:30:00Z",
		"duration_ms":      "90000",
		"recorder_version": version.Version,
	}, rec.Metadata())
	require.Equal(t, types.OutputTypeMP4, rec.contentType())

	require.Equal(t, "out.mp4", (&Recording{LocalPath: "/tmp/out.mp4"}).ObjectKey())
}

func TestMergeMetadata(t *testing.T) {
	merged := mergeMetadata(
		map[string]string{"source_kind": "display", "source_id": "1"},
		map[string]string{"source_id": "override", "team": "design"},
	)
	require.Equal(t, map[string]string{
		"source_kind": "display",
		"source_id":   "override",
		"team":        "design",
	}, merged)
}
