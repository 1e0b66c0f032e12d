package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	conf, err := NewConfig("")
	require.NoError(t, err)

	require.Equal(t, "info", conf.Logging.Level)
	require.Equal(t, int32(defaultVideoBitrate), conf.Encoding.VideoBitrate)
	require.Equal(t, int32(defaultFramerate), conf.Encoding.Framerate)
	require.NotEmpty(t, conf.Capture.XDisplay)
	require.NotEmpty(t, conf.Output.DisplayDir)
	require.NotEmpty(t, conf.Output.CameraDir)
	require.Equal(t, defaultSetupTimeout, conf.SetupTimeout)
	require.Equal(t, defaultReadyTimeout, conf.Finalize.ReadyTimeout)
	require.Equal(t, defaultEOSTimeout, conf.Finalize.EOSTimeout)
	require.Nil(t, conf.StorageConfig)
}

func TestNewConfigYaml(t *testing.T) {
	body := `
logging:
  level: debug
output:
  display_dir: /tmp/displays
  camera_dir: /tmp/cameras
encoding:
  video_bitrate: 8000
  framerate: 60
capture:
  x_display: ":1"
  show_pointer: false
setup_timeout: 2s
finalize:
  ready_timeout: 500ms
  min_ready_delay: 10ms
  max_ready_delay: 1ms
discovery:
  interval: 0s
storage:
  prefix: recordings
  s3:
    bucket: my-bucket
    region: us-west-2
`
	conf, err := NewConfig(body)
	require.NoError(t, err)

	require.Equal(t, "debug", conf.Logging.Level)
	require.Equal(t, "/tmp/displays", conf.Output.DisplayDir)
	require.Equal(t, "/tmp/cameras", conf.Output.CameraDir)
	require.Equal(t, int32(8000), conf.Encoding.VideoBitrate)
	require.Equal(t, int32(60), conf.Encoding.Framerate)
	require.Equal(t, ":1", conf.Capture.XDisplay)
	require.False(t, conf.Capture.ShowPointer)
	require.Equal(t, 2*time.Second, conf.SetupTimeout)
	require.Equal(t, 500*time.Millisecond, conf.Finalize.ReadyTimeout)
	require.Equal(t, 10*time.Millisecond, conf.Finalize.MaxReadyDelay)
	require.Zero(t, conf.Discovery.Interval)

	require.NotNil(t, conf.StorageConfig)
	require.Equal(t, "recordings", conf.StorageConfig.Prefix)
	require.Equal(t, "my-bucket", conf.StorageConfig.S3.Bucket)
	require.Equal(t, 5, conf.StorageConfig.S3.MaxRetries)
	require.Equal(t, 5*time.Second, conf.StorageConfig.S3.MaxRetryDelay)
}

func TestNewConfigInvalid(t *testing.T) {
	_, err := NewConfig("encoding: [")
	require.Error(t, err)

	_, err = NewConfig("encoding:\n  video_bitrate: -1\n")
	require.Error(t, err)

	_, err = NewConfig("finalize:\n  ready_timeout: 0s\n")
	require.Error(t, err)
}
