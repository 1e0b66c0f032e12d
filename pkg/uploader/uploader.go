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

package uploader

import (
	"os"
	"path"
	"time"

	"github.com/livekit/protocol/logger"
	"github.com/livekit/psrpc"

	"github.com/livekit/desktop-recorder/pkg/config"
	"github.com/livekit/desktop-recorder/pkg/stats"
	"github.com/livekit/desktop-recorder/pkg/types"
)

const (
	maxRetries = 5
	minDelay   = time.Millisecond * 100
	maxDelay   = time.Second * 5
)

type uploader interface {
	upload(localFilepath, storageFilepath string, outputType types.OutputType, metadata map[string]string) (string, int64, error)
}

// Uploader copies finalized recordings to the primary storage, falling back to the backup.
type Uploader struct {
	primary uploader
	backup  uploader
	prefix  string
	monitor *stats.Monitor
}

func New(conf, backup *config.StorageConfig, monitor *stats.Monitor) (*Uploader, error) {
	p, err := getUploader(conf)
	if err != nil {
		return nil, err
	}

	u := &Uploader{
		primary: p,
		monitor: monitor,
	}
	if conf != nil {
		u.prefix = conf.Prefix
	}

	if backup != nil {
		b, err := getUploader(backup)
		if err != nil {
			logger.Errorw("failed to create backup uploader", err)
		} else {
			u.backup = b
		}
	}

	return u, nil
}

func getUploader(conf *config.StorageConfig) (uploader, error) {
	switch {
	case conf == nil:
		return newLocalUploader(&config.LocalConfig{})
	case conf.S3 != nil:
		return newS3Uploader(conf.S3)
	case conf.GCP != nil:
		return newGCPUploader(conf.GCP)
	case conf.Azure != nil:
		return newAzureUploader(conf.Azure)
	case conf.Local != nil:
		return newLocalUploader(conf.Local)
	default:
		return newLocalUploader(&config.LocalConfig{})
	}
}

// Upload stores the recording under <prefix>/<kind>/<source>/<day>/<filename>, tagged with its
// source, and returns the remote location.
func (u *Uploader) Upload(rec *Recording, deleteAfterUpload bool) (string, int64, error) {
	localFilepath := rec.LocalPath
	storageFilepath := path.Join(u.prefix, rec.ObjectKey())
	outputType := rec.contentType()
	metadata := rec.Metadata()

	start := time.Now()
	location, size, primaryErr := u.primary.upload(localFilepath, storageFilepath, outputType, metadata)
	elapsed := time.Since(start)

	if primaryErr == nil {
		u.monitor.IncUploadCountSuccess(string(outputType), float64(elapsed.Milliseconds()))
		if deleteAfterUpload {
			_ = os.Remove(localFilepath)
		}
		return location, size, nil
	}

	u.monitor.IncUploadCountFailure(string(outputType), float64(elapsed.Milliseconds()))
	if u.backup != nil {
		location, size, backupErr := u.backup.upload(localFilepath, storageFilepath, outputType, metadata)
		if backupErr == nil {
			logger.Warnw("primary upload failed, used backup", primaryErr, "location", location)
			u.monitor.IncBackupStorageWrites(string(outputType))
			if deleteAfterUpload {
				_ = os.Remove(localFilepath)
			}
			return location, size, nil
		}

		return "", 0, psrpc.NewErrorf(psrpc.InvalidArgument,
			"primary: %s\nbackup: %s", primaryErr.Error(), backupErr.Error())
	}

	return "", 0, primaryErr
}
