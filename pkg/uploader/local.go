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
	"io"
	"os"
	"path"

	"github.com/livekit/desktop-recorder/pkg/config"
	"github.com/livekit/desktop-recorder/pkg/errors"
	"github.com/livekit/desktop-recorder/pkg/types"
)

// localUploader copies recordings into another directory, such as a synced or mounted share.
type localUploader struct {
	dir string
}

func newLocalUploader(conf *config.LocalConfig) (*localUploader, error) {
	return &localUploader{dir: conf.Dir}, nil
}

func (u *localUploader) upload(localFilepath, storageFilepath string, _ types.OutputType, _ map[string]string) (string, int64, error) {
	storageFilepath = path.Join(u.dir, storageFilepath)

	stat, err := os.Stat(localFilepath)
	if err != nil {
		return "", 0, errors.ErrUploadFailed("local", err)
	}
	if path.Clean(localFilepath) == storageFilepath {
		return storageFilepath, stat.Size(), nil
	}

	dir, _ := path.Split(storageFilepath)
	if dir != "" {
		if err = os.MkdirAll(dir, 0755); err != nil {
			return "", 0, errors.ErrUploadFailed("local", err)
		}
	}

	tmp, err := os.Open(localFilepath)
	if err != nil {
		return "", 0, errors.ErrUploadFailed("local", err)
	}

	f, err := os.Create(storageFilepath)
	if err != nil {
		_ = tmp.Close()
		return "", 0, errors.ErrUploadFailed("local", err)
	}

	_, err = io.Copy(f, tmp)
	_ = f.Close()
	_ = tmp.Close()
	if err != nil {
		return "", 0, errors.ErrUploadFailed("local", err)
	}

	return storageFilepath, stat.Size(), nil
}
