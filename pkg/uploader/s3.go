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
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/logging"

	"github.com/livekit/protocol/logger"
	"github.com/livekit/psrpc"

	"github.com/livekit/desktop-recorder/pkg/config"
	"github.com/livekit/desktop-recorder/pkg/errors"
	"github.com/livekit/desktop-recorder/pkg/types"
)

const (
	defaultBucketLocation = "us-east-1"
)

type S3Uploader struct {
	conf    *config.S3Config
	awsConf *aws.Config
}

func newS3Uploader(conf *config.S3Config) (uploader, error) {
	opts := func(o *awsConfig.LoadOptions) error {
		if conf.Region != "" {
			o.Region = conf.Region
		} else {
			o.Region = defaultBucketLocation
		}

		if conf.AccessKey != "" && conf.Secret != "" {
			o.Credentials = credentials.StaticCredentialsProvider{
				Value: aws.Credentials{
					AccessKeyID:     conf.AccessKey,
					SecretAccessKey: conf.Secret,
					SessionToken:    conf.SessionToken,
				},
			}
		}

		o.Retryer = func() aws.Retryer {
			return retry.NewStandard(func(o *retry.StandardOptions) {
				o.MaxAttempts = conf.MaxRetries
				o.MaxBackoff = conf.MaxRetryDelay
				o.Retryables = append(o.Retryables, &s3Retryer{})
			})
		}

		if conf.ProxyConfig != nil {
			client, err := proxyClient(conf.ProxyConfig)
			if err != nil {
				return err
			}
			o.HTTPClient = client
		}

		return nil
	}

	awsConf, err := awsConfig.LoadDefaultConfig(context.Background(), opts)
	if err != nil {
		return nil, err
	}

	if conf.Region == "" && conf.Endpoint == "" {
		if err = updateRegion(&awsConf, conf.Bucket); err != nil {
			return nil, err
		}
	}
	if conf.Endpoint != "" {
		awsConf.BaseEndpoint = &conf.Endpoint
	}

	return &S3Uploader{
		conf:    conf,
		awsConf: &awsConf,
	}, nil
}

func proxyClient(conf *config.ProxyConfig) (*http.Client, error) {
	proxyUrl, err := url.Parse(conf.Url)
	if err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyURL(proxyUrl)
	if conf.Username != "" && conf.Password != "" {
		auth := fmt.Sprintf("%s:%s", conf.Username, conf.Password)
		basicAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte(auth))
		transport.ProxyConnectHeader = http.Header{}
		transport.ProxyConnectHeader.Add("Proxy-Authorization", basicAuth)
	}
	return &http.Client{Transport: transport}, nil
}

func updateRegion(awsConf *aws.Config, bucket string) error {
	req := &s3.GetBucketLocationInput{
		Bucket: &bucket,
	}

	resp, err := s3.NewFromConfig(*awsConf).GetBucketLocation(context.Background(), req)
	if err != nil {
		return psrpc.NewErrorf(psrpc.InvalidArgument, "failed to retrieve upload bucket region: %v", err)
	}

	if resp.LocationConstraint != "" {
		awsConf.Region = string(resp.LocationConstraint)
	}

	return nil
}

func (u *S3Uploader) upload(localFilepath, storageFilepath string, outputType types.OutputType, metadata map[string]string) (string, int64, error) {
	file, err := os.Open(localFilepath)
	if err != nil {
		return "", 0, errors.ErrUploadFailed("S3", err)
	}
	defer func() {
		_ = file.Close()
	}()

	stat, err := file.Stat()
	if err != nil {
		return "", 0, errors.ErrUploadFailed("S3", err)
	}

	l := &s3Logger{
		msgs: make([]string, 10),
	}
	client := s3.NewFromConfig(*u.awsConf, func(o *s3.Options) {
		o.Logger = l
		o.UsePathStyle = u.conf.ForcePathStyle
	})

	input := &s3.PutObjectInput{
		Body:        file,
		Bucket:      &u.conf.Bucket,
		ContentType: aws.String(string(outputType)),
		Key:         aws.String(storageFilepath),
		Metadata:    mergeMetadata(metadata, u.conf.Metadata),
	}
	if u.conf.Tagging != "" {
		input.Tagging = &u.conf.Tagging
	}
	if u.conf.ContentDisposition != "" {
		input.ContentDisposition = &u.conf.ContentDisposition
	} else {
		contentDisposition := "inline"
		input.ContentDisposition = &contentDisposition
	}

	if _, err = manager.NewUploader(client).Upload(context.Background(), input); err != nil {
		l.log()
		return "", 0, errors.ErrUploadFailed("S3", err)
	}

	return s3Location(u.conf, storageFilepath), stat.Size(), nil
}

// configured metadata wins over recording metadata
func mergeMetadata(recording, configured map[string]string) map[string]string {
	merged := make(map[string]string, len(recording)+len(configured))
	for k, v := range recording {
		merged[k] = v
	}
	for k, v := range configured {
		merged[k] = v
	}
	return merged
}

func s3Location(conf *config.S3Config, storageFilepath string) string {
	endpoint := "s3.amazonaws.com"
	if conf.Endpoint != "" {
		endpoint = strings.TrimPrefix(strings.TrimPrefix(conf.Endpoint, "https://"), "http://")
	}

	if conf.ForcePathStyle {
		return fmt.Sprintf("https://%s/%s/%s", endpoint, conf.Bucket, storageFilepath)
	}
	return fmt.Sprintf("https://%s.%s/%s", conf.Bucket, endpoint, storageFilepath)
}

// s3Logger only logs aws messages on upload failure
type s3Logger struct {
	mu   sync.Mutex
	msgs []string
	idx  int
}

func (l *s3Logger) Logf(classification logging.Classification, format string, v ...interface{}) {
	format = "aws %s: " + format
	v = append([]interface{}{strings.ToLower(string(classification))}, v...)

	l.mu.Lock()
	l.msgs[l.idx%len(l.msgs)] = fmt.Sprintf(format, v...)
	l.idx++
	l.mu.Unlock()
}

func (l *s3Logger) log() {
	l.mu.Lock()
	size := len(l.msgs)
	for range size {
		if msg := l.msgs[l.idx%size]; msg != "" {
			logger.Debugw(msg)
		}
		l.idx++
	}
	l.mu.Unlock()
}

type s3Retryer struct{}

func (r *s3Retryer) IsErrorRetryable(_ error) aws.Ternary {
	return aws.TrueTernary
}
