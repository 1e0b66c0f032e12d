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

package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/livekit/psrpc"

	"github.com/livekit/desktop-recorder/pkg/types"
)

var (
	ErrNoConfig             = errors.New("missing config")
	ErrNoEnabledSources     = errors.New("no recording sources enabled")
	ErrSourceNotFound       = errors.New("source not found")
	ErrPipelineActive       = errors.New("pipeline is recording")
	ErrSetupTimeout         = errors.New("timed out waiting for pipeline setup")
	ErrFinalizeTimeout      = errors.New("timed out waiting for encoder input")
	ErrFinalizeInProgress   = errors.New("recording is already being finalized")
	ErrStreamNotStarted     = errors.New("capture stream not started")
	ErrInputFinished        = errors.New("encoder input already finished")
	ErrWriterFailed         = errors.New("writer failed")
	ErrEOSTimeout           = errors.New("timed out waiting for end of stream")
	ErrInvalidFrame         = errors.New("invalid frame")
	ErrGstElementNotFound   = errors.New("gstreamer element not found")
	ErrCommandFailed        = errors.New("command failed")
	ErrUnsupportedPlatform  = errors.New("capture is not supported on this platform")
	ErrApplicationNotListed = errors.New("application not found")
)

func New(err string) error {
	return errors.New(err)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func ErrCouldNotParseConfig(err error) error {
	return fmt.Errorf("could not parse config: %v", err)
}

func ErrInvalidConfig(field string) error {
	return fmt.Errorf("config has missing or invalid field: %s", field)
}

func ErrGstPipelineError(err error) error {
	return psrpc.NewError(psrpc.Internal, err)
}

func ErrUploadFailed(location string, err error) error {
	return fmt.Errorf("%s upload failed: %v", location, err)
}

func ErrDeviceNotFound(kind types.SourceKind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrSourceNotFound)
}

// SetupError is returned when a pipeline could not construct its writer or capture stream.
type SetupError struct {
	Kind types.SourceKind
	ID   string
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s %s setup failed: %v", e.Kind, e.ID, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// FinalizeError is returned when a recording could not be written out.
type FinalizeError struct {
	Kind types.SourceKind
	ID   string
	Err  error
}

func (e *FinalizeError) Error() string {
	return fmt.Sprintf("%s %s finalize failed: %v", e.Kind, e.ID, e.Err)
}

func (e *FinalizeError) Unwrap() error {
	return e.Err
}

// StreamError is reported when a running capture stream stops on its own.
type StreamError struct {
	Kind types.SourceKind
	ID   string
	Err  error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%s %s stream failed: %v", e.Kind, e.ID, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

type FatalError struct {
	err error
}

func Fatal(err error) error {
	return &FatalError{err: err}
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

type ErrArray struct {
	errs []error
}

func (e *ErrArray) AppendErr(err error) {
	e.errs = append(e.errs, err)
}

func (e *ErrArray) Check(err error) {
	if err != nil {
		e.errs = append(e.errs, err)
	}
}

func (e *ErrArray) Len() int {
	return len(e.errs)
}

func (e *ErrArray) Errors() []error {
	return e.errs
}

func (e *ErrArray) ToError() psrpc.Error {
	if len(e.errs) == 0 {
		return nil
	}

	code := psrpc.Unknown
	var msg []string
	for _, err := range e.errs {
		if code == psrpc.Unknown {
			code = errorCode(err)
		}
		msg = append(msg, err.Error())
	}

	return psrpc.NewErrorf(code, "%s", strings.Join(msg, "\n"))
}

func errorCode(err error) psrpc.ErrorCode {
	var psrpcErr psrpc.Error
	switch {
	case errors.As(err, &psrpcErr):
		return psrpcErr.Code()
	case errors.Is(err, ErrFinalizeTimeout), errors.Is(err, ErrEOSTimeout), errors.Is(err, ErrSetupTimeout):
		return psrpc.DeadlineExceeded
	case errors.Is(err, ErrSourceNotFound):
		return psrpc.NotFound
	case errors.Is(err, ErrPipelineActive), errors.Is(err, ErrFinalizeInProgress):
		return psrpc.FailedPrecondition
	default:
		var setupErr *SetupError
		if errors.As(err, &setupErr) {
			return psrpc.Unavailable
		}
		return psrpc.Unknown
	}
}
