// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/cockroachdb/errors"

	"github.com/devblok/kiln/gfx"
)

// Bootstrap errors. Every error returned from this package is marked with
// one of these, test for them with errors.Is from either the standard
// library or cockroachdb/errors.
var (
	ErrExtensionUnavailable       = errors.New("extension unavailable")
	ErrLayerUnavailable           = errors.New("layer unavailable")
	ErrInstanceCreationFailed     = errors.New("instance creation failed")
	ErrPlatformSurfaceUnsupported = errors.New("platform surface unsupported")
	ErrNoSuitableDevice           = errors.New("no suitable device")
	ErrDeviceCreationFailed       = errors.New("device creation failed")
	ErrSwapchainCreationFailed    = errors.New("swapchain creation failed")
	ErrImageViewCreationFailed    = errors.New("image view creation failed")
	ErrInvalidBytecode            = errors.New("invalid bytecode")
	ErrPipelineCreationFailed     = errors.New("pipeline creation failed")
)

// kindError attaches one of the sentinels above to an error chain so that
// errors.Is finds it while errors.As still reaches the driver error.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string { return e.cause.Error() }

func (e *kindError) Unwrap() error { return e.cause }

func (e *kindError) Is(target error) bool { return target == e.kind }

// fail wraps cause with a message naming the failed stage and tags it
// with kind.
func fail(kind, cause error, format string, args ...interface{}) error {
	if cause == nil {
		return &kindError{kind: kind, cause: errors.Newf(format, args...)}
	}
	return &kindError{kind: kind, cause: errors.Wrapf(cause, format, args...)}
}

// resultCode extracts the API result code carried by err, if any.
func resultCode(err error) (int32, bool) {
	var apiErr *gfx.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	return 0, false
}
