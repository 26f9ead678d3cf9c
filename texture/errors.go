// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package texture

import (
	"errors"

	"github.com/devblok/texel/sched"
)

var (

	// ErrDeviceRejected means the device refused the descriptor,
	// format or pixel payload.
	ErrDeviceRejected = errors.New("texture: device rejected texture")

	// ErrUnsupportedEncoding means the encoded image bytes could not
	// be decoded by any registered codec.
	ErrUnsupportedEncoding = errors.New("texture: unsupported image encoding")

	// ErrAlreadyDisposed is returned by every operation on a manager
	// that has been destroyed.
	ErrAlreadyDisposed = errors.New("texture: manager already disposed")

	// ErrReleased is returned when a wrap is used after release.
	ErrReleased = errors.New("texture: wrap already released")

	// ErrConstruction wraps failures during manager construction.
	ErrConstruction = errors.New("texture: manager construction failed")

	// ErrImageSpec means the image spec does not describe the supplied
	// pixel data.
	ErrImageSpec = errors.New("texture: image spec does not match pixel data")

	// ErrCancelled mirrors the scheduler's cancellation error so that
	// callers need not import sched to test for it.
	ErrCancelled = sched.ErrCancelled
)
