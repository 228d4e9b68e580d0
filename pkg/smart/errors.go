// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrDeviceParse is returned when the output holds too little to build a coherent Device.
	ErrDeviceParse = errors.New("device output could not be parsed")
	// ErrInvocation is returned when smartctl could not be run at all.
	ErrInvocation = errors.New("smartctl invocation failed")
)

// DeviceError is a device level failure. It wraps ErrDeviceParse or ErrInvocation.
type DeviceError struct {
	Path string
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device %s: %v", e.Path, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// newDeviceError builds a DeviceError carrying a stack trace for the error log.
func newDeviceError(path string, kind error, format string, args ...interface{}) error {
	cause := fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
	return errors.WithStack(&DeviceError{Path: path, Err: cause})
}
