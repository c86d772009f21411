// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package relay

import "fmt"

// Error is returned for every relay failure. When the failure came from a
// backend, Err holds the *backends.BackendError and Message repeats its text.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errorf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

func wrap(err error) *Error {
	return &Error{Message: err.Error(), Err: err}
}
