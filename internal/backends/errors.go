// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package backends

import "fmt"

// ErrorKind classifies a backend failure.
type ErrorKind int

const (
	KindNotFound    ErrorKind = iota + 1 // executable not on PATH
	KindTimeout                          // deadline hit, process killed
	KindExitStatus                       // non-zero exit
	KindEmptyOutput                      // exit 0 with nothing to return
	KindOutputFile                       // side-channel output unreadable
	KindStart                            // process could not be run at all
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindTimeout:
		return "timeout"
	case KindExitStatus:
		return "exit-status"
	case KindEmptyOutput:
		return "empty-output"
	case KindOutputFile:
		return "output-file"
	case KindStart:
		return "start"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// BackendError is returned by Backend.Run. Message is user-facing and
// already includes whatever detail the backend process printed.
type BackendError struct {
	Backend  string
	Kind     ErrorKind
	ExitCode int // set for KindExitStatus
	Message  string
	Err      error
}

func (e *BackendError) Error() string {
	return e.Message
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func newError(backend string, kind ErrorKind, format string, args ...any) *BackendError {
	return &BackendError{
		Backend: backend,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

func notFoundError(name string) *BackendError {
	return newError(name, KindNotFound, "%s CLI not found in PATH. Install it: %s", name, InstallHints[name])
}
