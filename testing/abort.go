// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package testing

import (
	"fmt"

	"boardfarm/errors"
)

// AbortError is an error that stops the whole run when returned by a hook,
// regardless of the runner's failure policy. It is never recorded as a hook
// failure.
type AbortError struct {
	reason error
}

func (e *AbortError) Error() string {
	return "testing aborted: " + e.reason.Error()
}

// Unwrap returns the reason of the abort.
func (e *AbortError) Unwrap() error {
	return e.reason
}

// Format prints the stack of the reason with the "%+v" verb.
func (e *AbortError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "testing aborted: %+v", e.reason)
		return
	}
	fmt.Fprint(s, e.Error())
}

// Abort returns an error that aborts the run with the given reason, e.g.
// because the board stopped responding.
func Abort(reason string) error {
	return &AbortError{reason: errors.New(reason)}
}

// Abortf is like Abort but formats its arguments using fmt.Sprintf.
func Abortf(format string, args ...interface{}) error {
	return &AbortError{reason: errors.Errorf(format, args...)}
}

// AbortWrap returns an error that aborts the run because of err.
func AbortWrap(err error) error {
	if err == nil {
		err = errors.New("unknown reason")
	}
	return &AbortError{reason: err}
}

// IsAbort reports whether err aborts the run.
func IsAbort(err error) bool {
	var ae *AbortError
	return errors.As(err, &ae)
}
