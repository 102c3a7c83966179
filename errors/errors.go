// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package errors provides basic utilities to construct errors.
//
// Board tests and framework code construct errors with this package rather
// than the standard errors package or fmt.Errorf. Errors created here record
// the location where they were created, so a failed hook can be reported
// with a stack trace for every link of the error chain.
//
// To construct a new error, use New or Errorf.
//
//	errors.New("console not available")
//	errors.Errorf("unexpected prompt %q", prompt)
//
// To add context to an existing error, use Wrap or Wrapf.
//
//	errors.Wrap(err, "failed to restart board")
//	errors.Wrapf(err, "failed to log in as %s", user)
//
// A stack trace is printed by formatting an error with the "%+v" verb.
// Errors created by this package support errors.Is and errors.As through
// Unwrap, and this package forwards Is, As and Unwrap from the standard
// library for convenience.
package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"boardfarm/errors/stack"
)

// impl is the error implementation used by this package.
type impl struct {
	msg   string      // error message to be prepended to cause
	stk   stack.Stack // stack trace where this error was created
	cause error       // original error that caused this error if non-nil
}

// Error implements the error interface.
func (e *impl) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %s", e.msg, e.cause.Error())
}

// Unwrap returns the error wrapped by e, if any.
func (e *impl) Unwrap() error {
	return e.cause
}

// formatChain formats an error chain.
func formatChain(err error) string {
	var chain []string
	for err != nil {
		if e, ok := err.(*impl); !ok {
			chain = append(chain, fmt.Sprintf("%s\n\tat ???", err.Error()))
			err = nil
		} else {
			chain = append(chain, fmt.Sprintf("%s\n%v", e.msg, e.stk))
			err = e.cause
		}
	}
	return strings.Join(chain, "\n")
}

// Format implements the fmt.Formatter interface.
// In particular, it is supported to format an error chain by "%+v" verb.
func (e *impl) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		io.WriteString(s, formatChain(e))
	} else {
		io.WriteString(s, e.Error())
	}
}

// HasStack reports whether err was created by this package, i.e. whether
// formatting it with "%+v" yields a stack trace.
func HasStack(err error) bool {
	_, ok := err.(*impl)
	return ok
}

// New creates a new error with the given message.
// This is similar to the standard errors.New, but also records the location
// where it was called.
func New(msg string) error {
	s := stack.New(1)
	return &impl{msg, s, nil}
}

// Errorf creates a new error with the given message.
// This is similar to the standard fmt.Errorf, but also records the location
// where it was called.
func Errorf(format string, args ...interface{}) error {
	s := stack.New(1)
	msg := fmt.Sprintf(format, args...)
	return &impl{msg, s, nil}
}

// Wrap creates a new error with the given message, wrapping another error.
// This function also records the location where it was called.
// If cause is nil, this is the same as New.
func Wrap(cause error, msg string) error {
	s := stack.New(1)
	return &impl{msg, s, cause}
}

// Wrapf creates a new error with the given message, wrapping another error.
// This function also records the location where it was called.
// If cause is nil, this is the same as Errorf.
func Wrapf(cause error, format string, args ...interface{}) error {
	s := stack.New(1)
	msg := fmt.Sprintf(format, args...)
	return &impl{msg, s, cause}
}

// Is is the standard errors.Is.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As is the standard errors.As.
func As(err error, target interface{}) bool { return stderrors.As(err, target) }

// Unwrap is the standard errors.Unwrap.
func Unwrap(err error) error { return stderrors.Unwrap(err) }
