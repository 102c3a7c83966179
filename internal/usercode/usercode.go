// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package usercode runs task hooks and other user-supplied code so that a
// misbehaving hook cannot hang or crash the runner.
package usercode

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"boardfarm/errors"
	"boardfarm/errors/stack"
)

// PanicError is returned by Call when user code panicked.
type PanicError struct {
	// Val is the value passed to panic.
	Val interface{}
	// Stack is the stack of the panicking goroutine.
	Stack stack.Stack
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Val)
}

// Format prints the panic location with the "%+v" verb.
func (e *PanicError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s\n%v", e.Error(), e.Stack)
		return
	}
	fmt.Fprint(s, e.Error())
}

// AbandonedError is returned by Call when user code did not return within
// its timeout plus grace period.
type AbandonedError struct {
	Name string
}

func (e *AbandonedError) Error() string {
	return fmt.Sprintf("%s did not return on timeout", e.Name)
}

// Call runs f on a goroutine and returns the error f returned.
//
// f is given a context with the specified timeout. If f does not return
// before the timeout, Call waits gracePeriod more to let it clean up, then
// abandons the goroutine and returns an *AbandonedError. If ctx is canceled
// before f returns, Call abandons f immediately and returns ctx.Err(). A
// panic in f is recovered and returned as a *PanicError.
//
// name identifies the user code in error messages.
func Call(ctx context.Context, name string, timeout, gracePeriod time.Duration, f func(ctx context.Context) error) (err error) {
	// The main goroutine and the worker race for a token. Whoever takes it
	// decides the result; if the main goroutine wins, the worker's result
	// is dropped even if it returns or panics later.
	var token uint32
	takeToken := func() bool {
		return atomic.CompareAndSwapUint32(&token, 0, 1)
	}

	var result error
	done := make(chan struct{})

	go func() {
		defer close(done)

		var ferr error
		defer func() {
			val := recover()
			if !takeToken() {
				return
			}
			if val != nil {
				// Capture here so the panic location is in the stack.
				ferr = &PanicError{Val: val, Stack: stack.NewDepth(1, stack.PanicDepth)}
			}
			result = ferr
		}()

		fctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		ferr = f(fctx)
	}()

	// If the worker took the token first, its result wins.
	defer func() {
		if !takeToken() {
			<-done
			err = result
		}
	}()

	tm := time.NewTimer(timeout + gracePeriod)
	defer tm.Stop()

	select {
	case <-done:
		return result
	case <-tm.C:
		return &AbandonedError{Name: name}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsPanic reports whether err came from a recovered panic.
func IsPanic(err error) bool {
	var pe *PanicError
	return errors.As(err, &pe)
}
