// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package xcontext provides contexts whose Err reports a caller-chosen error.
//
// The runner cancels the run context with an abort error when the process is
// interrupted, so hooks and the console observe the abort reason via Err.
package xcontext

import (
	"context"
	"sync/atomic"
	"time"

	"code.cloudfoundry.org/clock"
)

// CancelFunc cancels an associated context with err. Only the first call has
// an effect. It panics if err is nil. When it returns, the context is
// guaranteed to be canceled.
type CancelFunc func(err error)

type contextImpl struct {
	parent context.Context

	hasDeadline bool
	deadline    time.Time

	done chan struct{}
	// req carries the cancellation error to the watcher goroutine; its
	// capacity of 1 lets the first cancel never block.
	req chan error

	errValue atomic.Value
}

// newContext starts a watcher goroutine unless the context is born canceled.
// A non-nil deadlineErr installs reqDeadline if it is earlier than the
// parent's deadline.
func newContext(clk clock.Clock, parent context.Context, deadlineErr error, reqDeadline time.Time) (context.Context, CancelFunc) {
	newDeadline := false
	deadline, hasDeadline := parent.Deadline()
	if deadlineErr != nil && (!hasDeadline || reqDeadline.Before(deadline)) {
		deadline = reqDeadline
		hasDeadline = true
		newDeadline = true
	}

	ctx := &contextImpl{
		parent:      parent,
		hasDeadline: hasDeadline,
		deadline:    deadline,
		done:        make(chan struct{}),
		req:         make(chan error, 1),
	}

	if err := parent.Err(); err != nil {
		ctx.finish(err)
		return ctx, ctx.cancel
	}
	if newDeadline && !deadline.After(clk.Now()) {
		ctx.finish(deadlineErr)
		return ctx, ctx.cancel
	}

	go func() {
		var dl <-chan time.Time
		if newDeadline {
			tm := clk.NewTimer(deadline.Sub(clk.Now()))
			defer tm.Stop()
			dl = tm.C()
		}

		select {
		case <-parent.Done():
			ctx.finish(parent.Err())
		case <-dl:
			ctx.finish(deadlineErr)
		case err := <-ctx.req:
			ctx.finish(err)
		}
	}()

	return ctx, ctx.cancel
}

func (c *contextImpl) finish(err error) {
	c.errValue.Store(err)
	close(c.done)
}

func (c *contextImpl) Deadline() (deadline time.Time, ok bool) {
	return c.deadline, c.hasDeadline
}

func (c *contextImpl) Done() <-chan struct{} {
	return c.done
}

// Err may return errors other than context.Canceled and
// context.DeadlineExceeded.
func (c *contextImpl) Err() error {
	if val := c.errValue.Load(); val != nil {
		return val.(error)
	}
	return nil
}

func (c *contextImpl) Value(key interface{}) interface{} {
	return c.parent.Value(key)
}

func (c *contextImpl) cancel(err error) {
	if err == nil {
		panic("xcontext: Cancel called with nil")
	}
	select {
	case c.req <- err:
	default:
	}
	<-c.done
}

// WithCancel returns a context that can be canceled with arbitrary errors.
func WithCancel(parent context.Context) (context.Context, CancelFunc) {
	return newContext(clock.NewClock(), parent, nil, time.Time{})
}

// WithTimeout returns a context that is canceled with err after d elapses on
// clk. It panics if err is nil.
func WithTimeout(clk clock.Clock, parent context.Context, d time.Duration, err error) (context.Context, CancelFunc) {
	if err == nil {
		panic("xcontext: WithTimeout called with nil err")
	}
	return newContext(clk, parent, err, clk.Now().Add(d))
}
