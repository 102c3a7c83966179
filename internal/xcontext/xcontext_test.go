// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package xcontext

import (
	"context"
	"errors"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
)

func isDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// waitDone waits for cancellation of ctx using the real clock.
func waitDone(ctx context.Context) bool {
	tm := time.NewTimer(10 * time.Second)
	defer tm.Stop()
	select {
	case <-ctx.Done():
		return true
	case <-tm.C:
		return false
	}
}

func TestWithCancel(t *testing.T) {
	ctx, cancel := WithCancel(context.Background())
	defer cancel(context.Canceled)

	if isDone(ctx) {
		t.Error("On init: Done is already signaled")
	}
	if err := ctx.Err(); err != nil {
		t.Errorf("On init: Err is already set: %v", err)
	}

	wantErr := errors.New("interrupted")
	cancel(wantErr)
	if !isDone(ctx) {
		t.Error("After cancel: Done is not signaled")
	}
	if err := ctx.Err(); err != wantErr {
		t.Errorf("After cancel: Err = %v; want %v", err, wantErr)
	}

	// Later cancels are ignored.
	cancel(errors.New("another error"))
	if err := ctx.Err(); err != wantErr {
		t.Errorf("After second cancel: Err = %v; want %v", err, wantErr)
	}
}

func TestWithCancelParentCanceled(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := WithCancel(parent)
	defer cancel(context.Canceled)

	cancelParent()
	if !waitDone(ctx) {
		t.Fatal("Context not canceled after parent cancellation")
	}
	if err := ctx.Err(); err != context.Canceled {
		t.Errorf("Err = %v; want %v", err, context.Canceled)
	}
}

func TestWithTimeout(t *testing.T) {
	fclk := fakeclock.NewFakeClock(time.Unix(0, 0))
	wantErr := errors.New("quiet period elapsed")

	ctx, cancel := WithTimeout(fclk, context.Background(), time.Second, wantErr)
	defer cancel(context.Canceled)

	if dl, ok := ctx.Deadline(); !ok || !dl.Equal(time.Unix(1, 0)) {
		t.Errorf("Deadline() = %v, %v; want %v, true", dl, ok, time.Unix(1, 0))
	}
	if isDone(ctx) {
		t.Fatal("Context canceled before the deadline")
	}

	fclk.WaitForWatcherAndIncrement(time.Second)
	if !waitDone(ctx) {
		t.Fatal("Context not canceled after the deadline")
	}
	if err := ctx.Err(); err != wantErr {
		t.Errorf("Err = %v; want %v", err, wantErr)
	}
}

func TestWithTimeoutPast(t *testing.T) {
	fclk := fakeclock.NewFakeClock(time.Unix(0, 0))
	wantErr := errors.New("too late")

	ctx, cancel := WithTimeout(fclk, context.Background(), -time.Second, wantErr)
	defer cancel(context.Canceled)

	if !isDone(ctx) {
		t.Fatal("Context with past deadline is not canceled immediately")
	}
	if err := ctx.Err(); err != wantErr {
		t.Errorf("Err = %v; want %v", err, wantErr)
	}
}
