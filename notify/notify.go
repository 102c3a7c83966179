// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package notify sends notifications about failed hooks.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Report describes a failed hook.
type Report struct {
	// RunID identifies the run.
	RunID string
	// Time is when the hook failed.
	Time time.Time
	// Board is the name of the board under test, or empty.
	Board string
	// Task and Hook name the failed hook.
	Task string
	Hook string
	// Err is the error returned by the hook.
	Err error
	// Stack is the detailed error with stack traces.
	Stack string
	// Tasks lists the names of all tasks in the run.
	Tasks []string
}

// Notifier is notified of hook failures.
type Notifier interface {
	NotifyFailure(ctx context.Context, r *Report) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, r *Report) error

// NotifyFailure calls f.
func (f NotifierFunc) NotifyFailure(ctx context.Context, r *Report) error {
	return f(ctx, r)
}

func (r *Report) boardName() string {
	if r.Board == "" {
		return "No Board"
	}
	return r.Board
}

// Subject returns a one-line summary of the failure.
func (r *Report) Subject() string {
	return fmt.Sprintf("TestRunner Exception Occurred: [%s: %s] [%s]", r.Task, r.Hook, r.boardName())
}

// Body returns a plain text description of the failure.
func (r *Report) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	fmt.Fprintf(&b, "Time: %s\n", r.Time.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Board: %s\n", r.boardName())
	fmt.Fprintf(&b, "Tests: %s\n", strings.Join(r.Tasks, ", "))
	fmt.Fprintf(&b, "Test Failed: %s\n", r.Task)
	fmt.Fprintf(&b, "Task Failed: %s\n", r.Hook)
	fmt.Fprintf(&b, "\nError: %v\n", r.Err)
	if r.Stack != "" {
		fmt.Fprintf(&b, "\n%s\n", r.Stack)
	}
	return b.String()
}
