// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package runner

import (
	"fmt"
	"time"
)

// Record is the bookkeeping of one instance in one run.
type Record struct {
	// Name is the instance name.
	Name string
	// Ran lists the hooks that were started, in order.
	Ran []string
	// Failed maps names of failed hooks to their error messages.
	Failed map[string]string
	// Data is the instance's data as of the end of the run.
	Data map[string]interface{}
	// Settings is a copy of the instance's settings.
	Settings map[string]interface{}
	// Order is the position of the instance in the registration order.
	Order int
}

// Passed reports whether no hook of the instance failed.
func (r *Record) Passed() bool {
	return len(r.Failed) == 0
}

// Failure describes one failed hook call.
type Failure struct {
	Time time.Time
	Task string
	Hook string
	Err  error
	// Stack is the detailed error, including stack traces.
	Stack string
}

// Result is the outcome of a run.
type Result struct {
	// ID uniquely identifies the run.
	ID    string
	Start time.Time
	End   time.Time
	// Err is set if the run stopped early, either because of an abort or
	// because the failure policy halted it.
	Err error
	// Aborted is set if Err is an abort.
	Aborted bool
	// Records has one entry per instance, in registration order.
	Records []*Record
	// Failures lists failed hooks in the order they failed.
	Failures []*Failure
}

// Passed reports whether the run completed without failures.
func (r *Result) Passed() bool {
	return r.Err == nil && len(r.Failures) == 0
}

// Summary counts the outcomes of a run.
type Summary struct {
	Tasks       int
	TasksPassed int
	TasksFailed int
	HooksRan    int
	HooksFailed int
}

func (s Summary) String() string {
	return fmt.Sprintf("Test #: %d, pass #: %d, fail #: %d (hooks run: %d, failed: %d)",
		s.Tasks, s.TasksPassed, s.TasksFailed, s.HooksRan, s.HooksFailed)
}

func summarize(recs []*Record) Summary {
	var s Summary
	for _, rec := range recs {
		s.Tasks++
		if rec.Passed() {
			s.TasksPassed++
		} else {
			s.TasksFailed++
		}
		s.HooksRan += len(rec.Ran)
		s.HooksFailed += len(rec.Failed)
	}
	return s
}

// Summary returns the counts of the run.
func (r *Result) Summary() Summary {
	return summarize(r.Records)
}
