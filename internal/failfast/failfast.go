// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package failfast tracks hook failures and decides when a run should halt.
package failfast

import (
	"sync"

	"boardfarm/errors"
)

// Counter counts hook failures and halts the run once a threshold is reached.
// nil is a valid Counter that never halts, as if the threshold were infinite.
// Counter is safe for concurrent use.
type Counter struct {
	threshold int

	mu    sync.Mutex
	fails int
}

// NewCounter constructs a Counter. If threshold is not positive, it returns
// nil, which never halts the run.
func NewCounter(threshold int) *Counter {
	if threshold <= 0 {
		return nil
	}
	return &Counter{threshold: threshold}
}

// ForPolicy returns the counter for a run's failure policy: the first failure
// halts the run unless continueOnFail is set, in which case maxFailures
// failures do (0 means never).
func ForPolicy(continueOnFail bool, maxFailures int) *Counter {
	if !continueOnFail {
		return NewCounter(1)
	}
	return NewCounter(maxFailures)
}

// Increment records a failure.
func (c *Counter) Increment() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fails++
}

// Count returns the number of recorded failures.
func (c *Counter) Count() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fails
}

// Check returns an error if the number of failures has reached the threshold.
func (c *Counter) Check() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fails >= c.threshold {
		return errors.Errorf("halting due to too many failures (%d)", c.fails)
	}
	return nil
}
