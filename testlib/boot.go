// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package testlib provides common board test flows and tasks built on them.
package testlib

import (
	"context"
	"time"

	"boardfarm/console"
	"boardfarm/errors"
	"boardfarm/internal/logging"
	"boardfarm/testing"
)

// Default values for flows.
const (
	DefaultBootMarker  = "linux"
	DefaultBootTimeout = 2 * time.Minute
)

// Boot power-cycles b and waits until marker appears on its console.
func Boot(ctx context.Context, b testing.Board, marker string, timeout time.Duration) error {
	if b == nil {
		return errors.New("no board")
	}
	s := b.Console()
	if s == nil {
		return errors.New("no console available")
	}
	logging.Infof(ctx, "Starting boot test with boot string %q", marker)

	// Output from before the restart must not satisfy the marker.
	s.Flush()
	if err := b.Restart(ctx); err != nil {
		return err
	}
	m, err := s.Expect(ctx, console.Literals(marker), timeout)
	if err != nil {
		return errors.Wrap(err, "failed to read console")
	}
	if m.TimedOut {
		return errors.Errorf("timeout waiting for boot string %q", marker)
	}
	return nil
}

// BootTask is a task that checks the board boots.
type BootTask struct {
	// Marker is the console text that signals a successful boot. Defaults
	// to DefaultBootMarker.
	Marker string
	// Timeout defaults to DefaultBootTimeout.
	Timeout time.Duration
}

// Hook implements testing.Task.
func (t *BootTask) Hook(name string) testing.HookFunc {
	if name != testing.HookBody {
		return nil
	}
	return func(ctx context.Context, s *testing.State) error {
		marker := t.Marker
		if marker == "" {
			marker = DefaultBootMarker
		}
		timeout := t.Timeout
		if timeout <= 0 {
			timeout = DefaultBootTimeout
		}
		return Boot(ctx, s.Board(), marker, timeout)
	}
}
