// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package testlib

import (
	"context"

	"boardfarm/runner"
	"boardfarm/testing"
)

// LogStats is a task that logs the pass/fail counts of the run so far in its
// report hook. Register it last to cover all other tasks.
type LogStats struct {
	Runner *runner.Runner
}

// Hook implements testing.Task.
func (t *LogStats) Hook(name string) testing.HookFunc {
	if name != testing.HookReport {
		return nil
	}
	return func(ctx context.Context, s *testing.State) error {
		p := t.Runner.Progress()
		s.Data()["summary"] = p
		testing.ContextLog(ctx, p.String())
		return nil
	}
}
