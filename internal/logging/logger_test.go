// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package logging_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"boardfarm/internal/logging"
	"boardfarm/internal/logging/loggingtest"
)

func TestMultiLogger(t *testing.T) {
	logger1 := loggingtest.NewLogger(t, logging.LevelInfo)
	logger2 := loggingtest.NewLogger(t, logging.LevelInfo)

	logger := logging.NewMultiLogger(logger1)
	logger.Log(logging.LevelInfo, time.Time{}, "aaa")
	logger.AddLogger(logger2)
	logger.Log(logging.LevelInfo, time.Time{}, "bbb")
	logger.RemoveLogger(logger1)
	logger.Log(logging.LevelInfo, time.Time{}, "ccc")

	if diff := cmp.Diff(logger1.Logs(), []string{"aaa", "bbb"}); diff != "" {
		t.Errorf("Messages mismatch for logger1 (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(logger2.Logs(), []string{"bbb", "ccc"}); diff != "" {
		t.Errorf("Messages mismatch for logger2 (-got +want):\n%s", diff)
	}
}

func TestLevelString(t *testing.T) {
	for level, want := range map[logging.Level]string{
		logging.LevelDebug: "DEBUG",
		logging.LevelInfo:  "INFO",
		logging.LevelError: "ERROR",
		logging.Level(42):  "UNKNOWN",
	} {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q; want %q", int(level), got, want)
		}
	}
}
