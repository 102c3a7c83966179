// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package loggingtest provides logging utilities for unit tests.
package loggingtest

import (
	"strings"
	"sync"
	"testing"
	"time"

	"boardfarm/internal/logging"
)

// Logger is a logging.Logger that accumulates logs to an in-memory buffer,
// as well as emitting them as unit test logs.
type Logger struct {
	t     *testing.T
	level logging.Level

	mu     sync.Mutex
	logs   []string
	levels []logging.Level
}

// NewLogger creates a new Logger keeping logs of level or above.
func NewLogger(t *testing.T, level logging.Level) *Logger {
	return &Logger{t: t, level: level}
}

// Log gets called for a log event.
func (l *Logger) Log(level logging.Level, ts time.Time, msg string) {
	l.t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.t.Logf("[%v] %s", level, msg)
	if level >= l.level {
		l.logs = append(l.logs, msg)
		l.levels = append(l.levels, level)
	}
}

// Logs returns a list of logs received so far.
func (l *Logger) Logs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.logs...)
}

// LogsAt returns the logs received so far with exactly the given level.
func (l *Logger) LogsAt(level logging.Level) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var logs []string
	for i, msg := range l.logs {
		if l.levels[i] == level {
			logs = append(logs, msg)
		}
	}
	return logs
}

// String returns received logs as a newline-separated string.
func (l *Logger) String() string {
	return strings.Join(l.Logs(), "\n")
}
