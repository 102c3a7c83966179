// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package logging

import (
	"sync"
	"time"
)

type heldEntry struct {
	level Level
	ts    time.Time
	msg   string
}

// HoldLogger is a Logger that can temporarily hold back logs.
//
// While held, logs are buffered in memory. Bypass writes a log immediately
// even while held, and Release flushes the buffered logs in order. The runner
// uses this to print a hook's PASS/FAIL line before anything the hook logged.
type HoldLogger struct {
	next Logger

	mu    sync.Mutex
	held  bool
	queue []heldEntry
}

// NewHoldLogger creates a HoldLogger forwarding to next.
func NewHoldLogger(next Logger) *HoldLogger {
	return &HoldLogger{next: next}
}

// Log forwards or buffers a log.
func (l *HoldLogger) Log(level Level, ts time.Time, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		l.queue = append(l.queue, heldEntry{level, ts, msg})
		return
	}
	l.next.Log(level, ts, msg)
}

// Bypass forwards a log immediately regardless of the hold state.
func (l *HoldLogger) Bypass(level Level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next.Log(level, time.Now(), msg)
}

// Hold starts buffering logs. Calling Hold while already held is a no-op.
func (l *HoldLogger) Hold() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = true
}

// Release stops buffering and flushes buffered logs.
func (l *HoldLogger) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.queue {
		l.next.Log(e.level, e.ts, e.msg)
	}
	l.queue = nil
	l.held = false
}
