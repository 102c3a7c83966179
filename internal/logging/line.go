// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package logging

import (
	"io"
	"strings"
	"sync"
	"time"
)

const lineTimeFormat = "2006-01-02T15:04:05.000000Z"

// LineLogger is a Logger that writes logs to an io.Writer one line at a time.
//
// A multi-line message is split so that every line carries the same header.
// Carriage returns left by serial consoles are dropped. Writes are
// synchronized.
type LineLogger struct {
	level     Level
	timestamp bool
	prefix    string

	mu sync.Mutex
	w  io.Writer
}

// LineOption customizes a LineLogger.
type LineOption func(l *LineLogger)

// WithTimestamp prepends the UTC time of a log to each of its lines.
func WithTimestamp() LineOption {
	return func(l *LineLogger) { l.timestamp = true }
}

// WithPrefix prepends "[prefix] " to each line, e.g. a board name.
func WithPrefix(prefix string) LineOption {
	return func(l *LineLogger) { l.prefix = "[" + prefix + "] " }
}

// NewLineLogger returns a LineLogger writing logs of level or above to w.
func NewLineLogger(w io.Writer, level Level, opts ...LineOption) *LineLogger {
	l := &LineLogger{level: level, w: w}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log implements Logger.
func (l *LineLogger) Log(level Level, ts time.Time, msg string) {
	if level < l.level {
		return
	}

	var head string
	if l.timestamp {
		head = ts.UTC().Format(lineTimeFormat) + " "
	}
	head += l.prefix
	if level >= LevelError {
		head += "ERROR: "
	}

	msg = strings.TrimSuffix(strings.ReplaceAll(msg, "\r", ""), "\n")
	var sb strings.Builder
	for _, line := range strings.Split(msg, "\n") {
		sb.WriteString(head)
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.w, sb.String())
}
