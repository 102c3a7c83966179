// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package stack captures and formats stack traces for failure records.
// Tests should not use it directly; use the errors package instead.
package stack

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	maxDepth = 8 // number of frames recorded by New

	// PanicDepth is the number of frames recorded for panics in user code,
	// which usually sit below several runtime and framework frames.
	PanicDepth = 32

	ellipsis = "\t..." // trailing marker line added if stack trace is too long
)

// Stack holds a snapshot of program counters.
type Stack struct {
	pcs   []uintptr
	depth int // maximum number of frames to print
}

// New captures a stack trace of at most 8 frames. skip specifies the number
// of frames to skip. skip=0 records the New call as the innermost frame.
func New(skip int) Stack {
	return capture(skip+1, maxDepth)
}

// NewDepth is like New but records up to depth frames.
func NewDepth(skip, depth int) Stack {
	return capture(skip+1, depth)
}

func capture(skip, depth int) Stack {
	// One extra slot lets String detect truncation.
	pc := make([]uintptr, depth+1)
	pc = pc[:runtime.Callers(skip+2, pc)]
	return Stack{pcs: pc, depth: depth}
}

// String formats a stack trace to a human-friendly text, one frame per line.
func (s Stack) String() string {
	var lines []string

	// runtime.CallersFrames expands inlined frames correctly, unlike
	// runtime.FuncForPC.
	cf := runtime.CallersFrames(s.pcs)
	for {
		f, more := cf.Next()
		lines = append(lines, fmt.Sprintf("\tat %s (%s:%d)", f.Function, filepath.Base(f.File), f.Line))
		if !more {
			break
		} else if len(lines) >= s.depth {
			lines = append(lines, ellipsis)
			break
		}
	}
	return strings.Join(lines, "\n")
}
