// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package console

import (
	"bytes"
	"regexp"
)

// Pattern is a candidate that Expect looks for in console output.
type Pattern interface {
	// Find returns the start and end offsets of the leftmost occurrence of
	// the pattern in b, or nil if there is none.
	Find(b []byte) []int
	// String returns the pattern as configured, e.g. "login".
	String() string
}

type literal string

// Literal returns a Pattern matching s verbatim.
func Literal(s string) Pattern {
	return literal(s)
}

func (l literal) Find(b []byte) []int {
	i := bytes.Index(b, []byte(l))
	if i < 0 {
		return nil
	}
	return []int{i, i + len(l)}
}

func (l literal) String() string { return string(l) }

type regexpPattern struct {
	re *regexp.Regexp
}

// Regexp returns a Pattern matching the regular expression expr. It panics if
// expr does not compile, like regexp.MustCompile.
func Regexp(expr string) Pattern {
	return regexpPattern{regexp.MustCompile(expr)}
}

// RegexpPattern returns a Pattern matching re.
func RegexpPattern(re *regexp.Regexp) Pattern {
	return regexpPattern{re}
}

func (p regexpPattern) Find(b []byte) []int {
	return p.re.FindIndex(b)
}

func (p regexpPattern) String() string { return p.re.String() }

// Literals converts strings to literal patterns.
func Literals(ss ...string) []Pattern {
	ps := make([]Pattern, len(ss))
	for i, s := range ss {
		ps[i] = Literal(s)
	}
	return ps
}

// Match is the outcome of Expect.
type Match struct {
	// Index is the position of the matched pattern in the candidate list,
	// or -1 if nothing matched.
	Index int
	// Pattern is the matched pattern, or nil.
	Pattern Pattern
	// Before holds the output preceding the match. On timeout it holds
	// everything buffered so far.
	Before string
	// Text is the matched text.
	Text string
	// TimedOut is true if no pattern matched before the timeout.
	TimedOut bool
}

// Matched reports whether a pattern matched.
func (m *Match) Matched() bool {
	return m.Index >= 0
}

// Is reports whether the matched pattern was configured as s.
func (m *Match) Is(s string) bool {
	return m.Pattern != nil && m.Pattern.String() == s
}

// findFirst returns the match with the smallest start offset in buf. Ties
// go to the pattern listed first.
func findFirst(buf []byte, patterns []Pattern) (idx int, loc []int) {
	idx = -1
	for i, p := range patterns {
		l := p.Find(buf)
		if l == nil {
			continue
		}
		if idx < 0 || l[0] < loc[0] {
			idx, loc = i, l
		}
	}
	return idx, loc
}
