// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package shutil quotes host command lines for logs and error messages.
package shutil

import (
	"regexp"
	"strings"
)

// plainRE matches words that a POSIX shell reads literally. A leading "=" is
// excluded because zsh expands it.
var plainRE = regexp.MustCompile(`^[-\w@%+:,./][-\w@%+:,./=]*$`)

// Escape quotes s for a POSIX shell unless it is already safe as is.
func Escape(s string) string {
	if plainRE.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// EscapeSlice returns a shell command line running args.
func EscapeSlice(args []string) string {
	var b strings.Builder
	for i, a := range args {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(Escape(a))
	}
	return b.String()
}
