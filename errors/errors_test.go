// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package errors

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
)

func check(t *testing.T, err error, msg string, traceRegexp *regexp.Regexp) {
	t.Helper()
	if s := err.Error(); s != msg {
		t.Errorf("Wrong error message %q; want %q", s, msg)
	}
	if s := fmt.Sprintf("%v", err); s != msg {
		t.Errorf("Wrong default value %q; want %q", s, msg)
	}
	if tr := fmt.Sprintf("%+v", err); !traceRegexp.MatchString(tr) {
		t.Errorf("Wrong trace %q; should match %q", tr, traceRegexp)
	}
}

func TestNew(t *testing.T) {
	const msg = "no console"
	traceRegexp := regexp.MustCompile(`^no console
	at boardfarm/errors\.TestNew \(errors_test.go:\d+\)`)

	check(t, New(msg), msg, traceRegexp)
}

func TestErrorf(t *testing.T) {
	const msg = "prompt #"
	traceRegexp := regexp.MustCompile(`^prompt #
	at boardfarm/errors\.TestErrorf \(errors_test.go:\d+\)`)

	check(t, Errorf("prompt %s", "#"), msg, traceRegexp)
}

func TestWrap(t *testing.T) {
	const msg = "login failed: timed out"
	traceRegexp := regexp.MustCompile(`(?s)^login failed
	at boardfarm/errors\.TestWrap \(errors_test.go:\d+\)
.*
timed out
	at boardfarm/errors\.TestWrap \(errors_test.go:\d+\)`)

	check(t, Wrap(New("timed out"), "login failed"), msg, traceRegexp)
}

func TestWrapForeignError(t *testing.T) {
	const msg = "login failed: timed out"
	traceRegexp := regexp.MustCompile(`(?s)^login failed
	at boardfarm/errors\.TestWrapForeignError \(errors_test.go:\d+\)
.*
timed out
	at \?\?\?$`)

	check(t, Wrap(errors.New("timed out"), "login failed"), msg, traceRegexp)
}

func TestWrapNil(t *testing.T) {
	const msg = "restart failed"
	traceRegexp := regexp.MustCompile(`^restart failed
	at boardfarm/errors\.TestWrapNil \(errors_test.go:\d+\)`)

	check(t, Wrap(nil, msg), msg, traceRegexp)
}

func TestWrapf(t *testing.T) {
	const msg = "relay 3: stuck"
	traceRegexp := regexp.MustCompile(`(?s)^relay 3
	at boardfarm/errors\.TestWrapf \(errors_test.go:\d+\)
.*
stuck
	at boardfarm/errors\.TestWrapf \(errors_test.go:\d+\)`)

	check(t, Wrapf(New("stuck"), "relay %d", 3), msg, traceRegexp)
}

func TestIsThroughChain(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := Wrapf(Wrap(sentinel, "inner"), "outer %d", 1)
	if !Is(err, sentinel) {
		t.Errorf("Is(%v, sentinel) = false; want true", err)
	}
	if got := Unwrap(err); got == nil || got.Error() != "inner: sentinel" {
		t.Errorf("Unwrap(%v) = %v; want inner: sentinel", err, got)
	}
}

func TestHasStack(t *testing.T) {
	if !HasStack(New("a")) {
		t.Error("HasStack(New) = false; want true")
	}
	if HasStack(errors.New("a")) {
		t.Error("HasStack(errors.New) = true; want false")
	}
}
