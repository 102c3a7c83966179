// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package dut

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/google/go-cmp/cmp"

	"boardfarm/errors"
)

type fakePower struct {
	mu     sync.Mutex
	events []string
	offErr error
}

func (p *fakePower) On(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "on")
	return nil
}

func (p *fakePower) Off(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, "off")
	return p.offErr
}

func (p *fakePower) get() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func TestRestart(t *testing.T) {
	pw := &fakePower{}
	clk := fakeclock.NewFakeClock(time.Unix(0, 0))
	b := NewBoard("rpi4", &Options{Power: pw, Clock: clk, OffTime: 5 * time.Second})

	done := make(chan error, 1)
	go func() { done <- b.Restart(context.Background()) }()

	clk.WaitForWatcherAndIncrement(5 * time.Second)
	if err := <-done; err != nil {
		t.Fatal("Restart failed: ", err)
	}
	if diff := cmp.Diff(pw.get(), []string{"off", "on"}); diff != "" {
		t.Errorf("Power events mismatch (-got +want):\n%s", diff)
	}
}

func TestRestartErrors(t *testing.T) {
	b := NewBoard("rpi4", &Options{})
	if err := b.Restart(context.Background()); err == nil {
		t.Error("Restart succeeded without power control")
	}

	pw := &fakePower{offErr: errors.New("relay stuck")}
	b = NewBoard("rpi4", &Options{Power: pw})
	if err := b.Restart(context.Background()); err == nil || !strings.Contains(err.Error(), "relay stuck") {
		t.Errorf("Restart returned %v; want power off error", err)
	}
	if diff := cmp.Diff(pw.get(), []string{"off"}); diff != "" {
		t.Errorf("Power events mismatch (-got +want):\n%s", diff)
	}
}

func TestRestartCanceled(t *testing.T) {
	pw := &fakePower{}
	clk := fakeclock.NewFakeClock(time.Unix(0, 0))
	b := NewBoard("rpi4", &Options{Power: pw, Clock: clk})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Restart(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Restart returned %v; want %v", err, context.Canceled)
	}
	if diff := cmp.Diff(pw.get(), []string{"off"}); diff != "" {
		t.Errorf("Power events mismatch (-got +want):\n%s", diff)
	}
}

func TestCommandPower(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, "state")
	p := &CommandPower{
		OnCmd:  []string{"sh", "-c", "echo on > " + state},
		OffCmd: []string{"sh", "-c", "echo 'relay error' >&2; exit 1"},
	}
	ctx := context.Background()

	if err := p.On(ctx); err != nil {
		t.Fatal("On failed: ", err)
	}
	if b, err := os.ReadFile(state); err != nil || string(b) != "on\n" {
		t.Errorf("State file = (%q, %v); want %q", b, err, "on\n")
	}

	err := p.Off(ctx)
	if err == nil {
		t.Fatal("Off succeeded for a failing command")
	}
	if !strings.Contains(err.Error(), "relay error") {
		t.Errorf("Off error %q does not include command output", err)
	}

	if err := (&CommandPower{}).On(ctx); err == nil {
		t.Error("On succeeded without a command")
	}
}
