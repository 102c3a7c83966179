// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package dut represents boards under test.
package dut

import (
	"context"
	"time"

	"code.cloudfoundry.org/clock"

	"boardfarm/console"
	"boardfarm/errors"
	"boardfarm/internal/logging"
)

// DefaultOffTime is how long a board stays powered off during Restart.
const DefaultOffTime = 2 * time.Second

// Power switches a board's power supply.
type Power interface {
	On(ctx context.Context) error
	Off(ctx context.Context) error
}

// Options configures a Board.
type Options struct {
	// Power switches the board. A board without power control cannot be
	// restarted.
	Power Power
	// Console is the board's console session. It may be nil.
	Console *console.Session
	// OffTime is how long Restart keeps the board off. Defaults to
	// DefaultOffTime.
	OffTime time.Duration
	// Clock measures OffTime. Defaults to the real clock.
	Clock clock.Clock
}

// Board is a board under test. It implements testing.Board.
type Board struct {
	name    string
	power   Power
	console *console.Session
	offTime time.Duration
	clk     clock.Clock
}

// NewBoard returns a board named name.
func NewBoard(name string, opts *Options) *Board {
	b := &Board{
		name:    name,
		power:   opts.Power,
		console: opts.Console,
		offTime: opts.OffTime,
		clk:     opts.Clock,
	}
	if b.offTime <= 0 {
		b.offTime = DefaultOffTime
	}
	if b.clk == nil {
		b.clk = clock.NewClock()
	}
	return b
}

// Name returns the board's name.
func (b *Board) Name() string { return b.name }

// Console returns the board's console session, or nil.
func (b *Board) Console() *console.Session { return b.console }

// Restart power-cycles the board.
func (b *Board) Restart(ctx context.Context) error {
	if b.power == nil {
		return errors.Errorf("%s has no power control", b.name)
	}
	logging.Infof(ctx, "Power cycling %s", b.name)
	if err := b.power.Off(ctx); err != nil {
		return errors.Wrapf(err, "failed to power off %s", b.name)
	}

	tm := b.clk.NewTimer(b.offTime)
	defer tm.Stop()
	select {
	case <-tm.C():
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := b.power.On(ctx); err != nil {
		return errors.Wrapf(err, "failed to power on %s", b.name)
	}
	return nil
}

// Close closes the board's console.
func (b *Board) Close() error {
	if b.console == nil {
		return nil
	}
	return b.console.Close()
}
