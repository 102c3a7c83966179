// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package testlib

import (
	"bufio"
	"context"
	"strconv"
	"strings"
	"time"

	"boardfarm/errors"
	"boardfarm/testing"
)

const (
	meminfoTimeout = 10 * time.Second
	meminfoQuiet   = time.Second
)

// MemorySize is a task that checks the amount of RAM of the board.
type MemorySize struct {
	totalMB     int
	availableMB int
	login       *LoginOptions
}

// NewMemorySize returns a task checking that the board has exactly totalMB
// MB of RAM and at least availableMB MB available. Zero skips a check, but
// at least one must be given. If login is non-nil, the task logs in first.
func NewMemorySize(totalMB, availableMB int, login *LoginOptions) (*MemorySize, error) {
	if totalMB <= 0 && availableMB <= 0 {
		return nil, errors.New("total and/or available memory must be given")
	}
	return &MemorySize{totalMB: totalMB, availableMB: availableMB, login: login}, nil
}

// Hook implements testing.Task.
func (t *MemorySize) Hook(name string) testing.HookFunc {
	if name != testing.HookBody {
		return nil
	}
	return t.body
}

func (t *MemorySize) body(ctx context.Context, s *testing.State) error {
	b := s.Board()
	if b == nil || b.Console() == nil {
		return errors.New("no console available")
	}
	cons := b.Console()

	if t.login != nil {
		if err := Login(ctx, cons, *t.login); err != nil {
			return err
		}
	}
	out, err := cons.SendAndRead(ctx, "cat /proc/meminfo", meminfoTimeout, meminfoQuiet)
	if err != nil {
		return errors.Wrap(err, "failed to read /proc/meminfo")
	}
	totalMB, availableMB, err := parseMeminfo(out)
	if err != nil {
		return err
	}
	s.Data()["total_mb"] = totalMB
	s.Data()["available_mb"] = availableMB

	if t.totalMB > 0 && totalMB != t.totalMB {
		return errors.Errorf("the system has %d MB of RAM, but expected %d MB", totalMB, t.totalMB)
	}
	if t.availableMB > 0 && availableMB < t.availableMB {
		return errors.Errorf("the system has %d MB of RAM available, but expected at least %d MB", availableMB, t.availableMB)
	}
	return nil
}

// parseMeminfo extracts MemTotal and MemFree from /proc/meminfo in MB,
// rounded down.
func parseMeminfo(out string) (totalMB, freeMB int, err error) {
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		var dst *int
		switch fields[0] {
		case "MemTotal:":
			dst = &totalMB
		case "MemFree:":
			dst = &freeMB
		default:
			continue
		}
		kb, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		*dst = kb / 1024
	}
	if totalMB == 0 || freeMB == 0 {
		return 0, 0, errors.Errorf("unexpected output from /proc/meminfo:\n%s", out)
	}
	return totalMB, freeMB, nil
}
