// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package dut

import (
	"context"
	"os/exec"
	"strings"

	"boardfarm/errors"
	"boardfarm/internal/logging"
	"boardfarm/shutil"
)

// CommandPower switches power by running host commands, e.g. a relay or
// PDU control script.
type CommandPower struct {
	// OnCmd and OffCmd are argv lists. The first element is the program.
	OnCmd  []string
	OffCmd []string
}

// On implements Power.
func (p *CommandPower) On(ctx context.Context) error {
	return runPowerCommand(ctx, p.OnCmd)
}

// Off implements Power.
func (p *CommandPower) Off(ctx context.Context) error {
	return runPowerCommand(ctx, p.OffCmd)
}

func runPowerCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("power command not configured")
	}
	logging.Debugf(ctx, "Running %s", shutil.EscapeSlice(args))
	out, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "%s failed: %s", shutil.EscapeSlice(args), strings.TrimSpace(string(out)))
	}
	return nil
}
