// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build !linux

package console

import (
	"runtime"

	"boardfarm/errors"
)

// OpenSerial is only supported on Linux.
func OpenSerial(port string, baud int) (Transport, error) {
	return nil, errors.Errorf("serial consoles are not supported on %s", runtime.GOOS)
}
