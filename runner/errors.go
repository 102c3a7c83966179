// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package runner

import (
	"boardfarm/errors"
)

var (
	// ErrInvalidTaskType is returned by Register when given a nil task, such
	// as a nil pointer of a task type, instead of a task value.
	ErrInvalidTaskType = errors.New("invalid task: a non-nil task value is required")

	// ErrTooManyDuplicateNames is returned by Register when no unique name
	// could be found for a task.
	ErrTooManyDuplicateNames = errors.New("too many tasks with the same name")

	// ErrDuplicateName is returned when several registered tasks share a
	// name. Register never lets this happen.
	ErrDuplicateName = errors.New("multiple tasks with the same name")
)
