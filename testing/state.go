// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package testing

import (
	"context"

	"boardfarm/console"
	"boardfarm/internal/logging"
)

// Board is the board under test as seen by hooks.
type Board interface {
	// Name returns the board's name.
	Name() string
	// Restart power-cycles the board. It may block until power is back.
	Restart(ctx context.Context) error
	// Console returns the board's console session, or nil if the board has
	// no console.
	Console() *console.Session
}

// State is passed to hooks. It gives access to the task's per-run data and
// to the board.
//
// A State is only valid during the hook call it was passed to. Hooks of one
// task may run on different goroutines, but never concurrently.
type State struct {
	taskName string
	hookName string
	data     map[string]interface{}
	settings map[string]interface{}
	runData  RunData
	board    Board
}

// RunData is run-level storage shared by all tasks of a run. Its methods
// are safe for concurrent use.
type RunData interface {
	Get(key string) (interface{}, bool)
	Set(key string, val interface{})
}

// NewState is used by the runner to create a State. Tests of hook
// functions may use it too.
func NewState(taskName, hookName string, data, settings map[string]interface{}, runData RunData, board Board) *State {
	return &State{
		taskName: taskName,
		hookName: hookName,
		data:     data,
		settings: settings,
		runData:  runData,
		board:    board,
	}
}

// TaskName returns the display name of the running task instance.
func (s *State) TaskName() string { return s.taskName }

// HookName returns the name of the running hook.
func (s *State) HookName() string { return s.hookName }

// Data returns the task instance's data for the current run. It is cleared
// at the start of every run and is not shared with other instances.
func (s *State) Data() map[string]interface{} { return s.data }

// Settings returns the task's scheduler settings. Callers must not modify
// the returned map.
func (s *State) Settings() map[string]interface{} { return s.settings }

// RunData returns storage shared by every task in the run.
func (s *State) RunData() RunData { return s.runData }

// Board returns the board under test, or nil if the runner has no board.
func (s *State) Board() Board { return s.board }

// ContextLog formats its arguments using default formatting and logs them
// via ctx.
func ContextLog(ctx context.Context, args ...interface{}) {
	logging.Info(ctx, args...)
}

// ContextLogf is similar to ContextLog but formats its arguments using
// fmt.Sprintf.
func ContextLogf(ctx context.Context, format string, args ...interface{}) {
	logging.Infof(ctx, format, args...)
}
