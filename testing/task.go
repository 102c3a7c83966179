// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package testing defines the interface between board tests and the runner.
//
// A board test is a Task: a value that may implement any of the hooks named
// by the runner's hook registry. The runner calls the hooks in registry order
// and passes each a State.
package testing

import (
	"context"
)

// Conventional hook names. The runner treats the hook list as configuration;
// these are only the defaults.
const (
	HookSetup    = "setup"
	HookBody     = "test_body"
	HookTeardown = "teardown"
	HookReport   = "report"
)

// DefaultHooks is the default ordered hook registry.
var DefaultHooks = []string{HookSetup, HookBody, HookTeardown, HookReport}

// HookFunc implements one hook of a task.
//
// A non-nil error fails the hook. Errors built with Abort stop the whole run.
type HookFunc func(ctx context.Context, s *State) error

// Task is implemented by board tests.
type Task interface {
	// Hook returns the function implementing the named hook, or nil if the
	// task does not have that hook.
	Hook(name string) HookFunc
}

// Namer is implemented by tasks with an explicit display name. Tasks without
// one are named after their Go type.
type Namer interface {
	TaskName() string
}

// Configurable is implemented by tasks that carry scheduler settings. The
// settings are opaque to the runner and are copied into run records.
type Configurable interface {
	TaskSettings() map[string]interface{}
}

// Test is a Task assembled from plain functions.
type Test struct {
	// Name is the display name. If empty, the task is named "Test".
	Name string
	// Settings is copied into run records.
	Settings map[string]interface{}
	// Hooks maps hook names to their implementations.
	Hooks map[string]HookFunc
}

// Hook implements Task.
func (t *Test) Hook(name string) HookFunc {
	return t.Hooks[name]
}

// TaskName implements Namer.
func (t *Test) TaskName() string {
	return t.Name
}

// TaskSettings implements Configurable.
func (t *Test) TaskSettings() map[string]interface{} {
	return t.Settings
}
