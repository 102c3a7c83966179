// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package runner

import (
	"reflect"

	"golang.org/x/exp/maps"

	"boardfarm/testing"
)

// Instance is a task registered to a Runner.
//
// Registering the same task value twice yields two instances with separate
// per-run data.
type Instance struct {
	name     string
	task     testing.Task
	settings map[string]interface{}
	data     map[string]interface{}
}

func newInstance(t testing.Task) *Instance {
	var settings map[string]interface{}
	if c, ok := t.(testing.Configurable); ok {
		settings = maps.Clone(c.TaskSettings())
	}
	if settings == nil {
		settings = make(map[string]interface{})
	}
	return &Instance{
		name:     defaultName(t),
		task:     t,
		settings: settings,
		data:     make(map[string]interface{}),
	}
}

// defaultName returns the explicit name of t, falling back to its type name.
func defaultName(t testing.Task) string {
	if n, ok := t.(testing.Namer); ok {
		if name := n.TaskName(); name != "" {
			return name
		}
	}
	typ := reflect.TypeOf(t)
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Name() == "" {
		return typ.String()
	}
	return typ.Name()
}

// isNil reports whether t is nil or a typed nil pointer.
func isNil(t testing.Task) bool {
	if t == nil {
		return true
	}
	v := reflect.ValueOf(t)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Interface, reflect.Slice, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Name returns the unique display name of the instance.
func (i *Instance) Name() string { return i.name }

// Task returns the registered task.
func (i *Instance) Task() testing.Task { return i.task }

// Settings returns a copy of the instance's scheduler settings.
func (i *Instance) Settings() map[string]interface{} { return maps.Clone(i.settings) }

// hook returns the function implementing hook, or nil.
func (i *Instance) hook(name string) testing.HookFunc {
	return i.task.Hook(name)
}

// HasHook reports whether the task implements the named hook.
func (i *Instance) HasHook(name string) bool {
	return i.hook(name) != nil
}

func (i *Instance) String() string { return i.name }
