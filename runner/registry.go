// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package runner

import (
	"fmt"
	"regexp"

	"golang.org/x/exp/slices"

	"boardfarm/errors"
	"boardfarm/testing"
)

// maxDuplicateNames is the number of renames Register tries before giving up.
const maxDuplicateNames = 500

// numberSuffix matches the numeric suffix added by renames, e.g. "_2".
var numberSuffix = regexp.MustCompile(`_[0-9]+$`)

// Register adds t to the runner and returns the new instance.
//
// The instance is named after t (see testing.Namer). If the name is taken,
// the instance is renamed to "<base>_<n>" with the smallest free n, where
// base is the name with one numeric suffix removed. Register must not be
// called while Run is in progress.
func (r *Runner) Register(t testing.Task) (*Instance, error) {
	if isNil(t) {
		return nil, ErrInvalidTaskType
	}
	inst := newInstance(t)

	r.mu.Lock()
	defer r.mu.Unlock()

	name, err := r.uniqueNameLocked(inst.name)
	if err != nil {
		return nil, err
	}
	inst.name = name
	r.logf("Appending test: %s", inst.name)
	r.insts = append(r.insts, inst)
	return inst, nil
}

// uniqueNameLocked returns name or a renamed version of it that no
// registered instance uses. Caller must hold r.mu.
func (r *Runner) uniqueNameLocked(name string) (string, error) {
	base := numberSuffix.ReplaceAllString(name, "")
	cur := name
	for i := 1; ; i++ {
		found, err := r.findLocked(cur)
		if err != nil {
			return "", err
		}
		if found == nil {
			return cur, nil
		}
		if i > maxDuplicateNames {
			return "", errors.Wrapf(ErrTooManyDuplicateNames, "maximum number (%d) of tasks named %q reached", maxDuplicateNames, name)
		}
		next := fmt.Sprintf("%s_%d", base, i)
		r.logf("Test [%s] already added. Renaming to [%s]", cur, next)
		cur = next
	}
}

// Unregister removes inst from the runner. It does nothing if inst is not
// registered.
func (r *Runner) Unregister(inst *Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(func(i *Instance) bool { return i == inst })
}

// UnregisterName removes the instance named name. It does nothing if there
// is no such instance.
func (r *Runner) UnregisterName(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(func(i *Instance) bool { return i.name == name })
}

func (r *Runner) removeLocked(match func(i *Instance) bool) {
	idx := slices.IndexFunc(r.insts, match)
	if idx < 0 {
		return
	}
	r.logf("Removed test: %s", r.insts[idx].name)
	r.insts = slices.Delete(r.insts, idx, idx+1)
}

// FindByName returns the instance named name, or nil if there is none.
func (r *Runner) FindByName(name string) (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(name)
}

func (r *Runner) findLocked(name string) (*Instance, error) {
	var found *Instance
	for _, inst := range r.insts {
		if inst.name != name {
			continue
		}
		if found != nil {
			return nil, errors.Wrapf(ErrDuplicateName, "%q", name)
		}
		found = inst
	}
	return found, nil
}

// Instances returns the registered instances in registration order.
func (r *Runner) Instances() []*Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.insts)
}
