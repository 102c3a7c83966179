// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package runner

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DispatchFunc runs one hook of one instance. A non-nil error means the run
// must stop.
type DispatchFunc func(ctx context.Context, inst *Instance, hook string) error

// Policy decides the order in which hooks of instances run.
type Policy interface {
	// Schedule calls dispatch for instances and hooks. It must stop and
	// return the error as soon as dispatch fails. Within one instance,
	// hooks must be dispatched in the order of hooks.
	Schedule(ctx context.Context, insts []*Instance, hooks []string, dispatch DispatchFunc) error
	// String names the policy in logs.
	String() string
}

// Sequential runs all hooks of an instance before moving on to the next
// instance.
type Sequential struct{}

// Schedule implements Policy.
func (Sequential) Schedule(ctx context.Context, insts []*Instance, hooks []string, dispatch DispatchFunc) error {
	for _, inst := range insts {
		for _, hook := range hooks {
			if !inst.HasHook(hook) {
				continue
			}
			if err := dispatch(ctx, inst, hook); err != nil {
				return err
			}
		}
	}
	return nil
}

func (Sequential) String() string { return "SEQUENTIAL" }

// Parallel runs one hook on all instances before moving on to the next
// hook. Up to Workers hooks of the same phase run concurrently; Workers of 0
// or 1 runs them one by one.
type Parallel struct {
	Workers int
}

// Schedule implements Policy.
func (p Parallel) Schedule(ctx context.Context, insts []*Instance, hooks []string, dispatch DispatchFunc) error {
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	for _, hook := range hooks {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for _, inst := range insts {
			if !inst.HasHook(hook) {
				continue
			}
			if gctx.Err() != nil {
				break
			}
			inst, hook := inst, hook
			g.Go(func() error {
				return dispatch(gctx, inst, hook)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (Parallel) String() string { return "PARALLEL" }
