// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package runner

import (
	"context"
	"fmt"

	"boardfarm/errors"
	"boardfarm/errors/stack"
	"boardfarm/internal/logging"
	"boardfarm/internal/usercode"
	"boardfarm/notify"
	"boardfarm/testing"
)

// columnLimit is the width of the "<task> - <hook>" column in logs.
const columnLimit = 75

// hookLine returns the padded "<task> - <hook>" log column.
func hookLine(task, hook string) string {
	msg := task + " - " + hook
	if len(msg) > columnLimit {
		msg = msg[:columnLimit-3] + "..."
	}
	return fmt.Sprintf("%-*s", columnLimit, msg)
}

// runHook runs hook of inst and applies the failure policy.
//
// ctx is the context of the hook's phase; a parallel policy cancels it when
// a sibling halts the run. runCtx is the context of the whole run. A
// teardown triggered by a body failure runs on runCtx so that its outcome
// is recorded even if the phase is cancelled meanwhile.
//
// It returns nil if the run may continue. Aborts are returned unchanged
// without being recorded. Ordinary failures are recorded, and returned only
// if the failure policy halts the run.
func (r *Runner) runHook(ctx, runCtx context.Context, st *run, inst *Instance, hook string) error {
	f := inst.hook(hook)
	if f == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := r.callHook(ctx, st, inst, hook, f)
	if err == nil {
		return nil
	}
	if testing.IsAbort(err) || ctx.Err() != nil {
		logging.Infof(ctx, "Testing aborted by task %s - %s: %v", inst.name, hook, err)
		return err
	}

	r.fail(ctx, st, inst, hook, err)

	if hook == r.cfg.BodyHook {
		if td := inst.hook(r.cfg.TeardownHook); td != nil {
			if tdErr := r.callHook(runCtx, st, inst, r.cfg.TeardownHook, td); tdErr != nil {
				if testing.IsAbort(tdErr) || runCtx.Err() != nil {
					logging.Infof(runCtx, "Testing aborted by task %s - %s: %v", inst.name, r.cfg.TeardownHook, tdErr)
					return tdErr
				}
				r.fail(runCtx, st, inst, r.cfg.TeardownHook, tdErr)
			}
		}
	}

	if st.counter.Check() != nil {
		return err
	}
	return nil
}

// callHook records hook as started and calls f. The "<task> - <hook>" line
// is logged when the hook starts and again with PASS/FAIL when it returns;
// the hook's own logs are held back until then.
func (r *Runner) callHook(ctx context.Context, st *run, inst *Instance, hook string, f testing.HookFunc) error {
	st.mu.Lock()
	rec := st.record(inst)
	rec.Ran = append(rec.Ran, hook)
	st.mu.Unlock()

	line := hookLine(inst.name, hook)

	hl := logging.NewHoldLogger(r.logger)
	hl.Hold()
	defer hl.Release()
	hl.Bypass(logging.LevelInfo, line)

	hctx := logging.AttachLoggerNoPropagation(ctx, hl)
	s := testing.NewState(inst.name, hook, inst.data, inst.settings, st.data, r.cfg.Board)
	err := usercode.Call(hctx, inst.name+" - "+hook, r.cfg.HookTimeout, r.cfg.GracePeriod, func(ctx context.Context) error {
		return f(ctx, s)
	})
	if err != nil {
		hl.Bypass(logging.LevelInfo, line+" FAIL")
	} else {
		hl.Bypass(logging.LevelInfo, line+" PASS")
	}
	return err
}

// fail records a failed hook and runs its side effects.
func (r *Runner) fail(ctx context.Context, st *run, inst *Instance, hook string, err error) {
	f := &Failure{
		Time:  r.clk.Now(),
		Task:  inst.name,
		Hook:  hook,
		Err:   err,
		Stack: detail(err),
	}
	msg := err.Error()
	if msg == "" {
		msg = fmt.Sprintf("%T", err)
	}

	st.mu.Lock()
	st.record(inst).Failed[hook] = msg
	st.failures = append(st.failures, f)
	st.mu.Unlock()
	st.counter.Increment()

	logging.Errorf(ctx, "Task failed: %s", msg)
	logging.Debugf(ctx, "Details: %s", f.Stack)

	if r.cfg.NotifyOnFail && r.cfg.Notifier != nil {
		r.notify(ctx, st, f)
	}
}

// detail renders err with the best stack trace available.
func detail(err error) string {
	if errors.HasStack(err) || usercode.IsPanic(err) {
		return fmt.Sprintf("%+v", err)
	}
	return fmt.Sprintf("%v\n%v", err, stack.New(2))
}

// notify reports f to the notifier. Notifier errors and panics are logged
// and otherwise ignored.
func (r *Runner) notify(ctx context.Context, st *run, f *Failure) {
	rep := &notify.Report{
		RunID: st.id,
		Time:  f.Time,
		Task:  f.Task,
		Hook:  f.Hook,
		Err:   f.Err,
		Stack: f.Stack,
	}
	if r.cfg.Board != nil {
		rep.Board = r.cfg.Board.Name()
	}
	for _, inst := range st.insts {
		rep.Tasks = append(rep.Tasks, inst.name)
	}
	if err := usercode.Call(ctx, "failure notifier", r.cfg.NotifyTimeout, 0, func(ctx context.Context) error {
		return r.cfg.Notifier.NotifyFailure(ctx, rep)
	}); err != nil {
		logging.Infof(ctx, "Failed to send failure notification: %v", err)
	}
}
