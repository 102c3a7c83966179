// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package runner runs board test tasks.
//
// A Runner holds an ordered list of registered task instances. Run calls the
// hooks of every instance in the order given by the hook registry, records
// which hooks ran and failed, and applies the failure policy.
package runner

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/google/uuid"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"boardfarm/internal/failfast"
	"boardfarm/internal/logging"
	"boardfarm/notify"
	"boardfarm/testing"
)

const (
	defaultHookTimeout   = 30 * time.Minute
	defaultGracePeriod   = 30 * time.Second
	defaultNotifyTimeout = time.Minute
)

// Config configures a Runner.
type Config struct {
	// Hooks is the ordered hook registry. Defaults to testing.DefaultHooks.
	Hooks []string
	// BodyHook is the hook whose failure triggers TeardownHook right away.
	// Defaults to testing.HookBody.
	BodyHook string
	// TeardownHook defaults to testing.HookTeardown.
	TeardownHook string

	// Policy orders hooks. Defaults to Sequential.
	Policy Policy

	// ContinueOnFail keeps the run going after a hook fails.
	ContinueOnFail bool
	// MaxFailures halts the run after this many failures if ContinueOnFail
	// is set. 0 means no limit.
	MaxFailures int

	// NotifyOnFail enables failure notifications through Notifier.
	NotifyOnFail bool
	Notifier     notify.Notifier
	// NotifyTimeout bounds each notification.
	NotifyTimeout time.Duration

	// HookTimeout bounds each hook call. A hook that does not return
	// within HookTimeout plus GracePeriod is abandoned and fails.
	HookTimeout time.Duration
	GracePeriod time.Duration

	// Board is passed to hooks. It may be nil.
	Board testing.Board

	// Logger receives run logs. Defaults to timestamped lines on stdout.
	Logger logging.Logger
	// Clock timestamps results. Defaults to the real clock.
	Clock clock.Clock
}

// Runner runs registered tasks.
type Runner struct {
	cfg    Config
	logger logging.Logger
	clk    clock.Clock

	mu    sync.Mutex
	insts []*Instance
	cur   *run
	last  *Result
}

// New creates a Runner.
func New(cfg *Config) *Runner {
	c := *cfg
	if c.Hooks == nil {
		c.Hooks = testing.DefaultHooks
	}
	c.Hooks = slices.Clone(c.Hooks)
	if c.BodyHook == "" {
		c.BodyHook = testing.HookBody
	}
	if c.TeardownHook == "" {
		c.TeardownHook = testing.HookTeardown
	}
	if c.Policy == nil {
		c.Policy = Sequential{}
	}
	if c.HookTimeout <= 0 {
		c.HookTimeout = defaultHookTimeout
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = defaultGracePeriod
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = defaultNotifyTimeout
	}
	if c.Logger == nil {
		c.Logger = logging.NewLineLogger(os.Stdout, logging.LevelInfo, logging.WithTimestamp())
	}
	if c.Clock == nil {
		c.Clock = clock.NewClock()
	}
	return &Runner{cfg: c, logger: c.Logger, clk: c.Clock}
}

func (r *Runner) logf(format string, args ...interface{}) {
	r.logger.Log(logging.LevelInfo, r.clk.Now(), fmt.Sprintf(format, args...))
}

// run holds the state of one run. Records and failures are written only
// with mu held.
type run struct {
	id      string
	start   time.Time
	insts   []*Instance
	data    *runData
	counter *failfast.Counter

	mu       sync.Mutex
	records  map[*Instance]*Record
	failures []*Failure
}

func (st *run) record(inst *Instance) *Record {
	return st.records[inst]
}

// orderedRecords returns records in registration order. Caller must hold
// st.mu.
func (st *run) orderedRecords() []*Record {
	recs := make([]*Record, 0, len(st.insts))
	for _, inst := range st.insts {
		recs = append(recs, st.records[inst])
	}
	return recs
}

// Run runs all hooks of all registered instances and returns the result.
//
// Hook failures never make Run fail; they are recorded in the result. If a
// hook aborts the run or ctx is canceled, no further hooks are started and
// the result is marked as aborted.
func (r *Runner) Run(ctx context.Context) *Result {
	ctx = logging.AttachLogger(ctx, r.logger)

	r.mu.Lock()
	insts := slices.Clone(r.insts)
	st := &run{
		id:      uuid.NewString(),
		start:   r.clk.Now(),
		insts:   insts,
		data:    newRunData(),
		counter: failfast.ForPolicy(r.cfg.ContinueOnFail, r.cfg.MaxFailures),
		records: make(map[*Instance]*Record),
	}
	for i, inst := range insts {
		inst.data = make(map[string]interface{})
		st.records[inst] = &Record{
			Name:     inst.name,
			Failed:   make(map[string]string),
			Settings: maps.Clone(inst.settings),
			Order:    i,
		}
	}
	r.cur = st
	r.mu.Unlock()

	logging.Infof(ctx, "Running tests (run %s)", st.id)
	logging.Debugf(ctx, "Running tests: %v", insts)
	logging.Debugf(ctx, "== TESTING MODE: %v ==", r.cfg.Policy)

	runCtx := ctx
	err := r.cfg.Policy.Schedule(ctx, insts, r.cfg.Hooks, func(ctx context.Context, inst *Instance, hook string) error {
		return r.runHook(ctx, runCtx, st, inst, hook)
	})

	st.mu.Lock()
	res := &Result{
		ID:       st.id,
		Start:    st.start,
		End:      r.clk.Now(),
		Records:  st.orderedRecords(),
		Failures: slices.Clone(st.failures),
	}
	for _, inst := range insts {
		st.records[inst].Data = maps.Clone(inst.data)
	}
	st.mu.Unlock()

	if err != nil {
		logging.Info(ctx, "== TESTING ABORTED EARLY ==")
		res.Err = err
		res.Aborted = testing.IsAbort(err) || ctx.Err() != nil
	} else {
		logging.Debug(ctx, "== ALL TESTS COMPLETED ==")
	}
	logging.Info(ctx, res.Summary().String())

	r.mu.Lock()
	r.cur = nil
	r.last = res
	r.mu.Unlock()
	return res
}

// LastResult returns the result of the latest completed run, or nil.
func (r *Runner) LastResult() *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Progress summarizes the run in progress. Outside of a run it summarizes
// the latest completed run.
func (r *Runner) Progress() Summary {
	r.mu.Lock()
	st, last := r.cur, r.last
	r.mu.Unlock()
	if st == nil {
		if last == nil {
			return Summary{}
		}
		return last.Summary()
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return summarize(st.orderedRecords())
}

// runData is the run-level storage shared by all hooks.
type runData struct {
	mu sync.Mutex
	m  map[string]interface{}
}

func newRunData() *runData {
	return &runData{m: make(map[string]interface{})}
}

func (d *runData) Get(key string) (interface{}, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.m[key]
	return v, ok
}

func (d *runData) Set(key string, val interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m[key] = val
}
