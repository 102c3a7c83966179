// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/google/subcommands"

	"boardfarm/console"
	"boardfarm/dut"
	"boardfarm/errors"
	"boardfarm/internal/logging"
	"boardfarm/internal/xcontext"
	"boardfarm/notify"
	"boardfarm/resultstore"
	"boardfarm/runner"
)

// runCmd implements subcommands.Command to support running tests.
type runCmd struct {
	out     io.Writer     // destination of run logs
	verbose bool          // log debug messages
	db      string        // results database; overrides the config file
	envFile string        // .env file with mail settings; overrides the config file
	timeout time.Duration // overall timeout; 0 if no timeout
}

var _ = subcommands.Command(&runCmd{})

func newRunCmd(out io.Writer) *runCmd {
	return &runCmd{out: out}
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run tests on a board" }
func (*runCmd) Usage() string {
	return `Usage: run [flag]... <config.yaml>

Description:
    Runs the tests listed in the config file against the board it describes.
    Exits with 0 only if every hook of every test passed.

Flag:
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.verbose, "verbose", false, "log debug messages")
	f.StringVar(&r.db, "db", "", "SQLite database to store results in")
	f.StringVar(&r.envFile, "envfile", "", ".env file with mail settings")
	f.DurationVar(&r.timeout, "timeout", 0, "run timeout (0 for no timeout)")
}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, r.Usage())
		return subcommands.ExitUsageError
	}

	level := logging.LevelInfo
	if r.verbose {
		level = logging.LevelDebug
	}
	lg := logging.NewLineLogger(r.out, level, logging.WithTimestamp())
	ctx = logging.AttachLogger(ctx, lg)

	if r.timeout > 0 {
		var cancel xcontext.CancelFunc
		ctx, cancel = xcontext.WithTimeout(clock.NewClock(), ctx, r.timeout,
			errors.Errorf("%v: run timeout reached (%v)", context.DeadlineExceeded, r.timeout))
		defer cancel(context.Canceled)
	}

	res, err := r.run(ctx, f.Arg(0), level)
	if err != nil {
		lg.Log(logging.LevelError, time.Now(), err.Error())
		return subcommands.ExitFailure
	}
	if !res.Passed() {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// run loads the config at path, runs its tests and stores the result. Logs
// of the run are prefixed with the board name.
func (r *runCmd) run(ctx context.Context, path string, level logging.Level) (*runner.Result, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	if r.db != "" {
		cfg.Runner.ResultsDB = r.db
	}
	if r.envFile != "" {
		cfg.Runner.EnvFile = r.envFile
	}

	lg := logging.NewLineLogger(r.out, level, logging.WithTimestamp(), logging.WithPrefix(cfg.Board.Name))
	ctx = logging.AttachLogger(ctx, lg)

	board, closeBoard, err := openBoard(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeBoard()

	rcfg := &runner.Config{
		Hooks:          cfg.Runner.Hooks,
		ContinueOnFail: cfg.Runner.ContinueOnFail,
		MaxFailures:    cfg.Runner.MaxFailures,
		HookTimeout:    cfg.Runner.HookTimeout,
		NotifyOnFail:   cfg.Runner.NotifyOnFail,
		Board:          board,
		Logger:         lg,
	}
	if rcfg.Policy, err = cfg.Runner.policy(); err != nil {
		return nil, err
	}
	if cfg.Runner.NotifyOnFail {
		if rcfg.Notifier, err = newMailer(cfg); err != nil {
			return nil, err
		}
	}

	rn := runner.New(rcfg)
	for _, tc := range cfg.Tests {
		task, err := tc.task(rn)
		if err != nil {
			return nil, err
		}
		if _, err := rn.Register(task); err != nil {
			return nil, err
		}
	}

	res := rn.Run(ctx)

	if cfg.Runner.ResultsDB != "" {
		if err := saveResult(cfg.Runner.ResultsDB, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// openBoard connects to the board's console and sets up its power control.
// The returned function closes the console and its log file.
func openBoard(ctx context.Context, cfg *runConfig) (*dut.Board, func(), error) {
	opts := &dut.Options{OffTime: cfg.Board.OffTime}
	if len(cfg.Board.PowerOn) > 0 || len(cfg.Board.PowerOff) > 0 {
		opts.Power = &dut.CommandPower{OnCmd: cfg.Board.PowerOn, OffCmd: cfg.Board.PowerOff}
	}

	tr, err := cfg.Console.openTransport(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open console")
	}
	var logFile *os.File
	if tr != nil {
		sopts := &console.Options{LineSep: cfg.Console.LineSep}
		if cfg.Console.Log != "" {
			if logFile, err = os.Create(cfg.Console.Log); err != nil {
				tr.Close()
				return nil, nil, err
			}
			sopts.Log = logFile
		}
		opts.Console = console.NewSession(tr, sopts)
	}

	b := dut.NewBoard(cfg.Board.Name, opts)
	return b, func() {
		b.Close()
		if logFile != nil {
			logFile.Close()
		}
	}, nil
}

// newMailer builds the failure notifier. The console log, if any, is
// attached to every mail.
func newMailer(cfg *runConfig) (*notify.Mailer, error) {
	var files []string
	if cfg.Runner.EnvFile != "" {
		files = append(files, cfg.Runner.EnvFile)
	}
	s, err := notify.SettingsFromEnv(files...)
	if err != nil {
		return nil, err
	}
	var attachments []string
	if cfg.Console.Log != "" {
		attachments = append(attachments, cfg.Console.Log)
	}
	return notify.NewMailer(s, attachments...)
}

func saveResult(path string, res *runner.Result) error {
	st, err := resultstore.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	// The run context may already be canceled if the run was aborted.
	return st.Save(context.Background(), res)
}
