// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"boardfarm/console"
	"boardfarm/errors"
	"boardfarm/runner"
	"boardfarm/testing"
	"boardfarm/testlib"
)

// runConfig is the YAML file given to the run command.
type runConfig struct {
	Board   boardConfig   `yaml:"board"`
	Console consoleConfig `yaml:"console"`
	Runner  runnerConfig  `yaml:"runner"`
	Tests   []testConfig  `yaml:"tests"`
}

type boardConfig struct {
	Name     string        `yaml:"name"`
	PowerOn  []string      `yaml:"power_on"`
	PowerOff []string      `yaml:"power_off"`
	OffTime  time.Duration `yaml:"off_time"`
}

// consoleConfig selects and configures the console transport.
type consoleConfig struct {
	Type string `yaml:"type"` // serial, ssh, websocket, command or none

	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`

	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	KeyFile  string `yaml:"key_file"`

	URL string `yaml:"url"`

	Command []string `yaml:"command"`

	LineSep string `yaml:"line_sep"`
	// Log is a file receiving a raw copy of the console traffic.
	Log string `yaml:"log"`
}

type runnerConfig struct {
	Policy         string        `yaml:"policy"` // sequential or parallel
	Workers        int           `yaml:"workers"`
	Hooks          []string      `yaml:"hooks"`
	ContinueOnFail bool          `yaml:"continue_on_fail"`
	MaxFailures    int           `yaml:"max_failures"`
	HookTimeout    time.Duration `yaml:"hook_timeout"`
	NotifyOnFail   bool          `yaml:"notify_on_fail"`
	EnvFile        string        `yaml:"env_file"`
	ResultsDB      string        `yaml:"results_db"`
}

// testConfig describes one task. Fields apply depending on Type.
type testConfig struct {
	Type string `yaml:"type"` // boot, login, memory or log_stats

	Marker  string        `yaml:"marker"`
	Timeout time.Duration `yaml:"timeout"`

	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Prompt   string `yaml:"prompt"`

	TotalMB     int  `yaml:"total_mb"`
	AvailableMB int  `yaml:"available_mb"`
	Login       bool `yaml:"login"`
}

// loadConfig reads and checks the config file at path.
func loadConfig(path string) (*runConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg runConfig
	if err := yaml.UnmarshalStrict(b, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	if cfg.Board.Name == "" {
		return nil, errors.Errorf("%s: board name missing", path)
	}
	if len(cfg.Tests) == 0 {
		return nil, errors.Errorf("%s: no tests", path)
	}
	return &cfg, nil
}

// openTransport connects to the console described by c. It returns nil for
// boards without a console.
func (c *consoleConfig) openTransport(ctx context.Context) (console.Transport, error) {
	switch c.Type {
	case "", "none":
		return nil, nil
	case "serial":
		return console.OpenSerial(c.Port, c.Baud)
	case "ssh":
		return console.DialSSH(ctx, &console.SSHOptions{
			Hostname: c.Host,
			User:     c.User,
			Password: c.Password,
			KeyFile:  c.KeyFile,
		})
	case "websocket":
		return console.DialWebSocket(ctx, c.URL, nil)
	case "command":
		if len(c.Command) == 0 {
			return nil, errors.New("console command missing")
		}
		return console.StartCommand(ctx, c.Command[0], c.Command[1:]...)
	default:
		return nil, errors.Errorf("unknown console type %q", c.Type)
	}
}

// policy returns the scheduling policy named by c.
func (c *runnerConfig) policy() (runner.Policy, error) {
	switch c.Policy {
	case "", "sequential":
		return runner.Sequential{}, nil
	case "parallel":
		return runner.Parallel{Workers: c.Workers}, nil
	default:
		return nil, errors.Errorf("unknown policy %q", c.Policy)
	}
}

// task builds the task described by c.
func (c *testConfig) task(r *runner.Runner) (testing.Task, error) {
	login := testlib.LoginOptions{
		User:     c.User,
		Password: c.Password,
		Prompt:   c.Prompt,
		Timeout:  c.Timeout,
	}
	switch c.Type {
	case "boot":
		return &testlib.BootTask{Marker: c.Marker, Timeout: c.Timeout}, nil
	case "login":
		return &testlib.LoginTask{Options: login}, nil
	case "memory":
		var lo *testlib.LoginOptions
		if c.Login {
			lo = &login
		}
		return testlib.NewMemorySize(c.TotalMB, c.AvailableMB, lo)
	case "log_stats":
		return &testlib.LogStats{Runner: r}, nil
	default:
		return nil, errors.Errorf("unknown test type %q", c.Type)
	}
}
