// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"path/filepath"
	gotesting "testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"boardfarm/internal/logging"
	"boardfarm/runner"
	"boardfarm/testlib"
	"boardfarm/testutil"
)

const fullConfig = `
board:
  name: rpi4-01
  power_on: [pdu, "on", "3"]
  power_off: [pdu, "off", "3"]
  off_time: 5s
console:
  type: serial
  port: /dev/ttyUSB0
  baud: 115200
  line_sep: "\r"
  log: console.log
runner:
  policy: parallel
  workers: 4
  hooks: [setup, test_body, teardown]
  continue_on_fail: true
  max_failures: 3
  hook_timeout: 10m
  notify_on_fail: true
  env_file: mail.env
  results_db: results.db
tests:
  - type: boot
    marker: "login:"
    timeout: 2m
  - type: memory
    total_mb: 1024
    available_mb: 512
    login: true
    password: secret
`

func writeConfig(t *gotesting.T, content string) string {
	t.Helper()
	td := testutil.TempDir(t)
	if err := testutil.WriteFiles(td, map[string]string{"config.yaml": content}); err != nil {
		t.Fatal(err)
	}
	return filepath.Join(td, "config.yaml")
}

func TestLoadConfig(t *gotesting.T) {
	cfg, err := loadConfig(writeConfig(t, fullConfig))
	if err != nil {
		t.Fatal("loadConfig failed: ", err)
	}
	want := &runConfig{
		Board: boardConfig{
			Name:     "rpi4-01",
			PowerOn:  []string{"pdu", "on", "3"},
			PowerOff: []string{"pdu", "off", "3"},
			OffTime:  5 * time.Second,
		},
		Console: consoleConfig{
			Type:    "serial",
			Port:    "/dev/ttyUSB0",
			Baud:    115200,
			LineSep: "\r",
			Log:     "console.log",
		},
		Runner: runnerConfig{
			Policy:         "parallel",
			Workers:        4,
			Hooks:          []string{"setup", "test_body", "teardown"},
			ContinueOnFail: true,
			MaxFailures:    3,
			HookTimeout:    10 * time.Minute,
			NotifyOnFail:   true,
			EnvFile:        "mail.env",
			ResultsDB:      "results.db",
		},
		Tests: []testConfig{
			{Type: "boot", Marker: "login:", Timeout: 2 * time.Minute},
			{Type: "memory", TotalMB: 1024, AvailableMB: 512, Login: true, Password: "secret"},
		},
	}
	if diff := cmp.Diff(cfg, want); diff != "" {
		t.Errorf("loadConfig returned unexpected config (-got +want):\n%s", diff)
	}
}

func TestLoadConfigErrors(t *gotesting.T) {
	for _, tc := range []struct {
		name    string
		content string
	}{
		{"noBoard", "tests: [{type: boot}]\n"},
		{"noTests", "board: {name: b}\n"},
		{"unknownField", "board: {name: b, color: red}\ntests: [{type: boot}]\n"},
		{"badDuration", "board: {name: b, off_time: soon}\ntests: [{type: boot}]\n"},
	} {
		t.Run(tc.name, func(t *gotesting.T) {
			if _, err := loadConfig(writeConfig(t, tc.content)); err == nil {
				t.Error("loadConfig succeeded unexpectedly")
			}
		})
	}
}

func TestPolicy(t *gotesting.T) {
	for _, tc := range []struct {
		cfg  runnerConfig
		want runner.Policy
	}{
		{runnerConfig{}, runner.Sequential{}},
		{runnerConfig{Policy: "sequential"}, runner.Sequential{}},
		{runnerConfig{Policy: "parallel", Workers: 2}, runner.Parallel{Workers: 2}},
	} {
		got, err := tc.cfg.policy()
		if err != nil {
			t.Errorf("policy(%q) failed: %v", tc.cfg.Policy, err)
			continue
		}
		if got != tc.want {
			t.Errorf("policy(%q) = %v; want %v", tc.cfg.Policy, got, tc.want)
		}
	}
	if _, err := (&runnerConfig{Policy: "random"}).policy(); err == nil {
		t.Error("policy succeeded for an unknown policy")
	}
}

func TestTask(t *gotesting.T) {
	rn := runner.New(&runner.Config{Logger: logging.Discard})
	for _, tc := range []struct {
		cfg  testConfig
		want string
	}{
		{testConfig{Type: "boot"}, "BootTask"},
		{testConfig{Type: "login", User: "admin"}, "LoginTask"},
		{testConfig{Type: "memory", TotalMB: 10, AvailableMB: 5}, "MemorySize"},
		{testConfig{Type: "log_stats"}, "LogStats"},
	} {
		task, err := tc.cfg.task(rn)
		if err != nil {
			t.Errorf("task(%q) failed: %v", tc.cfg.Type, err)
			continue
		}
		inst, err := rn.Register(task)
		if err != nil {
			t.Errorf("Register(%q) failed: %v", tc.cfg.Type, err)
			continue
		}
		if inst.Name() != tc.want {
			t.Errorf("task(%q) registered as %q; want %q", tc.cfg.Type, inst.Name(), tc.want)
		}
	}

	if task, err := (&testConfig{Type: "login", User: "admin"}).task(rn); err != nil {
		t.Error("task failed: ", err)
	} else if u := task.(*testlib.LoginTask).Options.User; u != "admin" {
		t.Errorf("Login user = %q; want %q", u, "admin")
	}

	for _, typ := range []string{"", "reboot"} {
		if _, err := (&testConfig{Type: typ}).task(rn); err == nil {
			t.Errorf("task(%q) succeeded unexpectedly", typ)
		}
	}
	// Memory sizes must be positive.
	if _, err := (&testConfig{Type: "memory"}).task(rn); err == nil {
		t.Error("task succeeded for memory test without sizes")
	}
}
