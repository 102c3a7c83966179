// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	gotesting "testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/subcommands"

	"boardfarm/resultstore"
	"boardfarm/testutil"
)

// executeRunCmd creates a runCmd, parses args and executes it. It returns
// the exit status and the run logs.
func executeRunCmd(t *gotesting.T, args []string) (subcommands.ExitStatus, string) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRunCmd(&out)
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	cmd.SetFlags(flags)
	if err := flags.Parse(args); err != nil {
		t.Fatal(err)
	}
	status := cmd.Execute(context.Background(), flags)
	return status, out.String()
}

// shellConfig returns a config whose console is a local shell that asks for
// a user name once and then echoes its input after a "# " prompt.
func shellConfig(tests string) string {
	return `
board:
  name: local
  power_on: ["true"]
  power_off: ["true"]
  off_time: 1ms
console:
  type: command
  command: [sh, -c, 'printf "login: "; read u; printf "# "; cat']
runner:
  continue_on_fail: true
tests:
` + tests
}

func loadRuns(t *gotesting.T, db string) []*resultstore.Run {
	t.Helper()
	st, err := resultstore.Open(db)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	runs, err := st.Runs(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	return runs
}

func TestRunCmdPass(t *gotesting.T) {
	td := testutil.TempDir(t)
	cfgPath := filepath.Join(td, "config.yaml")
	db := filepath.Join(td, "results.db")
	if err := testutil.WriteFiles(td, map[string]string{
		"config.yaml": shellConfig(`
  - type: login
    timeout: 10s
  - type: log_stats
`),
	}); err != nil {
		t.Fatal(err)
	}

	status, out := executeRunCmd(t, []string{"-db=" + db, cfgPath})
	if status != subcommands.ExitSuccess {
		t.Fatalf("run returned status %v; want %v\n%s", status, subcommands.ExitSuccess, out)
	}
	for _, s := range []string{"PASS", "== ALL TESTS COMPLETED ==", "Test #: 2, pass #: 2, fail #: 0"} {
		if !strings.Contains(out, s) {
			t.Errorf("Run logs do not contain %q:\n%s", s, out)
		}
	}

	runs := loadRuns(t, db)
	if len(runs) != 1 {
		t.Fatalf("Stored %d runs; want 1", len(runs))
	}
	if !runs[0].Passed {
		t.Error("Stored run did not pass")
	}
	var names []string
	for _, rec := range runs[0].Records {
		names = append(names, rec.Name)
	}
	if diff := cmp.Diff(names, []string{"LoginTask", "LogStats"}); diff != "" {
		t.Errorf("Stored records mismatch (-got +want):\n%s", diff)
	}
}

func TestRunCmdFail(t *gotesting.T) {
	td := testutil.TempDir(t)
	cfgPath := filepath.Join(td, "config.yaml")
	db := filepath.Join(td, "results.db")
	if err := testutil.WriteFiles(td, map[string]string{
		"config.yaml": shellConfig(`
  - type: login
    timeout: 10s
  - type: boot
    marker: never printed
    timeout: 200ms
`),
	}); err != nil {
		t.Fatal(err)
	}

	status, out := executeRunCmd(t, []string{"-db=" + db, cfgPath})
	if status != subcommands.ExitFailure {
		t.Fatalf("run returned status %v; want %v\n%s", status, subcommands.ExitFailure, out)
	}

	runs := loadRuns(t, db)
	if len(runs) != 1 {
		t.Fatalf("Stored %d runs; want 1", len(runs))
	}
	if runs[0].Passed || runs[0].Aborted {
		t.Errorf("Stored run: Passed = %v, Aborted = %v; want failed", runs[0].Passed, runs[0].Aborted)
	}

	var hist bytes.Buffer
	h := newHistoryCmd(&hist)
	h.failures = true
	if err := h.list(context.Background(), db); err != nil {
		t.Fatal("history failed: ", err)
	}
	for _, s := range []string{runs[0].ID, "FAIL", "LoginTask,BootTask", "BootTask.test_body: timeout waiting for boot string"} {
		if !strings.Contains(hist.String(), s) {
			t.Errorf("History does not contain %q:\n%s", s, hist.String())
		}
	}
}

func TestRunCmdBadConfig(t *gotesting.T) {
	td := testutil.TempDir(t)
	if status, _ := executeRunCmd(t, []string{filepath.Join(td, "missing.yaml")}); status != subcommands.ExitFailure {
		t.Errorf("run with missing config returned %v; want %v", status, subcommands.ExitFailure)
	}
	if status, _ := executeRunCmd(t, nil); status != subcommands.ExitUsageError {
		t.Errorf("run without config returned %v; want %v", status, subcommands.ExitUsageError)
	}
}

func TestRunCmdConsoleLog(t *gotesting.T) {
	td := testutil.TempDir(t)
	cfgPath := filepath.Join(td, "config.yaml")
	logPath := filepath.Join(td, "console.log")
	cfg := strings.Replace(shellConfig("  - type: login\n"), "runner:", "  log: "+logPath+"\nrunner:", 1)
	if err := testutil.WriteFiles(td, map[string]string{"config.yaml": cfg}); err != nil {
		t.Fatal(err)
	}

	if status, out := executeRunCmd(t, []string{cfgPath}); status != subcommands.ExitSuccess {
		t.Fatalf("run returned status %v; want %v\n%s", status, subcommands.ExitSuccess, out)
	}
	b, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), "login: root\n# "; got != want {
		t.Errorf("Console log = %q; want %q", got, want)
	}
}
