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
	"strings"
	"time"

	"github.com/google/subcommands"

	"boardfarm/resultstore"
)

// historyCmd implements subcommands.Command to list stored runs.
type historyCmd struct {
	out      io.Writer
	limit    int
	failures bool
}

var _ = subcommands.Command(&historyCmd{})

func newHistoryCmd(out io.Writer) *historyCmd {
	return &historyCmd{out: out}
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list stored runs" }
func (*historyCmd) Usage() string {
	return `Usage: history [flag]... <results.db>

Description:
    Lists runs stored by "run -db", most recent first.

Flag:
`
}

func (h *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&h.limit, "n", 10, "maximum number of runs to list (0 for all)")
	f.BoolVar(&h.failures, "failures", false, "list failed hooks of each run")
}

func (h *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, h.Usage())
		return subcommands.ExitUsageError
	}
	if err := h.list(ctx, f.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (h *historyCmd) list(ctx context.Context, path string) error {
	st, err := resultstore.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.Runs(ctx, h.limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(h.out, "%s  %s  %-7s %s\n", r.ID, r.Start.UTC().Format(time.RFC3339), runStatus(r), taskNames(r))
		if !h.failures {
			continue
		}
		fs, err := st.Failures(ctx, r.ID)
		if err != nil {
			return err
		}
		for _, f := range fs {
			fmt.Fprintf(h.out, "    %s.%s: %s\n", f.Task, f.Hook, f.Message)
		}
	}
	return nil
}

func runStatus(r *resultstore.Run) string {
	switch {
	case r.Aborted:
		return "ABORTED"
	case r.Passed:
		return "PASS"
	default:
		return "FAIL"
	}
}

func taskNames(r *resultstore.Run) string {
	var ns []string
	for _, rec := range r.Records {
		ns = append(ns, rec.Name)
	}
	return strings.Join(ns, ",")
}
