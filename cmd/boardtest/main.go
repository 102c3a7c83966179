// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package main implements the boardtest executable, used to run tests against
// boards in a board farm.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/subcommands"
	"golang.org/x/crypto/ssh/terminal"
	"golang.org/x/sys/unix"

	"boardfarm/internal/xcontext"
	"boardfarm/testing"
)

const (
	signalChannelSize = 3 // capacity of channel used to intercept signals
)

// Version is the version info of this command. It is filled in at build time.
var Version = "<unknown>"

// installSignalHandler starts a goroutine that aborts the run on the first
// SIGINT or SIGTERM so that results are still recorded. A second signal
// exits immediately.
func installSignalHandler(cancel xcontext.CancelFunc) {
	var st *terminal.State
	fd := int(os.Stdin.Fd())
	if terminal.IsTerminal(fd) {
		st, _ = terminal.GetState(fd)
	}

	sc := make(chan os.Signal, signalChannelSize)
	go func() {
		sig := <-sc
		fmt.Fprintf(os.Stdout, "\nCaught %v signal; aborting\n", sig)
		cancel(testing.Abortf("caught %v signal", sig))

		sig = <-sc
		if st != nil {
			terminal.Restore(fd, st)
		}
		fmt.Fprintf(os.Stdout, "\nCaught %v signal; exiting\n", sig)
		os.Exit(1)
	}()
	signal.Notify(sc, unix.SIGINT, unix.SIGTERM)
}

// doMain implements the main body of the program. It's a separate function so
// that its deferred functions will run before os.Exit makes the program exit
// immediately.
func doMain() int {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(newRunCmd(os.Stdout), "")
	subcommands.Register(newHistoryCmd(os.Stdout), "")

	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("boardtest version %s\n", Version)
		return 0
	}

	ctx, cancel := xcontext.WithCancel(context.Background())
	defer cancel(context.Canceled)
	installSignalHandler(cancel)

	return int(subcommands.Execute(ctx))
}

func main() {
	os.Exit(doMain())
}
