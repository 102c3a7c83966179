// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package testlib

import (
	"bufio"
	"context"
	"io"
	"strings"
	gotesting "testing"
	"time"

	"boardfarm/console"
	"boardfarm/dut"
	"boardfarm/errors"
	"boardfarm/testing"
)

// fakePower emits boot output on the board end of a console pipe when
// switched on.
type fakePower struct {
	board  console.Transport
	banner string
}

func (p *fakePower) Off(context.Context) error { return nil }

func (p *fakePower) On(context.Context) error {
	go io.WriteString(p.board, p.banner)
	return nil
}

// newFakeBoard returns a board whose console is connected to the returned
// transport, and which prints banner on power on.
func newFakeBoard(t *gotesting.T, banner string) (*dut.Board, console.Transport) {
	host, board := console.Pipe()
	b := dut.NewBoard("fake", &dut.Options{
		Power:   &fakePower{board: board, banner: banner},
		Console: console.NewSession(host, nil),
		OffTime: time.Millisecond,
	})
	t.Cleanup(func() {
		b.Close()
		board.Close()
	})
	return b, board
}

// script plays a board side conversation: for each step it writes out and
// then, if want is non-empty, reads a line and checks it against want.
type step struct {
	out  string
	want string
}

func runScript(board console.Transport, steps []step) <-chan error {
	done := make(chan error, 1)
	go func() {
		rd := bufio.NewReader(board)
		for _, s := range steps {
			if _, err := io.WriteString(board, s.out); err != nil {
				done <- err
				return
			}
			if s.want == "" {
				continue
			}
			line, err := rd.ReadString('\n')
			if err != nil {
				done <- err
				return
			}
			if got := strings.TrimSuffix(line, "\n"); got != s.want {
				done <- errors.Errorf("board got %q; want %q", got, s.want)
				return
			}
		}
		done <- nil
	}()
	return done
}

var _ testing.Board = (*dut.Board)(nil)

func TestBoot(t *gotesting.T) {
	b, _ := newFakeBoard(t, "U-Boot 2024.01\nStarting kernel ...\nWelcome to linux\n")
	if err := Boot(context.Background(), b, "Starting kernel", 10*time.Second); err != nil {
		t.Error("Boot failed: ", err)
	}
}

func TestBootTimeout(t *gotesting.T) {
	b, _ := newFakeBoard(t, "U-Boot 2024.01\nBad CRC\n")
	if err := Boot(context.Background(), b, "Starting kernel", 100*time.Millisecond); err == nil {
		t.Error("Boot succeeded without boot string")
	}
}

func TestLogin(t *gotesting.T) {
	b, board := newFakeBoard(t, "")
	done := runScript(board, []step{
		{out: "buildroot login: ", want: "root"},
		{out: "Password: ", want: "hunter2"},
		{out: "# "},
	})

	err := Login(context.Background(), b.Console(), LoginOptions{Password: "hunter2", Timeout: 10 * time.Second})
	if err != nil {
		t.Error("Login failed: ", err)
	}
	if err := <-done; err != nil {
		t.Error("Board script failed: ", err)
	}
}

func TestLoginNoPassword(t *gotesting.T) {
	host, board := console.Pipe()
	s := console.NewSession(host, nil)
	defer board.Close()

	go io.WriteString(board, "Password: ")
	err := Login(context.Background(), s, LoginOptions{Timeout: 10 * time.Second})
	if err == nil {
		t.Error("Login succeeded without a password")
	}

	// Nothing may have been sent to the board.
	s.Close()
	sent, _ := io.ReadAll(board)
	if len(sent) != 0 {
		t.Errorf("Login sent %q to the board; want nothing", sent)
	}
}

func TestLoginStates(t *gotesting.T) {
	for _, tc := range []struct {
		name  string
		steps []step
		opts  LoginOptions
		ok    bool
	}{
		{
			name:  "alreadyLoggedIn",
			steps: []step{{out: "\n/ # "}},
			ok:    true,
		},
		{
			name:  "noPassword",
			steps: []step{{out: "login: ", want: "admin"}, {out: "\n$ "}},
			opts:  LoginOptions{User: "admin", Prompt: "$"},
			ok:    true,
		},
		{
			name:  "rejected",
			steps: []step{{out: "login: ", want: "root"}, {out: "Login incorrect\nlogin: "}},
			ok:    false,
		},
		{
			name: "wrongPassword",
			steps: []step{
				{out: "login: ", want: "root"},
				{out: "Password: ", want: "bad"},
				{out: "Password: "},
			},
			opts: LoginOptions{Password: "bad"},
			ok:   false,
		},
		{
			name:  "silent",
			steps: nil,
			opts:  LoginOptions{Timeout: 100 * time.Millisecond},
			ok:    false,
		},
	} {
		t.Run(tc.name, func(t *gotesting.T) {
			b, board := newFakeBoard(t, "")
			runScript(board, tc.steps)
			opts := tc.opts
			if opts.Timeout == 0 {
				opts.Timeout = 10 * time.Second
			}
			err := Login(context.Background(), b.Console(), opts)
			if tc.ok && err != nil {
				t.Error("Login failed: ", err)
			} else if !tc.ok && err == nil {
				t.Error("Login succeeded unexpectedly")
			}
		})
	}
}

func TestParseMeminfo(t *gotesting.T) {
	const meminfo = `cat /proc/meminfo
MemTotal:        1012344 kB
MemFree:          524288 kB
MemAvailable:     800000 kB
# `
	total, free, err := parseMeminfo(meminfo)
	if err != nil {
		t.Fatal("parseMeminfo failed: ", err)
	}
	if total != 988 || free != 512 {
		t.Errorf("parseMeminfo = (%d, %d); want (988, 512)", total, free)
	}

	if _, _, err := parseMeminfo("cat: /proc/meminfo: No such file\n# "); err == nil {
		t.Error("parseMeminfo succeeded for bad output")
	}
}

func TestMemorySize(t *gotesting.T) {
	for _, tc := range []struct {
		name       string
		total, avl int
		ok         bool
	}{
		{"match", 988, 500, true},
		{"wrongTotal", 2048, 0, false},
		{"notEnoughAvailable", 0, 600, false},
	} {
		t.Run(tc.name, func(t *gotesting.T) {
			b, board := newFakeBoard(t, "")
			runScript(board, []step{
				{out: "login: ", want: "root"},
				{out: "# ", want: "cat /proc/meminfo"},
				{out: "MemTotal:        1012344 kB\nMemFree:          524288 kB\n# "},
			})
			task, err := NewMemorySize(tc.total, tc.avl, &LoginOptions{Timeout: 10 * time.Second})
			if err != nil {
				t.Fatal("NewMemorySize failed: ", err)
			}

			s := testing.NewState("MemorySize", testing.HookBody, make(map[string]interface{}), nil, nil, b)
			err = task.Hook(testing.HookBody)(context.Background(), s)
			if tc.ok && err != nil {
				t.Error("MemorySize failed: ", err)
			} else if !tc.ok && err == nil {
				t.Error("MemorySize succeeded unexpectedly")
			}
			if got := s.Data()["total_mb"]; got != 988 {
				t.Errorf("total_mb = %v; want 988", got)
			}
		})
	}

	if _, err := NewMemorySize(0, 0, nil); err == nil {
		t.Error("NewMemorySize succeeded without limits")
	}
}
