// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package testlib

import (
	"context"
	"time"

	"boardfarm/console"
	"boardfarm/errors"
	"boardfarm/internal/logging"
	"boardfarm/testing"
)

const (
	loginPrompt    = "login"
	passwordPrompt = "Password"

	defaultUser         = "root"
	defaultShellPrompt  = "#"
	defaultLoginTimeout = 30 * time.Second
)

// LoginOptions configures Login.
type LoginOptions struct {
	// User defaults to "root".
	User string
	// Password is sent when the board asks for one. If empty, a password
	// request fails the login.
	Password string
	// Prompt is the shell prompt that signals a successful login. Defaults
	// to "#".
	Prompt string
	// Timeout bounds each step. Defaults to 30 seconds.
	Timeout time.Duration
}

func (o *LoginOptions) withDefaults() LoginOptions {
	r := *o
	if r.User == "" {
		r.User = defaultUser
	}
	if r.Prompt == "" {
		r.Prompt = defaultShellPrompt
	}
	if r.Timeout <= 0 {
		r.Timeout = defaultLoginTimeout
	}
	return r
}

type loginState int

const (
	awaitingPrompt loginState = iota
	sentUser
	sentPassword
)

// Login logs in on the console and waits for the shell prompt.
//
// It answers a login prompt with the user name and a password prompt with
// the password, each at most once.
func Login(ctx context.Context, s *console.Session, opts LoginOptions) error {
	if s == nil {
		return errors.New("no console available")
	}
	o := opts.withDefaults()
	logging.Infof(ctx, "Starting login with user=%s, prompt=%s", o.User, o.Prompt)

	candidates := console.Literals(loginPrompt, passwordPrompt, o.Prompt)
	const (
		loginIdx = iota
		passwordIdx
		shellIdx
	)

	state := awaitingPrompt
	m, err := s.Send(ctx, "", candidates, o.Timeout)
	for {
		if err != nil {
			return errors.Wrap(err, "login failed")
		}
		if m.TimedOut {
			return errors.Errorf("timeout waiting for login prompt; got %q", m.Before)
		}
		switch m.Index {
		case shellIdx:
			return nil
		case loginIdx:
			if state != awaitingPrompt {
				return errors.New("login prompt shown again; login rejected")
			}
			state = sentUser
			m, err = s.Send(ctx, o.User, candidates, o.Timeout)
		case passwordIdx:
			if state == sentPassword {
				return errors.New("password prompt shown again; password rejected")
			}
			if o.Password == "" {
				return errors.New("password requested but none configured")
			}
			state = sentPassword
			m, err = s.Send(ctx, o.Password, candidates, o.Timeout)
		default:
			return errors.Errorf("unexpected match %q", m.Text)
		}
	}
}

// LoginTask is a task that logs in on the board's console.
type LoginTask struct {
	Options LoginOptions
}

// Hook implements testing.Task.
func (t *LoginTask) Hook(name string) testing.HookFunc {
	if name != testing.HookBody {
		return nil
	}
	return func(ctx context.Context, s *testing.State) error {
		b := s.Board()
		if b == nil {
			return errors.New("no board")
		}
		return Login(ctx, b.Console(), t.Options)
	}
}
