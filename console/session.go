// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package console talks to a board's console: it sends commands over a
// transport and waits for expected text in the board's output.
package console

import (
	"context"
	"io"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"

	"boardfarm/errors"
	"boardfarm/internal/logging"
)

const (
	defaultLineSep  = "\n"
	defaultReadSize = 4096
)

// Transport is a byte stream to a board console, e.g. a serial port.
//
// Read may block indefinitely; Close must unblock pending reads.
type Transport interface {
	io.ReadWriteCloser
}

// Options configures a Session. The zero value is usable.
type Options struct {
	// Clock measures Expect timeouts. Defaults to the real clock.
	Clock clock.Clock
	// LineSep is appended to commands sent by Send. Defaults to "\n".
	LineSep string
	// Log receives a raw copy of all console traffic if non-nil.
	Log io.Writer
	// ReadSize is the maximum size of a single transport read.
	ReadSize int
}

// readResult is a unit of data produced by the reader goroutine.
type readResult struct {
	data []byte
	err  error
}

// Session matches console output against patterns.
//
// A Session owns its transport. A background goroutine reads from the
// transport so that Expect can honor its timeout even if a read never
// returns. Output that has been read but not consumed by a match is kept for
// the next call.
type Session struct {
	t       Transport
	clk     clock.Clock
	lineSep string
	log     io.Writer

	reads  chan readResult
	closed chan struct{}
	once   sync.Once

	mu      sync.Mutex // serializes Expect, Send, SendAndRead and Flush
	buf     []byte
	readErr error // sticky error from the transport
}

// NewSession starts a session on t.
func NewSession(t Transport, opts *Options) *Session {
	if opts == nil {
		opts = &Options{}
	}
	s := &Session{
		t:       t,
		clk:     opts.Clock,
		lineSep: opts.LineSep,
		log:     opts.Log,
		reads:   make(chan readResult),
		closed:  make(chan struct{}),
	}
	if s.clk == nil {
		s.clk = clock.NewClock()
	}
	if s.lineSep == "" {
		s.lineSep = defaultLineSep
	}
	size := opts.ReadSize
	if size <= 0 {
		size = defaultReadSize
	}
	go s.pump(size)
	return s
}

// pump reads from the transport until it fails or the session is closed.
func (s *Session) pump(size int) {
	for {
		b := make([]byte, size)
		n, err := s.t.Read(b)
		if n > 0 {
			select {
			case s.reads <- readResult{data: b[:n]}:
			case <-s.closed:
				return
			}
		}
		if err != nil {
			select {
			case s.reads <- readResult{err: err}:
			case <-s.closed:
			}
			return
		}
	}
}

// Close closes the session and its transport.
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closed)
		err = s.t.Close()
	})
	return err
}

// receive appends a read result to the buffer. Caller must hold s.mu.
func (s *Session) receive(r readResult) {
	if r.err != nil {
		s.readErr = r.err
		return
	}
	if s.log != nil {
		s.log.Write(r.data)
	}
	s.buf = append(s.buf, r.data...)
}

// drain receives all output that is available without blocking. Caller must
// hold s.mu.
func (s *Session) drain() {
	for s.readErr == nil {
		select {
		case r := <-s.reads:
			s.receive(r)
		default:
			return
		}
	}
}

// consume removes and returns the buffered output up to loc and builds the
// match. Caller must hold s.mu.
func (s *Session) consume(idx int, p Pattern, loc []int) *Match {
	m := &Match{
		Index:   idx,
		Pattern: p,
		Before:  string(s.buf[:loc[0]]),
		Text:    string(s.buf[loc[0]:loc[1]]),
	}
	s.buf = append([]byte(nil), s.buf[loc[1]:]...)
	return m
}

// Expect waits until one of patterns appears in the console output.
//
// The earliest occurrence in the output wins; if several patterns match at
// the same position, the one listed first wins. If nothing matches within
// timeout, Expect returns a Match with TimedOut set and the output gathered
// so far in Before; timing out is not an error. With no patterns, Expect
// collects output until the timeout.
//
// A *TransportError is returned if the transport fails before a match, and
// ctx.Err() if ctx is canceled.
func (s *Session) Expect(ctx context.Context, patterns []Pattern, timeout time.Duration) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expect(ctx, patterns, timeout)
}

func (s *Session) expect(ctx context.Context, patterns []Pattern, timeout time.Duration) (*Match, error) {
	if timeout <= 0 {
		s.drain()
		if idx, loc := findFirst(s.buf, patterns); idx >= 0 {
			return s.consume(idx, patterns[idx], loc), nil
		}
		return s.timedOut()
	}

	tm := s.clk.NewTimer(timeout)
	defer tm.Stop()

	for {
		if idx, loc := findFirst(s.buf, patterns); idx >= 0 {
			return s.consume(idx, patterns[idx], loc), nil
		}
		if s.readErr != nil {
			return nil, &TransportError{Op: "read", Err: s.readErr}
		}
		select {
		case r := <-s.reads:
			s.receive(r)
		case <-tm.C():
			// Pick up output that raced with the timer.
			s.drain()
			if idx, loc := findFirst(s.buf, patterns); idx >= 0 {
				return s.consume(idx, patterns[idx], loc), nil
			}
			return s.timedOut()
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.closed:
			return nil, &TransportError{Op: "read", Err: errors.New("session closed")}
		}
	}
}

func (s *Session) timedOut() (*Match, error) {
	if s.readErr != nil {
		return nil, &TransportError{Op: "read", Err: s.readErr}
	}
	return &Match{Index: -1, Before: string(s.buf), TimedOut: true}, nil
}

// write sends b to the transport, giving up after timeout. Caller must hold
// s.mu.
func (s *Session) write(ctx context.Context, b []byte, timeout time.Duration) error {
	if s.log != nil {
		s.log.Write(b)
	}
	done := make(chan error, 1)
	go func() {
		_, err := s.t.Write(b)
		done <- err
	}()

	tm := s.clk.NewTimer(timeout)
	defer tm.Stop()
	select {
	case err := <-done:
		if err != nil {
			return &TransportError{Op: "write", Err: err}
		}
		return nil
	case <-tm.C():
		return &TransportError{Op: "write", Err: errors.Errorf("write did not complete in %v", timeout)}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send writes cmd followed by the line separator, then waits for one of
// patterns like Expect. The timeout covers both. If cmd is empty nothing is
// written, which is useful to wait for output the board emits by itself.
func (s *Session) Send(ctx context.Context, cmd string, patterns []Pattern, timeout time.Duration) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.clk.Now()
	if cmd != "" {
		logging.Debugf(ctx, "Console send: %q", cmd)
		if err := s.write(ctx, []byte(cmd+s.lineSep), timeout); err != nil {
			return nil, err
		}
	}
	return s.expect(ctx, patterns, timeout-s.clk.Since(start))
}

// SendAndRead writes cmd followed by the line separator and returns all
// output until the console has been quiet for quiet, or until timeout
// elapses. The returned output is consumed.
func (s *Session) SendAndRead(ctx context.Context, cmd string, timeout, quiet time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cmd != "" {
		logging.Debugf(ctx, "Console send: %q", cmd)
		if err := s.write(ctx, []byte(cmd+s.lineSep), timeout); err != nil {
			return "", err
		}
	}

	deadline := s.clk.NewTimer(timeout)
	defer deadline.Stop()
	idle := s.clk.NewTimer(quiet)
	defer idle.Stop()

	for {
		if s.readErr != nil {
			return "", &TransportError{Op: "read", Err: s.readErr}
		}
		select {
		case r := <-s.reads:
			s.receive(r)
			if !idle.Stop() {
				select {
				case <-idle.C():
				default:
				}
			}
			idle.Reset(quiet)
			continue
		case <-idle.C():
		case <-deadline.C():
		case <-ctx.Done():
			return "", ctx.Err()
		}
		out := string(s.buf)
		s.buf = nil
		return out, nil
	}
}

// Flush discards all buffered output and returns it.
func (s *Session) Flush() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drain()
	out := string(s.buf)
	s.buf = nil
	return out
}
