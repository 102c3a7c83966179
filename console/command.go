// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package console

import (
	"context"
	"io"
	"os/exec"

	"github.com/shirou/gopsutil/v3/process"

	"boardfarm/errors"
	"boardfarm/shutil"
)

// commandTransport talks to a host process, e.g. a shell or an emulator,
// through its stdin and combined stdout/stderr.
type commandTransport struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	out   *io.PipeReader
	done  chan struct{}
}

// StartCommand starts a host process and returns its standard streams as a
// console transport. Closing the transport terminates the process and all of
// its descendants.
func StartCommand(ctx context.Context, name string, args ...string) (Transport, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stdin")
	}
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to start %s", shutil.EscapeSlice(append([]string{name}, args...)))
	}

	t := &commandTransport{cmd: cmd, stdin: stdin, out: pr, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		if err == nil {
			err = io.EOF
		}
		pw.CloseWithError(err)
		close(t.done)
	}()
	return t, nil
}

func (t *commandTransport) Read(b []byte) (int, error)  { return t.out.Read(b) }
func (t *commandTransport) Write(b []byte) (int, error) { return t.stdin.Write(b) }

func (t *commandTransport) Close() error {
	t.stdin.Close()
	// Unblocks output copying so that Wait can return.
	err := t.out.Close()
	select {
	case <-t.done:
	default:
		terminateTree(int32(t.cmd.Process.Pid))
		t.cmd.Process.Kill()
		<-t.done
	}
	return err
}

// terminateTree kills pid after its descendants.
func terminateTree(pid int32) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return
	}
	if children, err := p.Children(); err == nil {
		for _, c := range children {
			terminateTree(c.Pid)
		}
	}
	p.Kill()
}
