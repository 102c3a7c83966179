// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package console

import (
	"context"
	"io"
	"net"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/net/proxy"

	"boardfarm/errors"
	"boardfarm/internal/logging"
)

const (
	defaultSSHUser = "root"
	defaultSSHPort = "22"
)

// SSHOptions describes how to reach a board's shell over SSH.
type SSHOptions struct {
	// Hostname is "host" or "host:port".
	Hostname string
	// User defaults to root.
	User string
	// Password is tried if non-empty.
	Password string
	// KeyFile is an optional path to an unencrypted private key.
	KeyFile string
	// ConnectTimeout bounds the TCP connection and SSH handshake.
	ConnectTimeout time.Duration
	// HostKeyCallback verifies the board's host key. Boards are usually
	// reflashed often, so any key is accepted by default.
	HostKeyCallback ssh.HostKeyCallback
}

// sshTransport is an interactive shell on an SSH connection.
type sshTransport struct {
	cl    *ssh.Client
	sess  *ssh.Session
	stdin io.WriteCloser
	out   io.Reader
}

func (t *sshTransport) Read(b []byte) (int, error)  { return t.out.Read(b) }
func (t *sshTransport) Write(b []byte) (int, error) { return t.stdin.Write(b) }

func (t *sshTransport) Close() error {
	t.stdin.Close()
	t.sess.Close()
	return t.cl.Close()
}

// authMethods returns the authentication methods for o. Keys come first,
// then ssh-agent, then the password.
func authMethods(ctx context.Context, o *SSHOptions) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if o.KeyFile != "" {
		k, err := os.ReadFile(o.KeyFile)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read private key %s", o.KeyFile)
		}
		s, err := ssh.ParsePrivateKey(k)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse private key %s", o.KeyFile)
		}
		methods = append(methods, ssh.PublicKeys(s))
	}
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if a, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(a).Signers))
		} else {
			logging.Debugf(ctx, "Failed to connect to ssh-agent at %v: %v", sock, err)
		}
	}
	if o.Password != "" {
		methods = append(methods, ssh.Password(o.Password))
	}
	if len(methods) == 0 {
		return nil, errors.New("no SSH authentication method available")
	}
	return methods, nil
}

// DialSSH opens an interactive shell on the board and returns it as a
// console transport.
func DialSSH(ctx context.Context, o *SSHOptions) (Transport, error) {
	user := o.User
	if user == "" {
		user = defaultSSHUser
	}
	hostPort := o.Hostname
	if _, _, err := net.SplitHostPort(hostPort); err != nil {
		hostPort = net.JoinHostPort(hostPort, defaultSSHPort)
	}
	am, err := authMethods(ctx, o)
	if err != nil {
		return nil, err
	}
	hkc := o.HostKeyCallback
	if hkc == nil {
		hkc = ssh.InsecureIgnoreHostKey()
	}
	cfg := &ssh.ClientConfig{
		User:            user,
		Auth:            am,
		Timeout:         o.ConnectTimeout,
		HostKeyCallback: hkc,
	}

	cl, err := connectSSH(ctx, hostPort, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", hostPort)
	}

	t, err := startShell(cl)
	if err != nil {
		cl.Close()
		return nil, err
	}
	return t, nil
}

// connectSSH connects to hostPort, giving up when ctx is done.
func connectSSH(ctx context.Context, hostPort string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	type result struct {
		cl  *ssh.Client
		err error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := proxy.FromEnvironment().Dial("tcp", hostPort)
		if err != nil {
			ch <- result{err: err}
			return
		}
		c, chans, reqs, err := ssh.NewClientConn(conn, hostPort, cfg)
		if err != nil {
			conn.Close()
			ch <- result{err: err}
			return
		}
		ch <- result{cl: ssh.NewClient(c, chans, reqs)}
	}()

	select {
	case r := <-ch:
		return r.cl, r.err
	case <-ctx.Done():
		// Close the client if the dial completes later.
		go func() {
			if r := <-ch; r.cl != nil {
				r.cl.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

func startShell(cl *ssh.Client) (*sshTransport, error) {
	sess, err := cl.NewSession()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open SSH session")
	}
	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 115200,
		ssh.TTY_OP_OSPEED: 115200,
	}
	if err := sess.RequestPty("vt100", 40, 200, modes); err != nil {
		sess.Close()
		return nil, errors.Wrap(err, "failed to request a pty")
	}
	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		return nil, errors.Wrap(err, "failed to get stdin")
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		return nil, errors.Wrap(err, "failed to get stdout")
	}
	if err := sess.Shell(); err != nil {
		sess.Close()
		return nil, errors.Wrap(err, "failed to start shell")
	}
	return &sshTransport{cl: cl, sess: sess, stdin: stdin, out: stdout}, nil
}
