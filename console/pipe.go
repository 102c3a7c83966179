// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package console

import (
	"io"
)

// pipeEnd is one end of an in-memory console connection.
type pipeEnd struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipeEnd) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipeEnd) Write(b []byte) (int, error) { return p.w.Write(b) }

func (p *pipeEnd) Close() error {
	p.r.Close()
	return p.w.Close()
}

// Pipe returns a connected pair of in-memory transports. Bytes written to
// host are read from board and vice versa. It is used to simulate boards.
func Pipe() (host, board Transport) {
	hr, bw := io.Pipe()
	br, hw := io.Pipe()
	return &pipeEnd{r: hr, w: hw}, &pipeEnd{r: br, w: bw}
}
