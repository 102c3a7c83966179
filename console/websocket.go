// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package console

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"boardfarm/errors"
)

const wsCloseTimeout = time.Second

// wsTransport exposes a WebSocket connection to a serial bridge as a byte
// stream. Each incoming message is appended to the stream.
type wsTransport struct {
	conn *websocket.Conn

	rmu sync.Mutex
	cur io.Reader // remainder of the current message

	wmu     sync.Mutex
	msgType int
}

// DialWebSocket connects to a serial-over-WebSocket bridge at url. Commands
// are sent as text messages.
func DialWebSocket(ctx context.Context, url string, header http.Header) (Transport, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, errors.Wrapf(err, "failed to dial %s (status %s)", url, resp.Status)
		}
		return nil, errors.Wrapf(err, "failed to dial %s", url)
	}
	return &wsTransport{conn: conn, msgType: websocket.TextMessage}, nil
}

func (t *wsTransport) Read(b []byte) (int, error) {
	t.rmu.Lock()
	defer t.rmu.Unlock()
	for {
		if t.cur == nil {
			_, r, err := t.conn.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					return 0, io.EOF
				}
				return 0, err
			}
			t.cur = r
		}
		n, err := t.cur.Read(b)
		if err == io.EOF {
			t.cur = nil
			if n == 0 {
				continue
			}
			return n, nil
		}
		return n, err
	}
}

func (t *wsTransport) Write(b []byte) (int, error) {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if err := t.conn.WriteMessage(t.msgType, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (t *wsTransport) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsCloseTimeout))
	return t.conn.Close()
}
