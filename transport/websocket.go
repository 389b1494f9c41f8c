// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// mqttWebsocketProtocol is the subprotocol negotiated for MQTT over
// websockets.
const mqttWebsocketProtocol = "mqtt"

// DialWebsocket opens a websocket connection to url negotiating the mqtt
// subprotocol and returns it as a Connection.
func DialWebsocket(ctx context.Context, url string, header http.Header) (*WebsocketConnection, error) {
	dialer := websocket.Dialer{
		Subprotocols:     []string{mqttWebsocketProtocol},
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return NewWebsocketConnection(conn), nil
}

// WebsocketConnection adapts a gorilla websocket connection to the
// Connection interface. Packets are carried in binary messages; a single
// message may hold several packets and a packet may span messages, so reads
// drain the current message before fetching the next.
type WebsocketConnection struct {
	conn *websocket.Conn

	// current is the reader over the in-progress binary message, nil
	// between messages.
	current io.Reader
}

// NewWebsocketConnection returns a Connection carried over conn.
func NewWebsocketConnection(conn *websocket.Conn) *WebsocketConnection {
	return &WebsocketConnection{conn: conn}
}

func (c *WebsocketConnection) ReadExact(ctx context.Context, buf []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return err
		}
		defer c.conn.SetReadDeadline(time.Time{})
	}

	for len(buf) > 0 {
		if c.current == nil {
			messageType, r, err := c.conn.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					return ErrUnexpectedEOF
				}
				return err
			}
			if messageType != websocket.BinaryMessage {
				return errors.New("websocket: non-binary message")
			}
			c.current = r
		}

		n, err := c.current.Read(buf)
		buf = buf[n:]
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.current = nil
				continue
			}
			return err
		}
	}
	return nil
}

func (c *WebsocketConnection) WriteAll(ctx context.Context, buf []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
		defer c.conn.SetWriteDeadline(time.Time{})
	}

	return c.conn.WriteMessage(websocket.BinaryMessage, buf)
}

// ReadReady reports true only while a binary message is partially consumed.
// The websocket API gives no way to probe for an unread message without
// blocking, so between messages callers must use blocking receives.
func (c *WebsocketConnection) ReadReady() (bool, error) {
	return c.current != nil, nil
}

func (c *WebsocketConnection) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}
