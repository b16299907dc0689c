// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package transport

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ams-games/scripthost/internal/protocol"
)

// WSClient carries boundary protocol messages over a WebSocket, for an
// interpreter daemon that is not reachable by unix socket.
type WSClient struct {
	url  string
	conn *websocket.Conn
}

// NewWS creates a WebSocket client (not yet connected). url is the
// daemon's endpoint, e.g. "ws://127.0.0.1:7350/interp".
func NewWS(url string) *WSClient {
	return &WSClient{url: url}
}

// Dial establishes the WebSocket connection.
func (c *WSClient) Dial() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to interpreter endpoint: %w", err)
	}
	c.conn = conn
	return nil
}

// Close closes the connection.
func (c *WSClient) Close() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// SetReadDeadline sets a deadline for read operations.
func (c *WSClient) SetReadDeadline(d time.Duration) {
	if c.conn != nil {
		_ = c.conn.SetReadDeadline(time.Now().Add(d))
	}
}

// ClearReadDeadline removes any read deadline.
func (c *WSClient) ClearReadDeadline() {
	if c.conn != nil {
		_ = c.conn.SetReadDeadline(time.Time{})
	}
}

// WriteJSON sends one JSON message as a text frame.
func (c *WSClient) WriteJSON(v interface{}) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// ReadMessage reads one whole message frame.
func (c *WSClient) ReadMessage() ([]byte, error) {
	if c.conn == nil {
		return nil, ErrNotConnected
	}
	_, msg, err := c.conn.ReadMessage()
	return msg, err
}

// SendAndReceive sends a JSON message and waits for the next message.
func (c *WSClient) SendAndReceive(msg interface{}, timeout time.Duration) ([]byte, error) {
	if err := c.WriteJSON(msg); err != nil {
		return nil, err
	}
	c.SetReadDeadline(timeout)
	defer c.ClearReadDeadline()
	return c.ReadMessage()
}

// WaitForStatus waits for the initial status message and verifies the
// protocol version.
func (c *WSClient) WaitForStatus(timeout time.Duration) (*protocol.StatusMessage, error) {
	c.SetReadDeadline(timeout)
	defer c.ClearReadDeadline()
	message, err := c.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to receive status: %w", err)
	}
	return decodeStatus(message)
}
