// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package transport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/ams-games/scripthost/internal/protocol"
)

// StreamClient carries newline-delimited JSON messages over a net.Conn.
// The usual conn is a unix socket to a local interpreter daemon; tests
// drive it over net.Pipe.
type StreamClient struct {
	conn       net.Conn
	socketPath string
	reader     *bufio.Reader
}

// NewStream creates a unix-socket client (not yet connected).
func NewStream(socketPath string) *StreamClient {
	return &StreamClient{socketPath: socketPath}
}

// NewStreamConn wraps an already-established connection.
func NewStreamConn(conn net.Conn) *StreamClient {
	return &StreamClient{conn: conn, reader: bufio.NewReader(conn)}
}

// Dial connects to the interpreter daemon's unix socket. A no-op when the
// client wraps a pre-established connection.
func (c *StreamClient) Dial() error {
	if c.conn != nil {
		return nil
	}
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to interpreter socket: %w", err)
	}
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	return nil
}

// Close closes the connection.
func (c *StreamClient) Close() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// SetReadDeadline sets a deadline for read operations.
func (c *StreamClient) SetReadDeadline(d time.Duration) {
	if c.conn != nil {
		_ = c.conn.SetReadDeadline(time.Now().Add(d))
	}
}

// ClearReadDeadline removes any read deadline.
func (c *StreamClient) ClearReadDeadline() {
	if c.conn != nil {
		_ = c.conn.SetReadDeadline(time.Time{})
	}
}

// WriteJSON sends a JSON message. Each message is a single line
// terminated by newline.
func (c *StreamClient) WriteJSON(v interface{}) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = c.conn.Write(data)
	return err
}

// ReadMessage reads a line-delimited JSON message.
func (c *StreamClient) ReadMessage() ([]byte, error) {
	if c.reader == nil {
		return nil, ErrNotConnected
	}
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	return line, nil
}

// SendAndReceive sends a JSON message and waits for the next message.
func (c *StreamClient) SendAndReceive(msg interface{}, timeout time.Duration) ([]byte, error) {
	if err := c.WriteJSON(msg); err != nil {
		return nil, err
	}
	c.SetReadDeadline(timeout)
	defer c.ClearReadDeadline()
	return c.ReadMessage()
}

// WaitForStatus waits for the initial status message from the interpreter
// side and verifies the protocol version.
func (c *StreamClient) WaitForStatus(timeout time.Duration) (*protocol.StatusMessage, error) {
	c.SetReadDeadline(timeout)
	defer c.ClearReadDeadline()
	message, err := c.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to receive status: %w", err)
	}
	return decodeStatus(message)
}

// decodeStatus parses and version-checks a status message. Shared by both
// transports.
func decodeStatus(message []byte) (*protocol.StatusMessage, error) {
	var status protocol.StatusMessage
	if err := json.Unmarshal(message, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}
	if status.Type != protocol.MsgTypeStatus {
		return nil, fmt.Errorf("expected status message, got: %s", status.Type)
	}
	if status.ProtocolVersion != protocol.Version {
		return nil, fmt.Errorf("%w: ours %d, theirs %d", ErrVersionMismatch, protocol.Version, status.ProtocolVersion)
	}
	return &status, nil
}
