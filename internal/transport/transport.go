// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

// Package transport carries boundary protocol messages between a
// dispatcher and an isolated interpreter. Two transports exist: a
// newline-delimited JSON stream over any net.Conn (unix socket, pipe)
// and a WebSocket client. Both deliver whole messages; framing never
// splits a message.
package transport

import (
	"time"

	"github.com/ams-games/scripthost/internal/protocol"
)

// Transport is the client side of a boundary connection.
type Transport interface {
	// Dial establishes the connection.
	Dial() error

	// Close closes the connection.
	Close()

	// SetReadDeadline sets a deadline for read operations.
	SetReadDeadline(d time.Duration)

	// ClearReadDeadline removes any read deadline.
	ClearReadDeadline()

	// WriteJSON sends a JSON message.
	WriteJSON(v interface{}) error

	// ReadMessage reads one whole raw message.
	ReadMessage() ([]byte, error)

	// SendAndReceive sends a message and waits for the next message.
	// The boundary protocol is strictly serialized, so the next message
	// is either the response or a one-way crash notification.
	SendAndReceive(msg interface{}, timeout time.Duration) ([]byte, error)

	// WaitForStatus waits for the interpreter side's initial status
	// message and verifies the protocol version.
	WaitForStatus(timeout time.Duration) (*protocol.StatusMessage, error)
}

// Compile-time interface checks
var (
	_ Transport = (*StreamClient)(nil)
	_ Transport = (*WSClient)(nil)
)
