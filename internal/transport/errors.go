// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package transport

import "errors"

// Sentinel errors for boundary connection failures.
var (
	// ErrNotConnected is returned when an operation runs before Dial or
	// after Close.
	ErrNotConnected = errors.New("transport is not connected")

	// ErrVersionMismatch is returned when the interpreter side announces
	// an incompatible protocol version. The two sides cannot be trusted
	// to continue.
	ErrVersionMismatch = errors.New("boundary protocol version mismatch")
)
