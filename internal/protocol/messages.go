// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

// Package protocol defines the message types shared between a dispatcher
// and an isolated interpreter (the boundary-synchronized variant).
// This is the single source of truth for the wire protocol.
//
// The protocol is strict request/response: the caller must await each
// response before issuing the next request. Concurrent interpreter-
// mutating requests are not supported. The one exception is the one-way
// "crashed" notification, which the interpreter side may emit at any time
// in addition to failing the in-flight request; the dispatcher treats
// either signal as sufficient to mark the host crashed.
//
// Change-sets travel as their canonical JSON encoding inside a
// json.RawMessage and are never re-encoded in flight, so the bytes a
// remote host hands its caller are exactly the bytes the interpreter
// produced.
package protocol

import (
	"encoding/json"

	"github.com/ams-games/scripthost/internal/world"
)

// Version is the protocol version exchanged in the status handshake.
// A mismatch is a protocol error: the two sides cannot be trusted to
// continue and the connection is rejected.
const Version = 1

// Message type constants
const (
	// Handshake: sent by the interpreter side immediately on connect.
	MsgTypeStatus = "status"

	// Registry operations
	MsgTypeLoad       = "load"
	MsgTypeLoadResult = "load_result"

	// Dispatch operations. One message per pass: a frame update carries
	// the full entity snapshot and returns the complete change-set in a
	// single round trip. Batching is a hard requirement, not an
	// optimization; per-call message overhead dominates cost at
	// realistic entity counts.
	MsgTypeFrameUpdate     = "frame_update"
	MsgTypeFrameResult     = "frame_result"
	MsgTypeCollision       = "collision"
	MsgTypeCollisionResult = "collision_result"
	MsgTypeInput           = "input"
	MsgTypeInputResult     = "input_result"
	MsgTypeGenerate        = "generate"
	MsgTypeGenerateResult  = "generate_result"

	// Idempotent variable injection side channel
	MsgTypeSetGlobal       = "set_global"
	MsgTypeSetGlobalResult = "set_global_result"

	// One-way crash notification (interpreter -> dispatcher)
	MsgTypeCrashed = "crashed"
)

// BaseMessage is the base structure for all protocol messages.
type BaseMessage struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"` // Unique request ID for correlation
}

// DecodeBase extracts the base fields from a raw message.
func DecodeBase(data []byte) (BaseMessage, error) {
	var base BaseMessage
	err := json.Unmarshal(data, &base)
	return base, err
}

// StatusMessage is sent by the interpreter side when a client connects,
// before any request is accepted. Queued loads are replayed only after
// the client has seen it.
type StatusMessage struct {
	BaseMessage
	ProtocolVersion int    `json:"protocol_version"`
	State           string `json:"state"` // "running" or "crashed"
	Units           int    `json:"units"` // loaded unit count
}

// LoadMessage carries one script unit's source. Must be awaited to
// completion before any later message is sent.
type LoadMessage struct {
	BaseMessage
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// LoadResultMessage reports compile success or failure. A compile failure
// is recoverable and scoped to the one load; Crashed distinguishes the
// unrecoverable case where the unit's top-level code raised.
type LoadResultMessage struct {
	BaseMessage
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Crashed bool   `json:"crashed,omitempty"`
}

// FrameUpdateMessage carries dt and the full entity snapshot for one
// pass. The interpreter applies all resolvable hooks internally.
type FrameUpdateMessage struct {
	BaseMessage
	DT       float64        `json:"dt"`
	Snapshot world.Snapshot `json:"snapshot"`
}

// FrameResultMessage returns the complete change-set as a single payload.
type FrameResultMessage struct {
	BaseMessage
	OK        bool            `json:"ok"`
	Error     string          `json:"error,omitempty"`
	ChangeSet json.RawMessage `json:"change_set,omitempty"`
}

// CollisionMessage carries one collision dispatch.
type CollisionMessage struct {
	BaseMessage
	Action   string         `json:"action"`
	EntityA  string         `json:"entity_a"`
	EntityB  string         `json:"entity_b"`
	Modifier map[string]any `json:"modifier,omitempty"`
	Snapshot world.Snapshot `json:"snapshot"`
}

// CollisionResultMessage returns the collision pass's change-set.
// Warning distinguishes a missing unit or hook (a content bug the owning
// simulation should log) from transport-level failure.
type CollisionResultMessage struct {
	BaseMessage
	OK        bool            `json:"ok"`
	Error     string          `json:"error,omitempty"`
	Warning   string          `json:"warning,omitempty"`
	ChangeSet json.RawMessage `json:"change_set,omitempty"`
}

// InputMessage carries one input-action dispatch.
type InputMessage struct {
	BaseMessage
	Action   string         `json:"action"`
	EntityID string         `json:"entity_id"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Snapshot world.Snapshot `json:"snapshot"`
}

// InputResultMessage returns the input pass's change-set.
type InputResultMessage struct {
	BaseMessage
	OK        bool            `json:"ok"`
	Error     string          `json:"error,omitempty"`
	Warning   string          `json:"warning,omitempty"`
	ChangeSet json.RawMessage `json:"change_set,omitempty"`
}

// GenerateMessage carries one generator dispatch.
type GenerateMessage struct {
	BaseMessage
	Name     string         `json:"name"`
	EntityID string         `json:"entity_id"`
	Snapshot world.Snapshot `json:"snapshot"`
}

// GenerateResultMessage returns the generated value and the change-set.
type GenerateResultMessage struct {
	BaseMessage
	OK        bool            `json:"ok"`
	Error     string          `json:"error,omitempty"`
	Warning   string          `json:"warning,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
	ChangeSet json.RawMessage `json:"change_set,omitempty"`
}

// SetGlobalMessage sets a single named global value in the interpreter
// without a full load/invoke round trip.
type SetGlobalMessage struct {
	BaseMessage
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// SetGlobalResultMessage acknowledges a set_global request.
type SetGlobalResultMessage struct {
	BaseMessage
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// CrashedMessage is the one-way crash notification. Error and Context are
// presented verbatim to the content author.
type CrashedMessage struct {
	BaseMessage
	Error   string `json:"error"`
	Context string `json:"context"`
}
