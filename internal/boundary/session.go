// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package boundary

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ams-games/scripthost/internal/health"
	"github.com/ams-games/scripthost/internal/host"
	"github.com/ams-games/scripthost/internal/protocol"
	"github.com/ams-games/scripthost/internal/script"
)

// Conn is one established connection from a dispatcher, as the session
// sees it. Both the stream transport and a WebSocket adapter satisfy it.
type Conn interface {
	// ReadMessage reads one whole raw message.
	ReadMessage() ([]byte, error)

	// WriteJSON sends one JSON message.
	WriteJSON(v interface{}) error
}

// Session serves the boundary protocol on one connection, wrapping an
// in-process host. Requests are handled strictly in arrival order; the
// protocol forbids pipelining, so a single read loop is correct.
type Session struct {
	conn     Conn
	host     *host.InProc
	log      *slog.Logger
	notified bool // crashed notification already sent

	// Observer, if set, sees every message after it is handled (requests)
	// or before it is written (responses). Used for the pass journal.
	Observer func(direction string, raw []byte)
}

// NewSession creates a session serving h on conn.
func NewSession(conn Conn, h *host.InProc, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{conn: conn, host: h, log: log}
}

// Serve sends the status handshake and then handles requests until the
// connection fails or a protocol error forces a shutdown. The returned
// error describes why the session ended; a clean peer disconnect returns
// nil.
func (s *Session) Serve() error {
	state := health.Running
	if s.host.Crashed() {
		state = health.Crashed
		s.notified = true
	}
	status := protocol.StatusMessage{
		BaseMessage:     protocol.BaseMessage{Type: protocol.MsgTypeStatus},
		ProtocolVersion: protocol.Version,
		State:           state.String(),
		Units:           len(s.host.Registry().Units()),
	}
	if err := s.conn.WriteJSON(status); err != nil {
		return fmt.Errorf("failed to send status: %w", err)
	}

	for {
		raw, err := s.conn.ReadMessage()
		if err != nil {
			// Peer disconnect, clean or not. The dispatcher owns retry.
			s.log.Debug("boundary session read ended", "error", err)
			return nil
		}
		s.observe("recv", raw)
		if err := s.handle(raw); err != nil {
			// A request we cannot parse means the two sides have
			// desynchronized. Close rather than guess.
			s.log.Error("boundary session protocol error", "error", err)
			return err
		}
	}
}

func (s *Session) handle(raw []byte) error {
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		return fmt.Errorf("malformed request: %w", err)
	}

	switch base.Type {
	case protocol.MsgTypeLoad:
		return s.handleLoad(raw, base)
	case protocol.MsgTypeFrameUpdate:
		return s.handleFrame(raw, base)
	case protocol.MsgTypeCollision:
		return s.handleCollision(raw, base)
	case protocol.MsgTypeInput:
		return s.handleInput(raw, base)
	case protocol.MsgTypeGenerate:
		return s.handleGenerate(raw, base)
	case protocol.MsgTypeSetGlobal:
		return s.handleSetGlobal(raw, base)
	default:
		return fmt.Errorf("unexpected request type %q", base.Type)
	}
}

func (s *Session) handleLoad(raw []byte, base protocol.BaseMessage) error {
	var req protocol.LoadMessage
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("malformed load: %w", err)
	}
	result := protocol.LoadResultMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeLoadResult, ID: base.ID},
		OK:          true,
	}
	err := s.host.Load(script.Kind(req.Kind), req.Name, req.Source)
	if err != nil {
		result.OK = false
		result.Error = err.Error()
		var loadErr *host.LoadError
		if !errors.As(err, &loadErr) {
			// Not a compile error: top-level code raised, or the host was
			// already crashed. Either way the terminal state holds.
			result.Crashed = true
			s.notifyCrash()
		}
	}
	return s.write(result)
}

func (s *Session) handleFrame(raw []byte, base protocol.BaseMessage) error {
	var req protocol.FrameUpdateMessage
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("malformed frame_update: %w", err)
	}
	cs, _ := s.host.RunFrame(req.DT, &req.Snapshot)
	s.notifyCrash()

	result := protocol.FrameResultMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeFrameResult, ID: base.ID},
		OK:          true,
	}
	encoded, err := cs.Encode()
	if err != nil {
		result.OK = false
		result.Error = fmt.Sprintf("failed to encode change-set: %v", err)
	} else {
		result.ChangeSet = encoded
	}
	return s.write(result)
}

func (s *Session) handleCollision(raw []byte, base protocol.BaseMessage) error {
	var req protocol.CollisionMessage
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("malformed collision: %w", err)
	}
	cs, dispatchErr := s.host.RunCollision(req.Action, req.EntityA, req.EntityB, req.Modifier, &req.Snapshot)
	s.notifyCrash()

	result := protocol.CollisionResultMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeCollisionResult, ID: base.ID},
		OK:          true,
		Warning:     warningFor(dispatchErr),
	}
	encoded, err := cs.Encode()
	if err != nil {
		result.OK = false
		result.Error = fmt.Sprintf("failed to encode change-set: %v", err)
	} else {
		result.ChangeSet = encoded
	}
	return s.write(result)
}

func (s *Session) handleInput(raw []byte, base protocol.BaseMessage) error {
	var req protocol.InputMessage
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("malformed input: %w", err)
	}
	cs, dispatchErr := s.host.RunInput(req.Action, req.EntityID, req.X, req.Y, &req.Snapshot)
	s.notifyCrash()

	result := protocol.InputResultMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeInputResult, ID: base.ID},
		OK:          true,
		Warning:     warningFor(dispatchErr),
	}
	encoded, err := cs.Encode()
	if err != nil {
		result.OK = false
		result.Error = fmt.Sprintf("failed to encode change-set: %v", err)
	} else {
		result.ChangeSet = encoded
	}
	return s.write(result)
}

func (s *Session) handleGenerate(raw []byte, base protocol.BaseMessage) error {
	var req protocol.GenerateMessage
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("malformed generate: %w", err)
	}
	value, cs, dispatchErr := s.host.RunGenerator(req.Name, req.EntityID, &req.Snapshot)
	s.notifyCrash()

	result := protocol.GenerateResultMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeGenerateResult, ID: base.ID},
		OK:          true,
		Warning:     warningFor(dispatchErr),
	}
	if value != nil {
		encoded, err := json.Marshal(value)
		if err != nil {
			result.OK = false
			result.Error = fmt.Sprintf("failed to encode generator value: %v", err)
			return s.write(result)
		}
		result.Value = encoded
	}
	encoded, err := cs.Encode()
	if err != nil {
		result.OK = false
		result.Error = fmt.Sprintf("failed to encode change-set: %v", err)
	} else {
		result.ChangeSet = encoded
	}
	return s.write(result)
}

func (s *Session) handleSetGlobal(raw []byte, base protocol.BaseMessage) error {
	var req protocol.SetGlobalMessage
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("malformed set_global: %w", err)
	}
	result := protocol.SetGlobalResultMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeSetGlobalResult, ID: base.ID},
		OK:          true,
	}
	var value any
	if err := json.Unmarshal(req.Value, &value); err != nil {
		result.OK = false
		result.Error = fmt.Sprintf("failed to parse global value: %v", err)
		return s.write(result)
	}
	if err := s.host.SetGlobal(req.Name, value); err != nil {
		result.OK = false
		result.Error = err.Error()
	}
	return s.write(result)
}

// notifyCrash sends the one-way crashed notification exactly once, the
// first time the wrapped host is observed crashed. It precedes the
// in-flight request's result on the wire; the dispatcher accepts either
// order.
func (s *Session) notifyCrash() {
	if s.notified || !s.host.Crashed() {
		return
	}
	s.notified = true
	info := s.host.LastCrash()
	msg := protocol.CrashedMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeCrashed},
	}
	if info != nil {
		msg.Error = info.Message
		msg.Context = info.Context
	}
	if err := s.write(msg); err != nil {
		s.log.Error("failed to send crashed notification", "error", err)
	}
}

func (s *Session) write(v interface{}) error {
	if s.Observer != nil {
		if raw, err := json.Marshal(v); err == nil {
			s.observe("send", raw)
		}
	}
	return s.conn.WriteJSON(v)
}

func (s *Session) observe(direction string, raw []byte) {
	if s.Observer != nil {
		s.Observer(direction, raw)
	}
}

// warningFor maps the dispatch sentinels to a wire warning string. Other
// errors are not warnings and surface through the crash path instead.
func warningFor(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, host.ErrUnknownUnit) || errors.Is(err, host.ErrMissingHook) {
		return err.Error()
	}
	return ""
}
