// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

// Package boundary realizes the host contract across an isolation
// boundary: the interpreter runs in a separate process reachable only
// through asynchronous message passing, and the dispatcher drives it with
// one request/response round trip per pass.
//
// RemoteHost is the dispatcher side; Session is the interpreter side,
// wrapping an in-process host behind the protocol. Given the same seed
// and load history, a RemoteHost and an InProc host produce byte-for-byte
// identical change-sets.
package boundary

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ams-games/scripthost/internal/changeset"
	"github.com/ams-games/scripthost/internal/health"
	"github.com/ams-games/scripthost/internal/host"
	"github.com/ams-games/scripthost/internal/protocol"
	"github.com/ams-games/scripthost/internal/registry"
	"github.com/ams-games/scripthost/internal/script"
	"github.com/ams-games/scripthost/internal/transport"
	"github.com/ams-games/scripthost/internal/world"
)

// DefaultTimeout bounds one boundary round trip. Script execution is
// expected to take single-digit milliseconds; a pass that takes longer
// than this has hung.
const DefaultTimeout = 10 * time.Second

// RemoteHost drives an isolated interpreter through the boundary
// protocol. It presents the identical contract as the in-process host.
//
// Only one request may be in flight at a time; the mutex enforces the
// protocol's serialization requirement. Suspension occurs only at the
// await point of a round trip.
type RemoteHost struct {
	mu      sync.Mutex
	tr      transport.Transport
	reg     *registry.Registry
	health  *health.Tracker
	log     *slog.Logger
	timeout time.Duration
	seq     uint64
}

// RemoteOptions configures a RemoteHost.
type RemoteOptions struct {
	// Timeout bounds each round trip. Zero means DefaultTimeout.
	Timeout time.Duration
	// Logger receives dispatcher-side diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// NewRemote creates a remote host over the given transport. The host
// starts in the Ready state: loads issued before Connect are queued and
// replayed, in arrival order, once the interpreter announces readiness.
func NewRemote(tr transport.Transport, opts RemoteOptions) *RemoteHost {
	r := &RemoteHost{
		tr:      tr,
		reg:     registry.New(),
		health:  health.NewTracker(),
		log:     opts.Logger,
		timeout: opts.Timeout,
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	if r.timeout == 0 {
		r.timeout = DefaultTimeout
	}
	return r
}

// Connect dials the interpreter, awaits its status handshake, replays any
// queued loads, and transitions the host to Running. Load failures during
// replay are logged; each queued load is independently recoverable.
func (r *RemoteHost) Connect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.tr.Dial(); err != nil {
		return err
	}
	status, err := r.tr.WaitForStatus(r.timeout)
	if err != nil {
		return err
	}
	if status.State == health.Crashed.String() {
		r.health.MarkCrashed(script.CrashInfo{
			Message: "interpreter was already crashed at connect",
			Context: "boundary:connect",
		})
		return nil
	}

	failures := r.reg.Bind(r.sendLoad)
	for _, f := range failures {
		r.log.Warn("queued load failed during replay", "unit", f.Key.String(), "error", f.Err)
	}
	r.health.MarkRunning()
	return nil
}

// Load queues or sends one unit. Before Connect the load queues; after,
// it is a full round trip awaited to completion before any later message.
func (r *RemoteHost) Load(kind script.Kind, name, source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.health.Crashed() {
		return host.ErrCrashed
	}
	return r.reg.Load(kind, name, source)
}

// sendLoad is the registry loader bound at Connect time. Callers hold the
// mutex.
func (r *RemoteHost) sendLoad(kind script.Kind, name, source string) error {
	key := script.UnitKey{Kind: kind, Name: name}
	req := protocol.LoadMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeLoad, ID: r.nextID()},
		Kind:        string(kind),
		Name:        name,
		Source:      source,
	}

	raw, err := r.roundTrip(req, protocol.MsgTypeLoadResult)
	if err != nil {
		return err
	}
	var result protocol.LoadResultMessage
	if err := json.Unmarshal(raw, &result); err != nil {
		return r.protocolError(fmt.Errorf("failed to parse load_result: %w", err))
	}
	if result.Crashed {
		// The in-flight failure and the one-way crashed message are each
		// sufficient; whichever arrives first wins.
		r.health.MarkCrashed(script.CrashInfo{
			Message: result.Error,
			Context: script.Context(kind, name, "load"),
		})
		return host.ErrCrashed
	}
	if !result.OK {
		return &host.LoadError{Key: key, Msg: result.Error}
	}
	return nil
}

// RunFrame performs one frame pass as a single round trip: dt and the
// full snapshot out, the complete change-set back. The pass is never
// decomposed into per-entity or per-behavior messages.
func (r *RemoteHost) RunFrame(dt float64, snap *world.Snapshot) (*changeset.ChangeSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.health.Crashed() {
		return changeset.New(), nil
	}

	// Clamp locally, not on the interpreter side: NaN and infinity are
	// unrepresentable in the JSON wire format.
	req := protocol.FrameUpdateMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeFrameUpdate, ID: r.nextID()},
		DT:          host.ClampDT(dt),
		Snapshot:    *snap,
	}
	raw, err := r.roundTrip(req, protocol.MsgTypeFrameResult)
	if err != nil {
		return changeset.New(), err
	}
	var result protocol.FrameResultMessage
	if err := json.Unmarshal(raw, &result); err != nil {
		return changeset.New(), r.protocolError(fmt.Errorf("failed to parse frame_result: %w", err))
	}
	if !result.OK {
		return changeset.New(), r.protocolError(fmt.Errorf("frame_update failed: %s", result.Error))
	}
	return r.decodeChangeSet(result.ChangeSet)
}

// RunCollision performs one collision pass as a single round trip.
func (r *RemoteHost) RunCollision(action, a, b string, modifier map[string]any, snap *world.Snapshot) (*changeset.ChangeSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.health.Crashed() {
		return changeset.New(), nil
	}

	req := protocol.CollisionMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeCollision, ID: r.nextID()},
		Action:      action,
		EntityA:     a,
		EntityB:     b,
		Modifier:    modifier,
		Snapshot:    *snap,
	}
	raw, err := r.roundTrip(req, protocol.MsgTypeCollisionResult)
	if err != nil {
		return changeset.New(), err
	}
	var result protocol.CollisionResultMessage
	if err := json.Unmarshal(raw, &result); err != nil {
		return changeset.New(), r.protocolError(fmt.Errorf("failed to parse collision_result: %w", err))
	}
	if !result.OK {
		return changeset.New(), r.protocolError(fmt.Errorf("collision failed: %s", result.Error))
	}
	cs, err := r.decodeChangeSet(result.ChangeSet)
	if err != nil {
		return cs, err
	}
	if result.Warning != "" {
		return cs, warningError(result.Warning)
	}
	return cs, nil
}

// RunInput performs one input-action pass as a single round trip.
func (r *RemoteHost) RunInput(action, entityID string, x, y float64, snap *world.Snapshot) (*changeset.ChangeSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.health.Crashed() {
		return changeset.New(), nil
	}

	req := protocol.InputMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeInput, ID: r.nextID()},
		Action:      action,
		EntityID:    entityID,
		X:           x,
		Y:           y,
		Snapshot:    *snap,
	}
	raw, err := r.roundTrip(req, protocol.MsgTypeInputResult)
	if err != nil {
		return changeset.New(), err
	}
	var result protocol.InputResultMessage
	if err := json.Unmarshal(raw, &result); err != nil {
		return changeset.New(), r.protocolError(fmt.Errorf("failed to parse input_result: %w", err))
	}
	if !result.OK {
		return changeset.New(), r.protocolError(fmt.Errorf("input failed: %s", result.Error))
	}
	cs, err := r.decodeChangeSet(result.ChangeSet)
	if err != nil {
		return cs, err
	}
	if result.Warning != "" {
		return cs, warningError(result.Warning)
	}
	return cs, nil
}

// RunGenerator performs one generator pass as a single round trip.
func (r *RemoteHost) RunGenerator(name, entityID string, snap *world.Snapshot) (any, *changeset.ChangeSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.health.Crashed() {
		return nil, changeset.New(), nil
	}

	req := protocol.GenerateMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeGenerate, ID: r.nextID()},
		Name:        name,
		EntityID:    entityID,
		Snapshot:    *snap,
	}
	raw, err := r.roundTrip(req, protocol.MsgTypeGenerateResult)
	if err != nil {
		return nil, changeset.New(), err
	}
	var result protocol.GenerateResultMessage
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, changeset.New(), r.protocolError(fmt.Errorf("failed to parse generate_result: %w", err))
	}
	if !result.OK {
		return nil, changeset.New(), r.protocolError(fmt.Errorf("generate failed: %s", result.Error))
	}

	var value any
	if len(result.Value) > 0 {
		if err := json.Unmarshal(result.Value, &value); err != nil {
			return nil, changeset.New(), r.protocolError(fmt.Errorf("failed to parse generator value: %w", err))
		}
	}
	cs, err := r.decodeChangeSet(result.ChangeSet)
	if err != nil {
		return nil, cs, err
	}
	if result.Warning != "" {
		return value, cs, warningError(result.Warning)
	}
	return value, cs, nil
}

// SetGlobal injects one named global value without a full load/invoke
// round trip.
func (r *RemoteHost) SetGlobal(name string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.health.Crashed() {
		return host.ErrCrashed
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode global value: %w", err)
	}
	req := protocol.SetGlobalMessage{
		BaseMessage: protocol.BaseMessage{Type: protocol.MsgTypeSetGlobal, ID: r.nextID()},
		Name:        name,
		Value:       encoded,
	}
	raw, err := r.roundTrip(req, protocol.MsgTypeSetGlobalResult)
	if err != nil {
		return err
	}
	var result protocol.SetGlobalResultMessage
	if err := json.Unmarshal(raw, &result); err != nil {
		return r.protocolError(fmt.Errorf("failed to parse set_global_result: %w", err))
	}
	if !result.OK {
		return r.protocolError(fmt.Errorf("set_global failed: %s", result.Error))
	}
	return nil
}

// Crashed reports whether execution health is terminal.
func (r *RemoteHost) Crashed() bool { return r.health.Crashed() }

// LastCrash returns the structured crash report, or nil.
func (r *RemoteHost) LastCrash() *script.CrashInfo { return r.health.LastCrash() }

// Close closes the transport.
func (r *RemoteHost) Close() error {
	r.tr.Close()
	return nil
}

// roundTrip sends req and reads messages until one of wantType arrives.
// One-way crashed notifications received along the way transition health
// and are otherwise transparent; any other unexpected message is a
// protocol error. Callers hold the mutex.
func (r *RemoteHost) roundTrip(req interface{}, wantType string) ([]byte, error) {
	raw, err := r.tr.SendAndReceive(req, r.timeout)
	if err != nil {
		return nil, r.protocolError(fmt.Errorf("boundary round trip failed: %w", err))
	}
	for {
		base, err := protocol.DecodeBase(raw)
		if err != nil {
			return nil, r.protocolError(fmt.Errorf("malformed boundary message: %w", err))
		}
		switch base.Type {
		case wantType:
			return raw, nil
		case protocol.MsgTypeCrashed:
			var crashed protocol.CrashedMessage
			if err := json.Unmarshal(raw, &crashed); err != nil {
				return nil, r.protocolError(fmt.Errorf("malformed crashed message: %w", err))
			}
			r.health.MarkCrashed(script.CrashInfo{Message: crashed.Error, Context: crashed.Context})
			// The failed request's response still follows.
			r.tr.SetReadDeadline(r.timeout)
			raw, err = r.tr.ReadMessage()
			r.tr.ClearReadDeadline()
			if err != nil {
				return nil, r.protocolError(fmt.Errorf("read after crash notification failed: %w", err))
			}
		default:
			return nil, r.protocolError(fmt.Errorf("out-of-order boundary message %q, want %q", base.Type, wantType))
		}
	}
}

// protocolError marks the host crashed: a malformed or out-of-order
// message means the two sides have desynchronized and cannot be trusted
// to continue.
func (r *RemoteHost) protocolError(err error) error {
	r.log.Error("boundary protocol error", "error", err)
	r.health.MarkCrashed(script.CrashInfo{
		Message: err.Error(),
		Context: "boundary:protocol",
	})
	return err
}

func (r *RemoteHost) decodeChangeSet(raw json.RawMessage) (*changeset.ChangeSet, error) {
	if len(raw) == 0 {
		return changeset.New(), nil
	}
	cs, err := changeset.Decode(raw)
	if err != nil {
		return changeset.New(), r.protocolError(fmt.Errorf("failed to parse change_set: %w", err))
	}
	return cs, nil
}

func (r *RemoteHost) nextID() string {
	r.seq++
	return fmt.Sprintf("req-%d", r.seq)
}

// warningError maps a wire warning back to the host sentinel the owning
// simulation checks for. The session builds warnings by wrapping the
// sentinels, so their text is embedded in the message.
func warningError(msg string) error {
	if strings.Contains(msg, host.ErrMissingHook.Error()) {
		return fmt.Errorf("%s: %w", msg, host.ErrMissingHook)
	}
	return fmt.Errorf("%s: %w", msg, host.ErrUnknownUnit)
}

// Compile-time interface check
var _ host.Host = (*RemoteHost)(nil)
