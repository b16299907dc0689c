// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package boundary_test

import (
	"bytes"
	"errors"
	"math"
	"net"
	"testing"
	"time"

	"github.com/ams-games/scripthost/internal/boundary"
	"github.com/ams-games/scripthost/internal/host"
	"github.com/ams-games/scripthost/internal/script"
	"github.com/ams-games/scripthost/internal/transport"
	"github.com/ams-games/scripthost/internal/world"
)

// startRemote wires a RemoteHost to a fresh in-process interpreter over
// net.Pipe, the way tests stand in for a unix socket.
func startRemote(t *testing.T, seed int64) *boundary.RemoteHost {
	t.Helper()

	serverConn, clientConn := net.Pipe()

	inner, err := host.New(host.Options{Seed: seed})
	if err != nil {
		t.Fatalf("host.New() error = %v", err)
	}

	session := boundary.NewSession(transport.NewStreamConn(serverConn), inner, nil)
	go func() { _ = session.Serve() }()

	remote := boundary.NewRemote(transport.NewStreamConn(clientConn), boundary.RemoteOptions{
		Timeout: 5 * time.Second,
	})
	t.Cleanup(func() {
		_ = remote.Close()
		_ = serverConn.Close()
		_ = inner.Close()
	})
	return remote
}

const gravitySource = `({
	on_update: function(id, dt) {
		var vy = game.get_vy(id) + 400 * dt;
		game.set_vel(id, game.get_vx(id), vy);
		game.set_pos(id, game.get_x(id), game.get_y(id) + vy * dt);
		game.set_prop(id, "jitter", game.random());
	}
})`

func ballSnapshot() *world.Snapshot {
	return &world.Snapshot{
		Entities: []world.EntityView{{
			ID: "ball", Type: "ball", X: 100, Y: 50, VY: 10,
			Width: 16, Height: 16, Health: 100, Visible: true, Alive: true,
			Behaviors: []string{"gravity"},
		}},
		Global: world.GlobalView{ScreenWidth: 800, ScreenHeight: 600},
	}
}

// The boundary variant must be indistinguishable from the in-process
// host: same load history, same seed, same inputs, byte-for-byte
// identical change-sets.
func TestRemoteHost_MatchesInProcByteForByte(t *testing.T) {
	remote := startRemote(t, 42)
	if err := remote.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := remote.Load(script.KindBehavior, "gravity", gravitySource); err != nil {
		t.Fatalf("remote Load() error = %v", err)
	}

	local, err := host.New(host.Options{Seed: 42})
	if err != nil {
		t.Fatalf("host.New() error = %v", err)
	}
	defer func() { _ = local.Close() }()
	if err := local.Load(script.KindBehavior, "gravity", gravitySource); err != nil {
		t.Fatalf("local Load() error = %v", err)
	}

	for frame := 0; frame < 3; frame++ {
		remoteCS, err := remote.RunFrame(1.0/60.0, ballSnapshot())
		if err != nil {
			t.Fatalf("remote RunFrame() error = %v", err)
		}
		localCS, err := local.RunFrame(1.0/60.0, ballSnapshot())
		if err != nil {
			t.Fatalf("local RunFrame() error = %v", err)
		}

		remoteBytes, err := remoteCS.Encode()
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		localBytes, err := localCS.Encode()
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if !bytes.Equal(remoteBytes, localBytes) {
			t.Errorf("frame %d diverged:\nremote: %s\nlocal:  %s", frame, remoteBytes, localBytes)
		}
	}
}

func TestRemoteHost_QueuedLoadsReplayOnConnect(t *testing.T) {
	remote := startRemote(t, 1)

	// Loads before Connect queue and replay in order.
	if err := remote.Load(script.KindBehavior, "gravity", gravitySource); err != nil {
		t.Fatalf("queued Load() error = %v", err)
	}
	if err := remote.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	cs, err := remote.RunFrame(0.5, ballSnapshot())
	if err != nil {
		t.Fatalf("RunFrame() error = %v", err)
	}
	patch := cs.Entities["ball"]
	if patch == nil || patch.VY == nil || *patch.VY != 210 {
		t.Errorf("queued unit did not run: patch = %+v", patch)
	}
}

func TestRemoteHost_CompileErrorIsRecoverable(t *testing.T) {
	remote := startRemote(t, 1)
	if err := remote.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	err := remote.Load(script.KindBehavior, "broken", "({ on_update: function( }")
	var loadErr *host.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Load() error = %v, want *LoadError", err)
	}
	if remote.Crashed() {
		t.Fatal("remote crashed on compile error")
	}

	if err := remote.Load(script.KindBehavior, "gravity", gravitySource); err != nil {
		t.Fatalf("Load() after compile error = %v", err)
	}
}

// A bad dt is corrected locally, never sent: NaN and infinity cannot be
// encoded as JSON, and the remote variant must match the in-process
// host's fallback behavior instead of failing.
func TestRemoteHost_InvalidDTUsesFallback(t *testing.T) {
	remote := startRemote(t, 1)
	if err := remote.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := remote.Load(script.KindBehavior, "clock", `({
		on_update: function(id, dt) { game.set_prop(id, "dt", dt); }
	})`); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	snap := &world.Snapshot{Entities: []world.EntityView{
		{ID: "e", Type: "t", Alive: true, Behaviors: []string{"clock"}},
	}}
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1} {
		cs, err := remote.RunFrame(bad, snap)
		if err != nil {
			t.Fatalf("RunFrame(%v) error = %v", bad, err)
		}
		patch := cs.Entities["e"]
		if patch == nil || patch.Props["dt"] != host.FallbackDT {
			t.Errorf("RunFrame(%v) dt = %+v, want fallback %v", bad, patch, host.FallbackDT)
		}
		if remote.Crashed() {
			t.Fatalf("RunFrame(%v) crashed the remote host: %v", bad, remote.LastCrash())
		}
	}
}

func TestRemoteHost_CrashPropagates(t *testing.T) {
	remote := startRemote(t, 1)
	if err := remote.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := remote.Load(script.KindBehavior, "bomb", `({
		on_update: function(id, dt) { throw new Error("remote boom"); }
	})`); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	snap := &world.Snapshot{Entities: []world.EntityView{
		{ID: "e", Type: "t", Alive: true, Behaviors: []string{"bomb"}},
	}}
	cs, err := remote.RunFrame(0.016, snap)
	if err != nil {
		t.Fatalf("RunFrame() error = %v, crashes are not errors", err)
	}
	if cs == nil {
		t.Fatal("RunFrame() change-set is nil")
	}

	if !remote.Crashed() {
		t.Fatal("crash did not propagate across the boundary")
	}
	info := remote.LastCrash()
	if info == nil {
		t.Fatal("LastCrash() = nil")
	}
	if info.Context != "behavior:bomb:on_update" {
		t.Errorf("crash context = %q", info.Context)
	}

	// Terminal on the client side too: no further round trips.
	cs, err = remote.RunFrame(0.016, snap)
	if err != nil || !cs.Empty() {
		t.Errorf("RunFrame() after crash = (%v, %v), want empty, nil", cs, err)
	}
	if err := remote.Load(script.KindBehavior, "x", "({})"); !errors.Is(err, host.ErrCrashed) {
		t.Errorf("Load() after crash = %v, want ErrCrashed", err)
	}
}

func TestRemoteHost_WarningsCarrySentinels(t *testing.T) {
	remote := startRemote(t, 1)
	if err := remote.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	_, err := remote.RunCollision("nope", "a", "b", nil, &world.Snapshot{})
	if !errors.Is(err, host.ErrUnknownUnit) {
		t.Errorf("unknown action error = %v, want ErrUnknownUnit", err)
	}

	if err := remote.Load(script.KindCollisionAction, "mute", "({})"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	_, err = remote.RunCollision("mute", "a", "b", nil, &world.Snapshot{})
	if !errors.Is(err, host.ErrMissingHook) {
		t.Errorf("hookless action error = %v, want ErrMissingHook", err)
	}
	if remote.Crashed() {
		t.Error("content warnings crashed the remote host")
	}
}

func TestRemoteHost_GeneratorAndSetGlobal(t *testing.T) {
	remote := startRemote(t, 1)
	if err := remote.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := remote.SetGlobal("level", 4); err != nil {
		t.Fatalf("SetGlobal() error = %v", err)
	}
	if err := remote.Load(script.KindGenerator, "waves", `({
		generate: function(id) { return { level: level, count: level * 2 }; }
	})`); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	value, cs, err := remote.RunGenerator("waves", "spawner", &world.Snapshot{})
	if err != nil {
		t.Fatalf("RunGenerator() error = %v", err)
	}
	if !cs.Empty() {
		t.Error("generator change-set not empty")
	}
	m, ok := value.(map[string]any)
	if !ok {
		t.Fatalf("value = %T, want map", value)
	}
	if m["count"] != 8.0 {
		t.Errorf("count = %v, want 8", m["count"])
	}
}
