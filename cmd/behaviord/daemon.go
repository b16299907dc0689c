// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

package main

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ams-games/scripthost/internal/boundary"
	"github.com/ams-games/scripthost/internal/content"
	"github.com/ams-games/scripthost/internal/host"
	"github.com/ams-games/scripthost/internal/journal"
	"github.com/ams-games/scripthost/internal/transport"
	"github.com/ams-games/scripthost/internal/util"
)

// daemon holds shared daemon state: configuration, the journal, and the
// set of live interpreters so a content reload can reach all of them.
type daemon struct {
	config  util.DaemonConfig
	log     *slog.Logger
	journal *journal.Writer

	mu    sync.Mutex
	hosts map[*host.InProc]bool
}

func newDaemon(config util.DaemonConfig, log *slog.Logger) *daemon {
	return &daemon{
		config: config,
		log:    log,
		hosts:  make(map[*host.InProc]bool),
	}
}

// acceptLoop serves stream connections from the unix socket.
func (d *daemon) acceptLoop(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		go func() {
			defer conn.Close()
			d.serve(transport.NewStreamConn(conn))
		}()
	}
}

// handleWS upgrades one HTTP request and serves the boundary protocol
// over the socket.
func (d *daemon) handleWS(rw http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
	}
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	d.serve(&wsConn{conn: conn})
}

// serve builds a fresh interpreter for one connection, loads the content
// manifest into it, and runs the boundary session until the peer leaves.
func (d *daemon) serve(conn boundary.Conn) {
	h, err := host.New(host.Options{
		Seed:   d.config.Seed,
		Logger: d.log,
		Output: func(msg string) { d.log.Info("script", "msg", msg) },
	})
	if err != nil {
		d.log.Error("failed to create interpreter", "error", err)
		return
	}
	defer func() { _ = h.Close() }()

	results, err := content.LoadAll(h, d.config.ContentDir)
	if err != nil {
		d.log.Error("content load failed", "error", err)
	}
	for _, res := range results {
		if res.Err != nil {
			d.log.Warn("unit failed to load", "unit", res.Key.String(), "error", res.Err)
		}
	}

	d.track(h)
	defer d.untrack(h)

	session := boundary.NewSession(conn, h, d.log)
	if d.journal != nil {
		session.Observer = func(direction string, raw []byte) {
			if err := d.journal.Record(direction, raw); err != nil {
				d.log.Warn("journal write failed", "error", err)
			}
		}
	}
	if err := session.Serve(); err != nil {
		d.log.Warn("session ended with protocol error", "error", err)
	}
}

// reloadAll re-applies the content manifest to every live interpreter.
// Loads replace units atomically, so in-flight passes never observe a
// half-updated registry. Crashed interpreters refuse the load; that is
// surfaced as a warning, not reset.
func (d *daemon) reloadAll() {
	d.mu.Lock()
	hosts := make([]*host.InProc, 0, len(d.hosts))
	for h := range d.hosts {
		hosts = append(hosts, h)
	}
	d.mu.Unlock()

	d.log.Info("content changed, reloading", "interpreters", len(hosts))
	for _, h := range hosts {
		results, err := content.LoadAll(h, d.config.ContentDir)
		if err != nil {
			d.log.Warn("reload failed", "error", err)
			continue
		}
		for _, res := range results {
			if res.Err != nil {
				d.log.Warn("unit failed to reload", "unit", res.Key.String(), "error", res.Err)
			}
		}
	}
}

func (d *daemon) track(h *host.InProc) {
	d.mu.Lock()
	d.hosts[h] = true
	d.mu.Unlock()
}

func (d *daemon) untrack(h *host.InProc) {
	d.mu.Lock()
	delete(d.hosts, h)
	d.mu.Unlock()
}

// wsConn adapts a WebSocket connection to the boundary session's Conn.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, msg, err := c.conn.ReadMessage()
	return msg, err
}

func (c *wsConn) WriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
