// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

// behaviord is the out-of-process script interpreter daemon. Dispatchers
// connect over a unix socket or WebSocket and drive it through the
// boundary protocol; each connection gets its own interpreter with its
// own registry and execution health.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ams-games/scripthost/internal/content"
	"github.com/ams-games/scripthost/internal/journal"
	"github.com/ams-games/scripthost/internal/util"
)

func main() {
	dataDir := flag.String("d", "", "Data directory (or set BEHAVIORD_DATA)")
	contentDir := flag.String("content", "", "Script content root (overrides config)")
	socketPath := flag.String("socket", "", "Unix socket path (overrides config)")
	wsPort := flag.Int("ws-port", -1, "WebSocket port, 0 to disable (overrides config)")
	seed := flag.Int64("seed", -1, "Deterministic RNG seed (overrides config)")
	flag.Parse()

	util.InitLogger()
	log := util.Logger

	config, err := util.LoadDaemonConfig(util.GetDaemonDataDir(*dataDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *contentDir != "" {
		config.ContentDir = *contentDir
	}
	if *socketPath != "" {
		config.IPCPath = *socketPath
	}
	if *wsPort >= 0 {
		config.WSPort = *wsPort
	}
	if *seed >= 0 {
		config.Seed = *seed
	}
	if config.ContentDir == "" {
		fmt.Fprintln(os.Stderr, "Error: content directory not specified")
		fmt.Fprintln(os.Stderr, "Use -content <path> or set content_dir in config.yaml")
		os.Exit(1)
	}
	if _, err := content.LoadManifest(config.ContentDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	daemon := newDaemon(config, log)
	if config.JournalDir != "" {
		daemon.journal = journal.NewWriter(config.JournalDir, "passes")
		defer func() { _ = daemon.journal.Close() }()
		log.Info("pass journal enabled", "dir", config.JournalDir)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.Watch {
		err := content.Watch(ctx, config.ContentDir, log, daemon.reloadAll)
		if err != nil {
			log.Warn("content watcher disabled", "error", err)
		}
	}

	// Unix socket listener
	_ = os.Remove(config.IPCPath)
	listener, err := net.Listen("unix", config.IPCPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to listen on %s: %v\n", config.IPCPath, err)
		os.Exit(1)
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(config.IPCPath)
	}()
	log.Info("listening", "socket", config.IPCPath)
	go daemon.acceptLoop(listener)

	// WebSocket listener
	var httpServer *http.Server
	if config.WSPort > 0 {
		mux := http.NewServeMux()
		mux.HandleFunc(config.WSPath, daemon.handleWS)
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", config.WSPort),
			Handler: mux,
		}
		log.Info("listening", "ws", httpServer.Addr, "path", config.WSPath)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("websocket server failed", "error", err)
			}
		}()
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")

	cancel()
	if httpServer != nil {
		_ = httpServer.Shutdown(context.Background())
	}
}
