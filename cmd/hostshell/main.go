// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 AMS Games Authors

// hostshell is an interactive shell for exercising script units against
// a synthetic world: load units, edit entities, run frame and collision
// passes, and inspect the resulting change-sets. It drives either an
// embedded interpreter or a behaviord daemon over the boundary protocol,
// which makes it the quickest way to check that both variants agree.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ams-games/scripthost/internal/boundary"
	"github.com/ams-games/scripthost/internal/host"
	"github.com/ams-games/scripthost/internal/transport"
	"github.com/ams-games/scripthost/internal/util"
)

func main() {
	connect := flag.String("connect", "", "Daemon endpoint: unix socket path or ws:// URL (default: embedded interpreter)")
	seed := flag.Int64("seed", 1, "Deterministic RNG seed (embedded interpreter only)")
	flag.Parse()

	util.InitLogger()

	h, err := buildHost(*connect, *seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = h.Close() }()

	state := newShellState(h)
	startREPL(state)
}

// buildHost creates the embedded interpreter, or dials a daemon when an
// endpoint is given.
func buildHost(endpoint string, seed int64) (host.Host, error) {
	if endpoint == "" {
		return host.New(host.Options{
			Seed:   seed,
			Output: func(msg string) { fmt.Printf("[script] %s\n", msg) },
		})
	}

	var tr transport.Transport
	if strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://") {
		tr = transport.NewWS(endpoint)
	} else {
		tr = transport.NewStream(endpoint)
	}
	remote := boundary.NewRemote(tr, boundary.RemoteOptions{})
	if err := remote.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	return remote, nil
}

func startREPL(state *shellState) {
	homeDir, _ := os.UserHomeDir()
	historyFile := filepath.Join(homeDir, ".hostshell_history")

	rlConfig := &readline.Config{
		Prompt:            state.prompt(),
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		AutoComplete:      completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	}

	rl, err := readline.NewEx(rlConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize input: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	fmt.Println("hostshell - type 'help' for commands")

	for {
		rl.SetPrompt(state.prompt())

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					fmt.Println("Use 'quit' or 'exit' to exit")
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if err := state.execute(fields[0], fields[1:]); err != nil {
			if err.Error() == "exit" {
				break
			}
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func completer() readline.AutoCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("load"),
		readline.PcItem("loaddir"),
		readline.PcItem("ent",
			readline.PcItem("add"),
			readline.PcItem("set"),
			readline.PcItem("behaviors"),
			readline.PcItem("tag"),
		),
		readline.PcItem("world"),
		readline.PcItem("frame"),
		readline.PcItem("collide"),
		readline.PcItem("input"),
		readline.PcItem("gen"),
		readline.PcItem("setglobal"),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
}
