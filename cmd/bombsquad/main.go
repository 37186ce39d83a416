// cmd/bombsquad/main.go
//
// Entry point for the local playground. It wires the pieces together:
// config, logging, the puzzle registry, the leaderboard store, the session
// registry, the command router, and the bubbletea chat UI on top.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bombsquad-bot/bombsquad/internal/bomb"
	"github.com/bombsquad-bot/bombsquad/internal/config"
	"github.com/bombsquad-bot/bombsquad/internal/gateway"
	"github.com/bombsquad-bot/bombsquad/internal/logging"
	"github.com/bombsquad-bot/bombsquad/internal/modules"
	"github.com/bombsquad-bot/bombsquad/internal/router"
	"github.com/bombsquad-bot/bombsquad/internal/scores"
	"github.com/bombsquad-bot/bombsquad/internal/tui"
)

func main() {
	configPath := flag.String("config", "bombsquad.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "bombsquad: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Configure(logging.Config{Level: cfg.LogLevel})
	log := logging.WithComponent("main")

	puzzles := modules.DefaultRegistry()

	var sink scores.Sink = scores.NopSink{}
	var board router.Leaderboard
	if cfg.DatabasePath != "" {
		store, err := scores.Open(cfg.DatabasePath, cfg.LeaderboardPageSize)
		if err != nil {
			return fmt.Errorf("open leaderboard: %w", err)
		}
		defer store.Close()
		sink = store
		board = store
	}

	// Shutdown mode quits the UI once the last live session ends.
	var program *tea.Program
	sessions := bomb.NewRegistry(func() {
		if program != nil {
			program.Quit()
		}
	})

	outbox := tui.NewOutbox()
	r := router.New(router.Settings{
		Session: bomb.Config{
			ClaimBound:      cfg.ClaimBound,
			TakeoverTimeout: cfg.TakeoverTimeout,
			DetonateWindow:  cfg.DetonateWindow,
			DetonateQuorum:  cfg.DetonateQuorum,
			MaxListSize:     cfg.MaxListSize,
			Owner:           cfg.Owner,
		},
		ModuleCap:    cfg.ModuleCap,
		CommandRate:  cfg.CommandRate,
		CommandBurst: cfg.CommandBurst,
	}, puzzles, sessions, outbox, sink, board)

	// Optional HTTP gateway for external chat adapters. Inbound commands
	// share the router (and so the outbox transcript) with the local UI.
	gw := gateway.NewServer(gateway.SettingsFromConfig(cfg),
		gateway.WithDispatcher(r),
		gateway.WithLogger(logging.WithComponent("gateway")))
	if err := gw.Start(context.Background()); err != nil && !errors.Is(err, gateway.ErrDisabled) {
		return fmt.Errorf("start gateway: %w", err)
	}
	defer gw.Shutdown(context.Background())

	program = tea.NewProgram(tui.NewApp(r, outbox), tea.WithAltScreen())
	log.Info().Str("config", configPath).Msg("starting playground")
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
