// Lendscore - Hybrid credit scoring for on-chain lending.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/opensource-finance/lendscore/internal/domain"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	debugFlag = &cli.BoolFlag{
		Name:    "debug",
		Usage:   "Enable debug logging",
		Sources: cli.EnvVars("LENDSCORE_DEBUG"),
	}

	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
		Validator: func(v string) error {
			if v != formatJSON && v != formatYAML {
				return fmt.Errorf("unsupported format %q", v)
			}
			return nil
		},
	}
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "lendscore",
		Usage:   "Hybrid off-chain and on-chain credit scoring",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags:   []cli.Flag{debugFlag},
		Commands: []*cli.Command{
			serveCommand(),
			scoreCommand(),
			policyCommand(),
		},
	}
}

// loadConfig picks the tier defaults and applies LENDSCORE_* overrides.
func loadConfig(getenv func(string) string) *domain.Config {
	cfg := domain.DefaultConfig()
	if strings.EqualFold(getenv("LENDSCORE_TIER"), string(domain.TierPro)) {
		cfg = domain.ProConfig()
	}
	cfg.ApplyEnv(getenv)
	return cfg
}

// initLogging installs the default slog logger.
func initLogging(w io.Writer, cfg domain.LoggingConfig, debug bool) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}
