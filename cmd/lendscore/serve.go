package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/opensource-finance/lendscore/internal/api"
	"github.com/opensource-finance/lendscore/internal/bus"
	"github.com/opensource-finance/lendscore/internal/cache"
	"github.com/opensource-finance/lendscore/internal/domain"
	"github.com/opensource-finance/lendscore/internal/metrics"
	"github.com/opensource-finance/lendscore/internal/offer"
	"github.com/opensource-finance/lendscore/internal/scoring"
	"github.com/opensource-finance/lendscore/internal/telemetry"
	"github.com/opensource-finance/lendscore/internal/worker"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the scoring API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (overrides LENDSCORE_HOST)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (overrides LENDSCORE_PORT)"},
		},
		Action: serve,
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg := loadConfig(os.Getenv)
	if cmd.IsSet("host") {
		cfg.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Server.Port = int(cmd.Int("port"))
	}

	initLogging(os.Stdout, cfg.Logging, cmd.Bool("debug"))

	slog.Info("starting lendscore",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)
	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"worker", cfg.Worker.Enabled,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Tracing, Version)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Error("failed to flush traces", "error", err)
		}
	}()

	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		return fmt.Errorf("initialize event bus: %w", err)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	engine, err := scoring.NewEngine(scoring.DefaultPolicy())
	if err != nil {
		return fmt.Errorf("initialize scoring engine: %w", err)
	}
	processor := offer.NewProcessor(engine)
	m := metrics.New()
	slog.Info("scoring engine initialized",
		"policy_version", engine.Policy().Version,
		"factor_rules", len(engine.Policy().FactorRules),
	)

	if cfg.Worker.Enabled {
		w := worker.NewWorker(busImpl, cacheImpl, processor, m)
		if err := w.Start(worker.Config{
			TenantIDs:     cfg.Worker.TenantIDs,
			AssessmentTTL: cfg.AssessmentTTL,
		}); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
		defer w.Stop()
	}

	srv := api.NewServer(cfg.Server, cfg.RateLimit, api.Deps{
		Cache:         cacheImpl,
		Bus:           busImpl,
		Processor:     processor,
		Metrics:       m,
		AssessmentTTL: cfg.AssessmentTTL,
		Version:       Version,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("lendscore is ready", "addr", srv.Addr())
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	printBanner(cfg)

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("lendscore shutdown complete")
	return nil
}

func printBanner(cfg *domain.Config) {
	fmt.Println()
	fmt.Println("  LENDSCORE - hybrid credit scoring")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /score             - Score applicant profiles")
	fmt.Println("    POST /assess            - Score from extracted documents")
	fmt.Println("    GET  /assessments/{id}  - Get a recent assessment")
	fmt.Println("    GET  /policy            - Scoring constants and rules")
	fmt.Println("    GET  /health            - Health check")
	fmt.Println("    GET  /metrics           - Prometheus metrics")
	fmt.Println()
}
