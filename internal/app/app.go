package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/coursemates/backend/internal/config"
	"github.com/coursemates/backend/internal/db"
	"github.com/coursemates/backend/internal/fixtures"
	"github.com/coursemates/backend/internal/httpserver"
	"github.com/coursemates/backend/internal/metrics"
	"github.com/coursemates/backend/internal/repositories"
	"github.com/coursemates/backend/internal/storage"
)

// stdout receives command output for migrate, seed and publish-fixtures.
var stdout io.Writer = os.Stdout

// Run bootstraps the CourseMates backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, seed, or publish-fixtures")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	case "publish-fixtures":
		return publishFixtures(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     cfg.SlogLevel(),
	}))
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := fixtureSource(ctx, cfg)
	if err != nil {
		return err
	}
	bundle, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}
	logger.Info("loaded fixtures",
		"source", cfg.FixtureSource,
		"users", len(bundle.Users),
		"friendships", len(bundle.Friendships),
	)

	var pool db.Pool
	if cfg.DatabaseURL != "" {
		pgPool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pgPool.Close()
		pool = pgPool
		logger.Info("serving user directory from postgres", "cacheTTL", cfg.DirectoryCacheTTL)
	}

	deps := buildDependencies(cfg, bundle, pool, metrics.New())
	srv := httpserver.New(cfg.AppPort, newHandler(cfg, deps, logger), logger)

	logger.Info("starting http server", "port", cfg.AppPort, "allowReset", cfg.AllowReset)
	return srv.Run(ctx, nil)
}

// runSeed copies the fixture users and activity into PostgreSQL. The optional
// argument selects the fixture source and defaults to the configured one.
func runSeed(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("seed requires COURSEMATES_DATABASE_URL")
	}
	if len(args) > 0 {
		cfg.FixtureSource = args[0]
	}

	source, err := fixtureSource(ctx, cfg)
	if err != nil {
		return err
	}
	bundle, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := repositories.ImportDirectory(ctx, pool, bundle.Users, bundle.Activity); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "seeded %d users and %d activity entries from %s fixtures\n", len(bundle.Users), len(bundle.Activity), cfg.FixtureSource)
	return nil
}

// publishFixtures uploads the embedded bundle as one JSON document so other
// instances can start from COURSEMATES_FIXTURE_SOURCE=s3.
func publishFixtures(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	key := cfg.FixtureKey
	if len(args) > 0 {
		key = args[0]
	}

	bundle, err := fixtures.Embedded()
	if err != nil {
		return fmt.Errorf("load embedded fixtures: %w", err)
	}

	var buf bytes.Buffer
	if err := bundle.Encode(&buf); err != nil {
		return err
	}

	bundles, err := storage.NewS3Bundles(ctx, cfg.ObjectStore)
	if err != nil {
		return err
	}

	location, err := bundles.Publish(ctx, key, buf.Bytes())
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "published fixtures to %s\n", location)
	return nil
}
