package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	gorillahandlers "github.com/gorilla/handlers"

	"github.com/coursemates/backend/internal/config"
	"github.com/coursemates/backend/internal/db"
	"github.com/coursemates/backend/internal/fixtures"
	"github.com/coursemates/backend/internal/friendships"
	"github.com/coursemates/backend/internal/handlers"
	"github.com/coursemates/backend/internal/metrics"
	"github.com/coursemates/backend/internal/middleware"
	"github.com/coursemates/backend/internal/repositories"
	"github.com/coursemates/backend/internal/storage"
)

// fixtureSource selects where the seed bundle is read from.
func fixtureSource(ctx context.Context, cfg config.Config) (fixtures.Source, error) {
	switch cfg.FixtureSource {
	case config.FixtureSourceEmbedded, "":
		return fixtures.EmbeddedSource{}, nil
	case config.FixtureSourceS3:
		bundles, err := storage.NewS3Bundles(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, err
		}
		return fixtures.ObjectSource{Objects: bundles, Key: cfg.FixtureKey}, nil
	default:
		return nil, fmt.Errorf("unknown fixture source %q", cfg.FixtureSource)
	}
}

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. A nil pool serves the directory from the fixture bundle.
func buildDependencies(cfg config.Config, bundle fixtures.Bundle, pool db.Pool, m *metrics.Metrics) handlers.Dependencies {
	store := friendships.NewStore(bundle.Friendships, friendships.Config{})

	deps := handlers.Dependencies{
		Friendships: store,
		Metrics:     m,
		Limiter: middleware.NewIPRateLimiter(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Window,
			cfg.RateLimit.Burst,
			5*cfg.RateLimit.Window,
		),
		AllowReset: cfg.AllowReset,
	}

	if pool != nil {
		deps.Users = repositories.NewCachingUserRepository(repositories.NewPostgresUserRepository(pool), cfg.DirectoryCacheTTL)
		deps.Activity = repositories.NewPostgresActivityRepository(pool)
	} else {
		deps.Users = repositories.NewMemoryUserRepository(bundle.Users)
		deps.Activity = repositories.NewMemoryActivityRepository(bundle.Activity)
	}

	if m != nil {
		m.TrackFriendships(store)
	}

	return deps
}

// newHandler assembles the router with CORS and request logging.
func newHandler(cfg config.Config, deps handlers.Dependencies, logger *slog.Logger) http.Handler {
	cors := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(cfg.CORSOrigins),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type", middleware.RequestIDHeader}),
		gorillahandlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
	)

	return middleware.RequestLogger(logger)(cors(handlers.NewRouter(deps)))
}
