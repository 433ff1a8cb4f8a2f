package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/jolly-agents/server/internal/agent/graph"
	"github.com/jolly-agents/server/internal/agent/graph/conversations"
	"github.com/jolly-agents/server/internal/agent/model"
	"github.com/jolly-agents/server/internal/agent/repo"
	"github.com/jolly-agents/server/internal/core"
	httpapi "github.com/jolly-agents/server/internal/http"
	"github.com/jolly-agents/server/internal/search"
	"github.com/jolly-agents/server/internal/search/googlemaps"
	"github.com/jolly-agents/server/internal/search/serpapi"
	logx "github.com/jolly-agents/server/pkg/logger"
	pkgredis "github.com/jolly-agents/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the server,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string           `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis   pkgredis.Config
	HTTP    httpapi.Config
	Search  model.SearchConfig
	Session model.SessionConfig

	// LLM provider
	LLM model.LLMConfig

	// Agent configs
	Parser    model.ParserModelConfig
	Planner   model.PlannerModelConfig
	Vision    model.VisionModelConfig
	Trip      model.TripConfig
	Nutrition model.NutritionLimits
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load(".env")

	// Load structured config from env
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Init()
		logx.Fatal().Err(err).Msg("Failed to process environment config")
	}

	logx.Init(logx.LoggerOpts{Environment: cfg.Environment, Level: cfg.LogLevel})
	if envErr != nil {
		logx.Debug().Err(envErr).Msg("No .env file loaded")
	}

	searcher, err := newSearcher(cfg.Search)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise place search")
	}

	sessions, closeSessions, err := newSessionRepository(ctx, cfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise session store")
	}
	defer closeSessions()

	trips, nutrition, err := graph.BuildRunners(ctx, graph.Config{
		LLM:           cfg.LLM,
		Parser:        cfg.Parser,
		Planner:       cfg.Planner,
		Vision:        cfg.Vision,
		Trip:          cfg.Trip,
		Nutrition:     cfg.Nutrition,
		Searcher:      searcher,
		SearchTimeout: cfg.Search.Timeout,
		Sessions:      sessions,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build graphs")
	}

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Environment: cfg.Environment,
		Config:      cfg.HTTP,
		Trips:       trips,
		Nutrition:   nutrition,
		Sessions:    conversations.NewSessionManager(sessions),
	})

	logx.Info().
		Str("environment", cfg.Environment.String()).
		Str("search_backend", cfg.Search.Backend).
		Str("session_backend", cfg.Session.Backend).
		Msg("Server starting")

	if err := httpapi.Serve(ctx, cfg.HTTP, router); err != nil {
		logx.Fatal().Err(err).Msg("HTTP server stopped")
	}
	logx.Info().Msg("Server stopped")
}

func newSearcher(cfg model.SearchConfig) (search.Searcher, error) {
	switch cfg.Backend {
	case "serpapi":
		if cfg.SerpAPIKey == "" {
			return nil, fmt.Errorf("SERPAPI_API_KEY is required for the serpapi backend")
		}
		return serpapi.NewClient(cfg.SerpAPIKey,
			serpapi.WithBaseURL(cfg.SerpAPIBaseURL),
			serpapi.WithLocale(cfg.Language, cfg.Country),
		), nil
	case "googlemaps":
		if cfg.GoogleMapsAPIKey == "" {
			return nil, fmt.Errorf("GOOGLE_MAPS_API_KEY is required for the googlemaps backend")
		}
		client, err := googlemaps.NewClient(cfg.GoogleMapsAPIKey, cfg.Language)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown SEARCH_BACKEND %q", cfg.Backend)
	}
}

func newSessionRepository(ctx context.Context, cfg AppConfig) (model.SessionRepository, func(), error) {
	switch cfg.Session.Backend {
	case "memory":
		return repo.NewMemorySessionRepository(cfg.Session.TTL), func() {}, nil
	case "redis":
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		logx.Info().Msg("Connected to Redis successfully")
		return repo.NewRedisSessionRepository(rdb, cfg.Session.TTL), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.Session.Backend)
	}
}
