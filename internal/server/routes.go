package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/physioai/physioai/internal/agent"
	"github.com/physioai/physioai/internal/config"
	"github.com/physioai/physioai/internal/handler"
	"github.com/physioai/physioai/internal/middleware"
	"github.com/physioai/physioai/internal/report"
	"github.com/physioai/physioai/internal/service"
	"github.com/physioai/physioai/internal/storage"
	"github.com/rs/zerolog/log"
)

// setupRoutes returns (router, warehouse, error) so the warehouse client can
// be closed on shutdown
func (s *Server) setupRoutes() (http.Handler, service.Warehouse, error) {
	cfg := s.cfg
	ctx := context.Background()

	// ─── Collaborators ──────────────────────────────────────────────────────────
	warehouse := newWarehouse(ctx, cfg)

	var physioAgent *agent.PhysioAgent
	if cfg.AnthropicAPIKey != "" {
		physioAgent = agent.NewPhysioAgent(cfg.AnthropicAPIKey, cfg.Model, cfg.AnthropicBaseURL)
	} else {
		log.Warn().Msg("ANTHROPIC_API_KEY not set - report generation disabled")
	}

	var store *storage.S3Store
	if physioAgent != nil {
		var err error
		store, err = storage.NewS3Store(ctx, cfg.AWSRegion)
		if err != nil {
			log.Warn().Err(err).Msg("S3 store unavailable - report generation disabled")
		}
	}

	var reportIndex *service.ReportIndex
	if cfg.ElasticsearchEnabled {
		var err error
		reportIndex, err = service.NewReportIndex(
			cfg.ElasticsearchScheme,
			cfg.ElasticsearchHost,
			cfg.ElasticsearchPort,
			cfg.ElasticsearchUser,
			cfg.ElasticsearchPassword,
			cfg.ElasticsearchVerifyCerts,
			cfg.ElasticsearchMaxRetries,
			cfg.ReportIndexName,
		)
		if err != nil {
			log.Warn().Err(err).Msg("report index unavailable")
		}
	}

	log.Info().
		Str("warehouse_driver", cfg.WarehouseDriver).
		Bool("warehouse_enabled", warehouse != nil).
		Bool("inference_enabled", physioAgent != nil).
		Bool("storage_enabled", store != nil).
		Bool("report_index_enabled", reportIndex != nil).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Msg("service configuration")

	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("WARNING: auth enabled but no API keys configured - all API requests will be rejected")
	}

	// ─── Handlers ───────────────────────────────────────────────────────────────
	healthH := handler.NewHealthHandler(warehouse, reportIndex)

	var reportH *handler.ReportHandler
	if warehouse != nil && physioAgent != nil && store != nil {
		var indexer report.Indexer
		if reportIndex != nil {
			indexer = reportIndex
		}
		gen := report.NewGenerator(physioAgent, store, indexer)
		reportH = handler.NewReportHandler(warehouse, gen, cfg.ReportsBucket)
	} else {
		log.Warn().Msg("WARNING: POST /api/v1/reports disabled - missing warehouse, inference, or storage")
	}

	var searchH *handler.SearchHandler
	if reportIndex != nil {
		searchH = handler.NewSearchHandler(reportIndex)
	}

	// ─── Router ─────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chiMiddleware.RealIP)

	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)

	apiMiddleware := []func(http.Handler) http.Handler{
		middleware.RateLimit(cfg.RateLimitPerMinute),
	}
	if cfg.EnableAuth && len(cfg.APIKeys) > 0 {
		apiMiddleware = append(apiMiddleware, middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
	}

	r.Group(func(r chi.Router) {
		for _, m := range apiMiddleware {
			r.Use(m)
		}

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			if reportH != nil {
				r.Post("/reports", reportH.Generate)
			}
			if searchH != nil {
				r.Get("/reports/search", searchH.Search)
			}
		})
	})

	return r, warehouse, nil
}

func newWarehouse(ctx context.Context, cfg *config.Config) service.Warehouse {
	switch cfg.WarehouseDriver {
	case "postgres":
		if cfg.PostgresDSN == "" {
			log.Warn().Msg("POSTGRES_DSN not set - warehouse disabled")
			return nil
		}
		wh, err := service.NewPostgresWarehouse(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Warn().Err(err).Msg("postgres warehouse unavailable")
			return nil
		}
		return wh
	default:
		if cfg.GCPProjectID == "" {
			log.Warn().Msg("GCP_PROJECT_ID not set - warehouse disabled")
			return nil
		}
		wh, err := service.NewBigQueryWarehouse(ctx, cfg.GCPProjectID, cfg.GoogleApplicationCredentials, cfg.BigQueryLocation)
		if err != nil {
			log.Warn().Err(err).Msg("bigquery warehouse unavailable")
			return nil
		}
		return wh
	}
}
