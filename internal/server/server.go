package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/physioai/physioai/internal/config"
	"github.com/physioai/physioai/internal/service"
	"github.com/rs/zerolog/log"
)

type Server struct {
	cfg       *config.Config
	http      *http.Server
	warehouse service.Warehouse // held for graceful close
}

func New(cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	router, warehouse, err := s.setupRoutes()
	if err != nil {
		return nil, fmt.Errorf("setup routes: %w", err)
	}
	s.warehouse = warehouse

	s.http = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: router,
		// A report request blocks on warehouse + inference + upload, so the
		// write timeout is generous.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := s.http.Shutdown(shutdownCtx)

		if s.warehouse != nil {
			if closeErr := s.warehouse.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("error closing warehouse client")
			} else {
				log.Info().Msg("warehouse client closed")
			}
		}

		return err
	case err := <-errCh:
		return err
	}
}
