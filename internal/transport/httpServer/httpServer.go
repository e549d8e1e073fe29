package httpServer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chadn/cmf-server/internal/config"
	"github.com/chadn/cmf-server/internal/utils/logger/sl"
)

type Router interface {
	Mount(mux *chi.Mux)
}

type HttpServer struct {
	log    *slog.Logger
	server *http.Server
}

func NewHttpServer(log *slog.Logger, router Router, cfg *config.Config) *HttpServer {
	mux := chi.NewRouter()
	router.Mount(mux)

	return &HttpServer{
		log: log,
		server: &http.Server{
			Addr:         net.JoinHostPort(cfg.HttpServer.Address, cfg.HttpServer.Port),
			Handler:      mux,
			ReadTimeout:  cfg.HttpServer.Timeout,
			WriteTimeout: cfg.HttpServer.Timeout,
		},
	}
}

func (s *HttpServer) Listen() {
	op := "httpServer.HttpServer.Listen()"
	log := s.log.With(slog.String("op", op))

	log.Info("http server listening", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server stopped", sl.Err(err))
	}
}

func (s *HttpServer) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
