package routers

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/chadn/cmf-server/internal/transport/httpServer/handlers"
	myMiddleware "github.com/chadn/cmf-server/internal/transport/httpServer/middleware"
)

type Router struct {
	log          *slog.Logger
	eventHandler *handlers.EventHandler
	secret       string
}

func NewRouter(log *slog.Logger, eventHandler *handlers.EventHandler, secret string) *Router {
	return &Router{
		log:          log,
		eventHandler: eventHandler,
		secret:       secret,
	}
}

func (r *Router) Mount(mux *chi.Mux) {
	mux.Use(cors.AllowAll().Handler)
	mux.Use(myMiddleware.Logger(r.log))
	mux.Use(middleware.Heartbeat("/ping"))

	mux.Route("/api", func(mux chi.Router) {
		mux.Route("/v1", func(mux chi.Router) {
			mux.Get("/events", r.eventHandler.GetEvents)
			mux.Get("/filters/range", r.eventHandler.GetQuickFilterRange)

			mux.Route("/admin", func(mux chi.Router) {
				mux.Use(myMiddleware.Auth(r.secret))
				mux.Post("/refresh", r.eventHandler.Refresh)
			})
		})
	})
}
