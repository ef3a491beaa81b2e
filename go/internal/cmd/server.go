package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mcdev12/racecycles/go/internal/api"
	"github.com/mcdev12/racecycles/go/internal/config"
	"github.com/mcdev12/racecycles/go/internal/gateway"
	"github.com/mcdev12/racecycles/go/internal/race"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(cfg config.ServerConfig, services *Services) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	api.NewHandler(services.Users, services.Races, services).RegisterRoutes(r)
	gateway.NewWebSocketHandler(services.Gateway, race.NumStations).RegisterRoutes(r)

	// Wrap with CORS
	handler := c.Handler(r)

	// WriteTimeout is left unset: it would cut long-lived WebSocket connections.
	return &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     h2c.NewHandler(handler, &http2.Server{}),
		ReadTimeout: cfg.ReadTimeout,
		IdleTimeout: cfg.IdleTimeout,
	}
}
