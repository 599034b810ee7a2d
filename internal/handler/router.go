/*
Package handler provides the HTTP handlers and routing setup for the link server.

This file defines the main Router, applying logging, CORS, and recovery middleware, and
mounting the WebSocket endpoint for link clients next to the health, status, and
metrics endpoints.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"neoslink/internal/pkg/limiter"
	"neoslink/internal/pkg/logx"
	"neoslink/internal/pkg/resp"
)

const (
	// ConnectRate is the sustained WebSocket connections allowed per IP per second.
	ConnectRate  = 0.2
	ConnectBurst = 5

	serviceName = "NeosVR Link"
)

// Router builds the application's HTTP handler. The rate limiter's cleanup
// goroutine stops when ctx is cancelled.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	connectLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
		HandshakeTimeout: writeWait,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			// World clients are not browsers and send no Origin.
			if origin == "" {
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", HandleHealth)
	r.Get("/status", HandleStatus(deps))
	r.Handle("/metrics", promhttp.Handler())

	ws := HandleWebSocket(deps, wsUpgrader)
	r.With(connectLimiter.Middleware).Get("/ws", ws)
	r.With(connectLimiter.Middleware).Get("/", ws)

	return r
}

// HandleHealth reports that the process is serving.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp.RespondSuccess(w, r, map[string]string{
		"status":  "ok",
		"service": serviceName,
	})
}

// HandleStatus reports the live session count and link state.
func HandleStatus(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Bridge.Status())
	}
}
