// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package web exposes the detection engine over HTTP plus a websocket
// event stream. The stream is sanitized: pass names, counts and timings
// go out, document and entity text never does.
package web

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"docscrub/internal/config"
	"docscrub/internal/logging"
	"docscrub/internal/pipeline"
	"docscrub/internal/version"
)

// Server is the HTTP front of the engine. The engine pointer is swapped
// atomically on config reload; in-flight requests finish on the engine
// they started with.
type Server struct {
	cfg    config.ServerConfig
	logger *logging.Logger
	engine atomic.Pointer[pipeline.Engine]
	router *mux.Router
	server *http.Server
	hub    *Hub
}

// New assembles the server around an engine.
func New(cfg config.ServerConfig, engine *pipeline.Engine, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger.WithComponent("web"),
		router: mux.NewRouter(),
		hub:    NewHub(logger),
	}
	s.engine.Store(engine)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.hub.HandleWebSocket).Methods(http.MethodGet)

	api := s.router.PathPrefix("/v1").Subrouter()
	api.Use(s.loggingMiddleware)
	api.HandleFunc("/detect", s.handleDetect).Methods(http.MethodPost)
	api.HandleFunc("/anonymize", s.handleAnonymize).Methods(http.MethodPost)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SwapEngine replaces the engine, e.g. after a config hot reload built a
// new frozen registry.
func (s *Server) SwapEngine(engine *pipeline.Engine) {
	s.engine.Store(engine)
	s.logger.Info("engine swapped")
}

// Start runs the websocket hub and serves until Stop.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		zap.String("addr", s.server.Addr),
		zap.String("version", version.Version))
	go s.hub.Run()
	return s.server.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping server")
	s.hub.Close()
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs request metadata. Bodies hold document text and
// are never logged.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "docscrub",
		"build":       version.Get(),
		"subscribers": s.hub.Subscribers(),
	})
}
