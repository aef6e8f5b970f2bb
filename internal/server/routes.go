//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// API v1 routes
	s.mux.HandleFunc("GET /v1/openapi.json", s.handleOpenAPI)
	s.mux.HandleFunc("GET /v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /v1/pipelines", s.handleListPipelines)
	s.mux.HandleFunc("POST /v1/pipelines/{name}/summary", s.handleSummary)
	s.mux.HandleFunc("POST /v1/pipelines/{name}/retrieve", s.handleRetrieve)
	s.mux.HandleFunc("POST /v1/pipelines/{name}/query", s.handleQuery)

	// Prometheus metrics
	s.mux.Handle("GET /metrics", promhttp.Handler())
}
