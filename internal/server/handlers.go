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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finsight-ai/summary-server/internal/pipeline"
)

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// PipelinesResponse is the response for the list pipelines endpoint.
type PipelinesResponse struct {
	Pipelines []pipeline.Info `json:"pipelines"`
}

// RetrieveResponse is the response for the raw retrieval endpoint.
type RetrieveResponse struct {
	Context   string   `json:"context"`
	Fragments []string `json:"fragments"`
	Degraded  bool     `json:"degraded"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleHealth handles the GET /v1/health endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// handleListPipelines handles the GET /v1/pipelines endpoint.
func (s *Server) handleListPipelines(w http.ResponseWriter, r *http.Request) {
	pipelines := s.pipelines.List()
	s.respondJSON(w, http.StatusOK, PipelinesResponse{Pipelines: pipelines})
}

// lookupPipeline resolves the {name} path value, writing the error
// response itself when the pipeline cannot be served.
func (s *Server) lookupPipeline(w http.ResponseWriter, r *http.Request) *pipeline.Pipeline {
	name := r.PathValue("name")
	if name == "" {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "pipeline name required")
		return nil
	}

	p, err := s.pipelines.Get(name)
	if err != nil {
		if errors.Is(err, pipeline.ErrPipelineNotFound) {
			s.respondError(w, http.StatusNotFound, "PIPELINE_NOT_FOUND",
				"pipeline not found: "+name)
			return nil
		}
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return nil
	}
	return p
}

// handleSummary handles the POST /v1/pipelines/{name}/summary endpoint.
// It runs the full multi-agent pipeline and returns the assembled
// document.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	p := s.lookupPipeline(w, r)
	if p == nil {
		return
	}

	var req pipeline.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST",
			"invalid request body: "+err.Error())
		return
	}

	result, err := p.Run(r.Context(), req)
	if err != nil {
		s.logger.Error("summary run failed",
			"pipeline", p.Name(),
			"error", err)
		if errors.Is(err, pipeline.ErrAllExtractionFailed) ||
			errors.Is(err, pipeline.ErrDraftFailed) {
			s.respondError(w, http.StatusBadGateway, "PIPELINE_FAILED", err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, "EXECUTION_ERROR", err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

// handleRetrieve handles the POST /v1/pipelines/{name}/retrieve
// endpoint. It exposes the retrieval cascade without any generation.
func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	p := s.lookupPipeline(w, r)
	if p == nil {
		return
	}

	var req pipeline.RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST",
			"invalid request body: "+err.Error())
		return
	}
	if len(req.Queries) == 0 {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST",
			"at least one query is required")
		return
	}

	bundle, err := p.Retrieve(r.Context(), req)
	if err != nil {
		s.logger.Error("retrieval failed",
			"pipeline", p.Name(),
			"error", err)
		s.respondError(w, http.StatusInternalServerError, "EXECUTION_ERROR", err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, RetrieveResponse{
		Context:   bundle.Text,
		Fragments: bundle.Fragments,
		Degraded:  bundle.Degraded,
	})
}

// handleQuery handles the POST /v1/pipelines/{name}/query endpoint.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	p := s.lookupPipeline(w, r)
	if p == nil {
		return
	}

	var req pipeline.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST",
			"invalid request body: "+err.Error())
		return
	}

	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "query is required")
		return
	}

	if req.Stream {
		s.handleStreamingQuery(w, r, p, req)
		return
	}

	resp, err := p.Answer(r.Context(), req)
	if err != nil {
		s.logger.Error("query failed",
			"pipeline", p.Name(),
			"error", err)
		s.respondError(w, http.StatusInternalServerError, "EXECUTION_ERROR", err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, resp)
}

// handleStreamingQuery streams an answer using Server-Sent Events.
func (s *Server) handleStreamingQuery(w http.ResponseWriter, r *http.Request,
	p *pipeline.Pipeline, req pipeline.QueryRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "STREAMING_ERROR",
			"streaming not supported")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	chunkChan, errChan := p.AnswerStream(r.Context(), req)

	for {
		select {
		case chunk, ok := <-chunkChan:
			if !ok {
				// Channel closed, check for errors
				if err := <-errChan; err != nil {
					s.sendSSE(w, flusher, pipeline.StreamEvent{
						Type:  "error",
						Error: err.Error(),
					})
				}
				s.sendSSE(w, flusher, pipeline.StreamEvent{
					Type: "done",
				})
				return
			}

			s.sendSSE(w, flusher, pipeline.StreamEvent{
				Type:    "chunk",
				Content: chunk.Content,
			})

		case <-r.Context().Done():
			s.logger.Debug("client disconnected during streaming")
			return
		}
	}
}

// sendSSE sends a Server-Sent Event.
func (s *Server) sendSSE(w http.ResponseWriter, flusher http.Flusher, event pipeline.StreamEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal SSE event", "error", err)
		return
	}

	// SSE format: data: {json}\n\n
	if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
		s.logger.Error("failed to write SSE event", "error", err)
		return
	}
	flusher.Flush()
}

// respondJSON sends a JSON response with RFC 8631 Link header for API discovery.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	// RFC 8631: Link header for API documentation discovery
	w.Header().Set("Link", `</v1/openapi.json>; rel="service-desc"`)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// respondError sends an error response.
func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
