//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Portions copyright (c) 2025, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline provides the multi-agent summary generation flow and
// pipeline lifecycle management.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/finsight-ai/summary-server/internal/config"
	"github.com/finsight-ai/summary-server/internal/llm"
	"github.com/finsight-ai/summary-server/internal/retrieval"
)

// ErrPipelineNotFound is returned when a requested pipeline does not exist.
var ErrPipelineNotFound = errors.New("pipeline not found")

// ErrAllExtractionFailed is returned when every first-stage task failed
// and no document can be produced.
var ErrAllExtractionFailed = errors.New("all extraction tasks failed")

// ErrDraftFailed is returned when the draft task failed and no fallback
// text exists, even though other tasks produced output.
var ErrDraftFailed = errors.New("draft generation failed")

// Run statuses.
const (
	StatusSuccess  = "success"
	StatusDegraded = "degraded"
)

// Info contains basic pipeline information for listing.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Options toggles the optional stages of a run. The zero value disables
// everything; use DefaultOptions for the standard full run.
type Options struct {
	ExtractionEnabled bool     `json:"extraction_enabled"`
	ValidationEnabled bool     `json:"validation_enabled"`
	ResearchEnabled   bool     `json:"research_enabled"`
	IncludeValuation  bool     `json:"include_valuation"`
	TargetEntities    []string `json:"target_entities,omitempty"`
}

// DefaultOptions returns the standard full-run options.
func DefaultOptions() Options {
	return Options{
		ExtractionEnabled: true,
		ValidationEnabled: true,
		ResearchEnabled:   true,
		IncludeValuation:  true,
	}
}

// RunRequest is a summary run request.
type RunRequest struct {
	// Filter restricts retrieval to chunks whose metadata matches every
	// pair, typically tenant, document id, and document name keys.
	Filter map[string]string `json:"filter,omitempty"`

	// Partition optionally names the partition used by the relaxed
	// retrieval tier.
	Partition string `json:"partition,omitempty"`

	// Options overrides DefaultOptions when present.
	Options *Options `json:"options,omitempty"`
}

// RunResult is the outcome of a summary run.
type RunResult struct {
	RunID       uuid.UUID      `json:"run_id"`
	Status      string         `json:"status"`
	Document    string         `json:"document"`
	Usage       llm.TokenUsage `json:"usage"`
	DurationMS  int64          `json:"duration_ms"`
	FailedTasks []string       `json:"failed_tasks,omitempty"`
}

// TaskResult is what a task settles with. A failed task carries Err and
// zero usage; its output contributes nothing downstream.
type TaskResult struct {
	Name   string
	Output string
	Usage  llm.TokenUsage
	Err    error
}

// RunContext carries the per-run state shared by tasks.
type RunContext struct {
	RunID      uuid.UUID
	Filter     retrieval.Filter
	Partition  string
	Options    Options
	Retriever  *retrieval.Orchestrator
	Completion llm.CompletionProvider
	Research   llm.CompletionProvider
	Prompts    config.PromptsConfig
	Subqueries []string
	MaxTokens  int
	Logger     *slog.Logger
}

// Task is one unit of pipeline work. Implementations do their own
// retrieval and report failure through the result, never by panicking;
// the runner additionally isolates panics at the task boundary.
type Task interface {
	Name() string
	Run(ctx context.Context, rc *RunContext) TaskResult
}

// Message represents a message in a question-answering conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// QueryRequest is a standalone question against a pipeline's documents.
type QueryRequest struct {
	Query     string            `json:"query"`
	Filter    map[string]string `json:"filter,omitempty"`
	Partition string            `json:"partition,omitempty"`
	Stream    bool              `json:"stream"`
	Messages  []Message         `json:"messages,omitempty"` // Previous conversation history
}

// QueryResponse is a non-streaming answer.
type QueryResponse struct {
	Answer     string `json:"answer"`
	Degraded   bool   `json:"degraded,omitempty"`
	TokensUsed int    `json:"tokens_used"`
}

// StreamChunk is a chunk of a streaming answer.
type StreamChunk struct {
	Content      string `json:"content,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// StreamEvent is the wire format for Server-Sent Events.
type StreamEvent struct {
	Type    string `json:"type"` // "chunk", "error", or "done"
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RetrieveRequest exposes raw retrieval over a pipeline's chunk store.
type RetrieveRequest struct {
	Queries   []string          `json:"queries"`
	Filter    map[string]string `json:"filter,omitempty"`
	Partition string            `json:"partition,omitempty"`
}
