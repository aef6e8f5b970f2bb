//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Portions copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package retrieval

import (
	"context"
	"log/slog"

	"github.com/finsight-ai/summary-server/internal/llm"
	"github.com/finsight-ai/summary-server/internal/metrics"
)

// Reranker reorders candidate fragments by relevance, falling back to
// input order whenever the provider is unavailable or fails. It never
// surfaces an error to its caller.
type Reranker struct {
	provider llm.RerankProvider
	logger   *slog.Logger
}

// NewReranker creates a reranker. A nil provider yields a pass-through
// reranker that truncates to topN in input order.
func NewReranker(provider llm.RerankProvider, logger *slog.Logger) *Reranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reranker{
		provider: provider,
		logger:   logger,
	}
}

// Rerank returns up to topN candidates ordered by relevance to the query.
// topN <= 0 or beyond the candidate count returns all candidates.
func (r *Reranker) Rerank(
	ctx context.Context,
	query string,
	candidates []string,
	topN int,
) []string {
	if len(candidates) == 0 {
		return nil
	}
	if topN <= 0 || topN > len(candidates) {
		topN = len(candidates)
	}

	if r.provider == nil {
		return candidates[:topN]
	}

	ranked, err := r.provider.Rerank(ctx, query, candidates, topN)
	if err != nil {
		r.logger.Warn("rerank failed, keeping input order",
			"model", r.provider.ModelName(),
			"candidates", len(candidates),
			"error", err)
		metrics.RerankFallbacks.Inc()
		return candidates[:topN]
	}

	out := make([]string, 0, topN)
	for _, doc := range ranked {
		if doc.Index < 0 || doc.Index >= len(candidates) {
			continue
		}
		out = append(out, candidates[doc.Index])
		if len(out) == topN {
			break
		}
	}

	// A provider returning nothing usable still fails open.
	if len(out) == 0 {
		metrics.RerankFallbacks.Inc()
		return candidates[:topN]
	}

	return out
}
