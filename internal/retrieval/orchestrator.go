//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package retrieval

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/finsight-ai/summary-server/internal/config"
	"github.com/finsight-ai/summary-server/internal/lexical"
	"github.com/finsight-ai/summary-server/internal/llm"
	"github.com/finsight-ai/summary-server/internal/metrics"
	"github.com/finsight-ai/summary-server/internal/vectorstore"
)

// Searcher is the chunk store surface the cascade needs.
type Searcher interface {
	Search(
		ctx context.Context,
		embedding []float32,
		partition string,
		filter vectorstore.Filter,
		topK int,
	) ([]vectorstore.Chunk, error)

	FetchChunks(
		ctx context.Context,
		partition string,
		filter vectorstore.Filter,
	) (map[string]string, error)
}

// Orchestrator runs the three-tier retrieval cascade per query and
// assembles the deduplicated context bundle across queries.
type Orchestrator struct {
	searcher      Searcher
	embedder      llm.EmbeddingProvider
	reranker      *Reranker
	topK          int
	rerankN       int
	relaxDropKeys []string
	hybrid        bool
	vectorWeight  float64
	logger        *slog.Logger
}

// NewOrchestrator creates an orchestrator from the pipeline's retrieval
// settings.
func NewOrchestrator(
	searcher Searcher,
	embedder llm.EmbeddingProvider,
	reranker *Reranker,
	cfg config.RetrievalConfig,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if reranker == nil {
		reranker = NewReranker(nil, logger)
	}

	o := &Orchestrator{
		searcher:      searcher,
		embedder:      embedder,
		reranker:      reranker,
		topK:          cfg.TopK,
		rerankN:       cfg.RerankN,
		relaxDropKeys: cfg.RelaxDropKeys,
		logger:        logger,
	}
	if o.topK <= 0 {
		o.topK = 10
	}
	if o.rerankN <= 0 {
		o.rerankN = 5
	}
	if cfg.HybridEnabled != nil {
		o.hybrid = *cfg.HybridEnabled
	}
	if cfg.VectorWeight != nil {
		o.vectorWeight = *cfg.VectorWeight
	}
	return o
}

// Retrieve runs the cascade for every query and merges the results.
// A query whose embedding or search fails contributes nothing; an empty
// bundle is a valid outcome, not an error. The only error returned is
// context cancellation.
func (o *Orchestrator) Retrieve(
	ctx context.Context,
	queries []Query,
	filter Filter,
) (*ContextBundle, error) {
	bundle := &ContextBundle{
		Tiers: make([]int, 0, len(queries)),
	}
	seen := make(map[string]bool)

	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tier, fragments := o.cascade(ctx, q, filter)
		bundle.Tiers = append(bundle.Tiers, tier)
		metrics.RetrievalTier.WithLabelValues(tierLabel(tier)).Inc()

		if tier == TierOpen || tier == TierNone {
			bundle.Degraded = true
		}

		for _, f := range fragments {
			if seen[f] {
				continue
			}
			seen[f] = true
			bundle.Fragments = append(bundle.Fragments, f)
		}
	}

	bundle.Text = strings.Join(bundle.Fragments, Separator)
	return bundle, nil
}

// cascade resolves one query through the tiers, stopping at the first
// tier that yields fragments. Tiers never merge.
func (o *Orchestrator) cascade(ctx context.Context, q Query, filter Filter) (int, []string) {
	embedding, err := o.embedder.Embed(ctx, q.Text)
	if err != nil {
		o.logger.Warn("query embedding failed",
			"query", q.Text,
			"error", err)
		return TierNone, nil
	}

	// Tier 1: default partition, full filter.
	chunks, err := o.searchTier(ctx, embedding, q.Text, vectorstore.DefaultPartition, filter)
	if err != nil {
		o.logger.Warn("tier 1 search failed",
			"query", q.Text,
			"error", err)
		return TierNone, nil
	}
	if len(chunks) > 0 {
		return TierFull, o.rerank(ctx, q.Text, chunks)
	}

	// Tier 2: named partition with the document-name keys dropped.
	// Only applies when a partition was given and the filter actually
	// has a key to drop.
	if q.Partition != "" && filter.HasAny(o.relaxDropKeys...) {
		relaxed := filter.Without(o.relaxDropKeys...)
		chunks, err = o.searchTier(ctx, embedding, q.Text, q.Partition, relaxed)
		if err != nil {
			o.logger.Warn("tier 2 search failed",
				"query", q.Text,
				"partition", q.Partition,
				"error", err)
			return TierNone, nil
		}
		if len(chunks) > 0 {
			return TierRelaxed, o.rerank(ctx, q.Text, chunks)
		}
	}

	// Tier 3: default partition, unfiltered. Results may belong to any
	// document, so the query is flagged degraded.
	chunks, err = o.searchTier(ctx, embedding, q.Text, vectorstore.DefaultPartition, nil)
	if err != nil {
		o.logger.Warn("tier 3 search failed",
			"query", q.Text,
			"error", err)
		return TierNone, nil
	}
	if len(chunks) > 0 {
		o.logger.Warn("retrieval degraded to unfiltered search",
			"query", q.Text,
			"results", len(chunks))
		return TierOpen, o.rerank(ctx, q.Text, chunks)
	}

	return TierNone, nil
}

// searchTier performs vector search for one tier, optionally fusing in a
// BM25 ranking over the same partition and filter.
func (o *Orchestrator) searchTier(
	ctx context.Context,
	embedding []float32,
	queryText string,
	partition string,
	filter Filter,
) ([]vectorstore.Chunk, error) {
	chunks, err := o.searcher.Search(ctx, embedding, partition, filter, o.topK)
	if err != nil {
		return nil, err
	}
	if !o.hybrid || len(chunks) == 0 {
		return chunks, nil
	}

	docs, err := o.searcher.FetchChunks(ctx, partition, filter)
	if err != nil {
		// Hybrid ranking is best-effort on top of vector results.
		o.logger.Warn("lexical fetch failed, using vector ranking",
			"partition", partition,
			"error", err)
		return chunks, nil
	}

	index := lexical.NewIndex()
	index.AddAll(docs)
	lexMatches := index.Search(queryText, o.topK)

	vecMatches := make([]lexical.Match, len(chunks))
	for i, c := range chunks {
		vecMatches[i] = lexical.Match{ID: c.ID, Content: c.Content, Score: c.Score}
	}

	fused := lexical.Fuse(vecMatches, lexMatches,
		lexical.DefaultRRFConstant, o.vectorWeight, o.topK)

	out := make([]vectorstore.Chunk, len(fused))
	for i, m := range fused {
		out[i] = vectorstore.Chunk{ID: m.ID, Content: m.Content, Score: m.Score}
	}
	return out, nil
}

// rerank extracts fragment texts and applies the fail-open reranker.
func (o *Orchestrator) rerank(ctx context.Context, query string, chunks []vectorstore.Chunk) []string {
	candidates := make([]string, len(chunks))
	for i, c := range chunks {
		candidates[i] = c.Content
	}
	return o.reranker.Rerank(ctx, query, candidates, o.rerankN)
}

// tierLabel formats a tier for the metrics counter.
func tierLabel(tier int) string {
	if tier == TierNone {
		return "none"
	}
	return strconv.Itoa(tier)
}
