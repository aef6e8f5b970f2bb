//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Portions copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package retrieval implements the tiered retrieval cascade that feeds
// pipeline agents with document context.
package retrieval

import (
	"github.com/finsight-ai/summary-server/internal/vectorstore"
)

// Filter constrains retrieval to chunks whose metadata matches every
// key/value pair.
type Filter = vectorstore.Filter

// Query is a single retrieval request. Partition optionally names the
// partition searched by the relaxed tier; empty means the cascade skips
// that tier.
type Query struct {
	Text      string
	Partition string
}

// Separator joins deduplicated fragments in the assembled context text.
const Separator = "\n---\n"

// Cascade tiers, recorded per query on the bundle.
const (
	TierNone    = 0 // No tier produced fragments (or the query failed)
	TierFull    = 1 // Default partition, full filter
	TierRelaxed = 2 // Named partition, relaxed filter
	TierOpen    = 3 // Default partition, no filter (degraded)
)

// ContextBundle is the combined outcome of a multi-query retrieve.
type ContextBundle struct {
	// Text is every deduplicated fragment joined with Separator.
	// Empty when nothing was retrieved.
	Text string

	// Fragments holds the deduplicated fragments in first-seen order.
	Fragments []string

	// Tiers records, per input query, which cascade tier supplied its
	// fragments.
	Tiers []int

	// Degraded is set when any query fell through to the unfiltered
	// tier or failed outright.
	Degraded bool
}

// Empty reports whether the bundle carries no fragments.
func (b *ContextBundle) Empty() bool {
	return len(b.Fragments) == 0
}
