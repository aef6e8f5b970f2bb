//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package lexical

import (
	"sort"
)

// DefaultRRFConstant is the default k constant for RRF ranking.
// A value of 60 is commonly used in practice.
const DefaultRRFConstant = 60

// Fuse combines two rankings of the same chunk corpus using weighted
// Reciprocal Rank Fusion:
//
//	score = sum(weight / (k + rank)) over each ranking, rank 1-indexed
//
// primaryWeight applies to the primary ranking, 1-primaryWeight to the
// secondary; a weight outside (0, 1) falls back to 0.5. Chunks are keyed
// by ID when present, content otherwise. The fused ranking is returned
// highest score first, limited to topN.
func Fuse(primary, secondary []Match, k, primaryWeight float64, topN int) []Match {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	if primaryWeight <= 0 || primaryWeight >= 1 {
		primaryWeight = 0.5
	}

	fused := make(map[string]*Match)
	var order []string

	accumulate := func(ranking []Match, weight float64) {
		for i, m := range ranking {
			rank := i + 1 // 1-indexed
			key := m.Content
			if m.ID != "" {
				key = m.ID
			}

			contribution := weight / (k + float64(rank))
			if existing, ok := fused[key]; ok {
				existing.Score += contribution
				continue
			}
			fused[key] = &Match{
				ID:      m.ID,
				Content: m.Content,
				Score:   contribution,
			}
			order = append(order, key)
		}
	}

	accumulate(primary, primaryWeight)
	accumulate(secondary, 1-primaryWeight)

	results := make([]Match, 0, len(order))
	for _, key := range order {
		results = append(results, *fused[key])
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topN > 0 && topN < len(results) {
		results = results[:topN]
	}
	return results
}
