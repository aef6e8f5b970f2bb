//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Portions copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package lexical provides BM25 keyword scoring over document chunks and
// reciprocal rank fusion of lexical and vector rankings.
package lexical

import (
	"math"
)

// DefaultK1 is the default term frequency saturation parameter.
const DefaultK1 = 1.2

// DefaultB is the default document length normalization parameter.
// B=0 means no normalization, B=1 means full normalization.
const DefaultB = 0.75

// Scorer implements the BM25 (Best Matching 25) ranking function.
type Scorer struct {
	K1       float64 // Term frequency saturation (default 1.2)
	B        float64 // Document length normalization (default 0.75)
	AvgLen   float64 // Average chunk length
	DocCount int     // Total number of chunks
}

// NewScorer creates a BM25 scorer with default parameters.
func NewScorer() *Scorer {
	return &Scorer{
		K1: DefaultK1,
		B:  DefaultB,
	}
}

// NewScorerWithParams creates a BM25 scorer with custom parameters.
func NewScorerWithParams(k1, b float64) *Scorer {
	return &Scorer{
		K1: k1,
		B:  b,
	}
}

// SetCorpusStats sets the corpus statistics needed for scoring.
func (s *Scorer) SetCorpusStats(docCount int, avgLen float64) {
	s.DocCount = docCount
	s.AvgLen = avgLen
}

// IDF calculates the Inverse Document Frequency for a term.
// Uses the Lucene/Elasticsearch variant of the BM25 IDF formula:
//
//	IDF(t) = log(1 + (N - df(t) + 0.5) / (df(t) + 0.5))
//
// which is always non-negative, unlike the standard formula.
func (s *Scorer) IDF(docFreq int) float64 {
	if s.DocCount == 0 || docFreq == 0 {
		return 0
	}

	n := float64(s.DocCount)
	df := float64(docFreq)

	return math.Log(1 + (n-df+0.5)/(df+0.5))
}

// Score calculates the BM25 score component for a single term.
//
// Parameters:
//   - tf: term frequency in the chunk
//   - docFreq: number of chunks containing the term
//   - docLen: length of the chunk (in terms)
func (s *Scorer) Score(tf, docFreq, docLen int) float64 {
	if tf == 0 || docFreq == 0 || s.DocCount == 0 {
		return 0
	}

	idf := s.IDF(docFreq)

	tfFloat := float64(tf)
	lengthNorm := 1 - s.B + s.B*(float64(docLen)/s.AvgLen)
	tfScore := (tfFloat * (s.K1 + 1)) / (tfFloat + s.K1*lengthNorm)

	return idf * tfScore
}

// ScoreChunk calculates the total BM25 score for a chunk given a query.
//
// Parameters:
//   - queryTerms: map of query term -> term frequency in query
//   - chunkTermFreqs: map of term -> term frequency in chunk
//   - docFreqs: map of term -> document frequency in corpus
//   - chunkLen: length of chunk (in terms)
func (s *Scorer) ScoreChunk(
	queryTerms map[string]int,
	chunkTermFreqs map[string]int,
	docFreqs map[string]int,
	chunkLen int,
) float64 {
	var score float64

	for term := range queryTerms {
		score += s.Score(chunkTermFreqs[term], docFreqs[term], chunkLen)
	}

	return score
}
