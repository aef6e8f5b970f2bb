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
	"sync"
)

// chunkEntry is an indexed chunk.
type chunkEntry struct {
	id        string
	content   string
	length    int            // Number of tokens
	termFreqs map[string]int // Term frequencies
}

// Match represents a scored chunk from a lexical search.
type Match struct {
	ID      string
	Content string
	Score   float64
}

// Index is an in-memory BM25 index over document chunks.
type Index struct {
	mu        sync.RWMutex
	tokenizer *Tokenizer
	scorer    *Scorer
	chunks    map[string]*chunkEntry
	docFreqs  map[string]int // term -> number of chunks containing it
	totalDocs int
	totalLen  int // Total token count across chunks (for avg calculation)
}

// NewIndex creates a new BM25 index.
func NewIndex() *Index {
	return &Index{
		tokenizer: NewTokenizer(),
		scorer:    NewScorer(),
		chunks:    make(map[string]*chunkEntry),
		docFreqs:  make(map[string]int),
	}
}

// NewIndexWithParams creates a new BM25 index with custom parameters.
func NewIndexWithParams(k1, b float64) *Index {
	return &Index{
		tokenizer: NewTokenizer(),
		scorer:    NewScorerWithParams(k1, b),
		chunks:    make(map[string]*chunkEntry),
		docFreqs:  make(map[string]int),
	}
}

// Add adds a chunk to the index.
func (idx *Index) Add(id, content string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.add(id, content)
}

// AddAll adds multiple chunks to the index under a single lock.
func (idx *Index) AddAll(chunks map[string]string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for id, content := range chunks {
		idx.add(id, content)
	}
}

// add indexes a chunk. Caller holds the write lock.
func (idx *Index) add(id, content string) {
	termFreqs := idx.tokenizer.TokenFrequencies(content)
	length := 0
	for _, freq := range termFreqs {
		length += freq
	}

	for term := range termFreqs {
		idx.docFreqs[term]++
	}

	idx.chunks[id] = &chunkEntry{
		id:        id,
		content:   content,
		length:    length,
		termFreqs: termFreqs,
	}
	idx.totalDocs++
	idx.totalLen += length

	avgLen := float64(idx.totalLen) / float64(idx.totalDocs)
	idx.scorer.SetCorpusStats(idx.totalDocs, avgLen)
}

// Search performs a BM25 search and returns the top-N matches,
// highest score first.
func (idx *Index) Search(query string, topN int) []Match {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.totalDocs == 0 {
		return nil
	}

	queryTermFreqs := idx.tokenizer.TokenFrequencies(query)
	if len(queryTermFreqs) == 0 {
		return nil
	}

	var scored []Match
	for id, chunk := range idx.chunks {
		score := idx.scorer.ScoreChunk(
			queryTermFreqs,
			chunk.termFreqs,
			idx.docFreqs,
			chunk.length,
		)
		if score > 0 {
			scored = append(scored, Match{
				ID:      id,
				Content: chunk.content,
				Score:   score,
			})
		}
	}

	// Sort by score descending
	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topN < len(scored) {
		scored = scored[:topN]
	}
	return scored
}

// Clear removes all chunks from the index.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.chunks = make(map[string]*chunkEntry)
	idx.docFreqs = make(map[string]int)
	idx.totalDocs = 0
	idx.totalLen = 0
}

// Size returns the number of chunks in the index.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.totalDocs
}
