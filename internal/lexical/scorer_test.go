//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Portions copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package lexical

import (
	"testing"
)

func TestScorer_IDF(t *testing.T) {
	s := NewScorer()
	s.SetCorpusStats(100, 50)

	rare := s.IDF(1)
	common := s.IDF(90)

	if rare <= 0 || common <= 0 {
		t.Errorf("IDF must stay positive: rare=%f common=%f", rare, common)
	}
	if rare <= common {
		t.Errorf("rare term IDF (%f) must exceed common term IDF (%f)", rare, common)
	}
}

func TestScorer_IDF_ZeroCases(t *testing.T) {
	s := NewScorer()

	if got := s.IDF(5); got != 0 {
		t.Errorf("IDF with empty corpus = %f, want 0", got)
	}

	s.SetCorpusStats(10, 20)
	if got := s.IDF(0); got != 0 {
		t.Errorf("IDF of unseen term = %f, want 0", got)
	}
}

func TestScorer_Score(t *testing.T) {
	s := NewScorer()
	s.SetCorpusStats(10, 20)

	if got := s.Score(0, 5, 20); got != 0 {
		t.Errorf("score with zero tf = %f, want 0", got)
	}

	once := s.Score(1, 2, 20)
	thrice := s.Score(3, 2, 20)
	if once <= 0 {
		t.Fatalf("expected positive score, got %f", once)
	}
	if thrice <= once {
		t.Errorf("higher tf must score higher: %f <= %f", thrice, once)
	}

	// Term frequency saturates: tripling tf less than triples the score.
	if thrice >= 3*once {
		t.Errorf("expected tf saturation: %f >= 3*%f", thrice, once)
	}
}

func TestScorer_LengthNormalization(t *testing.T) {
	s := NewScorer()
	s.SetCorpusStats(10, 20)

	short := s.Score(2, 3, 10)
	long := s.Score(2, 3, 100)
	if short <= long {
		t.Errorf("shorter chunk must score higher: %f <= %f", short, long)
	}
}

func TestScorer_ScoreChunk(t *testing.T) {
	s := NewScorer()
	s.SetCorpusStats(3, 5)

	query := map[string]int{"revenue": 1, "growth": 1}
	chunk := map[string]int{"revenue": 2, "operations": 1}
	docFreqs := map[string]int{"revenue": 2, "operations": 1}

	score := s.ScoreChunk(query, chunk, docFreqs, 3)
	if score <= 0 {
		t.Errorf("expected positive score for overlapping term, got %f", score)
	}

	noOverlap := s.ScoreChunk(map[string]int{"litigation": 1}, chunk, docFreqs, 3)
	if noOverlap != 0 {
		t.Errorf("expected zero score without term overlap, got %f", noOverlap)
	}
}
