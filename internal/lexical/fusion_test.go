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
	"math"
	"testing"
)

func TestFuse_AgreementWins(t *testing.T) {
	primary := []Match{
		{ID: "a", Score: 0.9},
		{ID: "b", Score: 0.8},
	}
	secondary := []Match{
		{ID: "b", Score: 5.0},
		{ID: "c", Score: 4.0},
	}

	fused := Fuse(primary, secondary, DefaultRRFConstant, 0.5, 0)

	if len(fused) != 3 {
		t.Fatalf("expected 3 fused results, got %d", len(fused))
	}
	// b appears in both rankings and must come out on top.
	if fused[0].ID != "b" {
		t.Errorf("expected b first, got %s", fused[0].ID)
	}
}

func TestFuse_WeightShiftsRanking(t *testing.T) {
	primary := []Match{{ID: "vec"}}
	secondary := []Match{{ID: "lex"}}

	heavy := Fuse(primary, secondary, DefaultRRFConstant, 0.9, 0)
	if heavy[0].ID != "vec" {
		t.Errorf("with primary weight 0.9 expected vec first, got %s", heavy[0].ID)
	}

	light := Fuse(primary, secondary, DefaultRRFConstant, 0.1, 0)
	if light[0].ID != "lex" {
		t.Errorf("with primary weight 0.1 expected lex first, got %s", light[0].ID)
	}
}

func TestFuse_InvalidWeightDefaults(t *testing.T) {
	primary := []Match{{ID: "a"}}
	secondary := []Match{{ID: "a"}}

	fused := Fuse(primary, secondary, DefaultRRFConstant, 0, 0)

	want := 0.5/(DefaultRRFConstant+1) + 0.5/(DefaultRRFConstant+1)
	if math.Abs(fused[0].Score-want) > 1e-12 {
		t.Errorf("score = %f, want %f", fused[0].Score, want)
	}
}

func TestFuse_TopN(t *testing.T) {
	primary := []Match{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	fused := Fuse(primary, nil, DefaultRRFConstant, 0.5, 2)
	if len(fused) != 2 {
		t.Errorf("expected 2 results, got %d", len(fused))
	}
}

func TestFuse_KeysByContentWithoutID(t *testing.T) {
	primary := []Match{{Content: "same text"}}
	secondary := []Match{{Content: "same text"}}

	fused := Fuse(primary, secondary, DefaultRRFConstant, 0.5, 0)
	if len(fused) != 1 {
		t.Errorf("expected chunks without IDs to merge by content, got %d results", len(fused))
	}
}

func TestFuse_Empty(t *testing.T) {
	if got := Fuse(nil, nil, DefaultRRFConstant, 0.5, 5); len(got) != 0 {
		t.Errorf("expected empty fusion, got %v", got)
	}
}
