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
	"reflect"
	"testing"
)

func TestTokenizer_Tokenize(t *testing.T) {
	tok := NewTokenizer()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "simple sentence",
			text: "Revenue grew strongly",
			want: []string{"revenue", "grew", "strongly"},
		},
		{
			name: "punctuation split",
			text: "pre-issue, post-issue; capital!",
			want: []string{"pre", "issue", "post", "issue", "capital"},
		},
		{
			name: "stop words removed",
			text: "the revenue of the company",
			want: []string{"revenue", "company"},
		},
		{
			name: "short tokens removed",
			text: "x y equity z",
			want: []string{"equity"},
		},
		{
			name: "numbers kept",
			text: "allotted 50000 shares in 2024",
			want: []string{"allotted", "50000", "shares", "2024"},
		},
		{
			name: "empty",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Tokenize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenizer_TokenFrequencies(t *testing.T) {
	tok := NewTokenizer()

	freqs := tok.TokenFrequencies("shares and shares and more shares")
	if freqs["shares"] != 3 {
		t.Errorf("expected shares freq 3, got %d", freqs["shares"])
	}
	if _, ok := freqs["and"]; ok {
		t.Error("stop word must not appear in frequencies")
	}
}

func TestTokenizer_CustomStopWords(t *testing.T) {
	tok := NewTokenizerWithStopWords(map[string]bool{"equity": true})

	got := tok.Tokenize("equity shares allotted")
	want := []string{"shares", "allotted"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}
