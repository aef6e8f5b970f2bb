//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Portions copyright (c) 2025, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package vectorstore

import (
	"testing"
)

func TestParseTableIdentifier(t *testing.T) {
	tests := []struct {
		table string
		want  string
	}{
		{"chunks", `"chunks"`},
		{"rag.chunks", `"rag"."chunks"`},
		{"weird table", `"weird table"`},
	}

	for _, tt := range tests {
		got := parseTableIdentifier(tt.table).Sanitize()
		if got != tt.want {
			t.Errorf("parseTableIdentifier(%q) = %q, want %q", tt.table, got, tt.want)
		}
	}
}

func TestFormatVector(t *testing.T) {
	tests := []struct {
		name      string
		embedding []float32
		want      string
	}{
		{"empty", nil, "[]"},
		{"single", []float32{0.5}, "[0.5]"},
		{"multiple", []float32{1, 2.5, -0.25}, "[1,2.5,-0.25]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatVector(tt.embedding)
			if got != tt.want {
				t.Errorf("formatVector = %q, want %q", got, tt.want)
			}
		})
	}
}
