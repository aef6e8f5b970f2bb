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
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Filter is a set of metadata key/value equality constraints applied to
// the chunk metadata column. All pairs must match.
type Filter map[string]string

// Clone returns a copy of the filter. A nil filter clones to nil.
func (f Filter) Clone() Filter {
	if f == nil {
		return nil
	}
	out := make(Filter, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Without returns a copy of the filter with the given keys removed.
func (f Filter) Without(keys ...string) Filter {
	out := f.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// HasAny reports whether the filter contains any of the given keys.
func (f Filter) HasAny(keys ...string) bool {
	for _, k := range keys {
		if _, ok := f[k]; ok {
			return true
		}
	}
	return false
}

// buildMetadataClause constructs parameterized conditions matching filter
// pairs against the jsonb metadata column. Keys are sorted so the clause
// is deterministic. Both keys and values are bound as parameters starting
// from startParamIndex. Returns the joined conditions (without a WHERE or
// leading AND) and the parameter values.
func buildMetadataClause(
	metadataColumn string,
	filter Filter,
	startParamIndex int,
) (string, []interface{}) {
	if len(filter) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	column := pgx.Identifier{metadataColumn}.Sanitize()
	conditions := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys)*2)
	paramIndex := startParamIndex

	for _, k := range keys {
		conditions = append(conditions,
			fmt.Sprintf("%s->>$%d = $%d", column, paramIndex, paramIndex+1))
		args = append(args, k, filter[k])
		paramIndex += 2
	}

	return strings.Join(conditions, " AND "), args
}
