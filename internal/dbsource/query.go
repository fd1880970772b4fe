package dbsource

import (
	"fmt"
	"strings"

	"github.com/huangsam/churnscope/internal/contract"
	"github.com/huangsam/churnscope/schema"
)

// BuildQuery constructs the SELECT for one fetch: the customer identifier,
// the snapshot date (the t0 column aliased to as_of_date), the fixed feature
// columns in schema order, and optionally the label column. All identifiers
// are validated upstream, so plain interpolation is safe here.
func BuildQuery(q contract.SourceQuery) string {
	cols := []string{
		schema.CustomerIDColumn,
		"t0 AS " + schema.DateColumn,
	}
	cols = append(cols, schema.FeatureNames()...)
	if q.TargetColumn != "" {
		cols = append(cols, q.TargetColumn)
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), q.Table)
	if q.Top > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", q.Top)
	}
	return stmt
}
