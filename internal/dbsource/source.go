package dbsource

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/churnscope/internal/contract"
	"github.com/huangsam/churnscope/schema"
)

// FetchRecords runs the source query and returns every matching row as a
// raw record. Cell values are passed through untyped; all feature coercion
// belongs to the engine.
func (s *Source) FetchRecords(ctx context.Context, q contract.SourceQuery) (*schema.RecordSet, error) {
	stmt := BuildQuery(q)
	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("source query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read source columns: %w", err)
	}

	rs := &schema.RecordSet{Columns: columns}
	cells := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range cells {
		ptrs[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		rec := schema.Record{Values: make(map[string]any, len(columns))}
		for i, col := range columns {
			v := cells[i]
			// []byte buffers are reused by some drivers between scans.
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			rec.Values[col] = v
			switch col {
			case schema.CustomerIDColumn:
				rec.CustomerID = toInt64(v)
			case schema.DateColumn:
				rec.AsOfDate = normalizeDate(v)
			}
		}
		rs.Records = append(rs.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("source row iteration failed: %w", err)
	}
	return rs, nil
}

// toInt64 reads a customer identifier from whatever type the driver chose.
func toInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n
	default:
		return 0
	}
}

// normalizeDate coerces a snapshot date cell to yyyy-mm-dd, or "" when the
// cell is NULL or unrecognizable. Drivers variously return time.Time values
// or textual timestamps.
func normalizeDate(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format("2006-01-02")
	case string:
		s := strings.TrimSpace(t)
		if len(s) >= 10 {
			if _, err := time.Parse("2006-01-02", s[:10]); err == nil {
				return s[:10]
			}
		}
		return ""
	default:
		return ""
	}
}
