package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/huangsam/churnscope/schema"
)

// CoerceValue converts a raw source cell into a float64 feature value.
// Booleans map to {0, 1} and anything that cannot be read as a number
// becomes NaN, the missing-value marker, rather than an error. Running it
// on an already-coerced float64 is a no-op.
func CoerceValue(v any) float64 {
	switch t := v.(type) {
	case nil:
		return math.NaN()
	case bool:
		if t {
			return 1
		}
		return 0
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case []byte:
		return parseNumeric(string(t))
	case string:
		return parseNumeric(t)
	default:
		return math.NaN()
	}
}

// parseNumeric parses a string cell, tolerating surrounding whitespace and
// boolean-ish text that some drivers return for bit columns.
func parseNumeric(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return 1
	case "false":
		return 0
	}
	return math.NaN()
}

// BuildMatrix coerces a record set into a rows x NumFeatures float64 matrix
// in schema order. It returns a SchemaError when any required feature column
// is absent from the result set. The input records are never mutated.
func BuildMatrix(rs *schema.RecordSet) ([][]float64, error) {
	var missing []string
	for _, name := range schema.FeatureNames() {
		if !rs.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	names := schema.FeatureNames()
	matrix := make([][]float64, len(rs.Records))
	for i, rec := range rs.Records {
		row := make([]float64, len(names))
		for j, name := range names {
			row[j] = CoerceValue(rec.Values[name])
		}
		matrix[i] = row
	}
	return matrix, nil
}

// Labels extracts the binary label column, coercing every cell to 0 or 1.
// Non-numeric and missing cells become 0. The second return value is false
// when the target column is absent, which puts the model into its degraded
// no-label mode.
func Labels(rs *schema.RecordSet, target string) ([]int, bool) {
	if target == "" || !rs.HasColumn(target) {
		return nil, false
	}
	labels := make([]int, len(rs.Records))
	for i, rec := range rs.Records {
		v := CoerceValue(rec.Values[target])
		if !math.IsNaN(v) && v != 0 {
			labels[i] = 1
		}
	}
	return labels, true
}

// GraceFlags extracts the renewal-grace boolean per record. Missing or
// non-numeric cells are treated as not-in-grace.
func GraceFlags(rs *schema.RecordSet) []bool {
	flags := make([]bool, len(rs.Records))
	for i, rec := range rs.Records {
		v := CoerceValue(rec.Values[schema.GraceColumn])
		flags[i] = !math.IsNaN(v) && v != 0
	}
	return flags
}

// DeduplicateLatest keeps one record per customer: the one with the latest
// non-empty snapshot date. Ties and empty dates resolve to the later record
// in input order. Customers keep their first-appearance order.
func DeduplicateLatest(rs *schema.RecordSet) *schema.RecordSet {
	best := make(map[int64]int)
	var order []int64
	for i, rec := range rs.Records {
		prev, seen := best[rec.CustomerID]
		if !seen {
			best[rec.CustomerID] = i
			order = append(order, rec.CustomerID)
			continue
		}
		// Snapshot dates are yyyy-mm-dd, so lexical order is date order.
		// An empty date never beats a real one.
		if rec.AsOfDate >= rs.Records[prev].AsOfDate {
			best[rec.CustomerID] = i
		}
	}
	out := &schema.RecordSet{Columns: rs.Columns}
	for _, id := range order {
		out.Records = append(out.Records, rs.Records[best[id]])
	}
	return out
}

// FilterAsOf keeps only records whose snapshot date equals asOf.
func FilterAsOf(rs *schema.RecordSet, asOf string) *schema.RecordSet {
	out := &schema.RecordSet{Columns: rs.Columns}
	for _, rec := range rs.Records {
		if rec.AsOfDate == asOf {
			out.Records = append(out.Records, rec)
		}
	}
	return out
}
