package core

import (
	"math"
	"testing"

	"github.com/huangsam/churnscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCoerceValue tests raw cell coercion across driver value types.
func TestCoerceValue(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected float64
		isNaN    bool
	}{
		{name: "nil", input: nil, isNaN: true},
		{name: "bool true", input: true, expected: 1},
		{name: "bool false", input: false, expected: 0},
		{name: "float64", input: 12.5, expected: 12.5},
		{name: "float32", input: float32(2), expected: 2},
		{name: "int", input: 7, expected: 7},
		{name: "int64", input: int64(-3), expected: -3},
		{name: "numeric string", input: "41.25", expected: 41.25},
		{name: "padded string", input: "  19 ", expected: 19},
		{name: "byte slice", input: []byte("0.5"), expected: 0.5},
		{name: "boolish true string", input: "TRUE", expected: 1},
		{name: "boolish false string", input: "false", expected: 0},
		{name: "empty string", input: "", isNaN: true},
		{name: "junk string", input: "n/a", isNaN: true},
		{name: "unsupported type", input: struct{}{}, isNaN: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoerceValue(tt.input)
			if tt.isNaN {
				assert.True(t, math.IsNaN(got))
			} else {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

// testRecordSet builds a record set with all feature columns populated from
// the given per-row value, plus customer metadata.
func testRecordSet(rows ...map[string]any) *schema.RecordSet {
	rs := &schema.RecordSet{
		Columns: append([]string{schema.CustomerIDColumn, schema.DateColumn}, schema.FeatureNames()...),
	}
	for i, overrides := range rows {
		values := make(map[string]any, schema.NumFeatures())
		for _, name := range schema.FeatureNames() {
			values[name] = 1.0
		}
		rec := schema.Record{CustomerID: int64(i + 1), AsOfDate: "2026-06-30", Values: values}
		for k, v := range overrides {
			switch k {
			case schema.CustomerIDColumn:
				rec.CustomerID = v.(int64)
			case schema.DateColumn:
				rec.AsOfDate = v.(string)
			default:
				values[k] = v
			}
		}
		rs.Records = append(rs.Records, rec)
	}
	return rs
}

// TestBuildMatrix verifies coercion into schema order and the missing-column check.
func TestBuildMatrix(t *testing.T) {
	t.Run("complete schema", func(t *testing.T) {
		rs := testRecordSet(
			map[string]any{"recency_days": int64(120), "rev_180d": "250.75"},
			map[string]any{"recency_days": nil},
		)
		matrix, err := BuildMatrix(rs)
		require.NoError(t, err)
		require.Len(t, matrix, 2)
		require.Len(t, matrix[0], schema.NumFeatures())

		assert.Equal(t, 120.0, matrix[0][0])
		assert.Equal(t, 250.75, matrix[0][5])
		assert.True(t, math.IsNaN(matrix[1][0]))
	})

	t.Run("missing columns", func(t *testing.T) {
		rs := testRecordSet(map[string]any{})
		rs.Columns = rs.Columns[:len(rs.Columns)-2] // drop the last two features

		_, err := BuildMatrix(rs)
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, []string{"trend_component", "mitigator_component"}, schemaErr.Missing)
		assert.Contains(t, schemaErr.Error(), "trend_component")
	})
}

// TestLabels verifies label extraction and the degraded no-target mode.
func TestLabels(t *testing.T) {
	rs := testRecordSet(
		map[string]any{},
		map[string]any{},
		map[string]any{},
	)
	rs.Columns = append(rs.Columns, "churned_hard90")
	rs.Records[0].Values["churned_hard90"] = int64(1)
	rs.Records[1].Values["churned_hard90"] = "0"
	rs.Records[2].Values["churned_hard90"] = nil

	t.Run("target present", func(t *testing.T) {
		labels, ok := Labels(rs, "churned_hard90")
		require.True(t, ok)
		assert.Equal(t, []int{1, 0, 0}, labels)
	})

	t.Run("target absent", func(t *testing.T) {
		labels, ok := Labels(rs, "no_such_column")
		assert.False(t, ok)
		assert.Nil(t, labels)
	})

	t.Run("empty target name", func(t *testing.T) {
		_, ok := Labels(rs, "")
		assert.False(t, ok)
	})
}

// TestGraceFlags verifies renewal-grace extraction with missing cells.
func TestGraceFlags(t *testing.T) {
	rs := testRecordSet(
		map[string]any{schema.GraceColumn: true},
		map[string]any{schema.GraceColumn: int64(0)},
		map[string]any{schema.GraceColumn: nil},
	)
	assert.Equal(t, []bool{true, false, false}, GraceFlags(rs))
}

// TestDeduplicateLatest verifies the latest-snapshot-per-customer rule.
func TestDeduplicateLatest(t *testing.T) {
	rs := testRecordSet(
		map[string]any{schema.CustomerIDColumn: int64(10), schema.DateColumn: "2026-05-31", "recency_days": 1.0},
		map[string]any{schema.CustomerIDColumn: int64(20), schema.DateColumn: "2026-06-30"},
		map[string]any{schema.CustomerIDColumn: int64(10), schema.DateColumn: "2026-06-30", "recency_days": 2.0},
		map[string]any{schema.CustomerIDColumn: int64(10), schema.DateColumn: "", "recency_days": 3.0},
		map[string]any{schema.CustomerIDColumn: int64(30), schema.DateColumn: "2026-06-30"},
	)

	out := DeduplicateLatest(rs)
	require.Len(t, out.Records, 3)

	// Customers keep first-appearance order; customer 10 resolves to its
	// latest real snapshot, not the empty-dated row.
	assert.Equal(t, int64(10), out.Records[0].CustomerID)
	assert.Equal(t, "2026-06-30", out.Records[0].AsOfDate)
	assert.Equal(t, 2.0, out.Records[0].Values["recency_days"])
	assert.Equal(t, int64(20), out.Records[1].CustomerID)
	assert.Equal(t, int64(30), out.Records[2].CustomerID)
}

// TestDeduplicateLatestTieKeepsLater ensures a date tie resolves to the later row.
func TestDeduplicateLatestTieKeepsLater(t *testing.T) {
	rs := testRecordSet(
		map[string]any{schema.CustomerIDColumn: int64(5), schema.DateColumn: "2026-06-30", "recency_days": 1.0},
		map[string]any{schema.CustomerIDColumn: int64(5), schema.DateColumn: "2026-06-30", "recency_days": 2.0},
	)
	out := DeduplicateLatest(rs)
	require.Len(t, out.Records, 1)
	assert.Equal(t, 2.0, out.Records[0].Values["recency_days"])
}

// TestFilterAsOf verifies snapshot date filtering.
func TestFilterAsOf(t *testing.T) {
	rs := testRecordSet(
		map[string]any{schema.CustomerIDColumn: int64(1), schema.DateColumn: "2026-05-31"},
		map[string]any{schema.CustomerIDColumn: int64(2), schema.DateColumn: "2026-06-30"},
	)
	out := FilterAsOf(rs, "2026-06-30")
	require.Len(t, out.Records, 1)
	assert.Equal(t, int64(2), out.Records[0].CustomerID)

	empty := FilterAsOf(rs, "2001-01-01")
	assert.Empty(t, empty.Records)
}
