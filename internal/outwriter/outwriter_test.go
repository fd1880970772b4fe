package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/churnscope/internal/contract"
	"github.com/huangsam/churnscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePredictions() []schema.Prediction {
	created := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	return []schema.Prediction{
		{
			CustomerID:        101,
			AsOfDate:          "2026-06-30",
			PredictedChurn:    1,
			Probability:       0.91,
			ProbabilityPct:    91,
			PredictedWhy:      "No purchases for 120 days",
			HasActual:         true,
			ActualChurned:     1,
			ActualWhy:         "No purchases for 120 days",
			DaysSincePurchase: 120,
			BusinessChurnNow:  1,
			BusinessWhy:       "No purchases for 120 days",
			CreatedOn:         created,
		},
		{
			CustomerID:     102,
			AsOfDate:       "2026-06-30",
			Probability:    0.12,
			ProbabilityPct: 12,
			HasActual:      true,
			BusinessWhy:    "Recent purchase within last 90 days",
			CreatedOn:      created,
		},
	}
}

// TestPredictionHeader checks both header styles with and without actuals.
func TestPredictionHeader(t *testing.T) {
	t.Run("friendly without actual", func(t *testing.T) {
		header := predictionHeader(schema.FriendlyHeaders, false)
		assert.Len(t, header, 9)
		assert.Equal(t, "Customer ID", header[0])
		assert.NotContains(t, header, "Actual Churned (90d)")
		assert.Equal(t, "Predicted Churn Reason", header[len(header)-1])
	})

	t.Run("friendly with actual", func(t *testing.T) {
		header := predictionHeader(schema.FriendlyHeaders, true)
		assert.Len(t, header, 11)
		assert.Equal(t, "Actual Churned (90d)", header[5])
		assert.Equal(t, "Actual Churn Reason", header[6])
	})

	t.Run("technical with actual", func(t *testing.T) {
		header := predictionHeader(schema.TechnicalHeaders, true)
		assert.Len(t, header, 11)
		assert.Equal(t, "customer_id", header[0])
		assert.Equal(t, "as_of_date_t0", header[1])
		assert.Equal(t, "actual_churned_90d", header[5])
		assert.Equal(t, "predicted_churn_reason_t0", header[len(header)-1])
	})
}

// TestWritePredictionCSV writes a CSV file and reads it back.
func TestWritePredictionCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	cfg := &contract.Config{
		Output:     schema.CSVOut,
		OutputFile: path,
		Headers:    schema.TechnicalHeaders,
		Precision:  2,
	}

	err := WritePredictionResults(samplePredictions(), true, schema.GateOutcome{}, cfg, time.Second)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, predictionHeader(schema.TechnicalHeaders, true), records[0])
	assert.Equal(t, "101", records[1][0])
	assert.Equal(t, "0.91", records[1][8])
	assert.Equal(t, "91.00", records[1][9])
	assert.Equal(t, "No purchases for 120 days", records[1][10])
}

// TestWritePredictionJSON writes JSON and checks rank and label decoration.
func TestWritePredictionJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	cfg := &contract.Config{
		Output:     schema.JSONOut,
		OutputFile: path,
		Precision:  2,
	}

	err := WritePredictionResults(samplePredictions(), true, schema.GateOutcome{}, cfg, time.Second)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)

	assert.Equal(t, float64(1), decoded[0]["rank"])
	assert.Equal(t, contract.CriticalValue, decoded[0]["label"])
	assert.Equal(t, float64(101), decoded[0]["customer_id"])
	assert.Equal(t, float64(2), decoded[1]["rank"])
	assert.Equal(t, contract.LowValue, decoded[1]["label"])
}

// TestWritePredictionTable renders the text table to a file.
func TestWritePredictionTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	cfg := &contract.Config{
		Output:     schema.TextOut,
		OutputFile: path,
		Precision:  2,
		Width:      160,
	}
	gate := schema.GateOutcome{Ran: true, Reason: "ttl expired"}

	err := WritePredictionResults(samplePredictions(), true, gate, cfg, time.Second)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "101")
	assert.Contains(t, text, "No purchases for 120 days")
	assert.Contains(t, text, "Scored 2 customers (model churn: 1, rule churn: 1)")
	assert.Contains(t, text, "ran (ttl expired)")
}

// TestWriteParquetRequiresFile documents the parquet output constraint.
func TestWriteParquetRequiresFile(t *testing.T) {
	cfg := &contract.Config{Output: schema.ParquetOut}
	err := WritePredictionResults(samplePredictions(), true, schema.GateOutcome{}, cfg, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output-file")
}

// TestWriteRawRecords exports fetched rows preserving source column order.
func TestWriteRawRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	rs := &schema.RecordSet{
		Columns: []string{"customer_id", "as_of_date", "rev_180d", "note"},
		Records: []schema.Record{
			{
				CustomerID: 7,
				AsOfDate:   "2026-06-30",
				Values: map[string]any{
					"customer_id": int64(7),
					"as_of_date":  "2026-06-30",
					"rev_180d":    1250.5,
					"note":        nil,
				},
			},
		},
	}

	require.NoError(t, WriteRawRecords(rs, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, rs.Columns, records[0])
	assert.Equal(t, []string{"7", "2026-06-30", "1250.5", ""}, records[1])
}

// TestRenderCell tests raw cell rendering across driver types.
func TestRenderCell(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{name: "nil", input: nil, expected: ""},
		{name: "bytes", input: []byte("abc"), expected: "abc"},
		{name: "float", input: 1250.5, expected: "1250.5"},
		{name: "time", input: time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC), expected: "2026-06-30"},
		{name: "int64", input: int64(9), expected: "9"},
		{name: "string", input: "x", expected: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderCell(tt.input))
		})
	}
}

// TestTruncateReason tests ellipsis truncation.
func TestTruncateReason(t *testing.T) {
	assert.Equal(t, "short", truncateReason("short", 20))
	assert.Equal(t, "exact", truncateReason("exact", 5))
	assert.Equal(t, "this is a lo...", truncateReason("this is a long reason", 15))
	assert.Equal(t, "ab", truncateReason("abcdef", 2))
}

// TestGetMaxReasonWidth tests the width override and clamping.
func TestGetMaxReasonWidth(t *testing.T) {
	assert.Equal(t, 20, getMaxReasonWidth(&contract.Config{Width: 60}))
	assert.Equal(t, 42, getMaxReasonWidth(&contract.Config{Width: 100}))
	assert.Equal(t, 90, getMaxReasonWidth(&contract.Config{Width: 500}))
}
