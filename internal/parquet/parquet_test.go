package parquet

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/churnscope/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictionRowStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	pqSchema := parquet.SchemaOf(new(PredictionRow))
	require.NotNil(t, pqSchema)

	expectedColumns := []string{
		"customer_id",
		"as_of_date",
		"days_since_last_purchase",
		"business_churn_now",
		"business_churn_reason",
		"actual_churned_90d",
		"actual_churn_reason",
		"predicted_churn_90d",
		"predicted_probability",
		"predicted_probability_pct",
		"predicted_churn_reason",
		"created_on",
	}

	for _, colName := range expectedColumns {
		col, ok := pqSchema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

func TestConvertPredictions(t *testing.T) {
	rows := []schema.Prediction{
		{CustomerID: 1, HasActual: true, ActualChurned: 1, ActualWhy: "gone"},
		{CustomerID: 2},
	}

	converted := ConvertPredictions(rows)
	require.Len(t, converted, 2)

	require.NotNil(t, converted[0].ActualChurned)
	assert.Equal(t, int32(1), *converted[0].ActualChurned)
	require.NotNil(t, converted[0].ActualChurnReason)
	assert.Equal(t, "gone", *converted[0].ActualChurnReason)

	// Runs without a target column export NULL actuals, not zeros.
	assert.Nil(t, converted[1].ActualChurned)
	assert.Nil(t, converted[1].ActualChurnReason)
}

func TestWritePredictionsParquet(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "predictions.parquet")

	rows := []schema.Prediction{
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
			CreatedOn:         time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC),
		},
		{CustomerID: 102, AsOfDate: "2026-06-30", Probability: 0.12, ProbabilityPct: 12},
	}

	err := WritePredictionsParquet(rows, outputPath)
	require.NoError(t, err, "Writing Parquet file should not produce error")

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Parquet file should exist")
	assert.Positive(t, info.Size())

	// Read the rows back through the inferred schema.
	f, err := os.Open(outputPath)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	reader := parquet.NewGenericReader[PredictionRow](f)
	defer func() { _ = reader.Close() }()

	buf := make([]PredictionRow, 2)
	n, _ := reader.Read(buf)
	require.Equal(t, 2, n)

	assert.Equal(t, int64(101), buf[0].CustomerID)
	assert.Equal(t, 0.91, buf[0].PredictedProbability)
	require.NotNil(t, buf[0].ActualChurned)
	assert.Equal(t, int32(1), *buf[0].ActualChurned)
	assert.Nil(t, buf[1].ActualChurned)
}
