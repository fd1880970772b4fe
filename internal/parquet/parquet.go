// Package parquet exports scored churn predictions to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/churnscope/schema"
	"github.com/parquet-go/parquet-go"
)

// PredictionRow is the Parquet projection of one scored customer. Actual-label
// fields are nullable because a run without a target column has no actuals.
type PredictionRow struct {
	// CustomerID is the scored customer.
	CustomerID int64 `parquet:"customer_id,snappy"`

	// AsOfDate is the snapshot date the features describe (yyyy-mm-dd).
	AsOfDate string `parquet:"as_of_date,snappy"`

	// DaysSincePurchase counts from the snapshot date to the run date.
	DaysSincePurchase int32 `parquet:"days_since_last_purchase,snappy"`

	// BusinessChurnNow is the deterministic recency-rule verdict.
	BusinessChurnNow int32 `parquet:"business_churn_now,snappy"`

	// BusinessChurnReason explains the recency-rule verdict.
	BusinessChurnReason string `parquet:"business_churn_reason,snappy"`

	// ActualChurned is the observed label when a target column was present (nullable).
	ActualChurned *int32 `parquet:"actual_churned_90d,optional,snappy"`

	// ActualChurnReason explains the observed label (nullable).
	ActualChurnReason *string `parquet:"actual_churn_reason,optional,snappy"`

	// PredictedChurn is the thresholded model verdict.
	PredictedChurn int32 `parquet:"predicted_churn_90d,snappy"`

	// PredictedProbability is the raw model probability in [0, 1].
	PredictedProbability float64 `parquet:"predicted_probability,snappy"`

	// PredictedProbabilityPct is the probability scaled to percent.
	PredictedProbabilityPct float64 `parquet:"predicted_probability_pct,snappy"`

	// PredictedChurnReason explains the model verdict.
	PredictedChurnReason string `parquet:"predicted_churn_reason,snappy"`

	// CreatedOn is when the scoring run produced this row.
	CreatedOn time.Time `parquet:"created_on,snappy"`
}

// ConvertPredictions converts scored rows to their Parquet projection.
func ConvertPredictions(rows []schema.Prediction) []PredictionRow {
	result := make([]PredictionRow, len(rows))
	for i, p := range rows {
		row := PredictionRow{
			CustomerID:              p.CustomerID,
			AsOfDate:                p.AsOfDate,
			DaysSincePurchase:       int32(p.DaysSincePurchase),
			BusinessChurnNow:        int32(p.BusinessChurnNow),
			BusinessChurnReason:     p.BusinessWhy,
			PredictedChurn:          int32(p.PredictedChurn),
			PredictedProbability:    p.Probability,
			PredictedProbabilityPct: p.ProbabilityPct,
			PredictedChurnReason:    p.PredictedWhy,
			CreatedOn:               p.CreatedOn,
		}
		if p.HasActual {
			actual := int32(p.ActualChurned)
			reason := p.ActualWhy
			row.ActualChurned = &actual
			row.ActualChurnReason = &reason
		}
		result[i] = row
	}
	return result
}

// WritePredictionsParquet writes scored rows to a Parquet file. The schema is
// inferred from the PredictionRow struct tags.
func WritePredictionsParquet(rows []schema.Prediction, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[PredictionRow](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(ConvertPredictions(rows)); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}
