package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/churnscope/internal/contract"
	"github.com/huangsam/churnscope/internal/parquet"
	"github.com/huangsam/churnscope/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WritePredictionResults outputs scored rows, dispatching on the configured
// output format. Rows are expected to arrive sorted highest risk first.
func WritePredictionResults(rows []schema.Prediction, hasActual bool, gate schema.GateOutcome, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writePredictionJSONResults(rows, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writePredictionCSVResults(rows, hasActual, cfg, fmtFloat, intFmt); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return fmt.Errorf("parquet output requires --output-file")
		}
		if err := parquet.WritePredictionsParquet(rows, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		fmt.Printf("💾 Wrote Parquet to %s\n", cfg.OutputFile)
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePredictionTable(rows, gate, cfg, fmtFloat, duration, w)
		}, "Wrote table")
	}
	return nil
}

// predictionHeader builds the CSV header for the configured style. Actual
// columns only appear when the run had a target column.
func predictionHeader(style schema.HeaderStyle, hasActual bool) []string {
	var header []string
	if style == schema.TechnicalHeaders {
		header = []string{
			"customer_id",
			"as_of_date_t0",
			"days_since_last_purchase_today",
			"business_churn_now",
			"business_churn_reason",
		}
		if hasActual {
			header = append(header, "actual_churned_90d", "actual_churn_reason_t0")
		}
		return append(header,
			"predicted_churn_90d",
			"predicted_churn_probability_90d",
			"predicted_churn_probability_90d_pct",
			"predicted_churn_reason_t0",
		)
	}
	header = []string{
		"Customer ID",
		"Snapshot Date",
		"Days Since Last Purchase",
		"Business Churn Now",
		"Business Churn Reason",
	}
	if hasActual {
		header = append(header, "Actual Churned (90d)", "Actual Churn Reason")
	}
	return append(header,
		"Predicted Churn (90d)",
		"Predicted Churn Probability",
		"Predicted Churn Probability %",
		"Predicted Churn Reason",
	)
}

// writePredictionCSVResults handles opening the file and calling the CSV writer.
func writePredictionCSVResults(rows []schema.Prediction, hasActual bool, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeCSVWithHeader(w, predictionHeader(cfg.Headers, hasActual), func(cw *csv.Writer) error {
			for _, p := range rows {
				rec := []string{
					strconv.FormatInt(p.CustomerID, 10),
					p.AsOfDate,
					fmt.Sprintf(intFmt, p.DaysSincePurchase),
					fmt.Sprintf(intFmt, p.BusinessChurnNow),
					p.BusinessWhy,
				}
				if hasActual {
					rec = append(rec, fmt.Sprintf(intFmt, p.ActualChurned), p.ActualWhy)
				}
				rec = append(rec,
					fmt.Sprintf(intFmt, p.PredictedChurn),
					fmtFloat(p.Probability),
					fmtFloat(p.ProbabilityPct),
					p.PredictedWhy,
				)
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
			return nil
		})
	}, "Wrote CSV")
}

// writePredictionJSONResults handles opening the file and calling the JSON writer.
func writePredictionJSONResults(rows []schema.Prediction, cfg *contract.Config) error {
	// Prepare the data structure for JSON with rank and label added
	type JSONPrediction struct {
		Rank  int    `json:"rank"`
		Label string `json:"label"`
		schema.Prediction
	}

	output := make([]JSONPrediction, len(rows))
	for i, p := range rows {
		output[i] = JSONPrediction{
			Rank:       i + 1,
			Label:      contract.GetPlainLabel(p.Probability),
			Prediction: p,
		}
	}

	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSON(w, output)
	}, "Wrote JSON")
}

// writePredictionTable generates and writes the human-readable table.
func writePredictionTable(rows []schema.Prediction, gate schema.GateOutcome, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	headers := []string{"Rank", "Customer", "Snapshot", "Prob %", "Label", "Model", "Rule", "Reason"}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	label := contract.GetColorLabel
	if !cfg.Color {
		label = contract.GetPlainLabel
	}

	reasonWidth := getMaxReasonWidth(cfg)
	var data [][]string
	for i, p := range rows {
		reason := p.PredictedWhy
		if reason == "" {
			reason = p.BusinessWhy
		}
		row := []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(p.CustomerID, 10),
			p.AsOfDate,
			fmtFloat(p.ProbabilityPct),
			label(p.Probability),
			strconv.Itoa(p.PredictedChurn),
			strconv.Itoa(p.BusinessChurnNow),
			truncateReason(reason, reasonWidth),
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	// Compute summary stats
	modelChurns := 0
	ruleChurns := 0
	for _, p := range rows {
		modelChurns += p.PredictedChurn
		ruleChurns += p.BusinessChurnNow
	}
	if _, err := fmt.Fprintf(writer, "Scored %d customers (model churn: %d, rule churn: %d)\n", len(rows), modelChurns, ruleChurns); err != nil {
		return err
	}
	refresh := "skipped"
	if gate.Reason != "" {
		refresh = gate.Reason
		if gate.Ran {
			refresh = "ran (" + gate.Reason + ")"
		}
	}
	if _, err := fmt.Fprintf(writer, "Scoring completed in %v. Refresh: %s\n", duration, refresh); err != nil {
		return err
	}
	return nil
}

// WriteRawRecords exports the post-filter source records as CSV, preserving
// the source column order. It is a debugging aid for comparing model inputs
// against the upstream table.
func WriteRawRecords(rs *schema.RecordSet, outputFile string) error {
	return writeWithFile(outputFile, func(w io.Writer) error {
		return writeCSVWithHeader(w, rs.Columns, func(cw *csv.Writer) error {
			for _, rec := range rs.Records {
				row := make([]string, len(rs.Columns))
				for i, col := range rs.Columns {
					row[i] = renderCell(rec.Values[col])
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
			return nil
		})
	}, "Wrote raw records")
}

// renderCell formats a raw source cell for CSV export.
func renderCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return fmt.Sprint(t)
	}
}
