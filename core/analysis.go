package core

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/huangsam/churnscope/internal/contract"
	"github.com/huangsam/churnscope/internal/outwriter"
	"github.com/huangsam/churnscope/internal/spgate"
	"github.com/huangsam/churnscope/schema"
)

// ScoreOutput bundles everything a single scoring run produced.
type ScoreOutput struct {
	Predictions []schema.Prediction
	Records     *schema.RecordSet // post-filter records, for raw export
	Gate        schema.GateOutcome
	FetchedRows int
	HasActual   bool // target column was present and the model trained on it
}

// ExecuteChurnScore runs the scoring pipeline end to end and writes results.
// It serves as the main entry point for the 'score' command. A failed store
// writeback is a warning rather than an abort: at that point the scores are
// already computed and still worth printing.
func ExecuteChurnScore(ctx context.Context, cfg *contract.Config, src contract.RecordSource, exec contract.RefreshExecutor, sink contract.ResultSink) error {
	start := time.Now()
	out, err := RunScoring(ctx, cfg, src, exec, time.Now())
	if err != nil {
		return err
	}

	if cfg.RawOutputFile != "" {
		if err := outwriter.WriteRawRecords(out.Records, cfg.RawOutputFile); err != nil {
			return fmt.Errorf("error writing raw records: %w", err)
		}
	}

	if sink != nil {
		if err := sink.WritePredictions(ctx, out.Predictions); err != nil {
			contract.LogWarn("Cannot write predictions to store", err)
		}
	}

	return outwriter.WritePredictionResults(out.Predictions, out.HasActual, out.Gate, cfg, time.Since(start))
}

// RunRefreshGate applies the data-refresh gate for the configured target.
// State is loaded from and saved back to cfg.StateFile around the decision;
// a state-save failure is reported as a warning rather than failing the run,
// since at that point the refresh itself already succeeded.
func RunRefreshGate(ctx context.Context, cfg *contract.Config, exec contract.RefreshExecutor, now time.Time) (schema.GateOutcome, error) {
	if cfg.SkipRefresh {
		return schema.GateOutcome{Ran: false, Reason: "skipped"}, nil
	}

	st := spgate.Load(cfg.StateFile)
	outcome, err := spgate.MaybeRun(ctx, st, cfg.RefreshTarget(), exec, spgate.Policy{TTL: cfg.TTL}, cfg.ForceRefresh, now)
	if err != nil {
		return schema.GateOutcome{}, err
	}
	if outcome.Ran {
		if err := st.Save(cfg.StateFile); err != nil {
			contract.LogWarn("Cannot persist refresh state", err)
		}
	}
	return outcome, nil
}

// ScoreRecordSet runs the full scoring pipeline over an already-fetched
// record set: snapshot filtering, deduplication, model fit and prediction,
// per-row explanation and the business recency rule. The result is sorted
// highest churn probability first.
func ScoreRecordSet(rs *schema.RecordSet, cfg *contract.Config, now time.Time) (*ScoreOutput, error) {
	out := &ScoreOutput{FetchedRows: len(rs.Records)}

	if cfg.AsOf != "" {
		rs = FilterAsOf(rs, cfg.AsOf)
	}
	if !cfg.KeepAllRows {
		rs = DeduplicateLatest(rs)
	}
	out.Records = rs

	matrix, err := BuildMatrix(rs)
	if err != nil {
		return nil, err
	}

	labels, hasActual := Labels(rs, cfg.TargetColumn)
	model := NewModel()
	preds, probs, err := model.FitPredict(matrix, labels)
	if err != nil {
		return nil, err
	}
	out.HasActual = hasActual

	explainer := NewExplainer(model, matrix)
	grace := GraceFlags(rs)
	createdOn := now.UTC()

	out.Predictions = make([]schema.Prediction, len(rs.Records))
	for i, rec := range rs.Records {
		expl := explainer.ExplainRow(i, preds[i] == 1)
		predictedWhy := expl.Reason("")
		if preds[i] == 1 {
			predictedWhy = expl.Reason(schema.PredictedFallbackReason)
		}

		rule := EvaluateBusinessRule(rec.AsOfDate, grace[i], now)

		p := schema.Prediction{
			CustomerID:        rec.CustomerID,
			AsOfDate:          rec.AsOfDate,
			PredictedChurn:    preds[i],
			Probability:       probs[i],
			ProbabilityPct:    math.Round(probs[i]*10000) / 100,
			PredictedWhy:      predictedWhy,
			HasActual:         hasActual,
			DaysSincePurchase: rule.DaysSince,
			BusinessChurnNow:  rule.ChurnedNow,
			BusinessWhy:       rule.Reason,
			CreatedOn:         createdOn,
		}
		if hasActual {
			p.ActualChurned = labels[i]
			if labels[i] == 1 {
				p.ActualWhy = explainer.ExplainRow(i, true).Reason(schema.ActualFallbackReason)
			}
		}
		out.Predictions[i] = p
	}

	sort.SliceStable(out.Predictions, func(a, b int) bool {
		if out.Predictions[a].Probability != out.Predictions[b].Probability {
			return out.Predictions[a].Probability > out.Predictions[b].Probability
		}
		return out.Predictions[a].CustomerID < out.Predictions[b].CustomerID
	})

	return out, nil
}

// RunScoring performs the gate-then-fetch-then-score sequence against a live
// record source. It is the common core behind the score command and the MCP
// scoring tool.
func RunScoring(ctx context.Context, cfg *contract.Config, src contract.RecordSource, exec contract.RefreshExecutor, now time.Time) (*ScoreOutput, error) {
	gate, err := RunRefreshGate(ctx, cfg, exec, now)
	if err != nil {
		return nil, err
	}

	rs, err := src.FetchRecords(ctx, contract.SourceQuery{
		Table:        cfg.SourceTable,
		TargetColumn: cfg.TargetColumn,
		Top:          cfg.Top,
	})
	if err != nil {
		return nil, err
	}

	out, err := ScoreRecordSet(rs, cfg, now)
	if err != nil {
		return nil, err
	}
	out.Gate = gate
	return out, nil
}
