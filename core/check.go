package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/churnscope/internal/contract"
	"github.com/huangsam/churnscope/schema"
)

// ExecuteChurnCheck verifies that the record source is reachable and that
// the source table exposes every required feature column. It exits non-zero
// through the returned error, so the command is usable as a CI/CD gate
// before scheduling scoring runs.
func ExecuteChurnCheck(ctx context.Context, cfg *contract.Config, src contract.RecordSource) error {
	start := time.Now()

	info, err := src.Check(ctx)
	if err != nil {
		return fmt.Errorf("source connectivity check failed: %w", err)
	}

	fmt.Println("Source Check Results:")
	labels := []string{"Driver:", "Server:", "Database:", "Version:", "Table:"}
	values := []string{info.Driver, info.Server, info.Database, info.Version, cfg.SourceTable}
	maxLabelLen := 0
	for _, label := range labels {
		if len(label) > maxLabelLen {
			maxLabelLen = len(label)
		}
	}
	for i, label := range labels {
		fmt.Printf("  %-*s %s\n", maxLabelLen+1, label, values[i])
	}
	fmt.Println()

	// A single-row probe is enough to validate the column contract.
	rs, err := src.FetchRecords(ctx, contract.SourceQuery{
		Table:        cfg.SourceTable,
		TargetColumn: cfg.TargetColumn,
		Top:          1,
	})
	if err != nil {
		return fmt.Errorf("source table probe failed: %w", err)
	}

	if _, err := BuildMatrix(rs); err != nil {
		var schemaErr *SchemaError
		if errors.As(err, &schemaErr) {
			fmt.Printf("❌ Source table is missing %d required column(s):\n", len(schemaErr.Missing))
			for _, col := range schemaErr.Missing {
				fmt.Printf("  - %s\n", col)
			}
			return errors.New("source schema check failed")
		}
		return err
	}

	hasTarget := cfg.TargetColumn != "" && rs.HasColumn(cfg.TargetColumn)
	fmt.Printf("✅ All %d feature columns present\n", schema.NumFeatures())
	if hasTarget {
		fmt.Printf("✅ Target column %q present; runs will report actual churn\n", cfg.TargetColumn)
	} else {
		fmt.Printf("⚠️ No target column; runs will score in degraded no-label mode\n")
	}
	fmt.Printf("\nChecked source in %v\n", time.Since(start))
	return nil
}
