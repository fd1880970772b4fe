// Package core has core logic for feature normalization, model training,
// prediction explanation and the business churn rule.
package core

import (
	"fmt"
	"strings"
)

// SchemaError reports required feature columns that are absent from the
// source result set. This is a caller contract violation, not a data-quality
// issue, and always aborts the scoring run.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required feature columns: %s", strings.Join(e.Missing, ", "))
}

// TrainingError reports a fatal problem while fitting the churn model.
type TrainingError struct {
	Reason string
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("cannot train churn model: %s", e.Reason)
}
