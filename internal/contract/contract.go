// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/churnscope/schema"
)

// SourceQuery describes one fetch from the record source.
type SourceQuery struct {
	Table        string // source table or view name
	TargetColumn string // label column to include, "" to omit
	Top          int    // row limit, 0 means all rows
}

// ConnInfo is the result of a connectivity check.
type ConnInfo struct {
	Driver   string
	Server   string
	Database string
	Version  string
}

// RecordSource supplies scoring records. Implementations own all
// connectivity and retry concerns; the engine only sees record sets.
type RecordSource interface {
	// Check verifies connectivity and reports server details.
	Check(ctx context.Context) (*ConnInfo, error)

	// FetchRecords runs the source query and returns all matching rows.
	// No ordering is guaranteed; the engine deduplicates and sorts itself.
	FetchRecords(ctx context.Context, q SourceQuery) (*schema.RecordSet, error)
}

// RefreshExecutor runs the upstream data-refresh procedure. The refresh
// gate calls this synchronously and only advances its state when the
// executor reports success.
type RefreshExecutor interface {
	Execute(ctx context.Context, target schema.RefreshTarget) error
}

// ResultSink accepts scored rows for downstream export or storage.
type ResultSink interface {
	WritePredictions(ctx context.Context, rows []schema.Prediction) error
}
