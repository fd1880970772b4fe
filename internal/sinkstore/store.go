// Package sinkstore persists scored predictions to a database table with
// migrate-managed schema.
package sinkstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/churnscope/internal/contract"
	"github.com/huangsam/churnscope/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// PredictionsTable is the table the migrations create and the store writes.
const PredictionsTable = "customer_churn_predictions"

// Store writes prediction rows to a SQL database. A NoneBackend store is a
// no-op sink, so callers never need to branch on whether writeback is
// configured.
type Store struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.ResultSink = &Store{} // Compile-time check

// NewStore opens (and migrates) the prediction store for the given backend.
func NewStore(backend schema.DatabaseBackend, connStr string) (*Store, error) {
	if backend == schema.NoneBackend {
		return &Store{backend: backend}, nil
	}

	db, err := openBackend(backend, connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s prediction store: %w", backend, err)
	}

	if err := migrateUp(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate prediction store: %w", err)
	}

	return &Store{db: db, backend: backend}, nil
}

// openBackend opens a database handle for any supported backend.
func openBackend(backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	var driverName string
	switch backend {
	case schema.SQLiteBackend:
		driverName = "sqlite"
	case schema.MySQLBackend:
		driverName = "mysql"
	case schema.PostgreSQLBackend:
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", backend)
	}

	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s prediction store: %w", backend, err)
	}
	if backend == schema.SQLiteBackend {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// WritePredictions inserts all rows in a single transaction.
func (s *Store) WritePredictions(ctx context.Context, rows []schema.Prediction) error {
	if s.db == nil || len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin store transaction: %w", err)
	}

	stmt := s.placeholders(fmt.Sprintf(`
		INSERT INTO %s (
			customer_id, as_of_date, days_since_last_purchase,
			business_churn_now, business_churn_reason,
			actual_churned_90d, actual_churn_reason,
			predicted_churn_90d, predicted_probability, predicted_probability_pct,
			predicted_churn_reason, created_on
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, PredictionsTable))

	for _, row := range rows {
		var actual any
		var actualWhy any
		if row.HasActual {
			actual = row.ActualChurned
			actualWhy = row.ActualWhy
		}
		_, err := tx.ExecContext(ctx, stmt,
			row.CustomerID, row.AsOfDate, row.DaysSincePurchase,
			row.BusinessChurnNow, row.BusinessWhy,
			actual, actualWhy,
			row.PredictedChurn, row.Probability, row.ProbabilityPct,
			row.PredictedWhy, row.CreatedOn.UTC(),
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert prediction for customer %d: %w", row.CustomerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit predictions: %w", err)
	}
	return nil
}

// CountPredictions returns the number of stored rows, for status output.
func (s *Store) CountPredictions(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, nil
	}
	var n int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", PredictionsTable)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return n, nil
}

// placeholders rewrites ? markers to $n for PostgreSQL.
func (s *Store) placeholders(stmt string) string {
	if s.backend != schema.PostgreSQLBackend {
		return stmt
	}
	var b strings.Builder
	n := 0
	for _, r := range stmt {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
