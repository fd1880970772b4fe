package dbsource

import (
	"context"
	"fmt"

	"github.com/huangsam/churnscope/schema"
)

// Execute runs the upstream refresh procedure synchronously. The gate calls
// this at most once per TTL window; all retry policy is the caller's.
func (s *Source) Execute(ctx context.Context, target schema.RefreshTarget) error {
	var stmt string
	switch s.backend {
	case schema.MySQLBackend:
		// MySQL procedures live in the database, not a separate schema.
		stmt = fmt.Sprintf("CALL %s()", target.Procedure)
	case schema.PostgreSQLBackend:
		stmt = fmt.Sprintf("CALL %s.%s()", target.Schema, target.Procedure)
	case schema.SQLiteBackend:
		return fmt.Errorf("sqlite has no stored procedures; use --skip-refresh for sqlite sources")
	default:
		return fmt.Errorf("unsupported backend for refresh: %s", s.backend)
	}

	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("refresh procedure %s.%s failed: %w", target.Schema, target.Procedure, err)
	}
	return nil
}
