// Package dbsource implements the record source and refresh executor on top
// of database/sql with pluggable sqlite, mysql and postgresql backends.
package dbsource

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/churnscope/internal/contract"
	"github.com/huangsam/churnscope/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Source reads scoring records from a SQL database.
type Source struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
	connStr    string
	server     string
	database   string
}

var _ contract.RecordSource = &Source{}   // Compile-time check
var _ contract.RefreshExecutor = &Source{} // Compile-time check

// New opens a record source for the given backend. The connection string
// format depends on the backend: a file path for sqlite, a DSN like
// user:password@tcp(host:port)/dbname for mysql, and key=value pairs for
// postgresql.
func New(cfg *contract.Config) (*Source, error) {
	var driverName string

	switch cfg.Backend {
	case schema.SQLiteBackend:
		driverName = "sqlite"
	case schema.MySQLBackend:
		driverName = "mysql"
	case schema.PostgreSQLBackend:
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("unsupported source backend: %s. Must be sqlite, mysql or postgresql", cfg.Backend)
	}

	db, err := sql.Open(driverName, cfg.DBConnect)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s source: %w", cfg.Backend, err)
	}
	if cfg.Backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	return &Source{
		db:         db,
		backend:    cfg.Backend,
		driverName: driverName,
		connStr:    cfg.DBConnect,
		server:     cfg.Server,
		database:   cfg.Database,
	}, nil
}

// Check verifies connectivity and reports server details.
func (s *Source) Check(ctx context.Context) (*contract.ConnInfo, error) {
	if err := s.db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", s.backend, err)
	}

	info := &contract.ConnInfo{
		Driver:   s.driverName,
		Server:   s.server,
		Database: s.database,
	}
	switch s.backend {
	case schema.SQLiteBackend:
		_ = s.db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&info.Version)
	case schema.MySQLBackend:
		_ = s.db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&info.Version)
	case schema.PostgreSQLBackend:
		_ = s.db.QueryRowContext(ctx, "SHOW server_version").Scan(&info.Version)
	}
	return info, nil
}

// DB exposes the underlying handle for tests and the integration suite.
func (s *Source) DB() *sql.DB {
	return s.db
}

// Close releases the underlying connection pool.
func (s *Source) Close() error {
	return s.db.Close()
}
