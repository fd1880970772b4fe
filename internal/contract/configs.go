package contract

import (
	"fmt"
	"time"

	"github.com/huangsam/churnscope/schema"
)

// Default values for configuration.
const (
	DefaultSourceTable  = "CustomerChurnCadence_v1"
	DefaultProcName     = "sp_build_customer_churn_cadence_v1"
	DefaultProcSchema   = "dbo"
	DefaultTTLHours     = 24
	DefaultPrecision    = 2
	DefaultStateFile    = ".churnscope_runs.json"
	DefaultServerName   = "local"
	DefaultDatabaseName = "main"
)

// Config holds the validated runtime configuration for one scoring run.
type Config struct {
	// Record source
	Backend   schema.DatabaseBackend
	DBConnect string
	Server    string // logical server name, part of the refresh gate key
	Database  string // logical database name, part of the refresh gate key

	// Query shape
	SourceTable  string
	TargetColumn string
	Top          int
	AsOf         string
	KeepAllRows  bool

	// Refresh gate
	ProcName     string
	ProcSchema   string
	TTL          time.Duration
	ForceRefresh bool
	SkipRefresh  bool
	StateFile    string

	// Output
	Output        schema.OutputMode
	OutputFile    string
	RawOutputFile string
	Headers       schema.HeaderStyle
	Precision     int
	Width         int
	Color         bool

	// Prediction store writeback
	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string
}

// Clone returns a copy of the config for per-request overrides.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// RefreshTarget derives the gate target from the configured source.
func (c *Config) RefreshTarget() schema.RefreshTarget {
	return schema.RefreshTarget{
		Server:    c.Server,
		Database:  c.Database,
		Schema:    c.ProcSchema,
		Procedure: c.ProcName,
	}
}

// ConfigRawInput holds the raw, unvalidated configuration from all sources
// (file, env, flags). Viper unmarshals into this struct.
type ConfigRawInput struct {
	Backend        string `mapstructure:"backend"`
	DBConnect      string `mapstructure:"db-connect"`
	Server         string `mapstructure:"server"`
	Database       string `mapstructure:"database"`
	SourceTable    string `mapstructure:"source-table"`
	TargetColumn   string `mapstructure:"target-col"`
	Top            int    `mapstructure:"top"`
	AsOf           string `mapstructure:"as-of"`
	KeepAllRows    bool   `mapstructure:"keep-all-rows"`
	ProcName       string `mapstructure:"proc-name"`
	ProcSchema     string `mapstructure:"proc-schema"`
	TTLHours       int    `mapstructure:"ttl-hours"`
	ForceRefresh   bool   `mapstructure:"force-refresh"`
	SkipRefresh    bool   `mapstructure:"skip-refresh"`
	StateFile      string `mapstructure:"state-file"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	RawOutputFile  string `mapstructure:"raw-output"`
	Headers        string `mapstructure:"headers"`
	Precision      int    `mapstructure:"precision"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
}

// ProcessAndValidate converts the raw input into a validated Config.
func ProcessAndValidate(cfg *Config, in *ConfigRawInput) error {
	backend, err := parseBackend(in.Backend, false)
	if err != nil {
		return fmt.Errorf("invalid backend: %w", err)
	}
	cfg.Backend = backend
	cfg.DBConnect = in.DBConnect

	cfg.Server = defaultString(in.Server, DefaultServerName)
	cfg.Database = defaultString(in.Database, DefaultDatabaseName)

	cfg.SourceTable = defaultString(in.SourceTable, DefaultSourceTable)
	if err := ValidateIdentifier(cfg.SourceTable); err != nil {
		return fmt.Errorf("invalid source table: %w", err)
	}
	cfg.TargetColumn = in.TargetColumn
	if cfg.TargetColumn != "" {
		if err := ValidateIdentifier(cfg.TargetColumn); err != nil {
			return fmt.Errorf("invalid target column: %w", err)
		}
	}

	if in.Top < 0 {
		return fmt.Errorf("top must be >= 0, got %d", in.Top)
	}
	cfg.Top = in.Top

	if in.AsOf != "" {
		if _, err := time.Parse("2006-01-02", in.AsOf); err != nil {
			return fmt.Errorf("as-of must be yyyy-mm-dd: %w", err)
		}
	}
	cfg.AsOf = in.AsOf
	cfg.KeepAllRows = in.KeepAllRows

	cfg.ProcName = defaultString(in.ProcName, DefaultProcName)
	cfg.ProcSchema = defaultString(in.ProcSchema, DefaultProcSchema)
	if err := ValidateIdentifier(cfg.ProcName); err != nil {
		return fmt.Errorf("invalid procedure name: %w", err)
	}
	if err := ValidateIdentifier(cfg.ProcSchema); err != nil {
		return fmt.Errorf("invalid procedure schema: %w", err)
	}

	ttlHours := in.TTLHours
	if ttlHours <= 0 {
		ttlHours = DefaultTTLHours
	}
	cfg.TTL = time.Duration(ttlHours) * time.Hour
	cfg.ForceRefresh = in.ForceRefresh
	cfg.SkipRefresh = in.SkipRefresh
	cfg.StateFile = defaultString(in.StateFile, DefaultStateFile)

	switch schema.OutputMode(in.Output) {
	case schema.TextOut, schema.CSVOut, schema.JSONOut, schema.ParquetOut:
		cfg.Output = schema.OutputMode(in.Output)
	case "":
		cfg.Output = schema.TextOut
	default:
		return fmt.Errorf("invalid output mode: %s (must be text, csv, json or parquet)", in.Output)
	}
	cfg.OutputFile = in.OutputFile
	cfg.RawOutputFile = in.RawOutputFile

	switch schema.HeaderStyle(in.Headers) {
	case schema.FriendlyHeaders, schema.TechnicalHeaders:
		cfg.Headers = schema.HeaderStyle(in.Headers)
	case "":
		cfg.Headers = schema.FriendlyHeaders
	default:
		return fmt.Errorf("invalid header style: %s (must be friendly or technical)", in.Headers)
	}

	if in.Precision < 0 || in.Precision > 10 {
		return fmt.Errorf("precision must be between 0 and 10, got %d", in.Precision)
	}
	cfg.Precision = in.Precision
	cfg.Width = in.Width
	cfg.Color = parseBoolish(in.Color, true)

	storeBackend, err := parseBackend(in.StoreBackend, true)
	if err != nil {
		return fmt.Errorf("invalid store backend: %w", err)
	}
	cfg.StoreBackend = storeBackend
	cfg.StoreDBConnect = in.StoreDBConnect

	return nil
}

// parseBackend validates a backend string. When allowNone is true an empty
// value maps to NoneBackend (feature disabled) instead of being an error.
func parseBackend(s string, allowNone bool) (schema.DatabaseBackend, error) {
	switch schema.DatabaseBackend(s) {
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
		return schema.DatabaseBackend(s), nil
	case schema.NoneBackend:
		if allowNone {
			return schema.NoneBackend, nil
		}
	case "":
		if allowNone {
			return schema.NoneBackend, nil
		}
		return schema.SQLiteBackend, nil
	}
	return "", fmt.Errorf("unsupported backend: %q (must be sqlite, mysql or postgresql)", s)
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// parseBoolish interprets yes/no style flag values the way the CLI has
// always accepted them.
func parseBoolish(s string, def bool) bool {
	switch s {
	case "yes", "true", "1", "y", "on":
		return true
	case "no", "false", "0", "n", "off":
		return false
	default:
		return def
	}
}
