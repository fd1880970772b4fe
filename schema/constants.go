package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the record
	// source and the prediction store.
	DatabaseBackend string

	// HeaderStyle represents the column header style for exports.
	HeaderStyle string

	// RiskDirection classifies which direction of a feature's raw value
	// increases churn risk.
	RiskDirection string

	// ValueKind selects how a feature's raw value is rendered in phrases.
	ValueKind string
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All header styles supported.
const (
	FriendlyHeaders  HeaderStyle = "friendly" // default
	TechnicalHeaders HeaderStyle = "technical"
)

// Risk directions.
const (
	HighRisk RiskDirection = "high" // larger raw value increases risk
	LowRisk  RiskDirection = "low"  // smaller raw value increases risk
	NegRisk  RiskDirection = "neg"  // negative raw value increases risk
)

// Value kinds.
const (
	DaysValue    ValueKind = "days"    // integer day count with "days" suffix
	CountValue   ValueKind = "count"   // thousands-grouped integer
	MonthlyValue ValueKind = "monthly" // two decimals with "per month" suffix
	PercentValue ValueKind = "percent" // signed one-decimal percent
	MoneyValue   ValueKind = "money"   // currency with thousands separators
	NumberValue  ValueKind = "number"  // nearest integer; exact half-integers keep two decimals
)

// Source columns that are contracts between the query and the engine.
const (
	CustomerIDColumn = "customer_id"
	DateColumn       = "as_of_date"
	GraceColumn      = "in_renewal_grace"
)

// DefaultTargetColumn is the label column used when none is configured.
const DefaultTargetColumn = "churned_hard90"

// Fixed fallback phrases for rows where no contributor qualifies.
const (
	PredictedFallbackReason = "elevated churn risk across multiple signals"
	ActualFallbackReason    = "observed churn within 90 days"
)
