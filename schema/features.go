package schema

// FeatureSpec describes one model feature: its risk direction, the friendly
// label used in reason phrases, and how its raw value is formatted. Keeping
// everything in one table prevents the direction, label and formatting rules
// from drifting apart when a feature is added.
type FeatureSpec struct {
	Name      string
	Direction RiskDirection
	Label     string
	LowLabel  string // deficiency framing for LowRisk features; empty means Label
	Kind      ValueKind
	Signal    bool // model signal: render label only, no value suffix
	BoolFlag  bool // fixed phrase when truthy, suppressed entirely otherwise
	Bare      bool // render "{label} {value}" without parentheses
}

// featureCatalog is the fixed, ordered feature schema. The order and names
// are a contract with the source query and must not change between releases.
var featureCatalog = []FeatureSpec{
	{Name: "recency_days", Direction: HighRisk, Label: "No purchases for", Kind: DaysValue, Bare: true},
	{Name: "median_gap_days", Direction: HighRisk, Label: "Typical gap between purchases", Kind: DaysValue},
	{Name: "p90_gap_days", Direction: HighRisk, Label: "Long purchase gaps (90th percentile)", Kind: DaysValue},
	{Name: "cv_gap", Direction: HighRisk, Label: "Irregular buying cadence", Kind: NumberValue},
	{Name: "in_renewal_grace", Direction: HighRisk, Label: "In renewal grace period", Kind: NumberValue, BoolFlag: true},
	{Name: "rev_180d", Direction: LowRisk, Label: "Revenue in last 180 days", LowLabel: "Low recent revenue", Kind: MoneyValue},
	{Name: "rev_returns_90d", Direction: HighRisk, Label: "Returns value in last 90 days", Kind: MoneyValue},
	{Name: "invoices_90d", Direction: LowRisk, Label: "Invoices in last 90 days", LowLabel: "Few invoices in last 90 days", Kind: CountValue},
	{Name: "credit_notes_90d", Direction: HighRisk, Label: "Credit notes in last 90 days", Kind: CountValue},
	{Name: "orders_pos_30d", Direction: LowRisk, Label: "Positive order value in last 30 days", LowLabel: "Low positive order value (last 30 days)", Kind: MoneyValue},
	{Name: "orders_neg_30d", Direction: HighRisk, Label: "Negative order value in last 30 days", Kind: MoneyValue},
	{Name: "backorder_qty_30d", Direction: HighRisk, Label: "Backorder quantity in last 30 days", Kind: CountValue},
	{Name: "pct_change_3m", Direction: NegRisk, Label: "Change vs prior 3 months", Kind: PercentValue},
	{Name: "pct_change_6m", Direction: NegRisk, Label: "Change vs prior 6 months", Kind: PercentValue},
	{Name: "yoy_change_pct", Direction: NegRisk, Label: "Year-over-year change", Kind: PercentValue},
	{Name: "credit_notes_prev_month", Direction: HighRisk, Label: "Credit notes last month", Kind: CountValue},
	{Name: "invoices_pos_prev_month", Direction: LowRisk, Label: "Invoices last month", LowLabel: "Few invoices last month", Kind: CountValue},
	{Name: "credit_notes_ma3", Direction: HighRisk, Label: "Credit notes per month (3-month average)", Kind: MonthlyValue},
	{Name: "threshold_days", Direction: HighRisk, Label: "Days past expected purchase threshold", Kind: DaysValue},
	{Name: "is_maintenance_heavy", Direction: HighRisk, Label: "Maintenance-heavy profile", Kind: NumberValue, BoolFlag: true},
	{Name: "maint_cycle_days", Direction: HighRisk, Label: "Maintenance cycle length", Kind: DaysValue},
	{Name: "severity_score", Direction: HighRisk, Label: "Issue severity score", Kind: NumberValue},
	{Name: "lateness_component", Direction: HighRisk, Label: "Late purchase signal", Kind: NumberValue, Signal: true},
	{Name: "credits_component", Direction: HighRisk, Label: "Credits/returns signal", Kind: NumberValue, Signal: true},
	{Name: "trend_component", Direction: HighRisk, Label: "Negative trend signal", Kind: NumberValue, Signal: true},
	{Name: "mitigator_component", Direction: LowRisk, Label: "Mitigating signals", LowLabel: "Few mitigating signals", Kind: NumberValue, Signal: true},
}

// Features returns the fixed feature catalog in schema order.
func Features() []FeatureSpec {
	return featureCatalog
}

// NumFeatures is the width of the feature matrix.
func NumFeatures() int {
	return len(featureCatalog)
}

// FeatureNames returns the feature column names in schema order.
func FeatureNames() []string {
	names := make([]string, len(featureCatalog))
	for i, f := range featureCatalog {
		names[i] = f.Name
	}
	return names
}

// FeatureAt returns the feature spec at the given matrix column index.
func FeatureAt(i int) FeatureSpec {
	return featureCatalog[i]
}

// SpecFor looks up a feature spec by column name.
func SpecFor(name string) (FeatureSpec, bool) {
	for _, f := range featureCatalog {
		if f.Name == name {
			return f, true
		}
	}
	return FeatureSpec{}, false
}
