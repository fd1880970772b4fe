// Package schema has configs, models and shared constants for all parts of churnscope.
package schema

import "time"

// Record is one (customer, snapshot date) row as returned by the record source.
// Values holds the raw cell for every column of the source result set, keyed by
// column name, without any type coercion applied.
type Record struct {
	CustomerID int64          // Customer identifier
	AsOfDate   string         // Snapshot date (yyyy-mm-dd), empty when NULL
	Values     map[string]any // Raw column values, including features and label
}

// RecordSet is the full result of one source query. Columns preserves the
// column order of the query so that required-feature checks can distinguish
// "column absent" (a caller contract violation) from "cell empty".
type RecordSet struct {
	Columns []string
	Records []Record
}

// HasColumn reports whether the record set contains the named column.
func (rs *RecordSet) HasColumn(name string) bool {
	for _, c := range rs.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Prediction is the scored output for a single customer.
type Prediction struct {
	CustomerID     int64   `json:"customer_id"`
	AsOfDate       string  `json:"as_of_date_t0"`
	PredictedChurn int     `json:"predicted_churn_90d"`
	Probability    float64 `json:"predicted_churn_probability_90d"`
	ProbabilityPct float64 `json:"predicted_churn_probability_90d_pct"`
	PredictedWhy   string  `json:"predicted_churn_reason_t0"`

	// Actual-label fields are only meaningful when HasActual is true.
	HasActual     bool   `json:"-"`
	ActualChurned int    `json:"actual_churned_90d,omitempty"`
	ActualWhy     string `json:"actual_churn_reason_t0,omitempty"`

	// Business-rule fields, independent of the model output.
	DaysSincePurchase int    `json:"days_since_last_purchase_today"`
	BusinessChurnNow  int    `json:"business_churn_now"`
	BusinessWhy       string `json:"business_churn_reason"`

	CreatedOn time.Time `json:"created_on"`
}

// GateOutcome reports what the refresh gate decided for one invocation.
type GateOutcome struct {
	Ran    bool
	Reason string
}

// RefreshTarget identifies one upstream refresh procedure. Two targets that
// differ only in case are the same target.
type RefreshTarget struct {
	Server    string
	Database  string
	Schema    string
	Procedure string
}
