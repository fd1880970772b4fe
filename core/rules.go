package core

import (
	"fmt"
	"time"
)

// Business rule thresholds: a customer is considered churned after 90 days
// without a purchase, extended by 30 days while in the renewal grace period.
const (
	baseChurnDays  = 90
	graceExtraDays = 30
)

// RuleResult is the deterministic "churned now" determination for one
// record. It is computed purely from the snapshot date and the grace flag
// and never consults the model output.
type RuleResult struct {
	DaysSince  int
	Threshold  int
	ChurnedNow int
	Reason     string
}

// EvaluateBusinessRule applies the recency/grace rule as of today. The
// snapshot date doubles as the customer's last purchase date; a missing or
// unparseable date yields zero days since purchase, so bad dates can never
// produce a false churn.
func EvaluateBusinessRule(asOfDate string, inGrace bool, today time.Time) RuleResult {
	days := 0
	if t0, err := time.Parse("2006-01-02", asOfDate); err == nil {
		y, m, d := today.Date()
		midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		days = int(midnight.Sub(t0).Hours() / 24)
		if days < 0 {
			days = 0
		}
	}

	threshold := baseChurnDays
	if inGrace {
		threshold += graceExtraDays
	}

	res := RuleResult{DaysSince: days, Threshold: threshold}
	if days >= threshold {
		res.ChurnedNow = 1
		if inGrace && threshold > baseChurnDays {
			res.Reason = fmt.Sprintf("No purchases for %d days; Grace period exceeded", days)
		} else {
			res.Reason = fmt.Sprintf("No purchases for %d days", days)
		}
		return res
	}

	switch {
	case inGrace && days < threshold:
		res.Reason = "In renewal grace period (extra 30 days)"
	case days < baseChurnDays:
		res.Reason = "Recent purchase within last 90 days"
	default:
		res.Reason = "Within adjusted threshold"
	}
	return res
}
