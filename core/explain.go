package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/huangsam/churnscope/schema"
)

// maxPhrases caps how many contributors a single reason names.
const maxPhrases = 3

// backgroundCap bounds the attribution background sample for tractability.
const backgroundCap = 512

// Explanation is the per-row outcome of the explainer: either a list of
// phrases or an explicit degraded marker. Degradation is a normal outcome
// here, never an error that propagates.
type Explanation struct {
	Phrases  []string
	Degraded bool
}

// Reason renders the explanation as a single string, substituting the given
// fallback when the row degraded or no contributor qualified.
func (e Explanation) Reason(fallback string) string {
	if e.Degraded || len(e.Phrases) == 0 {
		return fallback
	}
	return strings.Join(e.Phrases, "; ")
}

// Explainer decomposes each row's prediction into per-feature signed
// contributions and renders the dominant ones as phrases. Attribution is
// additive in the model margin space, computed against a bounded background
// sample; when that is unavailable it falls back to weight x standardized
// value. Explanation is best-effort decoration: it never affects the
// prediction itself.
type Explainer struct {
	model    *Model
	raw      [][]float64
	z        [][]float64
	baseline []float64
}

// NewExplainer prepares attribution state for the given fitted model and the
// raw feature matrix it scored. An unfitted model yields an explainer whose
// rows all degrade.
func NewExplainer(m *Model, matrix [][]float64) *Explainer {
	ex := &Explainer{model: m, raw: matrix}
	if !m.Fitted() {
		return ex
	}
	ex.z = m.Transform(matrix)
	ex.baseline = backgroundMean(ex.z)
	return ex
}

// backgroundMean returns the per-feature mean of the background sample. When
// the population exceeds the cap it is subsampled with a deterministic
// stride, so repeated runs attribute identically.
func backgroundMean(z [][]float64) []float64 {
	if len(z) == 0 {
		return nil
	}
	step := 1
	if len(z) > backgroundCap {
		step = (len(z) + backgroundCap - 1) / backgroundCap
	}
	mean := make([]float64, len(z[0]))
	count := 0
	for i := 0; i < len(z); i += step {
		for j, v := range z[i] {
			mean[j] += v
		}
		count++
	}
	for j := range mean {
		mean[j] /= float64(count)
	}
	return mean
}

// contributions returns the signed per-feature contribution vector for row i,
// or nil when attribution is unavailable.
func (ex *Explainer) contributions(i int) []float64 {
	if !ex.model.Fitted() || i < 0 || i >= len(ex.z) {
		return nil
	}
	w := ex.model.Weights()
	contrib := make([]float64, len(w))
	for j := range w {
		if ex.baseline != nil {
			contrib[j] = w[j] * (ex.z[i][j] - ex.baseline[j])
		} else {
			contrib[j] = w[j] * ex.z[i][j]
		}
	}
	return contrib
}

// ExplainRow builds the reason phrases for row i. For churn rows
// (positiveOnly) contributors are ranked by signed value and only strictly
// positive, risk-increasing ones qualify; otherwise ranking is by absolute
// magnitude, since either direction is informative for a non-churn call.
func (ex *Explainer) ExplainRow(i int, positiveOnly bool) Explanation {
	contrib := ex.contributions(i)
	if contrib == nil {
		return Explanation{Degraded: true}
	}

	order := make([]int, len(contrib))
	for j := range order {
		order[j] = j
	}
	if positiveOnly {
		sort.SliceStable(order, func(a, b int) bool {
			return contrib[order[a]] > contrib[order[b]]
		})
	} else {
		sort.SliceStable(order, func(a, b int) bool {
			return math.Abs(contrib[order[a]]) > math.Abs(contrib[order[b]])
		})
	}

	var phrases []string
	for _, j := range order {
		if len(phrases) >= maxPhrases {
			break
		}
		if positiveOnly && contrib[j] <= 0 {
			continue
		}
		phrase := describe(schema.FeatureAt(j), ex.raw[i][j], ex.z[i][j])
		if phrase != "" {
			phrases = append(phrases, phrase)
		}
	}
	return Explanation{Phrases: phrases}
}

// describe renders one feature as a phrase, or "" when the feature does not
// qualify for this row. The standardized value z decides whether a high/low
// direction feature is actually elevated/depressed for the row; the raw
// value is what gets formatted into the phrase.
func describe(spec schema.FeatureSpec, raw, z float64) string {
	if spec.BoolFlag {
		if !math.IsNaN(raw) && raw != 0 {
			return spec.Label
		}
		return ""
	}

	val := FormatValue(spec.Kind, raw)

	switch spec.Direction {
	case schema.NegRisk:
		if !math.IsNaN(raw) && raw < 0 {
			return fmt.Sprintf("%s (%s)", spec.Label, val)
		}
		return ""

	case schema.HighRisk:
		if z <= 0 {
			return ""
		}
		if spec.Signal {
			return spec.Label
		}
		if spec.Bare {
			return strings.TrimSpace(spec.Label + " " + val)
		}
		if val == "" {
			return spec.Label
		}
		return fmt.Sprintf("%s (%s)", spec.Label, val)

	case schema.LowRisk:
		if z >= 0 {
			return ""
		}
		base := spec.LowLabel
		if base == "" {
			base = spec.Label
		}
		if spec.Signal || val == "" {
			return base
		}
		return fmt.Sprintf("%s (%s)", base, val)
	}
	return fmt.Sprintf("%s (%s)", spec.Label, val)
}

// FormatValue renders a raw feature value according to its kind. NaN always
// renders as the empty string so missing values drop out of phrases.
func FormatValue(kind schema.ValueKind, v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	switch kind {
	case schema.DaysValue:
		return fmt.Sprintf("%d days", int64(math.Round(v)))
	case schema.CountValue:
		return groupInt(int64(math.Round(v)))
	case schema.MonthlyValue:
		return fmt.Sprintf("%.2f per month", v)
	case schema.PercentValue:
		return fmt.Sprintf("%+.1f%%", v)
	case schema.MoneyValue:
		if v < 0 {
			return "-$" + groupFixed(-v)
		}
		return "$" + groupFixed(v)
	default:
		if math.Abs(v-math.Round(v)) < 0.5 {
			return groupInt(int64(math.Round(v)))
		}
		return groupFixed(v)
	}
}

// groupInt formats an integer with thousands separators.
func groupInt(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// groupFixed formats a non-negative value with two decimals and thousands
// separators in the integer part.
func groupFixed(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	dot := strings.IndexByte(s, '.')
	whole, frac := s[:dot], s[dot:]
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return s
	}
	return groupInt(n) + frac
}
