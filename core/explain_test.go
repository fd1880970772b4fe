package core

import (
	"math"
	"testing"

	"github.com/huangsam/churnscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFormatValue tests value rendering for every kind.
func TestFormatValue(t *testing.T) {
	tests := []struct {
		name     string
		kind     schema.ValueKind
		value    float64
		expected string
	}{
		{name: "days", kind: schema.DaysValue, value: 132.4, expected: "132 days"},
		{name: "count small", kind: schema.CountValue, value: 7, expected: "7"},
		{name: "count grouped", kind: schema.CountValue, value: 1234567, expected: "1,234,567"},
		{name: "monthly", kind: schema.MonthlyValue, value: 2.5, expected: "2.50 per month"},
		{name: "percent positive", kind: schema.PercentValue, value: 12.34, expected: "+12.3%"},
		{name: "percent negative", kind: schema.PercentValue, value: -45.67, expected: "-45.7%"},
		{name: "money", kind: schema.MoneyValue, value: 1234.5, expected: "$1,234.50"},
		{name: "money negative", kind: schema.MoneyValue, value: -99.99, expected: "-$99.99"},
		{name: "number integral", kind: schema.NumberValue, value: 42, expected: "42"},
		{name: "number rounds down", kind: schema.NumberValue, value: 3.4, expected: "3"},
		{name: "number rounds up", kind: schema.NumberValue, value: 0.875, expected: "1"},
		{name: "number half-integer", kind: schema.NumberValue, value: 1.5, expected: "1.50"},
		{name: "number negative half", kind: schema.NumberValue, value: -2.5, expected: "-2.50"},
		{name: "nan", kind: schema.MoneyValue, value: math.NaN(), expected: ""},
		{name: "inf", kind: schema.CountValue, value: math.Inf(1), expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatValue(tt.kind, tt.value))
		})
	}
}

// TestDescribe covers the phrase rendering rules per feature shape.
func TestDescribe(t *testing.T) {
	mustSpec := func(name string) schema.FeatureSpec {
		spec, ok := schema.SpecFor(name)
		require.True(t, ok)
		return spec
	}

	tests := []struct {
		name     string
		spec     schema.FeatureSpec
		raw      float64
		z        float64
		expected string
	}{
		{
			name:     "bare recency renders without parentheses",
			spec:     mustSpec("recency_days"),
			raw:      132,
			z:        1.5,
			expected: "No purchases for 132 days",
		},
		{
			name:     "high direction suppressed below average",
			spec:     mustSpec("median_gap_days"),
			raw:      10,
			z:        -0.5,
			expected: "",
		},
		{
			name:     "high direction with value",
			spec:     mustSpec("rev_returns_90d"),
			raw:      500,
			z:        2.0,
			expected: "Returns value in last 90 days ($500.00)",
		},
		{
			name:     "bool flag truthy",
			spec:     mustSpec("in_renewal_grace"),
			raw:      1,
			z:        3.0,
			expected: "In renewal grace period",
		},
		{
			name:     "bool flag falsy suppressed",
			spec:     mustSpec("in_renewal_grace"),
			raw:      0,
			z:        3.0,
			expected: "",
		},
		{
			name:     "neg direction with negative raw",
			spec:     mustSpec("pct_change_3m"),
			raw:      -32.5,
			z:        -1.0,
			expected: "Change vs prior 3 months (-32.5%)",
		},
		{
			name:     "neg direction with positive raw suppressed",
			spec:     mustSpec("pct_change_3m"),
			raw:      8.0,
			z:        1.0,
			expected: "",
		},
		{
			name:     "low direction below average uses low label",
			spec:     mustSpec("invoices_90d"),
			raw:      1,
			z:        -1.2,
			expected: "Few invoices in last 90 days (1)",
		},
		{
			name:     "low direction above average suppressed",
			spec:     mustSpec("invoices_90d"),
			raw:      40,
			z:        0.8,
			expected: "",
		},
		{
			name:     "signal feature renders label only",
			spec:     mustSpec("lateness_component"),
			raw:      0.7,
			z:        1.9,
			expected: "Late purchase signal",
		},
		{
			name:     "low signal feature renders low label only",
			spec:     mustSpec("mitigator_component"),
			raw:      0.1,
			z:        -1.9,
			expected: "Few mitigating signals",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, describe(tt.spec, tt.raw, tt.z))
		})
	}
}

// TestExplanationReason verifies fallback substitution.
func TestExplanationReason(t *testing.T) {
	t.Run("phrases joined", func(t *testing.T) {
		e := Explanation{Phrases: []string{"a", "b"}}
		assert.Equal(t, "a; b", e.Reason("fallback"))
	})
	t.Run("degraded uses fallback", func(t *testing.T) {
		e := Explanation{Degraded: true}
		assert.Equal(t, "fallback", e.Reason("fallback"))
	})
	t.Run("empty phrases use fallback", func(t *testing.T) {
		e := Explanation{}
		assert.Equal(t, "fallback", e.Reason("fallback"))
	})
}

// TestExplainRowUnfittedModel ensures every row degrades without a trained model.
func TestExplainRowUnfittedModel(t *testing.T) {
	matrix := [][]float64{{1, 2}, {3, 4}}
	ex := NewExplainer(NewModel(), matrix)

	for i := range matrix {
		expl := ex.ExplainRow(i, true)
		assert.True(t, expl.Degraded)
		assert.Empty(t, expl.Phrases)
	}
}

// TestExplainRowPhraseCapAndOrder checks the ranked phrase list on a fitted model.
func TestExplainRowPhraseCapAndOrder(t *testing.T) {
	// Build a full-width matrix so feature specs line up with columns.
	n := schema.NumFeatures()
	matrix := make([][]float64, 8)
	labels := make([]int, 8)
	for i := range matrix {
		row := make([]float64, n)
		for j := range row {
			row[j] = float64((i*7+j)%5) + 1
		}
		// Make recency_days strongly separate the classes.
		if i%2 == 0 {
			row[0] = 200 + float64(i)
			labels[i] = 1
		} else {
			row[0] = 5 + float64(i)
		}
		matrix[i] = row
	}

	m := NewModel()
	preds, _, err := m.FitPredict(matrix, labels)
	require.NoError(t, err)
	require.Equal(t, 1, preds[0])

	ex := NewExplainer(m, matrix)
	expl := ex.ExplainRow(0, true)
	require.False(t, expl.Degraded)
	assert.LessOrEqual(t, len(expl.Phrases), maxPhrases)
	assert.NotEmpty(t, expl.Phrases)

	// The dominant positive contributor for a churn row is long recency.
	assert.Contains(t, expl.Phrases[0], "No purchases for")
}

// TestBackgroundMean covers the deterministic subsample.
func TestBackgroundMean(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, backgroundMean(nil))
	})

	t.Run("small population", func(t *testing.T) {
		mean := backgroundMean([][]float64{{1, 2}, {3, 4}})
		assert.Equal(t, []float64{2, 3}, mean)
	})

	t.Run("large population strides deterministically", func(t *testing.T) {
		z := make([][]float64, backgroundCap*3)
		for i := range z {
			z[i] = []float64{float64(i)}
		}
		first := backgroundMean(z)
		second := backgroundMean(z)
		assert.Equal(t, first, second)
	})
}

// FuzzFormatValue fuzzes value rendering across kinds; it must never panic
// and never emit NaN text.
func FuzzFormatValue(f *testing.F) {
	seeds := []struct {
		kind  string
		value float64
	}{
		{kind: "days", value: 90},
		{kind: "count", value: 1234567},
		{kind: "money", value: -99.99},
		{kind: "percent", value: -45.67},
		{kind: "number", value: 0.875},
		{kind: "monthly", value: math.Inf(-1)},
	}
	for _, seed := range seeds {
		f.Add(seed.kind, seed.value)
	}

	f.Fuzz(func(t *testing.T, kind string, value float64) {
		out := FormatValue(schema.ValueKind(kind), value)
		if math.IsNaN(value) || math.IsInf(value, 0) {
			if out != "" {
				t.Errorf("non-finite value rendered as %q", out)
			}
		}
	})
}
