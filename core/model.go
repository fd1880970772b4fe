package core

import (
	"math"
	"sort"
)

// Optimizer settings for the logistic fit. The iteration cap matches what
// converges comfortably for a 26-feature matrix with hundreds to low
// thousands of rows; there is no random state anywhere in the fit path, so
// repeated fits on the same inputs are bit-for-bit reproducible.
const (
	maxIterations = 1000
	learningRate  = 0.5
	l2Penalty     = 1e-3
	gradTolerance = 1e-7
)

// Model is the trained state of one scoring run: per-feature imputation and
// standardization parameters plus the classifier weights. It is created
// fresh on every run and never persisted.
type Model struct {
	medians   []float64
	means     []float64
	scales    []float64
	weights   []float64
	intercept float64
	fitted    bool
}

// NewModel returns an unfitted model.
func NewModel() *Model {
	return &Model{}
}

// Fitted reports whether the model has been trained.
func (m *Model) Fitted() bool {
	return m.fitted
}

// Weights returns the classifier coefficients, one per feature.
func (m *Model) Weights() []float64 {
	return m.weights
}

// FitPredict trains the pipeline on the matrix and labels, then scores the
// same rows. The decision threshold is probability >= 0.5. A nil label
// vector selects the degraded mode: probability 0 and label 0 for every row,
// with no training at all. A label vector whose length disagrees with the
// matrix is a TrainingError.
func (m *Model) FitPredict(matrix [][]float64, labels []int) ([]int, []float64, error) {
	n := len(matrix)
	if labels == nil {
		return make([]int, n), make([]float64, n), nil
	}
	if len(labels) != n {
		return nil, nil, &TrainingError{Reason: "label and matrix row counts disagree"}
	}
	if err := m.fit(matrix, labels); err != nil {
		return nil, nil, err
	}

	probs := m.PredictProba(matrix)
	preds := make([]int, n)
	for i, p := range probs {
		if p >= 0.5 {
			preds[i] = 1
		}
	}
	return preds, probs, nil
}

// fit learns imputation values, standardization parameters and classifier
// weights from the labeled matrix.
func (m *Model) fit(matrix [][]float64, labels []int) error {
	if len(matrix) == 0 {
		return &TrainingError{Reason: "no rows to train on"}
	}
	cols := len(matrix[0])
	m.fitImputer(matrix, cols)
	z := m.imputeOnly(matrix)
	m.fitScaler(z, cols)
	for _, row := range z {
		m.scaleRow(row)
	}

	nPos := 0
	for _, y := range labels {
		if y == 1 {
			nPos++
		}
	}
	nNeg := len(labels) - nPos
	if nPos == 0 || nNeg == 0 {
		return &TrainingError{Reason: "labels contain a single class"}
	}

	// Class-balanced sample weights: n / (2 * class count).
	wPos := float64(len(labels)) / (2 * float64(nPos))
	wNeg := float64(len(labels)) / (2 * float64(nNeg))

	m.weights = make([]float64, cols)
	m.intercept = 0
	grad := make([]float64, cols)

	for iter := 0; iter < maxIterations; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		gradB := 0.0
		sumW := 0.0
		for i, row := range z {
			sw := wNeg
			y := 0.0
			if labels[i] == 1 {
				sw = wPos
				y = 1
			}
			d := sw * (sigmoid(m.margin(row)) - y)
			for j, v := range row {
				grad[j] += d * v
			}
			gradB += d
			sumW += sw
		}

		maxGrad := math.Abs(gradB / sumW)
		for j := range grad {
			grad[j] = grad[j]/sumW + l2Penalty*m.weights[j]
			if g := math.Abs(grad[j]); g > maxGrad {
				maxGrad = g
			}
			m.weights[j] -= learningRate * grad[j]
		}
		m.intercept -= learningRate * (gradB / sumW)

		if maxGrad < gradTolerance {
			break
		}
	}

	m.fitted = true
	return nil
}

// Transform applies imputation and standardization to a raw matrix,
// returning a new matrix. Columns with zero scale standardize to zero
// instead of dividing by zero, so a constant column can never produce NaN.
func (m *Model) Transform(matrix [][]float64) [][]float64 {
	z := m.imputeOnly(matrix)
	for _, row := range z {
		m.scaleRow(row)
	}
	return z
}

// PredictProba returns the churn probability for every raw matrix row.
func (m *Model) PredictProba(matrix [][]float64) []float64 {
	z := m.Transform(matrix)
	probs := make([]float64, len(z))
	for i, row := range z {
		probs[i] = sigmoid(m.margin(row))
	}
	return probs
}

func (m *Model) margin(z []float64) float64 {
	s := m.intercept
	for j, w := range m.weights {
		s += w * z[j]
	}
	return s
}

func (m *Model) fitImputer(matrix [][]float64, cols int) {
	m.medians = make([]float64, cols)
	col := make([]float64, 0, len(matrix))
	for j := 0; j < cols; j++ {
		col = col[:0]
		for _, row := range matrix {
			if !math.IsNaN(row[j]) {
				col = append(col, row[j])
			}
		}
		m.medians[j] = median(col)
	}
}

func (m *Model) imputeOnly(matrix [][]float64) [][]float64 {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		r := make([]float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				r[j] = m.medians[j]
			} else {
				r[j] = v
			}
		}
		out[i] = r
	}
	return out
}

func (m *Model) fitScaler(imputed [][]float64, cols int) {
	m.means = make([]float64, cols)
	m.scales = make([]float64, cols)
	n := float64(len(imputed))
	for j := 0; j < cols; j++ {
		sum := 0.0
		for _, row := range imputed {
			sum += row[j]
		}
		mean := sum / n
		varSum := 0.0
		for _, row := range imputed {
			d := row[j] - mean
			varSum += d * d
		}
		m.means[j] = mean
		m.scales[j] = math.Sqrt(varSum / n)
	}
}

// scaleRow standardizes one imputed row in place.
func (m *Model) scaleRow(row []float64) {
	for j, v := range row {
		if m.scales[j] == 0 {
			row[j] = 0
			continue
		}
		row[j] = (v - m.means[j]) / m.scales[j]
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// median of a slice; zero when the slice is empty (all cells missing).
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
