package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Model is a linear softmax classifier over fixed-dimension feature vectors.
// Weights are row-per-class; Predict returns a probability distribution of
// length Classes().
type Model struct {
	dim     int
	classes int
	weights [][]float64
	bias    []float64
}

// weightsFile is the on-disk JSON layout of a weights file.
type weightsFile struct {
	Dim     int         `json:"dim"`
	Classes int         `json:"classes"`
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// Load reads and validates a weights file.
func Load(path string) (*Model, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weights: %w", err)
	}
	var wf weightsFile
	if err := json.Unmarshal(b, &wf); err != nil {
		return nil, fmt.Errorf("parse weights: %w", err)
	}
	return New(wf.Dim, wf.Classes, wf.Weights, wf.Bias)
}

// New validates the weight shapes and constructs a model.
func New(dim, classes int, weights [][]float64, bias []float64) (*Model, error) {
	if dim <= 0 || classes <= 0 {
		return nil, fmt.Errorf("invalid shape: dim=%d classes=%d", dim, classes)
	}
	if len(weights) != classes {
		return nil, fmt.Errorf("weights rows=%d, want %d", len(weights), classes)
	}
	for i, row := range weights {
		if len(row) != dim {
			return nil, fmt.Errorf("weights row %d has %d cols, want %d", i, len(row), dim)
		}
	}
	if len(bias) != classes {
		return nil, fmt.Errorf("bias len=%d, want %d", len(bias), classes)
	}
	w := make([][]float64, classes)
	for i, row := range weights {
		w[i] = append([]float64(nil), row...)
	}
	return &Model{
		dim:     dim,
		classes: classes,
		weights: w,
		bias:    append([]float64(nil), bias...),
	}, nil
}

// Dim returns the expected input vector length.
func (m *Model) Dim() int { return m.dim }

// Classes returns the number of output classes.
func (m *Model) Classes() int { return m.classes }

// Predict computes softmax(Wx + b). The input length must equal Dim.
func (m *Model) Predict(input []float64) ([]float64, error) {
	if len(input) != m.dim {
		return nil, fmt.Errorf("input length %d does not match model dimension %d", len(input), m.dim)
	}
	logits := make([]float64, m.classes)
	for c := 0; c < m.classes; c++ {
		s := m.bias[c]
		row := m.weights[c]
		for i, x := range input {
			s += row[i] * x
		}
		logits[c] = s
	}
	return softmax(logits), nil
}

// softmax normalizes logits into a probability distribution.
// Shifts by the max logit for numerical stability.
func softmax(logits []float64) []float64 {
	maxv := logits[0]
	for _, v := range logits[1:] {
		if v > maxv {
			maxv = v
		}
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(v - maxv)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// ArgMax returns the index of the largest value. Ties resolve to the
// lowest index.
func ArgMax(dist []float64) int {
	best := 0
	for i, v := range dist {
		if v > dist[best] {
			best = i
		}
	}
	return best
}
