package forest

import (
	"errors"
	"math"
)

// ErrDegenerateInput means every feature column had zero variance, so
// standardization would divide by zero everywhere. Individual
// zero-variance columns are dropped silently; only a fully degenerate
// batch is fatal.
var ErrDegenerateInput = errors.New("all feature columns have zero variance")

// Scaler standardizes feature columns to zero mean and unit variance.
// It is fit from the training batch and travels with the trained forest
// as part of the artifact. Keep lists the indexes of the original
// columns that survived the zero-variance check, in order.
type Scaler struct {
	Mean []float64
	Std  []float64
	Keep []int
}

// FitScaler computes per-column mean and standard deviation over X and
// drops zero-variance columns. Returns ErrDegenerateInput when no
// column survives.
func FitScaler(x [][]float64) (*Scaler, error) {
	if len(x) == 0 || len(x[0]) == 0 {
		return nil, ErrDegenerateInput
	}
	cols := len(x[0])
	n := float64(len(x))

	mean := make([]float64, cols)
	for _, row := range x {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}

	std := make([]float64, cols)
	for _, row := range x {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}

	s := &Scaler{}
	for j := range std {
		sd := math.Sqrt(std[j] / n)
		if sd == 0 {
			continue
		}
		s.Keep = append(s.Keep, j)
		s.Mean = append(s.Mean, mean[j])
		s.Std = append(s.Std, sd)
	}
	if len(s.Keep) == 0 {
		return nil, ErrDegenerateInput
	}
	return s, nil
}

// Transform standardizes one row, keeping only the surviving columns.
func (s *Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(s.Keep))
	for i, j := range s.Keep {
		out[i] = (row[j] - s.Mean[i]) / s.Std[i]
	}
	return out
}

// TransformAll standardizes a full matrix.
func (s *Scaler) TransformAll(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = s.Transform(row)
	}
	return out
}
