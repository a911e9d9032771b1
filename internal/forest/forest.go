// Package forest implements an isolation-forest outlier scorer: an
// ensemble of random partition trees in which easily isolated points
// (short average path lengths) score close to 1 and typical points
// score close to 0.5.
package forest

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

const (
	// DefaultTrees is the ensemble size used when Options.Trees is zero.
	DefaultTrees = 100
	// DefaultSeed makes repeated training runs on identical data
	// reproducible unless the caller supplies their own seed.
	DefaultSeed int64 = 42

	// eulerMascheroni is the constant in the harmonic-number
	// approximation H(n) ~ ln(n) + gamma.
	eulerMascheroni = 0.5772156649
)

var (
	// ErrNotFitted is returned when scoring is attempted before Fit.
	ErrNotFitted = errors.New("forest is not fitted")
	// ErrDimensionMismatch means a query row's width differs from the
	// training matrix.
	ErrDimensionMismatch = errors.New("feature dimension mismatch")
	// ErrEmptyInput means there is nothing to fit or score.
	ErrEmptyInput = errors.New("empty input matrix")
)

// Options configures forest training.
type Options struct {
	// Trees is the ensemble size; 0 means DefaultTrees.
	Trees int
	// Seed seeds the random generator used for feature and split-value
	// selection; 0 means DefaultSeed.
	Seed int64
	// MaxDepth caps tree depth; 0 means ceil(log2(N)) for a batch of N.
	MaxDepth int
}

// Node is one node of a partition tree. Leaves carry the number of
// points left unisolated (Size); internal nodes split on Feature at
// Split. Fields are exported for gob serialization only.
type Node struct {
	Feature int
	Split   float64
	Left    *Node
	Right   *Node
	Size    int
}

// Forest is a trained isolation-forest scorer together with the
// standard scaler fit from its training batch. A fitted Forest is
// immutable and safe for concurrent scoring.
type Forest struct {
	Opts       Options
	Scaler     *Scaler
	Roots      []*Node
	SampleSize int
	Dims       int
}

// New returns an unfitted forest with defaults applied.
func New(opts Options) *Forest {
	if opts.Trees <= 0 {
		opts.Trees = DefaultTrees
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	return &Forest{Opts: opts}
}

// Fit trains the ensemble on x: standardizes columns (dropping
// zero-variance ones), then grows Opts.Trees random partition trees
// over the standardized batch. Returns ErrDegenerateInput when no
// column carries any variance.
func (f *Forest) Fit(x [][]float64) error {
	if len(x) == 0 {
		return ErrEmptyInput
	}
	f.Dims = len(x[0])

	scaler, err := FitScaler(x)
	if err != nil {
		return err
	}
	f.Scaler = scaler

	scaled := scaler.TransformAll(x)
	f.SampleSize = len(scaled)

	maxDepth := f.Opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = int(math.Ceil(math.Log2(float64(f.SampleSize))))
		if maxDepth < 1 {
			maxDepth = 1
		}
	}

	rng := rand.New(rand.NewSource(f.Opts.Seed))
	f.Roots = make([]*Node, f.Opts.Trees)
	idx := make([]int, len(scaled))
	for i := range idx {
		idx[i] = i
	}
	for t := range f.Roots {
		sub := make([]int, len(idx))
		copy(sub, idx)
		f.Roots[t] = grow(scaled, sub, 0, maxDepth, rng)
	}
	return nil
}

// grow builds one subtree over the subset of rows named by idx.
func grow(x [][]float64, idx []int, depth, maxDepth int, rng *rand.Rand) *Node {
	if len(idx) <= 1 || depth >= maxDepth {
		return &Node{Feature: -1, Size: len(idx)}
	}
	dims := len(x[idx[0]])

	// A random feature may have collapsed within this subset; try a few
	// before giving up and closing the leaf.
	for attempt := 0; attempt < dims; attempt++ {
		feat := rng.Intn(dims)
		lo, hi := x[idx[0]][feat], x[idx[0]][feat]
		for _, i := range idx[1:] {
			v := x[i][feat]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		if hi == lo {
			continue
		}
		split := lo + rng.Float64()*(hi-lo)

		var left, right []int
		for _, i := range idx {
			if x[i][feat] < split {
				left = append(left, i)
			} else {
				right = append(right, i)
			}
		}
		return &Node{
			Feature: feat,
			Split:   split,
			Left:    grow(x, left, depth+1, maxDepth, rng),
			Right:   grow(x, right, depth+1, maxDepth, rng),
		}
	}
	return &Node{Feature: -1, Size: len(idx)}
}

// Score returns the anomaly score for every row of x, in row order.
// Scores lie in (0,1); values near 1 indicate likely outliers.
func (f *Forest) Score(x [][]float64) ([]float64, error) {
	if f.Scaler == nil || len(f.Roots) == 0 {
		return nil, ErrNotFitted
	}
	if len(x) == 0 {
		return nil, ErrEmptyInput
	}
	scores := make([]float64, len(x))
	for i, row := range x {
		s, err := f.ScoreOne(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		scores[i] = s
	}
	return scores, nil
}

// ScoreOne scores a single raw (unscaled) feature vector.
func (f *Forest) ScoreOne(row []float64) (float64, error) {
	if f.Scaler == nil || len(f.Roots) == 0 {
		return 0, ErrNotFitted
	}
	if len(row) != f.Dims {
		return 0, fmt.Errorf("%w: got %d features, trained on %d", ErrDimensionMismatch, len(row), f.Dims)
	}
	scaled := f.Scaler.Transform(row)

	var total float64
	for _, root := range f.Roots {
		total += pathLength(root, scaled, 0)
	}
	avg := total / float64(len(f.Roots))
	return math.Pow(2, -avg/cFactor(f.SampleSize)), nil
}

// pathLength walks one tree, returning the isolation depth with the
// asymptotic correction for leaves still holding multiple points.
func pathLength(n *Node, row []float64, depth float64) float64 {
	if n.Feature < 0 {
		if n.Size > 1 {
			return depth + cFactor(n.Size)
		}
		return depth
	}
	if row[n.Feature] < n.Split {
		return pathLength(n.Left, row, depth+1)
	}
	return pathLength(n.Right, row, depth+1)
}

// cFactor is the average path length of an unsuccessful BST search over
// n points: c(n) = 2*H(n-1) - 2*(n-1)/n.
func cFactor(n int) float64 {
	if n <= 1 {
		return 1
	}
	h := math.Log(float64(n-1)) + eulerMascheroni
	return 2*h - 2*float64(n-1)/float64(n)
}

// Threshold returns the score cutoff flagging the top
// contamination-fraction of the batch: the k-th largest score with
// k = ceil(contamination*N). Contamination <= 0 yields +Inf (nothing
// flagged); contamination >= 1 flags everything.
func Threshold(scores []float64, contamination float64) float64 {
	if len(scores) == 0 || contamination <= 0 {
		return math.Inf(1)
	}
	if contamination > 1 {
		contamination = 1
	}
	k := int(math.Ceil(contamination * float64(len(scores))))
	if k > len(scores) {
		k = len(scores)
	}
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	return sorted[k-1]
}

// Encode serializes the fitted forest (trees plus scaler) for the model
// store.
func (f *Forest) Encode() ([]byte, error) {
	if f.Scaler == nil {
		return nil, ErrNotFitted
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(f); err != nil {
		return nil, fmt.Errorf("encode forest: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reconstructs a fitted forest from Encode output.
func Decode(b []byte) (*Forest, error) {
	var f Forest
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode forest: %w", err)
	}
	if f.Scaler == nil || len(f.Roots) == 0 {
		return nil, ErrNotFitted
	}
	return &f, nil
}
