// Package entropy maintains k-mer frequency Shannon entropy over a sliding
// window in O(1) per slide.
//
// Two trackers implement the same contract: a dense array tracker for small
// k and a sparse map tracker for large k. Both keep a count per k-mer code,
// a count-of-counts histogram, and a running entropy sum over a precomputed
// p*log2(p) table, so reading the normalized entropy never touches math.Log.
package entropy

import (
	"fmt"
	"math"
)

// DenseMaxK is the largest k the auto selector serves with the dense
// tracker: 4^7 = 16384 count cells still sit comfortably in L1/L2.
const DenseMaxK = 7

// Invalid is the code passed to Add/Remove for a window offset whose k-mer
// contains a non-ACGT base.
const Invalid int32 = -1

// Scale holds the per-run precomputed entropy table for a (window, k) pair.
type Scale struct {
	windowKmers int       // W - k + 1
	table       []float64 // table[j] = (j/windowKmers) * log2(j/windowKmers)
	mult        float64   // -1 / log2(windowKmers)
}

// NewScale precomputes the table for window size w and k-mer size k.
// Callers validate w and k; w-k+1 must be at least 2 for mult to be finite.
func NewScale(k, w int) *Scale {
	n := w - k + 1
	table := make([]float64, n+2)
	for j := 1; j < len(table); j++ {
		p := float64(j) / float64(n)
		table[j] = p * math.Log2(p)
	}
	return &Scale{
		windowKmers: n,
		table:       table,
		mult:        -1 / math.Log2(float64(n)),
	}
}

// WindowKmers returns the number of k-mer offsets per window.
func (s *Scale) WindowKmers() int { return s.windowKmers }

// Tracker is the per-window state machine. Feed it the k-mer code entering
// or leaving the window (or Invalid for offsets without a valid k-mer) and
// read the normalized entropy in constant time.
type Tracker interface {
	// Add accounts for one k-mer offset entering the window.
	Add(code int32)
	// Remove accounts for one k-mer offset leaving the window.
	Remove(code int32)
	// Entropy returns the window's normalized entropy in [0, 1],
	// clamped at zero against float drift.
	Entropy() float64
	// Valid is the number of valid k-mer offsets currently in the window.
	Valid() int
	// Unique is the number of distinct codes with a nonzero count.
	Unique() int
	// Invalid is the number of offsets whose k-mer was not encodable.
	Invalid() int
	// Reset clears the tracker for the next record.
	Reset()
}

// Method selects the tracker backing store.
type Method uint8

const (
	Auto Method = iota
	Dense
	Sparse
)

func (m Method) String() string {
	switch m {
	case Auto:
		return "auto"
	case Dense:
		return "dense"
	case Sparse:
		return "sparse"
	}
	return fmt.Sprintf("method(%d)", uint8(m))
}

// ParseMethod maps a CLI flag value to a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "auto":
		return Auto, nil
	case "dense":
		return Dense, nil
	case "sparse":
		return Sparse, nil
	}
	return Auto, fmt.Errorf("unknown tracker method %q (want auto, dense or sparse)", s)
}

// New builds a tracker for the given method, k and window size. Auto picks
// dense for k <= DenseMaxK and sparse above. The choice never changes the
// masking output, only its memory profile.
func New(m Method, k, w int) Tracker {
	scale := NewScale(k, w)
	switch m {
	case Dense:
		return newDense(k, scale)
	case Sparse:
		return newSparse(scale)
	default:
		if k <= DenseMaxK {
			return newDense(k, scale)
		}
		return newSparse(scale)
	}
}
