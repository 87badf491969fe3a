// Package mask rewrites low-complexity regions of a read to N bases with
// '#' qualities.
//
// A fixed-size window slides over the sequence one base at a time; whenever
// the k-mer frequency entropy of the window falls strictly below the
// threshold, the whole window range is masked. Overlapping low-entropy
// windows therefore merge into contiguous masked runs.
package mask

import (
	"math"

	"github.com/pkg/errors"

	"github.com/securebio/entromask/internal/entropy"
	"github.com/securebio/entromask/internal/kmer"
)

const (
	// MaskBase overwrites masked sequence positions.
	MaskBase = 'N'
	// MaskQual overwrites masked quality positions.
	MaskQual = '#'
)

// Config are the parameters of one masking run. They are fixed for the
// lifetime of a Masker.
type Config struct {
	Window    int     // window size in bases
	Threshold float64 // mask when entropy < Threshold
	K         int     // k-mer size, 1..kmer.MaxK
	Method    entropy.Method
}

// Validate reports the first configuration error, before any I/O happens.
func (c Config) Validate() error {
	if c.K < 1 || c.K > kmer.MaxK {
		return errors.Errorf("k-mer size k=%d out of range 1-%d", c.K, kmer.MaxK)
	}
	if c.Window < c.K {
		return errors.Errorf("window size %d smaller than k-mer size %d", c.Window, c.K)
	}
	if c.Window-c.K+1 < 2 {
		return errors.Errorf("window size %d leaves fewer than 2 k-mers per window (k=%d)", c.Window, c.K)
	}
	if c.Window-c.K+1 > math.MaxUint16 {
		return errors.Errorf("window size %d too large (at most %d k-mers per window)", c.Window, math.MaxUint16)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return errors.Errorf("entropy threshold %g outside [0,1]", c.Threshold)
	}
	return nil
}

// Masker applies one Config to records. It owns a tracker, a rolling
// encoder and a small code ring buffer that are reused across records, so
// a long-lived Masker allocates only the output buffers per record. Not
// safe for concurrent use; give each worker its own.
type Masker struct {
	cfg     Config
	tracker entropy.Tracker
	roller  *kmer.Roller
	ring    []int32 // code (or entropy.Invalid) per live window offset
}

// New validates cfg and builds a reusable Masker.
func New(cfg Config) (*Masker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Masker{
		cfg:     cfg,
		tracker: entropy.New(cfg.Method, cfg.K, cfg.Window),
		roller:  kmer.NewRoller(cfg.K),
		ring:    make([]int32, cfg.Window-cfg.K+1),
	}, nil
}

// Mask returns freshly allocated copies of seq and qual with every
// position of every low-entropy window rewritten to 'N'/'#'. All other
// bytes pass through untouched. Reads shorter than the window are never
// masked. An error is returned only when the record shape is broken.
func (m *Masker) Mask(seq, qual []byte) ([]byte, []byte, error) {
	if len(seq) != len(qual) {
		return nil, nil, errors.Errorf("sequence length %d != quality length %d", len(seq), len(qual))
	}
	outSeq := append([]byte(nil), seq...)
	outQual := append([]byte(nil), qual...)
	if len(seq) < m.cfg.Window {
		return outSeq, outQual, nil
	}

	w, k := m.cfg.Window, m.cfg.K
	nwin := w - k + 1

	m.tracker.Reset()
	m.roller.Reset()
	for p := 0; p < w; p++ {
		code, ok := m.roller.Feed(seq[p])
		if p < k-1 {
			continue
		}
		c := entropy.Invalid
		if ok {
			c = int32(code)
		}
		m.ring[(p-k+1)%nwin] = c
		m.tracker.Add(c)
	}

	last := len(seq) - w
	maskedTo := 0 // high-water mark keeps total masking work O(len(seq))
	for left := 0; left <= last; left++ {
		// A window with no valid k-mers has undefined entropy and is
		// never masked.
		if m.tracker.Valid() > 0 && m.tracker.Entropy() < m.cfg.Threshold {
			from := left
			if maskedTo > from {
				from = maskedTo
			}
			for i := from; i < left+w; i++ {
				outSeq[i] = MaskBase
				outQual[i] = MaskQual
			}
			maskedTo = left + w
		}
		if left == last {
			break
		}
		// Slide: the k-mer starting at left leaves, the k-mer ending at
		// left+w enters. Both land on the same ring slot.
		m.tracker.Remove(m.ring[left%nwin])
		code, ok := m.roller.Feed(seq[left+w])
		c := entropy.Invalid
		if ok {
			c = int32(code)
		}
		m.ring[left%nwin] = c
		m.tracker.Add(c)
	}
	return outSeq, outQual, nil
}

// Config returns the masker's parameters.
func (m *Masker) Config() Config { return m.cfg }
