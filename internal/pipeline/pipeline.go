// Package pipeline streams FASTQ records through parallel masking workers
// while preserving input order and bounding memory.
//
// Records are buffered into chunks; a reader goroutine builds the next
// chunk while workers drain the current one. Within a chunk, results are
// gathered into a position-indexed slice and written in input order, so
// the output is byte-identical to a single-threaded pass no matter how
// many workers run.
package pipeline

import (
	"context"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/securebio/entromask/internal/fastq"
	"github.com/securebio/entromask/internal/mask"
)

// Options control scheduling, not output: any combination of Workers and
// ChunkSize produces the same bytes.
type Options struct {
	Workers   int // worker goroutines per chunk; 0 means all CPUs
	ChunkSize int // records per chunk
}

func (o Options) validate() error {
	if o.Workers < 0 {
		return errors.Errorf("worker count %d is negative", o.Workers)
	}
	if o.ChunkSize < 1 {
		return errors.Errorf("chunk size %d must be at least 1", o.ChunkSize)
	}
	return nil
}

// Stats summarize one run.
type Stats struct {
	Records       int64
	MaskedRecords int64 // records with at least one masked base
	MaskedBases   int64
	StartTime     time.Time
	EndTime       time.Time
}

type result struct {
	seq  []byte
	qual []byte
	err  error
}

// Run pumps records from in through masking workers to out. Progress, when
// non-nil, is called with the record count of each written chunk. The first
// parser, masking or writer error aborts the run; cancellation via ctx is
// honored at chunk boundaries.
func Run(ctx context.Context, cfg mask.Config, opt Options, in *fastq.Reader, out *fastq.Writer, progress func(int)) (*Stats, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	workers := opt.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	// One masker per worker slot, reused across every chunk of the run.
	maskers := make([]*mask.Masker, workers)
	for i := range maskers {
		m, err := mask.New(cfg)
		if err != nil {
			return nil, err
		}
		maskers[i] = m
	}

	stats := &Stats{StartTime: time.Now()}
	g, ctx := errgroup.WithContext(ctx)
	chunks := make(chan []fastq.Record, 1)

	g.Go(func() error {
		defer close(chunks)
		chunk := make([]fastq.Record, 0, opt.ChunkSize)
		for {
			rec, err := in.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			chunk = append(chunk, rec)
			if len(chunk) == opt.ChunkSize {
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					return ctx.Err()
				}
				chunk = make([]fastq.Record, 0, opt.ChunkSize)
			}
		}
		if len(chunk) > 0 {
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for {
			var (
				chunk []fastq.Record
				ok    bool
			)
			select {
			case chunk, ok = <-chunks:
			case <-ctx.Done():
				return ctx.Err()
			}
			if !ok {
				return out.Flush()
			}
			if err := processChunk(ctx, chunk, maskers, out, stats); err != nil {
				return err
			}
			if progress != nil {
				progress(len(chunk))
			}
		}
	})

	err := g.Wait()
	stats.EndTime = time.Now()
	if err != nil {
		return stats, err
	}
	return stats, nil
}

// processChunk masks every record of one chunk in parallel, then writes the
// results strictly in input order.
func processChunk(ctx context.Context, chunk []fastq.Record, maskers []*mask.Masker, out *fastq.Writer, stats *Stats) error {
	results := make([]result, len(chunk))
	workers := len(maskers)
	if workers > len(chunk) {
		workers = len(chunk)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			mk := maskers[w]
			var maskedRecords, maskedBases int64
			for i := w; i < len(chunk); i += workers {
				seq, qual, err := mk.Mask(chunk[i].Seq, chunk[i].Qual)
				if err != nil {
					results[i].err = errors.Wrapf(err, "mask record %s", chunk[i].ID)
					continue
				}
				results[i].seq = seq
				results[i].qual = qual
				if n := countMasked(chunk[i].Seq, seq); n > 0 {
					maskedRecords++
					maskedBases += int64(n)
				}
			}
			atomic.AddInt64(&stats.MaskedRecords, maskedRecords)
			atomic.AddInt64(&stats.MaskedBases, maskedBases)
		}(w)
	}
	wg.Wait()

	// On cancellation the in-flight chunk completes but its results are
	// discarded rather than written.
	if err := ctx.Err(); err != nil {
		return err
	}

	for i, res := range results {
		if res.err != nil {
			return res.err
		}
		rec := chunk[i]
		rec.Seq = res.seq
		rec.Qual = res.qual
		if err := out.Write(rec); err != nil {
			return errors.Wrap(err, "write record")
		}
		atomic.AddInt64(&stats.Records, 1)
	}
	return nil
}

func countMasked(in, out []byte) int {
	n := 0
	for i := range out {
		if out[i] != in[i] {
			n++
		}
	}
	return n
}
