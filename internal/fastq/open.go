package fastq

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// OpenInput opens path for reading. "-" means stdin; gzip (and the other
// compressed framings xopen understands) is detected from the content.
func OpenInput(path string) (io.ReadCloser, error) {
	r, err := xopen.Ropen(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open input %s", path)
	}
	return r, nil
}

// writeCloser closes the compressor before the underlying file.
type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (w *writeCloser) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenOutput opens path for writing. "-" means stdout (compressed only
// when forceGzip is set). Paths ending in .gz get gzip framing at the
// given level, .zst gets zstd; anything else is written plain unless
// forceGzip asks for gzip anyway.
func OpenOutput(path string, gzipLevel int, forceGzip bool) (io.WriteCloser, error) {
	var (
		base    io.Writer
		closers []io.Closer
	)
	if path == "-" || path == "" {
		base = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return nil, errors.Wrapf(err, "create output %s", path)
		}
		base = f
		closers = append(closers, f)
	}

	switch {
	case strings.HasSuffix(path, ".zst"):
		zw, err := zstd.NewWriter(base)
		if err != nil {
			return nil, errors.Wrap(err, "zstd writer")
		}
		return &writeCloser{Writer: zw, closers: append([]io.Closer{zw}, closers...)}, nil
	case strings.HasSuffix(path, ".gz") || forceGzip:
		gw, err := gzip.NewWriterLevel(base, gzipLevel)
		if err != nil {
			return nil, errors.Wrap(err, "gzip writer")
		}
		return &writeCloser{Writer: gw, closers: append([]io.Closer{gw}, closers...)}, nil
	default:
		return &writeCloser{Writer: base, closers: closers}, nil
	}
}
