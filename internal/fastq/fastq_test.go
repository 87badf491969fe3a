package fastq

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

const sample = "@read1 desc\nACGTACGT\n+\nIIIIIIII\n" +
	"@read2\nNNNN\n+read2\n####\n"

func TestReaderParsesRecords(t *testing.T) {
	r := NewReader(strings.NewReader(sample))

	rec, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if string(rec.ID) != "read1 desc" || string(rec.Seq) != "ACGTACGT" ||
		string(rec.Plus) != "+" || string(rec.Qual) != "IIIIIIII" {
		t.Errorf("record 1 parsed wrong: %+v", rec)
	}

	rec, err = r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if string(rec.ID) != "read2" || string(rec.Plus) != "+read2" || string(rec.Qual) != "####" {
		t.Errorf("record 2 parsed wrong: %+v", rec)
	}

	if _, err = r.Next(); err != io.EOF {
		t.Errorf("want io.EOF at end, got %v", err)
	}
	if r.Count() != 2 {
		t.Errorf("Count = %d, want 2", r.Count())
	}
}

// Records must stay valid after the reader advances: the pipeline buffers
// whole chunks of them while the parser keeps scanning.
func TestReaderRecordsAreOwned(t *testing.T) {
	r := NewReader(strings.NewReader(sample))
	first, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Next(); err != nil {
		t.Fatal(err)
	}
	if string(first.Seq) != "ACGTACGT" {
		t.Errorf("first record corrupted after advancing: %q", first.Seq)
	}
}

func TestReaderMalformed(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"missing @", "read1\nACGT\n+\nIIII\n"},
		{"truncated after header", "@read1\n"},
		{"truncated after sequence", "@read1\nACGT\n"},
		{"bad separator", "@read1\nACGT\nIIII\nIIII\n"},
		{"length mismatch", "@read1\nACGT\n+\nIII\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(c.input))
			_, err := r.Next()
			if err == nil || err == io.EOF {
				t.Errorf("want parse error, got %v", err)
			}
		})
	}
}

func TestWriterRoundTrip(t *testing.T) {
	r := NewReader(strings.NewReader(sample))
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if err := w.Write(rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != sample {
		t.Errorf("round trip changed bytes:\n got %q\nwant %q", buf.String(), sample)
	}
}

func TestWriterDefaultsPlusLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Write(Record{ID: []byte("r"), Seq: []byte("AC"), Qual: []byte("II")}); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "@r\nAC\n+\nII\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestGzipRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := io.WriteString(gw, sample); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	gr, err := gzip.NewReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	r := NewReader(gr)
	n := 0
	for {
		if _, err := r.Next(); err == io.EOF {
			break
		} else if err != nil {
			t.Fatal(err)
		}
		n++
	}
	if n != 2 {
		t.Errorf("read %d records from gzip stream, want 2", n)
	}
}
