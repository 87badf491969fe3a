package kmer

import (
	"math/rand"
	"testing"
)

func TestEncodeKnownCodes(t *testing.T) {
	cases := []struct {
		kmer string
		code uint32
	}{
		{"AAA", 0},
		{"AAC", 1},
		{"AAG", 2},
		{"AAT", 3},
		{"ACG", 6},
		{"CCC", 21},
		{"GGG", 42},
		{"TTT", 63},
		{"A", 0},
		{"T", 3},
	}
	for _, c := range cases {
		code, ok := Encode([]byte(c.kmer))
		if !ok {
			t.Fatalf("Encode(%q) not ok", c.kmer)
		}
		if code != c.code {
			t.Errorf("Encode(%q) = %d, want %d", c.kmer, code, c.code)
		}
	}
}

func TestEncodeCaseInsensitive(t *testing.T) {
	upper, ok1 := Encode([]byte("ACGT"))
	lower, ok2 := Encode([]byte("acgt"))
	mixed, ok3 := Encode([]byte("aCgT"))
	if !ok1 || !ok2 || !ok3 {
		t.Fatal("case variants should all encode")
	}
	if upper != lower || upper != mixed {
		t.Errorf("case variants disagree: %d %d %d", upper, lower, mixed)
	}
}

func TestEncodeInvalid(t *testing.T) {
	for _, s := range []string{"AAN", "NNN", "ACGX", "AC-T", "ACG T", ""} {
		if _, ok := Encode([]byte(s)); ok && s != "" {
			t.Errorf("Encode(%q) should be invalid", s)
		}
	}
	// Empty slice encodes trivially to 0.
	if code, ok := Encode(nil); !ok || code != 0 {
		t.Errorf("Encode(nil) = %d,%v, want 0,true", code, ok)
	}
	// Too long for a uint32.
	long := make([]byte, MaxK+1)
	for i := range long {
		long[i] = 'A'
	}
	if _, ok := Encode(long); ok {
		t.Error("Encode of 16 bases should be rejected")
	}
}

func TestRollerMatchesEncode(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := []byte("ACGTNacgtn")
	for trial := 0; trial < 50; trial++ {
		k := 1 + rng.Intn(MaxK)
		n := k + rng.Intn(200)
		seq := make([]byte, n)
		for i := range seq {
			seq[i] = alphabet[rng.Intn(len(alphabet))]
		}

		r := NewRoller(k)
		for p := 0; p < n; p++ {
			got, gotOK := r.Feed(seq[p])
			if p < k-1 {
				continue
			}
			want, wantOK := Encode(seq[p-k+1 : p+1])
			if gotOK != wantOK {
				t.Fatalf("k=%d pos=%d: roller ok=%v, Encode ok=%v (seq=%q)",
					k, p, gotOK, wantOK, seq)
			}
			if gotOK && got != want {
				t.Fatalf("k=%d pos=%d: roller code=%d, Encode=%d", k, p, got, want)
			}
		}
	}
}

func TestRollerReset(t *testing.T) {
	r := NewRoller(3)
	r.Feed('A')
	r.Feed('C')
	r.Feed('G')
	r.Reset()
	if _, ok := r.Feed('T'); ok {
		t.Error("one base after Reset should not complete a 3-mer")
	}
}

func BenchmarkEncode(b *testing.B) {
	seq := []byte("ACGTACGTACGTACG")
	for i := 0; i < b.N; i++ {
		Encode(seq[:5])
	}
}

func BenchmarkRoller(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	seq := make([]byte, 1024)
	bases := []byte("ACGT")
	for i := range seq {
		seq[i] = bases[rng.Intn(4)]
	}
	r := NewRoller(5)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Feed(seq[i&1023])
	}
}
