package entropy

// dense is the array tracker: one count cell per possible code. A uint16
// cell is enough because no code can occur more often than W-k+1 times in
// a window, and configuration rejects windows that large.
type dense struct {
	scale   *Scale
	counts  []uint16 // indexed by code, size 4^k
	cc      []uint16 // count-of-counts, cc[j] = codes occurring j times
	esum    float64  // running sum of table[count] over live codes
	unique  int
	valid   int
	invalid int
}

func newDense(k int, scale *Scale) *dense {
	d := &dense{
		scale:  scale,
		counts: make([]uint16, 1<<(2*uint(k))),
		cc:     make([]uint16, scale.windowKmers+2),
	}
	d.cc[0] = uint16(scale.windowKmers)
	return d
}

func (d *dense) Add(code int32) {
	if code < 0 {
		d.invalid++
		return
	}
	old := d.counts[code]
	if old == 0 {
		d.unique++
	}
	d.cc[old]--
	d.cc[old+1]++
	d.counts[code] = old + 1
	d.esum += d.scale.table[old+1] - d.scale.table[old]
	d.valid++
}

func (d *dense) Remove(code int32) {
	if code < 0 {
		d.invalid--
		return
	}
	old := d.counts[code]
	if old == 0 {
		return
	}
	d.cc[old]--
	d.cc[old-1]++
	d.counts[code] = old - 1
	d.esum += d.scale.table[old-1] - d.scale.table[old]
	if old == 1 {
		d.unique--
	}
	d.valid--
}

func (d *dense) Entropy() float64 {
	e := d.esum * d.scale.mult
	if e < 0 {
		return 0
	}
	return e
}

func (d *dense) Valid() int   { return d.valid }
func (d *dense) Unique() int  { return d.unique }
func (d *dense) Invalid() int { return d.invalid }

func (d *dense) Reset() {
	clear(d.counts)
	clear(d.cc)
	d.cc[0] = uint16(d.scale.windowKmers)
	d.esum = 0
	d.unique = 0
	d.valid = 0
	d.invalid = 0
}
