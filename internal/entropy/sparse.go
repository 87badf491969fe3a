package entropy

// sparse is the map tracker for large k, where a 4^k count array would
// blow past cache for no benefit. Live memory is bounded by the number of
// distinct codes in the window, never by 4^k.
type sparse struct {
	scale   *Scale
	counts  map[uint32]uint16
	cc      []uint16
	esum    float64
	unique  int
	valid   int
	invalid int
}

func newSparse(scale *Scale) *sparse {
	s := &sparse{
		scale:  scale,
		counts: make(map[uint32]uint16, scale.windowKmers),
		cc:     make([]uint16, scale.windowKmers+2),
	}
	s.cc[0] = uint16(scale.windowKmers)
	return s
}

func (s *sparse) Add(code int32) {
	if code < 0 {
		s.invalid++
		return
	}
	old := s.counts[uint32(code)]
	if old == 0 {
		s.unique++
	}
	s.cc[old]--
	s.cc[old+1]++
	s.counts[uint32(code)] = old + 1
	s.esum += s.scale.table[old+1] - s.scale.table[old]
	s.valid++
}

func (s *sparse) Remove(code int32) {
	if code < 0 {
		s.invalid--
		return
	}
	old := s.counts[uint32(code)]
	if old == 0 {
		return
	}
	s.cc[old]--
	s.cc[old-1]++
	if old == 1 {
		delete(s.counts, uint32(code))
		s.unique--
	} else {
		s.counts[uint32(code)] = old - 1
	}
	s.esum += s.scale.table[old-1] - s.scale.table[old]
	s.valid--
}

func (s *sparse) Entropy() float64 {
	e := s.esum * s.scale.mult
	if e < 0 {
		return 0
	}
	return e
}

func (s *sparse) Valid() int   { return s.valid }
func (s *sparse) Unique() int  { return s.unique }
func (s *sparse) Invalid() int { return s.invalid }

func (s *sparse) Reset() {
	clear(s.counts)
	clear(s.cc)
	s.cc[0] = uint16(s.scale.windowKmers)
	s.esum = 0
	s.unique = 0
	s.valid = 0
	s.invalid = 0
}
