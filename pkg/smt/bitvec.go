package smt

// Bitvector predicates are blasted bitwise from the least significant bit
// up, so the most significant differing bit decides comparisons.

// constBits returns c as a width-bit vector of constants, and false when c
// is negative or needs more than width bits.
func (s *Gini) constBits(c, width int) (BitVec, bool) {
	if c < 0 || (width < 63 && c >= 1<<uint(width)) {
		return nil, false
	}
	v := make(BitVec, width)
	for i := range v {
		if c&(1<<uint(i)) != 0 {
			v[i] = s.True()
		} else {
			v[i] = s.False()
		}
	}
	return v, true
}

// align zero-extends the shorter operand.
func (s *Gini) align(x, y BitVec) (BitVec, BitVec) {
	for len(x) < len(y) {
		x = append(x[:len(x):len(x)], s.False())
	}
	for len(y) < len(x) {
		y = append(y[:len(y):len(y)], s.False())
	}
	return x, y
}

// Eq implements [Builder].
func (s *Gini) Eq(x, y BitVec) Bool {
	x, y = s.align(x, y)
	bits := make([]Bool, len(x))
	for i := range x {
		bits[i] = s.Iff(x[i], y[i])
	}
	return s.And(bits...)
}

// ULT implements [Builder].
func (s *Gini) ULT(x, y BitVec) Bool {
	x, y = s.align(x, y)
	lt := s.False()
	for i := range x {
		// bit i decides when it differs, otherwise the lower bits do
		here := s.And(s.Not(x[i]), y[i])
		lt = s.Or(here, s.And(s.Iff(x[i], y[i]), lt))
	}
	return lt
}

// ULE implements [Builder].
func (s *Gini) ULE(x, y BitVec) Bool { return s.Not(s.ULT(y, x)) }

// EqConst implements [Builder].
func (s *Gini) EqConst(x BitVec, c int) Bool {
	k, ok := s.constBits(c, len(x))
	if !ok {
		return s.False()
	}
	return s.Eq(x, k)
}

// ULTConst implements [Builder].
func (s *Gini) ULTConst(x BitVec, c int) Bool {
	if c <= 0 {
		return s.False()
	}
	k, ok := s.constBits(c, len(x))
	if !ok {
		// c exceeds every representable value
		return s.True()
	}
	return s.ULT(x, k)
}

// ULEConst implements [Builder].
func (s *Gini) ULEConst(x BitVec, c int) Bool {
	if c < 0 {
		return s.False()
	}
	return s.ULTConst(x, c+1)
}
