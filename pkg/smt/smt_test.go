package smt

import (
	"context"
	"testing"
	"time"
)

func check(t *testing.T, s System, want Status, assumptions ...Bool) Result {
	t.Helper()
	res := s.Check(context.Background(), assumptions...)
	if res.Status != want {
		t.Fatalf("Check = %v, want %v", res.Status, want)
	}
	return res
}

func TestSatUnsat(t *testing.T) {
	s := NewGini()
	a, b := s.NewBool(), s.NewBool()
	s.Assert(a, s.Not(b))
	res := check(t, s, Sat)
	if !res.Model.Bool(a) || res.Model.Bool(b) {
		t.Errorf("model a=%v b=%v", res.Model.Bool(a), res.Model.Bool(b))
	}
	if !res.Model.Bool(s.True()) || res.Model.Bool(s.False()) {
		t.Error("constants misread")
	}

	s.Assert(s.Implies(a, b))
	check(t, s, Unsat)
}

func TestAssumptionsAreTransient(t *testing.T) {
	s := NewGini()
	a := s.NewBool()
	s.Assert(s.Or(a, s.NewBool()))
	check(t, s, Sat, s.Not(a))
	check(t, s, Sat, a)

	s.Assert(a)
	check(t, s, Unsat, s.Not(a))
	check(t, s, Sat)
}

func TestPushPop(t *testing.T) {
	s := NewGini()
	a, b := s.NewBool(), s.NewBool()
	s.Assert(s.Or(a, b))

	s.Push()
	s.Assert(s.Not(a))
	s.Push()
	s.Assert(s.Not(b))
	if s.Depth() != 2 {
		t.Fatalf("Depth = %d, want 2", s.Depth())
	}
	check(t, s, Unsat)

	if err := s.Pop(); err != nil {
		t.Fatal(err)
	}
	res := check(t, s, Sat)
	if res.Model.Bool(a) || !res.Model.Bool(b) {
		t.Errorf("model a=%v b=%v, want a=false b=true", res.Model.Bool(a), res.Model.Bool(b))
	}

	if err := s.Pop(); err != nil {
		t.Fatal(err)
	}
	check(t, s, Sat, a, s.Not(b))

	if err := s.Pop(); err != ErrNoScope {
		t.Errorf("Pop on empty = %v, want ErrNoScope", err)
	}
}

func TestEmptyScope(t *testing.T) {
	s := NewGini()
	s.Push()
	s.Push()
	check(t, s, Sat)
	for s.Depth() > 0 {
		if err := s.Pop(); err != nil {
			t.Fatal(err)
		}
	}
	check(t, s, Sat)
}

func TestBitVecConst(t *testing.T) {
	s := NewGini()
	x := s.NewBitVec(3)
	s.Assert(s.EqConst(x, 5))
	res := check(t, s, Sat)
	if got := res.Model.Uint(x); got != 5 {
		t.Errorf("x = %d, want 5", got)
	}
	if s.EqConst(x, 8) != s.False() || s.EqConst(x, -1) != s.False() {
		t.Error("out-of-range constants must be false")
	}
}

func TestBitVecCompare(t *testing.T) {
	tests := []struct {
		name  string
		build func(s *Gini, x BitVec) Bool
		want  []int // satisfying values of a 3-bit x
	}{
		{"ult 3", func(s *Gini, x BitVec) Bool { return s.ULTConst(x, 3) }, []int{0, 1, 2}},
		{"ule 3", func(s *Gini, x BitVec) Bool { return s.ULEConst(x, 3) }, []int{0, 1, 2, 3}},
		{"ult 0", func(s *Gini, x BitVec) Bool { return s.ULTConst(x, 0) }, nil},
		{"ult 100", func(s *Gini, x BitVec) Bool { return s.ULTConst(x, 100) }, []int{0, 1, 2, 3, 4, 5, 6, 7}},
		{"ule -1", func(s *Gini, x BitVec) Bool { return s.ULEConst(x, -1) }, nil},
		{"not ult 6", func(s *Gini, x BitVec) Bool { return s.Not(s.ULTConst(x, 6)) }, []int{6, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewGini()
			x := s.NewBitVec(3)
			s.Assert(tt.build(s, x))
			var got []int
			for {
				res := s.Check(context.Background())
				if res.Status != Sat {
					break
				}
				v := int(res.Model.Uint(x))
				got = append(got, v)
				s.Assert(s.Not(s.EqConst(x, v)))
				if len(got) > 8 {
					t.Fatal("enumeration does not terminate")
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("solutions = %v, want %v", got, tt.want)
			}
			seen := map[int]bool{}
			for _, v := range got {
				seen[v] = true
			}
			for _, v := range tt.want {
				if !seen[v] {
					t.Errorf("missing solution %d in %v", v, got)
				}
			}
		})
	}
}

func TestBitVecRelations(t *testing.T) {
	s := NewGini()
	x, y := s.NewBitVec(3), s.NewBitVec(2)
	s.Assert(s.EqConst(x, 2), s.ULT(y, x), s.Not(s.EqConst(y, 0)))
	res := check(t, s, Sat)
	if got := res.Model.Uint(y); got != 1 {
		t.Errorf("y = %d, want 1", got)
	}

	s.Push()
	s.Assert(s.Eq(x, y))
	check(t, s, Unsat)
	if err := s.Pop(); err != nil {
		t.Fatal(err)
	}

	check(t, s, Sat, s.ULE(y, x), s.Not(s.ULE(x, y)))
	check(t, s, Unsat, s.ULE(x, y))
}

func TestAtMostK(t *testing.T) {
	s := NewGini()
	xs := []Bool{s.NewBool(), s.NewBool(), s.NewBool(), s.NewBool()}

	if s.AtMostK(xs, 1) != s.AtMostK(xs, 1) {
		t.Error("AtMostK not shared for identical sets")
	}
	if s.AtMostK(xs, 4) != s.True() || s.AtMostK(xs, -1) != s.False() {
		t.Error("trivial bounds not folded")
	}

	s.Assert(s.AtMostK(xs, 2))
	check(t, s, Sat, xs[0], xs[3])
	check(t, s, Unsat, xs[0], xs[1], xs[2])

	s.Push()
	s.Assert(s.AtMostK(xs, 0))
	res := check(t, s, Sat)
	for i, x := range xs {
		if res.Model.Bool(x) {
			t.Errorf("xs[%d] true under AtMostK 0", i)
		}
	}
	if err := s.Pop(); err != nil {
		t.Fatal(err)
	}
	check(t, s, Sat, xs[1], xs[2])
}

func TestCancelledContextIsUnknown(t *testing.T) {
	s := NewGini(WithTimeout(time.Second))
	s.Assert(s.NewBool())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if res := s.Check(ctx); res.Status != Unknown || res.Model != nil {
		t.Errorf("Check = %+v, want Unknown without model", res)
	}
	// the system stays usable
	check(t, s, Sat)

	st := s.Stats()
	if st.Checks != 2 || st.Unknown != 1 || st.Sat != 1 {
		t.Errorf("Stats = %v", st)
	}
}

func TestTimeoutPath(t *testing.T) {
	s := NewGini(WithTimeout(time.Minute), WithPollInterval(time.Millisecond))
	a := s.NewBool()
	s.Assert(a)
	check(t, s, Sat)
	check(t, s, Unsat, s.Not(a))
}

func TestStatusString(t *testing.T) {
	for st, want := range map[Status]string{Sat: "sat", Unsat: "unsat", Unknown: "unknown"} {
		if st.String() != want {
			t.Errorf("%d.String() = %q, want %q", st, st.String(), want)
		}
	}
}
