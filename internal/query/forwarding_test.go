package query

import (
	"errors"
	"testing"

	"bitfact/internal/ir"
	"bitfact/internal/leaftree"
	"bitfact/internal/ternary"
	"bitfact/internal/types"
)

func TestForwardingIsTransparent(t *testing.T) {
	f, in := testFunc()
	x := f.Param("x", in.Bits(4))
	y := f.Param("y", in.Bits(4))
	pair := f.Param("pair", in.Tuple([]types.TypeID{in.Token(), in.Bits(2)}))
	untracked := f.Param("u", in.Bits(4))
	real := newTable()
	real.set(x, "0XX1")
	real.set(y, "1X00")
	real.set(pair, "", "10")
	fwd := NewForwarding(real)

	rq, fq := Of(real), Of(fwd)
	for _, n := range []*ir.Node{x, y, untracked} {
		if real.IsTracked(n) && rq.String(n) != fq.String(n) {
			t.Fatalf("%s: string differs", n.Name)
		}
		rtree, rtracked := real.Ternary(n)
		ftree, ftracked := fwd.Ternary(n)
		if rtracked != ftracked || (rtracked && !leaftree.Equal(rtree, ftree, ternary.Equal)) {
			t.Fatalf("%s: ternary differs", n.Name)
		}
		if !rq.MaxUnsignedValue(n).Equal(fq.MaxUnsignedValue(n)) || !rq.MinUnsignedValue(n).Equal(fq.MinUnsignedValue(n)) {
			t.Fatalf("%s: bounds differ", n.Name)
		}
		if !rq.Intervals(n).Leaf(0).Equal(fq.Intervals(n).Leaf(0)) {
			t.Fatalf("%s: intervals differ", n.Name)
		}
		if rq.AtMostOneBitTrue(n) != fq.AtMostOneBitTrue(n) || rq.AtLeastOneBitTrue(n) != fq.AtLeastOneBitTrue(n) {
			t.Fatalf("%s: one-hot answers differ", n.Name)
		}
		for i := range 4 {
			a, b := BitOf(n, i), BitOf(y, i)
			if real.Implies(a, b) != fwd.Implies(a, b) ||
				real.KnownEquals(a, b) != fwd.KnownEquals(a, b) ||
				real.KnownNotEquals(a, b) != fwd.KnownNotEquals(a, b) {
				t.Fatalf("%s: bit relations differ at %d", n.Name, i)
			}
		}
		rv, rok := real.ImpliedNodeValue(nil, n)
		fv, fok := fwd.ImpliedNodeValue(nil, n)
		if rok != fok || (rok && !rv.Equal(fv)) {
			t.Fatalf("%s: implied value differs", n.Name)
		}
		rt, rok := real.ImpliedNodeTernary(nil, n)
		ft, fok := fwd.ImpliedNodeTernary(nil, n)
		if rok != fok || rt.String() != ft.String() {
			t.Fatalf("%s: implied ternary differs", n.Name)
		}
	}
	if rq.IsAllOnes(pair) != fq.IsAllOnes(pair) || rq.String(pair) != fq.String(pair) {
		t.Fatalf("tuple answers differ")
	}
	if fwd.IsTracked(untracked) {
		t.Fatalf("forwarding invented a fact")
	}
}

func TestForwardingPopulateFails(t *testing.T) {
	f, _ := testFunc()
	fwd := NewForwarding(newTable())
	r, err := fwd.Populate(f)
	if !errors.Is(err, ErrForwardingPopulate) {
		t.Fatalf("got %v, want ErrForwardingPopulate", err)
	}
	if r != Unknown {
		t.Fatalf("got %s, want unknown", r)
	}
}

func TestForwardingSpecializesRealEngine(t *testing.T) {
	f, in := testFunc()
	sel := f.Param("s", in.Bits(1))
	a := f.Param("a", in.Bits(2))
	b := f.Param("b", in.Bits(2))
	s := f.Select("pick", sel, []*ir.Node{a, b}, nil)
	real := newTable()
	fwd := NewForwarding(real)

	state := []PredicateState{{Select: s, Arm: 1}}
	got := fwd.SpecializeGivenPredicate(state)
	if real.specialized != 1 {
		t.Fatalf("real engine specialized %d times, want 1", real.specialized)
	}
	narrowed, ok := got.(*tableEngine)
	if !ok || len(narrowed.state) != 1 || narrowed.state[0] != state[0] {
		t.Fatalf("specialization did not come from the real engine: %T", got)
	}
}

func TestUnspecializedForwardsToOriginal(t *testing.T) {
	real := newTable()
	e := Unspecialized(real)
	fwd, ok := e.(*Forwarding)
	if !ok || fwd.Unwrap() != Engine(real) {
		t.Fatalf("got %T", e)
	}
}
