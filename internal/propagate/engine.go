package propagate

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"bitfact/internal/bits"
	"bitfact/internal/ir"
	"bitfact/internal/leaftree"
	"bitfact/internal/query"
	"bitfact/internal/ternary"
	"bitfact/internal/trace"
)

// ErrUndefinedOperand reports a function whose facts cannot be computed
// because some operand is not defined before its use.
var ErrUndefinedOperand = errors.New("operand not defined earlier in the function")

// Engine holds the ternary facts of one function.
type Engine struct {
	fn     *ir.Function
	facts  map[*ir.Node]leaves
	givens []query.BitAssumption

	tracer trace.Tracer
	parent uint64
}

var _ query.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithTracer reports populate spans to t as children of parent.
func WithTracer(t trace.Tracer, parent uint64) Option {
	return func(e *Engine) {
		e.tracer, e.parent = t, parent
	}
}

// New returns an empty engine; nothing is tracked until Populate.
func New(opts ...Option) *Engine {
	e := &Engine{tracer: trace.Nop}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Function returns the populated function, or nil.
func (e *Engine) Function() *ir.Function { return e.fn }

// Populate computes facts for every node of f. Populating the function the
// engine already holds, unchanged, reports Unchanged.
func (e *Engine) Populate(f *ir.Function) (query.ReachedFixpoint, error) {
	if f == nil {
		return query.Unknown, fmt.Errorf("populate: %w: no function", ErrUndefinedOperand)
	}
	if err := f.Verify(); err != nil {
		return query.Unknown, fmt.Errorf("populate %s: %w: %w", f.Name, ErrUndefinedOperand, err)
	}
	if e.fn == f && len(e.facts) == len(f.Nodes()) {
		return query.Unchanged, nil
	}

	span := trace.Begin(e.tracer, trace.ScopePass, "populate", e.parent).WithExtra("function", f.Name)
	facts, ok := run(f, e.givens)
	if !ok {
		// The givens select an unreachable context. Drop them so later
		// hypotheses are not all vacuously true.
		e.givens = nil
		facts, _ = run(f, nil)
		span.WithExtra("givens", "dropped")
	}
	e.fn, e.facts = f, facts

	known := 0
	for _, n := range f.Nodes() {
		if allKnown(facts[n]) {
			known++
			trace.Point(e.tracer, trace.ScopeNode, n.Name, renderLeaves(facts[n]), span.ID())
		}
	}
	span.WithExtra("nodes", strconv.Itoa(len(f.Nodes()))).
		WithExtra("known", strconv.Itoa(known)).
		End(query.Changed.String())
	return query.Changed, nil
}

// run propagates facts through f in node order, forcing every assumed bit. It
// reports false when an assumption contradicts a derived fact.
func run(f *ir.Function, assume []query.BitAssumption) (map[*ir.Node]leaves, bool) {
	byNode := make(map[*ir.Node][]query.BitAssumption, len(assume))
	for _, a := range assume {
		byNode[a.Bit.Node] = append(byNode[a.Bit.Node], a)
	}
	facts := make(map[*ir.Node]leaves, len(f.Nodes()))
	get := func(n *ir.Node) leaves { return facts[n] }
	for _, n := range f.Nodes() {
		ls := transfer(n, get)
		if len(byNode[n]) > 0 {
			// Leaves may be shared with operands; copy before writing.
			ls = slices.Clone(ls)
		}
		for _, a := range byNode[n] {
			loc := a.Bit
			if loc.Leaf < 0 || loc.Leaf >= len(ls) || loc.Bit < 0 || loc.Bit >= len(ls[loc.Leaf]) {
				panic(fmt.Errorf("propagate: assumption on %s is out of range", loc))
			}
			want := ternary.FromBool(a.Value)
			switch ls[loc.Leaf][loc.Bit] {
			case want:
			case ternary.Unknown:
				ls[loc.Leaf] = ls[loc.Leaf].Clone()
				ls[loc.Leaf][loc.Bit] = want
			default:
				return nil, false
			}
		}
		facts[n] = ls
	}
	return facts, true
}

func allKnown(ls leaves) bool {
	for _, l := range ls {
		if !ternary.IsFullyKnown(l) {
			return false
		}
	}
	return true
}

func renderLeaves(ls leaves) string {
	if len(ls) == 1 {
		return ls[0].String()
	}
	out := ""
	for i, l := range ls {
		if i > 0 {
			out += " "
		}
		out += l.String()
	}
	return out
}

func (e *Engine) IsTracked(n *ir.Node) bool {
	_, ok := e.facts[n]
	return ok
}

// Ternary returns a copy of the fact for n.
func (e *Engine) Ternary(n *ir.Node) (leaftree.Tree[ternary.Vector], bool) {
	ls, ok := e.facts[n]
	if !ok {
		return leaftree.Tree[ternary.Vector]{}, false
	}
	return leaftree.FromElements(n.Types(), n.Type, cloneLeaves(ls)), true
}

func at(facts map[*ir.Node]leaves, l query.TreeBitLocation) ternary.Value {
	ls, ok := facts[l.Node]
	if !ok {
		return ternary.Unknown
	}
	return ls[l.Leaf][l.Bit]
}

// assuming propagates the engine's givens plus extra. ok is false when they
// cannot all hold.
func (e *Engine) assuming(extra ...query.BitAssumption) (facts map[*ir.Node]leaves, ok bool) {
	if e.fn == nil {
		return nil, true
	}
	all := append(slices.Clone(e.givens), extra...)
	return run(e.fn, all)
}

// forces reports whether assuming a=av leaves b known as bv, or cannot hold.
// Facts only flow forward, so callers try both directions of a relation.
func (e *Engine) forces(a query.TreeBitLocation, av bool, b query.TreeBitLocation, bv bool) bool {
	if !e.IsTracked(a.Node) || !e.IsTracked(b.Node) {
		return false
	}
	facts, ok := e.assuming(query.BitAssumption{Bit: a, Value: av})
	return !ok || at(facts, b) == ternary.FromBool(bv)
}

func (e *Engine) AtMostOneTrue(locs []query.TreeBitLocation) bool {
	var maybe []query.TreeBitLocation
	for _, l := range locs {
		if at(e.facts, l) != ternary.KnownZero {
			maybe = append(maybe, l)
		}
	}
	for i, a := range maybe {
		for _, b := range maybe[i+1:] {
			if a == b {
				return false
			}
			if !e.forces(a, true, b, false) && !e.forces(b, true, a, false) {
				return false
			}
		}
	}
	return true
}

func (e *Engine) AtLeastOneTrue(locs []query.TreeBitLocation) bool {
	if len(locs) == 0 {
		return false
	}
	zeros := make([]query.BitAssumption, len(locs))
	for i, l := range locs {
		if at(e.facts, l) == ternary.KnownOne {
			return true
		}
		if !e.IsTracked(l.Node) {
			return false
		}
		zeros[i] = query.BitAssumption{Bit: l}
	}
	_, ok := e.assuming(zeros...)
	return !ok
}

// Implies tries a=1 forcing b=1 and its contrapositive b=0 forcing a=0.
func (e *Engine) Implies(a, b query.TreeBitLocation) bool {
	if a == b || at(e.facts, a) == ternary.KnownZero || at(e.facts, b) == ternary.KnownOne {
		return true
	}
	return e.forces(a, true, b, true) || e.forces(b, false, a, false)
}

func (e *Engine) KnownEquals(a, b query.TreeBitLocation) bool {
	if a == b {
		return true
	}
	return e.related(a, b, false)
}

func (e *Engine) KnownNotEquals(a, b query.TreeBitLocation) bool {
	if a == b {
		return false
	}
	return e.related(a, b, true)
}

// related reports whether b always equals a, or always differs from it when
// invert is set.
func (e *Engine) related(a, b query.TreeBitLocation, invert bool) bool {
	x, y := at(e.facts, a), at(e.facts, b)
	if x != ternary.Unknown && y != ternary.Unknown {
		return (x != y) == invert
	}
	if x != ternary.Unknown || y != ternary.Unknown {
		return false
	}
	both := func(from, to query.TreeBitLocation) bool {
		return e.forces(from, false, to, invert) && e.forces(from, true, to, !invert)
	}
	return both(a, b) || both(b, a)
}

func (e *Engine) ImpliedNodeValue(assumptions []query.BitAssumption, n *ir.Node) (bits.Bits, bool) {
	v, ok := e.ImpliedNodeTernary(assumptions, n)
	if !ok || !ternary.IsFullyKnown(v) {
		return bits.Bits{}, false
	}
	return ternary.ToKnownBits(v), true
}

func (e *Engine) ImpliedNodeTernary(assumptions []query.BitAssumption, n *ir.Node) (ternary.Vector, bool) {
	if !e.IsTracked(n) || !n.IsBits() {
		return nil, false
	}
	facts, ok := e.assuming(assumptions...)
	if !ok {
		return nil, false
	}
	return facts[n][0].Clone(), true
}

// SpecializeGivenPredicate assumes each named select chose its arm, which
// pins the selector to the arm index. Default arms and arms the selector
// cannot encode add nothing; with nothing to add the result forwards to e.
func (e *Engine) SpecializeGivenPredicate(state []query.PredicateState) query.Engine {
	var extra []query.BitAssumption
	for _, s := range state {
		if s.Select == nil || s.Select.Op != ir.OpSelect || s.Arm == query.DefaultArm {
			continue
		}
		if e.fn != nil && s.Select.Function() != e.fn {
			continue
		}
		sel := s.Select.Selector()
		w := sel.BitCount()
		if s.Arm < 0 || s.Arm >= len(s.Select.Cases()) || !fitsWidth(s.Arm, w) {
			continue
		}
		for i := range w {
			extra = append(extra, query.BitAssumption{Bit: query.BitOf(sel, i), Value: s.Arm>>i&1 == 1})
		}
	}
	if len(extra) == 0 {
		return query.Unspecialized(e)
	}
	narrowed := &Engine{
		givens: append(slices.Clone(e.givens), extra...),
		tracer: e.tracer,
		parent: e.parent,
	}
	if e.fn != nil {
		facts, ok := run(e.fn, narrowed.givens)
		if !ok {
			// An unreachable arm adds no usable knowledge.
			return query.Unspecialized(e)
		}
		narrowed.fn, narrowed.facts = e.fn, facts
	}
	return narrowed
}
