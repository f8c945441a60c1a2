package propagate

import (
	"bytes"
	"errors"
	"fmt"

	"bitfact/internal/ir"
	"bitfact/internal/ternary"
)

// ErrSnapshotMismatch reports a snapshot taken from a different function.
var ErrSnapshotMismatch = errors.New("fact snapshot does not match function")

// Snapshot is the serializable fact table of one function. Leaves are
// rendered MSB first ("0b1X0"); token leaves render as "0b".
type Snapshot struct {
	Function string     `msgpack:"function"`
	Hash     []byte     `msgpack:"hash"`
	Nodes    []NodeFact `msgpack:"nodes"`
}

// NodeFact is the fact of one node, in node order.
type NodeFact struct {
	Name   string   `msgpack:"name"`
	Leaves []string `msgpack:"leaves"`
}

// Snapshot exports the fact table. It reports false before Populate.
func (e *Engine) Snapshot() (Snapshot, bool) {
	if e.fn == nil {
		return Snapshot{}, false
	}
	h := e.fn.Hash()
	s := Snapshot{Function: e.fn.Name, Hash: h[:], Nodes: make([]NodeFact, 0, len(e.fn.Nodes()))}
	for _, n := range e.fn.Nodes() {
		ls := e.facts[n]
		nf := NodeFact{Name: n.Name, Leaves: make([]string, len(ls))}
		for i, l := range ls {
			nf.Leaves[i] = l.String()
		}
		s.Nodes = append(s.Nodes, nf)
	}
	return s, true
}

// Restore loads facts for f from s instead of propagating. The snapshot must
// come from a function that prints identically to f.
func (e *Engine) Restore(f *ir.Function, s Snapshot) error {
	if err := f.Verify(); err != nil {
		return fmt.Errorf("restore %s: %w: %w", f.Name, ErrUndefinedOperand, err)
	}
	h := f.Hash()
	if !bytes.Equal(h[:], s.Hash) || len(s.Nodes) != len(f.Nodes()) {
		return fmt.Errorf("restore %s: %w", f.Name, ErrSnapshotMismatch)
	}
	in := f.Types()
	facts := make(map[*ir.Node]leaves, len(s.Nodes))
	for i, n := range f.Nodes() {
		nf := s.Nodes[i]
		lts := in.LeafTypes(n.Type)
		if nf.Name != n.Name || len(nf.Leaves) != len(lts) {
			return fmt.Errorf("restore %s: node %s: %w", f.Name, n.Name, ErrSnapshotMismatch)
		}
		ls := make(leaves, len(lts))
		for j, raw := range nf.Leaves {
			v, err := ternary.Parse(raw)
			if err != nil {
				return fmt.Errorf("restore %s: node %s: %w", f.Name, n.Name, err)
			}
			if len(v) != in.FlatBitCount(lts[j]) {
				return fmt.Errorf("restore %s: node %s leaf %d has %d bits: %w", f.Name, n.Name, j, len(v), ErrSnapshotMismatch)
			}
			ls[j] = v
		}
		facts[n] = ls
	}
	e.fn, e.facts = f, facts
	return nil
}
