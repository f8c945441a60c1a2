package ir

import (
	"fmt"
	"strings"

	"bitfact/internal/types"
	"bitfact/internal/value"
)

// NodeID numbers nodes within a function in creation order.
type NodeID uint32

// Node is a value produced inside a function. Nodes are compared by identity.
type Node struct {
	ID       NodeID
	Name     string
	Op       Op
	Type     types.TypeID
	Operands []*Node

	Literal    value.Value // OpLiteral
	Start      int         // OpBitSlice
	Width      int         // OpBitSlice, OpZeroExt
	Index      int         // OpTupleIndex
	HasDefault bool        // OpSelect: last operand is the default case

	fn *Function
}

// Function returns the owning function.
func (n *Node) Function() *Function { return n.fn }

// Types returns the interner the node's type lives in.
func (n *Node) Types() *types.Interner { return n.fn.pkg.Types }

// IsBits reports whether the node is bits-typed.
func (n *Node) IsBits() bool { return n.Types().IsBits(n.Type) }

// BitCount returns the width of a bits-typed node and panics otherwise.
func (n *Node) BitCount() int { return n.Types().BitCount(n.Type) }

// Selector returns the selector operand of a select node.
func (n *Node) Selector() *Node {
	n.expect(OpSelect)
	return n.Operands[0]
}

// Cases returns the non-default cases of a select node.
func (n *Node) Cases() []*Node {
	n.expect(OpSelect)
	end := len(n.Operands)
	if n.HasDefault {
		end--
	}
	return n.Operands[1:end]
}

// Default returns the default case of a select node, if any.
func (n *Node) Default() (*Node, bool) {
	n.expect(OpSelect)
	if !n.HasDefault {
		return nil, false
	}
	return n.Operands[len(n.Operands)-1], true
}

func (n *Node) expect(op Op) {
	if n.Op != op {
		panic(fmt.Errorf("ir: %s is %s, not %s", n.Name, n.Op, op))
	}
}

// String renders the node definition, e.g. "x: bits[4] = and(a, b)".
func (n *Node) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s = %s(", n.Name, n.Types().String(n.Type), n.Op)
	args := make([]string, 0, len(n.Operands)+2)
	if n.Op == OpSelect {
		cases := make([]string, 0, len(n.Operands))
		for _, c := range n.Cases() {
			cases = append(cases, c.Name)
		}
		args = append(args, n.Selector().Name, "cases=["+strings.Join(cases, ", ")+"]")
	} else {
		for _, o := range n.Operands {
			args = append(args, o.Name)
		}
	}
	switch n.Op {
	case OpLiteral:
		args = append(args, "value="+n.Literal.String())
	case OpBitSlice:
		args = append(args, fmt.Sprintf("start=%d", n.Start), fmt.Sprintf("width=%d", n.Width))
	case OpZeroExt:
		args = append(args, fmt.Sprintf("new_bit_count=%d", n.Width))
	case OpTupleIndex:
		args = append(args, fmt.Sprintf("index=%d", n.Index))
	case OpSelect:
		if n.HasDefault {
			def, _ := n.Default()
			args = append(args, "default="+def.Name)
		}
	}
	sb.WriteString(strings.Join(args, ", "))
	sb.WriteByte(')')
	return sb.String()
}
