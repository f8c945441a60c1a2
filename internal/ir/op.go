package ir

import "fmt"

// Op enumerates node operations.
type Op uint8

const (
	OpInvalid Op = iota
	// OpParam is a function parameter.
	OpParam
	// OpLiteral is a constant value.
	OpLiteral
	OpNot
	OpAnd
	OpOr
	OpXor
	OpAdd
	// OpConcat joins bit vectors; operand 0 supplies the most significant bits.
	OpConcat
	// OpBitSlice extracts Width bits starting at bit Start.
	OpBitSlice
	// OpZeroExt widens to Width bits.
	OpZeroExt
	OpEq
	OpNe
	// OpSelect picks a case by selector value, falling back to the default.
	OpSelect
	OpTuple
	OpTupleIndex
	OpArray
	OpArrayIndex
	// OpAfterAll joins tokens.
	OpAfterAll
)

var opNames = [...]string{
	OpInvalid:    "invalid",
	OpParam:      "param",
	OpLiteral:    "literal",
	OpNot:        "not",
	OpAnd:        "and",
	OpOr:         "or",
	OpXor:        "xor",
	OpAdd:        "add",
	OpConcat:     "concat",
	OpBitSlice:   "bit_slice",
	OpZeroExt:    "zero_ext",
	OpEq:         "eq",
	OpNe:         "ne",
	OpSelect:     "sel",
	OpTuple:      "tuple",
	OpTupleIndex: "tuple_index",
	OpArray:      "array",
	OpArrayIndex: "array_index",
	OpAfterAll:   "after_all",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", op)
}

// ParseOp converts an operation name to an Op.
func ParseOp(s string) (Op, error) {
	for i, name := range opNames {
		if name == s && Op(i) != OpInvalid {
			return Op(i), nil
		}
	}
	return OpInvalid, fmt.Errorf("unknown op %q", s)
}
