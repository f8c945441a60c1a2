package types

import (
	"fmt"
	"strings"
)

// String renders a type in IR syntax: bits[8], token, (bits[1], token),
// bits[8][4] for an array of four bits[8], (bits[1]) -> bits[2].
func (in *Interner) String(id TypeID) string {
	var sb strings.Builder
	in.write(&sb, id)
	return sb.String()
}

func (in *Interner) write(sb *strings.Builder, id TypeID) {
	tt, ok := in.Lookup(id)
	if !ok {
		sb.WriteString("<none>")
		return
	}
	switch tt.Kind {
	case KindBits:
		fmt.Fprintf(sb, "bits[%d]", tt.Count)
	case KindToken:
		sb.WriteString("token")
	case KindArray:
		in.write(sb, tt.Elem)
		fmt.Fprintf(sb, "[%d]", tt.Count)
	case KindTuple:
		in.writeList(sb, in.tuples[tt.Payload].Elems)
	case KindFn:
		info := in.fns[tt.Payload]
		sb.WriteString(in.signature(info.Params, info.Result))
	default:
		sb.WriteString(tt.Kind.String())
	}
}

func (in *Interner) writeList(sb *strings.Builder, ids []TypeID) {
	sb.WriteByte('(')
	for i, e := range ids {
		if i > 0 {
			sb.WriteString(", ")
		}
		in.write(sb, e)
	}
	sb.WriteByte(')')
}

func (in *Interner) signature(params []TypeID, result TypeID) string {
	var sb strings.Builder
	in.writeList(&sb, params)
	sb.WriteString(" -> ")
	in.write(&sb, result)
	return sb.String()
}
