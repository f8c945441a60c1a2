package types

import "bitfact/internal/value"

// TypeForValue derives the type of a concrete value bottom-up. An empty array
// yields an array type with no element type, since none can be inferred.
func (in *Interner) TypeForValue(v value.Value) TypeID {
	switch v.Kind() {
	case value.KindBits:
		return in.Bits(v.Bits().Width())
	case value.KindTuple:
		elems := make([]TypeID, 0, v.Len())
		for _, e := range v.Elements() {
			elems = append(elems, in.TypeForValue(e))
		}
		return in.Tuple(elems)
	case value.KindArray:
		if v.Len() == 0 {
			return in.Array(0, NoTypeID)
		}
		return in.Array(v.Len(), in.TypeForValue(v.Elements()[0]))
	case value.KindToken:
		return in.Token()
	default:
		panic("types: invalid value kind")
	}
}
