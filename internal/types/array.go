package types

// ArrayInfo returns the element type and size of an array TypeID. elem is
// NoTypeID for an empty array whose element type could not be inferred.
func (in *Interner) ArrayInfo(id TypeID) (elem TypeID, size int, ok bool) {
	tt, found := in.Lookup(id)
	if !found || tt.Kind != KindArray {
		return NoTypeID, 0, false
	}
	return tt.Elem, int(tt.Count), true
}
