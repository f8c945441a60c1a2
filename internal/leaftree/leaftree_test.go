package leaftree

import (
	"strconv"
	"testing"

	"bitfact/internal/types"
	"bitfact/internal/value"
)

func nestedType(in *types.Interner) types.TypeID {
	// (bits[1], bits[2][3], (token, bits[4]))
	return in.Tuple([]types.TypeID{
		in.Bits(1),
		in.Array(3, in.Bits(2)),
		in.Tuple([]types.TypeID{in.Token(), in.Bits(4)}),
	})
}

func TestLeafIndex(t *testing.T) {
	in := types.NewInterner()
	typ := nestedType(in)
	tests := []struct {
		path []int
		want int
	}{
		{[]int{0}, 0},
		{[]int{1, 0}, 1},
		{[]int{1, 2}, 3},
		{[]int{2, 0}, 4},
		{[]int{2, 1}, 5},
	}
	for _, tt := range tests {
		if got := LeafIndex(in, typ, tt.path); got != tt.want {
			t.Fatalf("LeafIndex(%v) = %d, want %d", tt.path, got, tt.want)
		}
	}
	if LeafIndex(in, in.Bits(8), nil) != 0 {
		t.Fatalf("scalar root must be leaf 0")
	}
}

func TestLeafIndexRejectsBadPaths(t *testing.T) {
	in := types.NewInterner()
	typ := nestedType(in)
	for _, path := range [][]int{{1}, {3}, {1, 3}, {0, 0}, nil} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("path %v should panic", path)
				}
			}()
			LeafIndex(in, typ, path)
		}()
	}
}

func TestNewMapAndString(t *testing.T) {
	in := types.NewInterner()
	typ := nestedType(in)
	widths := New(in, typ, func(leaf types.TypeID) int {
		if in.IsToken(leaf) {
			return -1
		}
		return in.BitCount(leaf)
	})
	if got := widths.Get(2, 1); got != 4 {
		t.Fatalf("Get(2,1) = %d", got)
	}
	strs := Map(widths, strconv.Itoa)
	if got := strs.String(func(s string) string { return s }); got != "(1, [2, 2, 2], (-1, 4))" {
		t.Fatalf("String = %q", got)
	}
	indexed, err := MapIndex(widths, func(_ types.TypeID, w int, leaf int) (int, error) {
		return w*10 + leaf, nil
	})
	if err != nil {
		t.Fatalf("MapIndex: %v", err)
	}
	if indexed.Leaf(3) != 23 {
		t.Fatalf("MapIndex leaf 3 = %d", indexed.Leaf(3))
	}
	if !widths.AllOf(func(w int) bool { return w != 0 }) {
		t.Fatalf("AllOf")
	}
}

func TestToValue(t *testing.T) {
	in := types.NewInterner()
	typ := nestedType(in)
	leaves := []value.Value{
		value.UBits(1, 1),
		value.UBits(0, 2), value.UBits(1, 2), value.UBits(3, 2),
		value.Token(), value.UBits(9, 4),
	}
	got, err := ToValue(FromElements(in, typ, leaves))
	if err != nil {
		t.Fatalf("ToValue: %v", err)
	}
	want := value.Tuple(
		value.UBits(1, 1),
		value.Array(value.UBits(0, 2), value.UBits(1, 2), value.UBits(3, 2)),
		value.Tuple(value.Token(), value.UBits(9, 4)),
	)
	if !got.Equal(want) {
		t.Fatalf("ToValue = %s, want %s", got, want)
	}
	if in.TypeForValue(got) != typ {
		t.Fatalf("value type does not round trip")
	}

	leaves[4] = value.UBits(0, 1)
	if _, err := ToValue(FromElements(in, typ, leaves)); err == nil {
		t.Fatalf("bits in a token leaf should fail")
	}
}

func TestFoldAndEqual(t *testing.T) {
	in := types.NewInterner()
	typ := nestedType(in)
	widths := New(in, typ, func(leaf types.TypeID) int {
		if in.IsToken(leaf) {
			return 0
		}
		return in.BitCount(leaf)
	})
	if got := Fold(widths, 0, func(sum, w int) int { return sum + w }); got != in.FlatBitCount(typ) {
		t.Fatalf("Fold sum = %d, want %d", got, in.FlatBitCount(typ))
	}
	order := Fold(widths, "", func(acc string, w int) string { return acc + strconv.Itoa(w) })
	if order != "122204" {
		t.Fatalf("Fold order = %q", order)
	}
	if widths.AllOf(func(w int) bool { return w != 0 }) {
		t.Fatalf("AllOf must see the token leaf")
	}

	eq := func(a, b int) bool { return a == b }
	same := widths.Clone()
	if !Equal(widths, same, eq) {
		t.Fatalf("a clone must be equal")
	}
	same.Set(0, 7)
	if Equal(widths, same, eq) {
		t.Fatalf("changed leaf must break equality")
	}
	other := New(in, in.Bits(1), func(types.TypeID) int { return 1 })
	if Equal(widths, other, eq) {
		t.Fatalf("different types are never equal")
	}
}
