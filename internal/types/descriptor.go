package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrInvalidDescriptor reports a malformed serialized type description.
var ErrInvalidDescriptor = errors.New("invalid type descriptor")

// Limits on the shape a descriptor may describe. Leaf layouts are built
// eagerly, so these bound the memory a single descriptor can claim.
const (
	MaxDescriptorLeaves = 1 << 16
	MaxDescriptorBits   = 1 << 24
)

// Descriptor is the serialized form of a type. Pointer fields distinguish a
// missing field from a zero value.
type Descriptor struct {
	Kind     string       `msgpack:"kind" toml:"kind"`
	Width    *int64       `msgpack:"width,omitempty" toml:"width"`
	Size     *int64       `msgpack:"size,omitempty" toml:"size"`
	Element  *Descriptor  `msgpack:"element,omitempty" toml:"element"`
	Elements []Descriptor `msgpack:"elements,omitempty" toml:"elements"`
}

// FnDescriptor is the serialized form of a function type.
type FnDescriptor struct {
	Params []Descriptor `msgpack:"params" toml:"params"`
	Result *Descriptor  `msgpack:"result,omitempty" toml:"result"`
}

// BitsDescriptor is shorthand for a bits descriptor of the given width.
func BitsDescriptor(width int64) Descriptor {
	return Descriptor{Kind: "bits", Width: &width}
}

// FromDescriptor interns the type described by d. Malformed descriptors are
// reported as errors wrapping ErrInvalidDescriptor.
func (in *Interner) FromDescriptor(d Descriptor) (TypeID, error) {
	switch d.Kind {
	case "":
		return NoTypeID, fmt.Errorf("%w: missing kind", ErrInvalidDescriptor)
	case "bits":
		if d.Width == nil || *d.Width < 0 {
			return NoTypeID, fmt.Errorf("%w: missing or invalid width", ErrInvalidDescriptor)
		}
		if *d.Width > MaxDescriptorBits {
			return NoTypeID, fmt.Errorf("%w: width %d exceeds %d", ErrInvalidDescriptor, *d.Width, MaxDescriptorBits)
		}
		return in.Bits(int(*d.Width)), nil
	case "token":
		return in.Token(), nil
	case "tuple":
		elems := make([]TypeID, 0, len(d.Elements))
		for i, e := range d.Elements {
			id, err := in.FromDescriptor(e)
			if err != nil {
				return NoTypeID, fmt.Errorf("tuple element %d: %w", i, err)
			}
			elems = append(elems, id)
		}
		var leaves, flat int64
		for _, e := range elems {
			leaves += int64(in.LeafCount(e))
			flat += int64(in.FlatBitCount(e))
		}
		if err := checkShape(leaves, flat); err != nil {
			return NoTypeID, err
		}
		return in.Tuple(elems), nil
	case "array":
		if d.Size == nil || *d.Size < 0 {
			return NoTypeID, fmt.Errorf("%w: missing or invalid size", ErrInvalidDescriptor)
		}
		if *d.Size > MaxDescriptorLeaves {
			return NoTypeID, fmt.Errorf("%w: array size %d exceeds %d", ErrInvalidDescriptor, *d.Size, MaxDescriptorLeaves)
		}
		if d.Element == nil {
			if *d.Size == 0 {
				return in.Array(0, NoTypeID), nil
			}
			return NoTypeID, fmt.Errorf("%w: missing element", ErrInvalidDescriptor)
		}
		elem, err := in.FromDescriptor(*d.Element)
		if err != nil {
			return NoTypeID, fmt.Errorf("array element: %w", err)
		}
		n := *d.Size
		if err := checkShape(n*int64(in.LeafCount(elem)), n*int64(in.FlatBitCount(elem))); err != nil {
			return NoTypeID, err
		}
		return in.Array(int(n), elem), nil
	default:
		return NoTypeID, fmt.Errorf("%w: unknown kind %q", ErrInvalidDescriptor, d.Kind)
	}
}

// checkShape rejects types whose leaf layout would exceed the descriptor
// limits. Components are already within the limits, so the products cannot
// overflow int64.
func checkShape(leaves, flatBits int64) error {
	if leaves > MaxDescriptorLeaves {
		return fmt.Errorf("%w: %d leaves exceed %d", ErrInvalidDescriptor, leaves, MaxDescriptorLeaves)
	}
	if flatBits > MaxDescriptorBits {
		return fmt.Errorf("%w: %d bits exceed %d", ErrInvalidDescriptor, flatBits, MaxDescriptorBits)
	}
	return nil
}

// FnFromDescriptor interns the function type described by d.
func (in *Interner) FnFromDescriptor(d FnDescriptor) (TypeID, error) {
	params := make([]TypeID, 0, len(d.Params))
	for i, p := range d.Params {
		id, err := in.FromDescriptor(p)
		if err != nil {
			return NoTypeID, fmt.Errorf("param %d: %w", i, err)
		}
		params = append(params, id)
	}
	if d.Result == nil {
		return NoTypeID, fmt.Errorf("%w: missing result", ErrInvalidDescriptor)
	}
	result, err := in.FromDescriptor(*d.Result)
	if err != nil {
		return NoTypeID, fmt.Errorf("result: %w", err)
	}
	return in.Fn(params, result), nil
}

// Descriptor converts an interned type back to its serialized form.
func (in *Interner) Descriptor(id TypeID) Descriptor {
	tt := in.MustLookup(id)
	switch tt.Kind {
	case KindBits:
		w := int64(tt.Count)
		return Descriptor{Kind: "bits", Width: &w}
	case KindToken:
		return Descriptor{Kind: "token"}
	case KindArray:
		n := int64(tt.Count)
		d := Descriptor{Kind: "array", Size: &n}
		if tt.Elem != NoTypeID {
			elem := in.Descriptor(tt.Elem)
			d.Element = &elem
		}
		return d
	case KindTuple:
		d := Descriptor{Kind: "tuple"}
		for _, e := range in.tuples[tt.Payload].Elems {
			d.Elements = append(d.Elements, in.Descriptor(e))
		}
		return d
	default:
		panic(fmt.Errorf("types: no descriptor form for %s", tt.Kind))
	}
}

// EncodeDescriptor serializes d with msgpack.
func EncodeDescriptor(d Descriptor) ([]byte, error) {
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(&d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeDescriptor parses a msgpack-encoded descriptor.
func DecodeDescriptor(data []byte) (Descriptor, error) {
	var d Descriptor
	if err := msgpack.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}
	return d, nil
}
