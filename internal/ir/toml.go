package ir

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/BurntSushi/toml"

	"bitfact/internal/bits"
	"bitfact/internal/types"
	"bitfact/internal/value"
)

// ErrInvalidPackage reports a package description that cannot be built.
var ErrInvalidPackage = errors.New("invalid package description")

type packageFile struct {
	Name      string         `toml:"name"`
	Functions []functionFile `toml:"function"`
}

type functionFile struct {
	Name   string     `toml:"name"`
	Return string     `toml:"return"`
	Nodes  []nodeFile `toml:"node"`
}

type nodeFile struct {
	Name     string            `toml:"name"`
	Op       string            `toml:"op"`
	Type     *types.Descriptor `toml:"type"`
	Value    string            `toml:"value"`
	Operands []string          `toml:"operands"`
	Default  string            `toml:"default"`
	Start    int               `toml:"start"`
	Width    int               `toml:"width"`
	Index    int               `toml:"index"`
}

// LoadTOML reads a package description from a file.
func LoadTOML(path string) (*Package, error) {
	var pf packageFile
	if _, err := toml.DecodeFile(path, &pf); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	p, err := build(pf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// DecodeTOML reads a package description from r.
func DecodeTOML(r io.Reader) (*Package, error) {
	var pf packageFile
	if _, err := toml.NewDecoder(r).Decode(&pf); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return build(pf)
}

func build(pf packageFile) (*Package, error) {
	if pf.Name == "" {
		return nil, fmt.Errorf("%w: missing package name", ErrInvalidPackage)
	}
	p := NewPackage(pf.Name)
	for _, ff := range pf.Functions {
		f, err := p.AddFunction(ff.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPackage, err)
		}
		for _, nf := range ff.Nodes {
			if err := buildNode(f, nf); err != nil {
				return nil, fmt.Errorf("%w: function %s: node %s: %w", ErrInvalidPackage, ff.Name, nf.Name, err)
			}
		}
		if ff.Return != "" {
			ret, err := f.Node(ff.Return)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidPackage, err)
			}
			f.SetReturn(ret)
		}
	}
	return p, nil
}

func buildNode(f *Function, nf nodeFile) (err error) {
	if nf.Name == "" {
		return errors.New("missing name")
	}
	if _, lookupErr := f.Node(nf.Name); lookupErr == nil {
		return ErrDuplicate
	}
	op, err := ParseOp(nf.Op)
	if err != nil {
		return err
	}
	operands := make([]*Node, len(nf.Operands))
	for i, name := range nf.Operands {
		if operands[i], err = f.Node(name); err != nil {
			return err
		}
	}
	var def *Node
	if nf.Default != "" {
		if def, err = f.Node(nf.Default); err != nil {
			return err
		}
	}
	var typ types.TypeID
	if nf.Type != nil {
		if typ, err = f.Types().FromDescriptor(*nf.Type); err != nil {
			return err
		}
	}

	// Constructors panic on ill-typed graphs; report those as errors.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	arity := func(n int) {
		if len(operands) != n {
			panic(fmt.Errorf("%s takes %d operands, got %d", op, n, len(operands)))
		}
	}
	name := nf.Name
	switch op {
	case OpParam:
		if nf.Type == nil {
			return errors.New("param needs a type")
		}
		f.Param(name, typ)
	case OpLiteral:
		if nf.Type == nil || !f.Types().IsBits(typ) {
			return errors.New("literal needs a bits type")
		}
		v, ok := new(big.Int).SetString(nf.Value, 0)
		if !ok || v.Sign() < 0 || v.BitLen() > f.Types().BitCount(typ) {
			return fmt.Errorf("literal value %q does not fit %s", nf.Value, f.Types().String(typ))
		}
		f.Literal(name, value.FromBits(bits.FromBigInt(v, f.Types().BitCount(typ))))
	case OpNot:
		arity(1)
		f.Not(name, operands[0])
	case OpAnd:
		f.And(name, operands...)
	case OpOr:
		f.Or(name, operands...)
	case OpXor:
		f.Xor(name, operands...)
	case OpAdd:
		arity(2)
		f.Add(name, operands[0], operands[1])
	case OpConcat:
		f.Concat(name, operands...)
	case OpBitSlice:
		arity(1)
		f.BitSlice(name, operands[0], nf.Start, nf.Width)
	case OpZeroExt:
		arity(1)
		f.ZeroExt(name, operands[0], nf.Width)
	case OpEq:
		arity(2)
		f.Eq(name, operands[0], operands[1])
	case OpNe:
		arity(2)
		f.Ne(name, operands[0], operands[1])
	case OpSelect:
		if len(operands) < 1 {
			return errors.New("sel needs a selector operand")
		}
		f.Select(name, operands[0], operands[1:], def)
	case OpTuple:
		f.Tuple(name, operands...)
	case OpTupleIndex:
		arity(1)
		f.TupleIndex(name, operands[0], nf.Index)
	case OpArray:
		f.Array(name, operands...)
	case OpArrayIndex:
		arity(2)
		f.ArrayIndex(name, operands[0], operands[1])
	case OpAfterAll:
		f.AfterAll(name, operands...)
	default:
		return fmt.Errorf("op %s cannot be declared", op)
	}
	return nil
}
