package factcache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"bitfact/internal/ir"
	"bitfact/internal/propagate"
	"bitfact/internal/query"
	"bitfact/internal/value"
)

func sample(t *testing.T) *ir.Function {
	t.Helper()
	p := ir.NewPackage("pkg")
	f, err := p.AddFunction("f")
	if err != nil {
		t.Fatal(err)
	}
	x := f.Param("x", p.Types.Bits(4))
	f.SetReturn(f.Or("y", x, f.Literal("k", value.UBits(0b1000, 4))))
	return f
}

func TestPutGet(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := sample(t)
	e := propagate.New()
	if _, err := e.Populate(f); err != nil {
		t.Fatal(err)
	}
	snap, _ := e.Snapshot()

	if _, ok, err := c.Get(f.Hash()); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}
	if err := c.Put(f.Hash(), "pkg", snap); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.Get(f.Hash())
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Function != "f" || len(got.Nodes) != len(snap.Nodes) || got.Nodes[2].Leaves[0] != "0b1XXX" {
		t.Fatalf("round trip lost data: %+v", got)
	}
	entries, _ := os.ReadDir(filepath.Join(c.Dir(), "facts"))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestSchemaMismatch(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := sample(t)
	p := c.pathFor(f.Hash())
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	data, err := msgpack.Marshal(&Payload{Schema: schemaVersion + 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.Get(f.Hash()); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("got %v, want ErrSchemaMismatch", err)
	}

	// A stale entry is recomputed and replaced.
	_, hit, err := c.Populate(propagate.New(), f)
	if err != nil || hit {
		t.Fatalf("Populate over stale entry: hit=%v err=%v", hit, err)
	}
	if _, ok, err := c.Get(f.Hash()); !ok || err != nil {
		t.Fatalf("entry not rewritten: ok=%v err=%v", ok, err)
	}
}

func TestPopulateUsesCache(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := sample(t)
	first := propagate.New()
	if r, hit, err := c.Populate(first, f); err != nil || hit || r != query.Changed {
		t.Fatalf("first Populate: %v %v %v", r, hit, err)
	}
	second := propagate.New()
	r, hit, err := c.Populate(second, f)
	if err != nil || !hit || r != query.Changed {
		t.Fatalf("second Populate: %v %v %v", r, hit, err)
	}
	y, _ := f.Node("y")
	if got := query.Of(second).String(y); got != "0b1XXX" {
		t.Fatalf("restored fact: %s", got)
	}
}

func TestNilCache(t *testing.T) {
	var c *Cache
	f := sample(t)
	if err := c.Put(f.Hash(), "pkg", propagate.Snapshot{}); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Get(f.Hash()); ok || err != nil {
		t.Fatalf("nil cache hit: %v %v", ok, err)
	}
	if _, hit, err := c.Populate(propagate.New(), f); hit || err != nil {
		t.Fatalf("nil cache Populate: %v %v", hit, err)
	}
	if c.DropAll() != nil || c.Dir() != "" {
		t.Fatalf("nil cache should be inert")
	}
}

func TestDropAll(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := sample(t)
	if _, _, err := c.Populate(propagate.New(), f); err != nil {
		t.Fatal(err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(f.Hash()); ok {
		t.Fatalf("entry survived DropAll")
	}
}
