// Package factcache stores populated fact tables on disk, keyed by the hash
// of the function they describe.
package factcache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"bitfact/internal/ir"
	"bitfact/internal/propagate"
	"bitfact/internal/query"
)

// Bump when Payload or propagate.Snapshot changes shape.
const schemaVersion uint16 = 1

// ErrSchemaMismatch reports an entry written by an incompatible version.
var ErrSchemaMismatch = errors.New("fact cache schema mismatch")

// Cache is a directory of msgpack payloads. A nil *Cache is valid and never
// hits. Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Payload is one cache entry.
type Payload struct {
	Schema  uint16             `msgpack:"schema"`
	Package string             `msgpack:"package"`
	Facts   propagate.Snapshot `msgpack:"facts"`
}

// Open uses dir, creating it if needed.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open fact cache: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// OpenDefault opens $XDG_CACHE_HOME/app, falling back to ~/.cache/app.
func OpenDefault(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return Open(filepath.Join(base, app))
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) pathFor(key ir.Digest) string {
	return filepath.Join(c.dir, "facts", hex.EncodeToString(key[:])+".mp")
}

// Put writes snap under key. The entry appears atomically.
func (c *Cache) Put(key ir.Digest, pkg string, snap propagate.Snapshot) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	payload := Payload{Schema: schemaVersion, Package: pkg, Facts: snap}
	if err = msgpack.NewEncoder(f).Encode(&payload); err != nil {
		return fmt.Errorf("encode %s: %w", snap.Function, err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the snapshot stored under key. A missing entry is a miss, not an
// error.
func (c *Cache) Get(key ir.Digest) (propagate.Snapshot, bool, error) {
	if c == nil {
		return propagate.Snapshot{}, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return propagate.Snapshot{}, false, nil
		}
		return propagate.Snapshot{}, false, err
	}
	defer f.Close()

	var payload Payload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return propagate.Snapshot{}, false, fmt.Errorf("decode %s: %w", f.Name(), err)
	}
	if payload.Schema != schemaVersion {
		return propagate.Snapshot{}, false, fmt.Errorf("%s: schema %d, want %d: %w", f.Name(), payload.Schema, schemaVersion, ErrSchemaMismatch)
	}
	return payload.Facts, true, nil
}

// DropAll removes every entry.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "facts"))
}

// Populate fills e with facts for f, restoring them from the cache when an
// entry for f exists and storing them otherwise. hit reports a restore.
// Unreadable or stale entries are recomputed and overwritten.
func (c *Cache) Populate(e *propagate.Engine, f *ir.Function) (r query.ReachedFixpoint, hit bool, err error) {
	key := f.Hash()
	if snap, ok, getErr := c.Get(key); getErr == nil && ok {
		if e.Restore(f, snap) == nil {
			return query.Changed, true, nil
		}
	}
	r, err = e.Populate(f)
	if err != nil {
		return r, false, err
	}
	if c == nil {
		return r, false, nil
	}
	snap, _ := e.Snapshot()
	if err := c.Put(key, f.Package().Name, snap); err != nil {
		return r, false, fmt.Errorf("cache %s: %w", f.Name, err)
	}
	return r, false, nil
}
