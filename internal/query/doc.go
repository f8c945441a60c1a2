// Package query defines the bit-level query engine interface and the queries
// derived from it.
//
// # Layers
//
// Engine is the primitive contract a concrete analysis implements: populate a
// function, say which nodes are tracked, return per-leaf ternary facts, and
// answer a handful of relational bit questions (at most/at least one true,
// implication, equality, conditional facts). Everything else lives in Q,
// which is implemented once on top of any Engine:
//
//	q := query.Of(engine)
//	if q.IsAllZeros(n) { ... }
//	hi := q.MaxUnsignedValue(n)
//
// # Soundness
//
// A false or absent answer means "not provably true", never "provably
// false". The only negative proof is NodesKnownUnsignedNotEquals. Untracked
// nodes and nodes without ternary facts answer with the weakest result: no
// known bits, maximal intervals.
//
// Calling a query with arguments that violate its contract (a bits-only query
// on a tuple node, a multi-bit node where a single bit is required, KnownMsb
// without a known MSB, String on an untracked node) panics.
//
// # Specialization
//
// SpecializeGivenPredicate returns a new engine that may know more under the
// given select-arm assumptions. Engines with nothing better to offer return
// Unspecialized(e), a Forwarding view of e. Specialization never mutates the
// receiver.
//
// # Concurrency
//
// After Populate returns, every query is a pure read and may run from many
// goroutines at once, as long as nothing populates the engine or mutates the
// IR concurrently.
package query
