// Package trace records what the analysis is doing while it runs.
//
// Spans bracket long operations such as populating an engine for one
// function; point events mark single facts worth seeing, such as a node whose
// value became fully known. Events are filtered by Level before they are
// formatted, so a disabled tracer costs one interface call.
//
// # Usage
//
//	bitfact analyze --trace=- --trace-level=detail pkg.toml
//
// # Tracers
//
//   - Nop: discards everything
//   - StreamTracer: formats each event and writes it immediately
//   - RingTracer: keeps the most recent events in memory for a later Dump
//   - MultiTracer: fans out to several tracers
//
// # Scopes
//
// ScopeDriver covers CLI commands, ScopePass a whole-function operation,
// ScopeFunction per-function bookkeeping and ScopeNode a single IR node.
// LevelPhase admits driver and pass events, LevelDetail adds function events
// and LevelDebug admits node events too.
//
// A tracer travels through call chains in a context:
//
//	ctx = trace.WithTracer(ctx, tr)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "populate", 0)
//	defer span.End("")
package trace
