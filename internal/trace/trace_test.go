package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Level
	}{
		{"off", LevelOff},
		{"PHASE", LevelPhase},
		{"Detail", LevelDetail},
		{"debug", LevelDebug},
	} {
		got, err := ParseLevel(tc.in)
		if err != nil || got != tc.want {
			t.Fatalf("ParseLevel(%q) = %v, %v", tc.in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestShouldEmit(t *testing.T) {
	if LevelPhase.ShouldEmit(ScopeFunction) || !LevelPhase.ShouldEmit(ScopePass) {
		t.Fatalf("phase admits driver and pass only")
	}
	if !LevelDetail.ShouldEmit(ScopeFunction) || LevelDetail.ShouldEmit(ScopeNode) {
		t.Fatalf("detail stops before node events")
	}
	if !LevelDebug.ShouldEmit(ScopeNode) || LevelError.ShouldEmit(ScopeDriver) {
		t.Fatalf("debug admits everything, error admits nothing")
	}
}

func TestStreamText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)
	span := Begin(tr, ScopePass, "populate", 0)
	Point(tr, ScopeNode, "x", "0b1X", span.ID())
	span.WithExtra("nodes", "3").WithExtra("function", "f").End("changed")

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 lines (node point filtered), got %q", out)
	}
	if !strings.Contains(lines[0], "→ populate") {
		t.Fatalf("begin line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "← populate (changed) {function=f, nodes=3}") {
		t.Fatalf("end line: %q", lines[1])
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Point(tr, ScopeNode, "x", "known", 7)
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if got["name"] != "x" || got["scope"] != "node" || got["kind"] != "point" || got["parent_id"] != float64(7) {
		t.Fatalf("unexpected event %v", got)
	}
}

func TestRingKeepsNewest(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Point(r, ScopeDriver, name, "", 0)
	}
	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("len = %d", len(snap))
	}
	for i, want := range []string{"c", "d", "e"} {
		if snap[i].Name != want {
			t.Fatalf("snap[%d] = %s, want %s", i, snap[i].Name, want)
		}
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 3 {
		t.Fatalf("dump: %q", buf.String())
	}
}

func TestMultiCopiesEvents(t *testing.T) {
	a := NewRingTracer(4, LevelDebug)
	b := NewRingTracer(4, LevelDebug)
	m := NewMultiTracer(LevelDebug, a, b)
	Point(m, ScopeDriver, "p", "", 0)
	sa, sb := a.Snapshot(), b.Snapshot()
	if len(sa) != 1 || len(sb) != 1 || sa[0].Seq == sb[0].Seq {
		t.Fatalf("each tracer should stamp its own copy: %v %v", sa, sb)
	}
}

func TestDisabledSpanIsInert(t *testing.T) {
	span := Begin(Nop, ScopeDriver, "x", 0)
	if span.ID() != 0 || span.End("") != 0 {
		t.Fatalf("nop span should be inert")
	}
	if tr, err := New(Config{Level: LevelOff}); err != nil || tr.Enabled() {
		t.Fatalf("LevelOff must give a disabled tracer")
	}
}

func TestContext(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("empty context should give Nop")
	}
	r := NewRingTracer(2, LevelPhase)
	ctx := WithTracer(context.Background(), r)
	if FromContext(ctx) != Tracer(r) {
		t.Fatalf("tracer not stored")
	}
	span := Begin(r, ScopeDriver, "cmd", 0)
	ctx = WithSpan(ctx, span)
	if ParentFromContext(ctx) != span.ID() || span.ID() == 0 {
		t.Fatalf("parent span not stored")
	}
}
