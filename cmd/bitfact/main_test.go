package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bitfact/internal/ir"
	"bitfact/internal/propagate"
	"bitfact/internal/query"
	"bitfact/internal/types"
	"bitfact/internal/value"
)

var onehotPath = filepath.Join("..", "..", "internal", "ir", "testdata", "onehot.toml")

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		analyzeFunctions, analyzeArms, analyzeCache, analyzeJobs = nil, nil, "", 0
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func lineOf(out, prefix string) string {
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), prefix) {
			return line
		}
	}
	return ""
}

func TestAnalyze(t *testing.T) {
	out := execute(t, "analyze", "--color", "off", onehotPath)
	for _, want := range []string{"fn onehot", "fn tokens", "node", "intervals"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q:\n%s", want, out)
		}
	}
	if line := lineOf(out, "high "); !strings.Contains(line, "0b1XX1") || !strings.Contains(line, "[9, 15]") {
		t.Fatalf("high: %q", line)
	}
	if line := lineOf(out, "mask "); !strings.Contains(line, "bits[4]:0x9") {
		t.Fatalf("mask: %q", line)
	}
	if line := lineOf(out, "pair "); !strings.Contains(line, "(token, 0b1)") {
		t.Fatalf("pair: %q", line)
	}
}

func TestAnalyzeWithArm(t *testing.T) {
	out := execute(t, "analyze", "--color", "off", "--function", "onehot", "--arm", "out=1", onehotPath)
	if strings.Contains(out, "fn tokens") {
		t.Fatalf("--function should restrict output:\n%s", out)
	}
	if line := lineOf(out, "ret out"); !strings.Contains(line, "0b1XX1") {
		t.Fatalf("out under arm 1: %q", line)
	}
}

func TestAnalyzeCache(t *testing.T) {
	dir := t.TempDir()
	execute(t, "analyze", "--color", "off", "--cache", dir, onehotPath)
	out := execute(t, "analyze", "--color", "off", "--cache", dir, onehotPath)
	if !strings.Contains(out, "(cached)") {
		t.Fatalf("second run should hit the cache:\n%s", out)
	}
}

func TestParseArms(t *testing.T) {
	pkg, err := ir.LoadTOML(onehotPath)
	if err != nil {
		t.Fatal(err)
	}
	f, _ := pkg.Function("onehot")
	state, err := parseArms(f, []string{"out=default", "missing=1"})
	if err != nil || len(state) != 1 || state[0].Arm != query.DefaultArm {
		t.Fatalf("got %v, %v", state, err)
	}
	for _, bad := range []string{"out", "out=-1", "low=0"} {
		if _, err := parseArms(f, []string{bad}); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestTableAlignsWideRunes(t *testing.T) {
	var tb table
	tb.add(cell{text: "名前"}, cell{text: "x"})
	tb.add(cell{text: "ab"}, cell{text: "y"})
	var buf bytes.Buffer
	tb.write(&buf, "")
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[0] != "名前  x" || lines[1] != "ab    y" {
		t.Fatalf("misaligned:\n%s", buf.String())
	}
}

func TestReportUntracked(t *testing.T) {
	p := ir.NewPackage("p")
	f, _ := p.AddFunction("f")
	f.Param("x", p.Types.Bits(2))
	g, _ := p.AddFunction("g")
	g.Param("y", p.Types.Tuple([]types.TypeID{p.Types.Bits(1)}))
	g.Literal("k", value.UBits(1, 1))
	e := propagate.New()
	if _, err := e.Populate(f); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	writeReport(&buf, analysis{fn: g, engine: e}, false)
	if line := lineOf(buf.String(), "k "); !strings.Contains(line, "untracked") {
		t.Fatalf("nodes of another function are untracked: %q", line)
	}
}

func TestTypesCommand(t *testing.T) {
	w := int64(3)
	size := int64(2)
	d := types.Descriptor{Kind: "array", Size: &size, Element: &types.Descriptor{Kind: "bits", Width: &w}}
	data, err := types.EncodeDescriptor(d)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "d.msgpack")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	out := execute(t, "types", path)
	if !strings.HasPrefix(out, "bits[3][2]\n") || !strings.Contains(out, "bits:   6") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestTypesCommandRejectsOversizedDescriptor(t *testing.T) {
	size := int64(4_000_000_000)
	w := int64(1)
	data, err := types.EncodeDescriptor(types.Descriptor{Kind: "array", Size: &size, Element: &types.Descriptor{Kind: "bits", Width: &w}})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	rootCmd.SetIn(bytes.NewReader(data))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"types", "-"})
	t.Cleanup(func() { rootCmd.SetIn(nil) })
	if err := rootCmd.Execute(); !errors.Is(err, types.ErrInvalidDescriptor) {
		t.Fatalf("got %v, want ErrInvalidDescriptor", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version", "--color", "off")
	if !strings.HasPrefix(out, "bitfact ") {
		t.Fatalf("got %q", out)
	}
}
