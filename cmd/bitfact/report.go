package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"bitfact/internal/interval"
	"bitfact/internal/ir"
	"bitfact/internal/query"
)

type palette struct {
	header, known, partial, unknown, dim *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		header:  color.New(color.Bold),
		known:   color.New(color.FgGreen),
		partial: color.New(color.FgYellow),
		unknown: color.New(color.FgRed),
		dim:     color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.header, p.known, p.partial, p.unknown, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// cell is table text with an optional color applied after padding.
type cell struct {
	text  string
	style *color.Color
}

type table struct {
	rows [][]cell
}

func (t *table) add(cells ...cell) { t.rows = append(t.rows, cells) }

// write pads every column to its widest cell, measured in terminal columns.
func (t *table) write(w io.Writer, indent string) {
	var widths []int
	for _, row := range t.rows {
		for i, c := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(c.text))
		}
	}
	for _, row := range t.rows {
		var sb strings.Builder
		sb.WriteString(indent)
		for i, c := range row {
			text := c.text
			if i < len(row)-1 {
				text = runewidth.FillRight(text, widths[i]) + "  "
			}
			if c.style != nil {
				text = c.style.Sprint(text)
			}
			sb.WriteString(text)
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}
}

func writeReport(w io.Writer, r analysis, enabled bool) {
	p := newPalette(enabled)
	f := r.fn
	in := f.Types()
	title := fmt.Sprintf("fn %s %s", f.Name, in.String(f.Type()))
	if r.cached {
		title += p.dim.Sprint(" (cached)")
	}
	fmt.Fprintln(w, p.header.Sprint(title))

	q := query.Of(r.engine)
	var t table
	t.add(
		cell{"node", p.header}, cell{"type", p.header}, cell{"fact", p.header},
		cell{"range", p.header}, cell{"intervals", p.header}, cell{"value", p.header},
	)
	for _, n := range f.Nodes() {
		name := n.Name
		if n == f.Return {
			name = "ret " + name
		}
		if !q.Engine().IsTracked(n) {
			t.add(cell{name, nil}, cell{in.String(n.Type), nil}, cell{"untracked", p.unknown})
			continue
		}
		fact := q.String(n)
		t.add(
			cell{name, nil},
			cell{in.String(n.Type), p.dim},
			cell{fact, factStyle(p, q, n)},
			cell{rangeText(q, n), nil},
			cell{intervalText(q, n), nil},
			cell{valueText(q, n), p.known},
		)
	}
	t.write(w, "  ")
}

func factStyle(p palette, q query.Q, n *ir.Node) *color.Color {
	switch {
	case q.IsFullyKnown(n):
		return p.known
	case strings.ContainsAny(q.String(n), "01"):
		return p.partial
	default:
		return p.unknown
	}
}

func rangeText(q query.Q, n *ir.Node) string {
	if !n.IsBits() {
		return "-"
	}
	return fmt.Sprintf("[%s, %s]", q.MinUnsignedValue(n).BigInt(), q.MaxUnsignedValue(n).BigInt())
}

func intervalText(q query.Q, n *ir.Node) string {
	if !n.IsBits() {
		return "-"
	}
	return q.Intervals(n).String(func(s interval.Set) string { return s.String() })
}

func valueText(q query.Q, n *ir.Node) string {
	v, ok := q.KnownNodeValue(n)
	if !ok {
		return "-"
	}
	return v.String()
}
