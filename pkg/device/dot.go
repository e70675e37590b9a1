package device

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"
)

// DOTOptions configures coupling-graph rendering.
type DOTOptions struct {
	// Used lists enabled candidate edges; they are drawn solid and coloured.
	Used []Edge
	// Mapping optionally labels physical qubits with the logical qubit
	// placed on them (Mapping[q] = physical qubit of logical q).
	Mapping []int
}

// ToDOT converts the coupling graph to Graphviz DOT. Base edges are solid,
// unused candidates dashed grey and used candidates bold.
func ToDOT(d *Device, opts DOTOptions) string {
	used := map[Edge]bool{}
	for _, e := range opts.Used {
		used[e.Normalize()] = true
	}
	labels := make([]string, d.Qubits)
	for p := range labels {
		labels[p] = fmt.Sprintf("p%d", p)
	}
	for q, p := range opts.Mapping {
		if p >= 0 && p < d.Qubits {
			labels[p] = fmt.Sprintf("p%d\\nq%d", p, q)
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "graph %q {\n", d.Name)
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	for p := 0; p < d.Qubits; p++ {
		fmt.Fprintf(&buf, "  %d [label=\"%s\"];\n", p, labels[p])
	}

	buf.WriteString("\n")
	for _, e := range d.Edges {
		fmt.Fprintf(&buf, "  %d -- %d;\n", e.A, e.B)
	}
	for _, e := range d.Candidates {
		if used[e.Normalize()] {
			fmt.Fprintf(&buf, "  %d -- %d [color=\"#d33682\", penwidth=3];\n", e.A, e.B)
		} else {
			fmt.Fprintf(&buf, "  %d -- %d [style=dashed, color=grey];\n", e.A, e.B)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing scales from a
// zero origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
