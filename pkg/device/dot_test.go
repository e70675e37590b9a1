package device

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestToDOT(t *testing.T) {
	d := Grid(2, 2)
	dot := ToDOT(d, DOTOptions{Used: []Edge{{3, 0}}, Mapping: []int{2, 0}})

	for _, want := range []string{
		`graph "grid2x2" {`,
		"0 -- 1;",
		`0 -- 3 [color="#d33682", penwidth=3];`,
		"1 -- 2 [style=dashed, color=grey];",
		`2 [label="p2\nq0"];`,
		`3 [label="p3"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(Line(3), DOTOptions{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("output is not SVG: %.80s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" viewBox="0.00 0.00 120.50 80.00"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 120.50 80.00" width="120" height="80">`) {
		t.Errorf("normalizeViewBox = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("no viewBox: %s", got)
	}
}
