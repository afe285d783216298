package nodelink

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/topodraw/pkg/levels"
	"github.com/matzehuels/topodraw/pkg/style"
	"github.com/matzehuels/topodraw/pkg/topology"
)

func leafSpine(t *testing.T) (*topology.Graph, *levels.Assignment) {
	t.Helper()
	g := topology.NewGraph("ls")
	for _, n := range []topology.Node{
		{Name: "spine1", Kind: "nokia_srlinux", Icon: "spine"},
		{Name: "leaf1", Kind: "nokia_srlinux"},
		{Name: "leaf2", Kind: "nokia_srlinux"},
		{Name: "orphan", Kind: "linux"},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, l := range [][4]string{
		{"spine1", "e1-1", "leaf1", "e1-49"},
		{"spine1", "e1-2", "leaf2", "e1-49"},
	} {
		link := topology.Link{Endpoints: [2]topology.Endpoint{{Node: l[0], Interface: l[1]}, {Node: l[2], Interface: l[3]}}}
		if err := g.AddLink(link); err != nil {
			t.Fatal(err)
		}
	}
	asg := levels.NewAssignment(levels.Automatic, []string{"spine1", "leaf1", "leaf2"},
		map[string]int{"spine1": 1, "leaf1": 2, "leaf2": 2})
	return g, asg
}

func TestToDOT(t *testing.T) {
	g, asg := leafSpine(t)
	dot := ToDOT(g, asg, Options{Interfaces: true})

	for _, want := range []string{
		"graph G {",
		"rankdir=TB;",
		`subgraph "tier1" {`,
		`subgraph "tier2" {`,
		`"_tier1" -- "_tier2" [style=invis];`,
		`"spine1" -- "leaf1" [taillabel="e1-1", headlabel="e1-49"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT lacks %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "orphan") {
		t.Error("unassigned node drawn")
	}
	if strings.Index(dot, `"leaf1" [`) < strings.Index(dot, `subgraph "tier2"`) {
		t.Error("leaf1 not inside tier2")
	}
}

func TestToDOTOptions(t *testing.T) {
	g, asg := leafSpine(t)
	dot := ToDOT(g, asg, Options{
		Axis:     style.Horizontal,
		Detailed: true,
		Resolver: style.NewResolver(style.Default()),
	})
	for _, want := range []string{
		"rankdir=LR;",
		`label="spine1\nnokia_srlinux\nlevel 1"`,
		`fillcolor="#F8CECC"`,
		`"spine1" -- "leaf2";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT lacks %q:\n%s", want, dot)
		}
	}
}

func TestToDOTEmpty(t *testing.T) {
	dot := ToDOT(topology.NewGraph("empty"), levels.NewAssignment(levels.Explicit, nil, nil), Options{})
	if strings.Contains(dot, "subgraph") || strings.Contains(dot, "--") {
		t.Errorf("empty graph produced tiers or edges:\n%s", dot)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", SVG, false},
		{"svg", SVG, false},
		{"PNG", PNG, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestRenderSVG(t *testing.T) {
	g, asg := leafSpine(t)
	svg, err := RenderSVG(ToDOT(g, asg, Options{Interfaces: true}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `)) {
		t.Errorf("SVG root not normalized: %.200s", svg)
	}
	if !bytes.Contains(svg, []byte("spine1")) {
		t.Error("SVG lacks node names")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox = %s, want %s", got, want)
	}
	if string(normalizeViewBox([]byte("<svg/>"))) != "<svg/>" {
		t.Error("input without viewBox changed")
	}
}
