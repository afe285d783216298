package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
	"github.com/matzehuels/topodraw/pkg/levels"
	"github.com/matzehuels/topodraw/pkg/style"
	"github.com/matzehuels/topodraw/pkg/topology"
)

// Options configures DOT generation.
type Options struct {
	// Axis selects top-to-bottom (vertical) or left-to-right tiers.
	Axis style.Axis
	// Interfaces draws interface names at the link ends.
	Interfaces bool
	// Detailed adds the kind and level under each node name.
	Detailed bool
	// Resolver colors nodes with the fillColor of their style role.
	// Nil draws every node white.
	Resolver *style.Resolver
}

// ToDOT converts the assigned part of g to Graphviz DOT. Nodes outside the
// assignment and links touching them are left out.
func ToDOT(g *topology.Graph, asg *levels.Assignment, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	if opts.Axis == style.Horizontal {
		buf.WriteString("  rankdir=LR;\n")
	} else {
		buf.WriteString("  rankdir=TB;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=9, labelfontsize=9];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.4;\n")

	tiers := asg.Tiers()
	for _, tier := range tiers {
		fmt.Fprintf(&buf, "\n  subgraph %q {\n", fmt.Sprintf("tier%d", tier.Level))
		buf.WriteString("    rank=same;\n")
		fmt.Fprintf(&buf, "    %q [style=invis, label=\"\", width=0, height=0];\n", anchor(tier.Level))
		for _, name := range tier.Nodes {
			n, ok := g.Node(name)
			if !ok {
				continue
			}
			fmt.Fprintf(&buf, "    %q [%s];\n", name, strings.Join(nodeAttrs(n, tier.Level, opts), ", "))
		}
		buf.WriteString("  }\n")
	}

	if len(tiers) > 1 {
		buf.WriteString("\n")
		for i := 1; i < len(tiers); i++ {
			fmt.Fprintf(&buf, "  %q -- %q [style=invis];\n", anchor(tiers[i-1].Level), anchor(tiers[i].Level))
		}
	}

	buf.WriteString("\n")
	for _, l := range g.Links() {
		src, dst := l.Source(), l.Target()
		if _, ok := asg.Level(src.Node); !ok {
			continue
		}
		if _, ok := asg.Level(dst.Node); !ok {
			continue
		}
		if opts.Interfaces {
			fmt.Fprintf(&buf, "  %q -- %q [taillabel=%q, headlabel=%q];\n", src.Node, dst.Node, src.Interface, dst.Interface)
		} else {
			fmt.Fprintf(&buf, "  %q -- %q;\n", src.Node, dst.Node)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func anchor(level int) string { return fmt.Sprintf("_tier%d", level) }

func nodeAttrs(n *topology.Node, level int, opts Options) []string {
	label := n.Name
	if opts.Detailed {
		label += "\n" + n.Kind + "\nlevel " + strconv.Itoa(level)
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if opts.Resolver != nil {
		d := opts.Resolver.ResolveNode(n)
		if fill, ok := style.StyleValue(d.Style, "fillColor"); ok && fill != "none" {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fill))
		}
		if stroke, ok := style.StyleValue(d.Style, "strokeColor"); ok && stroke != "none" {
			attrs = append(attrs, fmt.Sprintf("color=%q", stroke))
		}
	}
	return attrs
}

// Format is an output format of [Render].
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ParseFormat maps a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case SVG, PNG:
		return f, nil
	case "":
		return SVG, nil
	}
	return "", tderrors.New(tderrors.ErrCodeInvalidFormat, "unknown preview format %q (want svg or png)", s)
}

// Render lays out a DOT graph with Graphviz.
func Render(ctx context.Context, dot string, format Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, tderrors.Wrap(tderrors.ErrCodeParse, err, "parse DOT")
	}
	defer g.Close()

	gvFormat := graphviz.SVG
	if format == PNG {
		gvFormat = graphviz.PNG
	}
	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if format == PNG {
		return buf.Bytes(), nil
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderSVG renders a DOT graph to SVG.
func RenderSVG(dot string) ([]byte, error) {
	return Render(context.Background(), dot, SVG)
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz pt-sized root element with a
// plain viewBox so the preview scales in a browser.
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

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
