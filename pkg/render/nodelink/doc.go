// Package nodelink renders a leveled topology as a Graphviz diagram.
//
// It is a quick preview of the tiers the level assignment produced, not a
// replacement for the draw.io output: Graphviz picks the positions inside
// each tier, so node order may differ from the diagram.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, asg, nodelink.Options{Interfaces: true})
//	svg, err := nodelink.Render(ctx, dot, nodelink.SVG)
//
// The generated DOT is an undirected graph with one rank=same subgraph per
// tier. Invisible anchor nodes chained across the tiers keep them in
// level order. With Options.Interfaces the interface names are drawn as
// tail and head labels at the link ends.
//
// # Dependencies
//
// Rendering uses [github.com/goccy/go-graphviz], which runs Graphviz
// in-process; no external binaries are needed.
package nodelink
