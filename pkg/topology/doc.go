// Package topology models a containerlab-style lab as an ordered graph of
// nodes and links, and reads and writes it as YAML.
//
// # Model
//
// A [Graph] keeps nodes in the order they were declared. Links are
// undirected but keep their endpoint order, so a link written as
// ["spine1:e1-1", "leaf1:e1-49"] is read back the same way. Every link
// endpoint references a node of the graph; [Graph.AddLink] enforces this.
//
// Four node labels drive diagram layout and are lifted into typed fields:
//
//	graph-level   tier of the node (1 = top)
//	graph-icon    style role (router, switch, host...)
//	graph-posX    fixed canvas x coordinate
//	graph-posY    fixed canvas y coordinate
//
// # Files
//
// [Decode] and [LoadFile] parse topology YAML, optionally expanding
// ${VAR:=default} placeholders first. Links to undeclared nodes are
// reported as warnings and skipped. [Encode] writes a [Document] back,
// with endpoints in flow or block style.
package topology
