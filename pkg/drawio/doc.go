// Package drawio builds draw.io diagrams from topologies and reads them
// back.
//
// [Build] places every node on a tier grid, resolves its look through a
// style resolver and emits one edge per link with the two interface names
// as child label cells. Node properties (kind, type, image, graph-level
// and the rest) are stored as custom properties on the shape, so a
// diagram carries everything needed to recreate the topology file.
//
// [Parse] goes the other way. Any vertex with a label is a node; any edge
// between two such vertices is a link. Interface names are recovered from
// the edge's label cells by proximity: the label closest to the source
// shape belongs to the source endpoint and the closest remaining one to
// the target. Positions of the labels, not their document order, decide.
//
// Both compressed and plain pages are understood; multi-page files need
// a page name.
package drawio
