// Package render groups the preview renderers of a leveled topology.
//
// The draw.io document built by [github.com/matzehuels/topodraw/pkg/drawio]
// is the primary output. Renderers under this package produce throwaway
// previews of the same level assignment:
//
//   - [nodelink]: Graphviz node-link diagrams as DOT, SVG or PNG
//
// [nodelink]: github.com/matzehuels/topodraw/pkg/render/nodelink
package render
