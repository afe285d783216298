package topology

import (
	"errors"
	"slices"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
)

var (
	// ErrInvalidNodeName is returned by [Graph.AddNode] when the node name
	// is empty or cannot be written into an endpoint string.
	ErrInvalidNodeName = errors.New("invalid node name")

	// ErrDuplicateNode is returned by [Graph.AddNode] when a node with the
	// same name already exists. Node names must be unique.
	ErrDuplicateNode = errors.New("duplicate node name")

	// ErrUnknownNode is returned by [Graph.AddLink] when an endpoint
	// references a node that is not in the graph.
	ErrUnknownNode = errors.New("unknown node")
)

// Well-known node labels that drive layout.
const (
	LabelLevel = "graph-level"
	LabelIcon  = "graph-icon"
	LabelPosX  = "graph-posX"
	LabelPosY  = "graph-posY"
)

// Point is a canvas coordinate in pixels.
type Point struct {
	X float64
	Y float64
}

// Node is a device in the lab.
//
// Level 0 means "not assigned". Pos is non-nil only when the topology pins
// the node to a fixed canvas coordinate.
type Node struct {
	Name     string
	Kind     string
	Type     string
	Image    string
	MgmtIPv4 string
	Group    string
	Labels   map[string]string
	Level    int
	Icon     string
	Pos      *Point

	// Extra holds node keys topodraw does not interpret (binds, env,
	// startup-config...). They are written back untouched.
	Extra map[string]any
}

// HasLevel reports whether the node carries an explicit level.
func (n *Node) HasLevel() bool { return n.Level != 0 }

// Endpoint is one side of a link.
type Endpoint struct {
	Node      string
	Interface string
}

// String returns the "node:iface" form used in topology files.
func (e Endpoint) String() string { return e.Node + ":" + e.Interface }

// Link connects exactly two endpoints. Endpoint order is preserved from the
// source document.
type Link struct {
	Endpoints [2]Endpoint
	Vars      map[string]any
}

// Source returns the first endpoint.
func (l Link) Source() Endpoint { return l.Endpoints[0] }

// Target returns the second endpoint.
func (l Link) Target() Endpoint { return l.Endpoints[1] }

// ID returns a stable identifier of the form "a:ia:b:ib".
func (l Link) ID() string {
	return l.Endpoints[0].String() + ":" + l.Endpoints[1].String()
}

// Graph is an ordered, undirected multigraph of nodes and links.
//
// Node iteration follows insertion order, which is the order nodes first
// appeared in the source document. The zero value is not usable; use
// [NewGraph]. Graph is not safe for concurrent mutation.
type Graph struct {
	name      string
	order     []string
	nodes     map[string]*Node
	links     []Link
	neighbors map[string][]string
	degree    map[string]int
}

// NewGraph creates an empty graph for the named lab.
func NewGraph(name string) *Graph {
	return &Graph{
		name:      name,
		nodes:     make(map[string]*Node),
		neighbors: make(map[string][]string),
		degree:    make(map[string]int),
	}
}

// Name returns the lab name.
func (g *Graph) Name() string { return g.name }

// SetName changes the lab name.
func (g *Graph) SetName(name string) { g.name = name }

// AddNode appends a node. Labels is initialized when nil.
func (g *Graph) AddNode(n Node) error {
	if err := tderrors.ValidateNodeName(n.Name); err != nil {
		return errors.Join(ErrInvalidNodeName, err)
	}
	if _, exists := g.nodes[n.Name]; exists {
		return ErrDuplicateNode
	}
	if n.Labels == nil {
		n.Labels = map[string]string{}
	}
	node := &n
	g.nodes[n.Name] = node
	g.order = append(g.order, n.Name)
	return nil
}

// AddLink appends a link between two existing nodes. Self-loops and
// parallel links are allowed.
func (g *Graph) AddLink(l Link) error {
	a, b := l.Endpoints[0].Node, l.Endpoints[1].Node
	if _, ok := g.nodes[a]; !ok {
		return ErrUnknownNode
	}
	if _, ok := g.nodes[b]; !ok {
		return ErrUnknownNode
	}
	g.links = append(g.links, l)
	g.degree[a]++
	if b != a {
		g.degree[b]++
		g.addNeighbor(a, b)
		g.addNeighbor(b, a)
	}
	return nil
}

func (g *Graph) addNeighbor(from, to string) {
	if !slices.Contains(g.neighbors[from], to) {
		g.neighbors[from] = append(g.neighbors[from], to)
	}
}

// Node returns the named node and true, or nil and false.
// The pointer refers to the node stored in the graph.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns all nodes in first-seen order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, name := range g.order {
		out[i] = g.nodes[name]
	}
	return out
}

// NodeNames returns node names in first-seen order.
func (g *Graph) NodeNames() []string { return slices.Clone(g.order) }

// Links returns a copy of all links in insertion order.
func (g *Graph) Links() []Link { return slices.Clone(g.links) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// LinkCount returns the number of links.
func (g *Graph) LinkCount() int { return len(g.links) }

// Neighbors returns the distinct neighbors of a node in the order they were
// first linked. The slice must not be modified.
func (g *Graph) Neighbors(name string) []string { return g.neighbors[name] }

// FanOut returns the number of distinct neighbors.
func (g *Graph) FanOut(name string) int { return len(g.neighbors[name]) }

// Degree returns the number of links touching the node, counting parallel
// links separately.
func (g *Graph) Degree(name string) int { return g.degree[name] }

// IsLinked reports whether at least one link touches the node.
func (g *Graph) IsLinked(name string) bool { return g.degree[name] > 0 }

// Index returns the first-seen position of a node, or -1.
func (g *Graph) Index(name string) int { return slices.Index(g.order, name) }

// LinksOf returns the links touching the node in insertion order.
func (g *Graph) LinksOf(name string) []Link {
	var out []Link
	for _, l := range g.links {
		if l.Endpoints[0].Node == name || l.Endpoints[1].Node == name {
			out = append(out, l)
		}
	}
	return out
}
