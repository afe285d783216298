package topology

import (
	"errors"
	"slices"
	"testing"
)

func buildGraph(t *testing.T, nodes []string, links [][4]string) *Graph {
	t.Helper()
	g := NewGraph("test")
	for _, n := range nodes {
		if err := g.AddNode(Node{Name: n}); err != nil {
			t.Fatalf("AddNode(%q): %v", n, err)
		}
	}
	for _, l := range links {
		err := g.AddLink(Link{Endpoints: [2]Endpoint{{l[0], l[1]}, {l[2], l[3]}}})
		if err != nil {
			t.Fatalf("AddLink(%v): %v", l, err)
		}
	}
	return g
}

func TestGraphAddNode(t *testing.T) {
	g := NewGraph("lab")

	if err := g.AddNode(Node{Name: "leaf1"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := g.AddNode(Node{Name: "leaf1"}); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("duplicate AddNode error = %v, want %v", err, ErrDuplicateNode)
	}
	if err := g.AddNode(Node{Name: ""}); !errors.Is(err, ErrInvalidNodeName) {
		t.Errorf("empty AddNode error = %v, want %v", err, ErrInvalidNodeName)
	}
	if err := g.AddNode(Node{Name: "host:eth0"}); !errors.Is(err, ErrInvalidNodeName) {
		t.Errorf("colon AddNode error = %v, want %v", err, ErrInvalidNodeName)
	}

	n, ok := g.Node("leaf1")
	if !ok {
		t.Fatal("Node(leaf1) not found")
	}
	if n.Labels == nil {
		t.Error("Labels = nil, want initialized map")
	}
}

func TestGraphAddLinkUnknownNode(t *testing.T) {
	g := buildGraph(t, []string{"a"}, nil)
	err := g.AddLink(Link{Endpoints: [2]Endpoint{{"a", "e1"}, {"b", "e1"}}})
	if !errors.Is(err, ErrUnknownNode) {
		t.Errorf("AddLink error = %v, want %v", err, ErrUnknownNode)
	}
	if g.LinkCount() != 0 {
		t.Errorf("LinkCount = %d, want 0", g.LinkCount())
	}
}

func TestGraphNeighborsAndDegree(t *testing.T) {
	g := buildGraph(t,
		[]string{"spine1", "leaf1", "leaf2", "lonely"},
		[][4]string{
			{"leaf1", "e1-49", "spine1", "e1-1"},
			{"leaf1", "e1-50", "spine1", "e1-2"},
			{"leaf2", "e1-49", "spine1", "e1-3"},
		})

	if got := g.Neighbors("spine1"); !slices.Equal(got, []string{"leaf1", "leaf2"}) {
		t.Errorf("Neighbors(spine1) = %v, want [leaf1 leaf2]", got)
	}
	if got := g.FanOut("leaf1"); got != 1 {
		t.Errorf("FanOut(leaf1) = %d, want 1", got)
	}
	if got := g.Degree("leaf1"); got != 2 {
		t.Errorf("Degree(leaf1) = %d, want 2", got)
	}
	if got := g.Degree("spine1"); got != 3 {
		t.Errorf("Degree(spine1) = %d, want 3", got)
	}
	if g.IsLinked("lonely") {
		t.Error("IsLinked(lonely) = true, want false")
	}
	if got := len(g.LinksOf("leaf2")); got != 1 {
		t.Errorf("len(LinksOf(leaf2)) = %d, want 1", got)
	}
}

func TestGraphSelfLoop(t *testing.T) {
	g := buildGraph(t, []string{"r1"}, [][4]string{{"r1", "e1", "r1", "e2"}})
	if g.FanOut("r1") != 0 {
		t.Errorf("FanOut = %d, want 0", g.FanOut("r1"))
	}
	if !g.IsLinked("r1") {
		t.Error("IsLinked = false, want true")
	}
}

func TestGraphOrder(t *testing.T) {
	names := []string{"zeta", "alpha", "mid"}
	g := buildGraph(t, names, nil)
	if got := g.NodeNames(); !slices.Equal(got, names) {
		t.Errorf("NodeNames = %v, want %v", got, names)
	}
	if got := g.Index("alpha"); got != 1 {
		t.Errorf("Index(alpha) = %d, want 1", got)
	}
	if got := g.Index("missing"); got != -1 {
		t.Errorf("Index(missing) = %d, want -1", got)
	}
}

func TestLinkID(t *testing.T) {
	l := Link{Endpoints: [2]Endpoint{{"a", "e1-1"}, {"b", "e1-2"}}}
	if got := l.ID(); got != "a:e1-1:b:e1-2" {
		t.Errorf("ID() = %q", got)
	}
	if l.Source().Node != "a" || l.Target().Node != "b" {
		t.Errorf("Source/Target = %v/%v", l.Source(), l.Target())
	}
}
