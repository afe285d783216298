package levels

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"testing"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
	"github.com/matzehuels/topodraw/pkg/topology"
)

// graphOf builds a graph from "a-b" link specs. Nodes are declared in the
// order they first appear unless listed in extra first.
func graphOf(t *testing.T, extra []topology.Node, links ...string) *topology.Graph {
	t.Helper()
	g := topology.NewGraph("test")
	for _, n := range extra {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	ensure := func(name string) {
		if _, ok := g.Node(name); !ok {
			if err := g.AddNode(topology.Node{Name: name}); err != nil {
				t.Fatal(err)
			}
		}
	}
	for i, spec := range links {
		var a, b string
		for j := range spec {
			if spec[j] == '-' {
				a, b = spec[:j], spec[j+1:]
				break
			}
		}
		ensure(a)
		ensure(b)
		l := topology.Link{Endpoints: [2]topology.Endpoint{
			{Node: a, Interface: fmt.Sprintf("e%d", i)},
			{Node: b, Interface: fmt.Sprintf("e%d", i)},
		}}
		if err := g.AddLink(l); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestAssignLeafSpine(t *testing.T) {
	g := graphOf(t, nil, "leaf1-spine1", "leaf2-spine1")

	asg, err := Assign(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	want := map[string]int{"spine1": 1, "leaf1": 2, "leaf2": 2}
	if !maps.Equal(asg.Levels, want) {
		t.Errorf("Levels = %v, want %v", asg.Levels, want)
	}
	if asg.Method != Automatic {
		t.Errorf("Method = %s, want automatic", asg.Method)
	}
}

func TestAssignClosWithHosts(t *testing.T) {
	g := graphOf(t, nil,
		"leaf1-spine1", "leaf1-spine2", "leaf2-spine1", "leaf2-spine2",
		"client1-leaf1", "client2-leaf2", "client3-leaf2",
	)
	asg, err := Assign(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	want := map[string]int{
		"spine1": 1, "spine2": 1,
		"leaf1": 2, "leaf2": 2,
		"client1": 3, "client2": 3, "client3": 3,
	}
	if !maps.Equal(asg.Levels, want) {
		t.Errorf("Levels = %v, want %v", asg.Levels, want)
	}

	tiers := asg.Tiers()
	if len(tiers) != 3 {
		t.Fatalf("len(Tiers) = %d, want 3", len(tiers))
	}
	if !slices.Equal(tiers[0].Nodes, []string{"spine1", "spine2"}) {
		t.Errorf("tier 1 = %v, want first-seen order [spine1 spine2]", tiers[0].Nodes)
	}
	if !slices.Equal(tiers[2].Nodes, []string{"client1", "client2", "client3"}) {
		t.Errorf("tier 3 = %v", tiers[2].Nodes)
	}
}

func TestAssignHostOnSpineSinks(t *testing.T) {
	g := graphOf(t, nil,
		"leaf1-spine1", "leaf2-spine1", "mgmt-spine1",
		"h1-leaf1", "h2-leaf1", "h3-leaf2",
	)
	asg, err := Assign(context.Background(), g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if asg.Levels["spine1"] != 1 || asg.Levels["leaf1"] != 2 || asg.Levels["leaf2"] != 2 {
		t.Errorf("Levels = %v", asg.Levels)
	}
	if asg.Levels["mgmt"] != 3 || asg.Levels["h1"] != 3 {
		t.Errorf("edge devices = mgmt %d / h1 %d, want both at deepest tier 3", asg.Levels["mgmt"], asg.Levels["h1"])
	}
}

func TestAssignPair(t *testing.T) {
	g := graphOf(t, nil, "a-b")
	asg, err := Assign(context.Background(), g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if asg.Levels["a"] != 1 || asg.Levels["b"] != 2 {
		t.Errorf("Levels = %v, want a=1 b=2", asg.Levels)
	}
}

func TestAssignDisconnectedComponents(t *testing.T) {
	g := graphOf(t, nil, "l1-s1", "l2-s1", "x-y")
	asg, err := Assign(context.Background(), g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"l1", "l2", "s1", "x", "y"} {
		if l, ok := asg.Level(name); !ok || l < 1 {
			t.Errorf("Level(%s) = %d, %v, want >= 1", name, l, ok)
		}
	}
	if asg.Levels["s1"] != 1 {
		t.Errorf("s1 = %d, want 1", asg.Levels["s1"])
	}
}

func TestAssignExplicit(t *testing.T) {
	g := graphOf(t, []topology.Node{
		{Name: "a", Level: 5},
		{Name: "b", Level: 1},
		{Name: "c", Level: 9},
	}, "a-b", "b-c")

	asg, err := Assign(context.Background(), g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]int{"a": 5, "b": 1, "c": 9}
	if !maps.Equal(asg.Levels, want) {
		t.Errorf("Levels = %v, want %v (verbatim)", asg.Levels, want)
	}
	if asg.Method != Explicit {
		t.Errorf("Method = %s, want explicit", asg.Method)
	}
}

func TestAssignPartialExplicitWins(t *testing.T) {
	g := graphOf(t, []topology.Node{{Name: "leaf1", Level: 3}}, "leaf1-spine1", "leaf2-spine1")
	asg, err := Assign(context.Background(), g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if asg.Levels["leaf1"] != 3 {
		t.Errorf("leaf1 = %d, want explicit 3", asg.Levels["leaf1"])
	}
	if asg.Levels["spine1"] != 4 {
		t.Errorf("spine1 = %d, want 4 (one below its only seeded neighbor)", asg.Levels["spine1"])
	}
}

func TestAssignUnlinked(t *testing.T) {
	extra := []topology.Node{{Name: "lonely"}}
	g := graphOf(t, extra, "leaf1-spine1", "leaf2-spine1")

	asg, err := Assign(context.Background(), g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := asg.Level("lonely"); ok {
		t.Error("lonely assigned without IncludeUnlinked")
	}
	if asg.Len() != 3 {
		t.Errorf("Len = %d, want 3", asg.Len())
	}

	asg, err = Assign(context.Background(), g, Options{IncludeUnlinked: true})
	if err != nil {
		t.Fatal(err)
	}
	if l, ok := asg.Level("lonely"); !ok || l != 3 {
		t.Errorf("Level(lonely) = %d, %v, want 3", l, ok)
	}
	if asg.Nodes()[0] != "lonely" {
		t.Errorf("Nodes() = %v, want first-seen order", asg.Nodes())
	}
}

func TestAssignEmpty(t *testing.T) {
	asg, err := Assign(context.Background(), topology.NewGraph("empty"), Options{})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if asg.Len() != 0 || len(asg.Tiers()) != 0 {
		t.Errorf("assignment = %+v, want empty", asg)
	}
}

func TestAssignInteractive(t *testing.T) {
	g := graphOf(t, []topology.Node{{Name: "spine1", Level: 1}}, "leaf1-spine1", "leaf2-spine1")
	p := &ScriptedPrompter{
		Levels: map[string]int{"leaf2": 4},
		Icons:  map[string]string{"leaf1": "switch"},
	}

	asg, err := Assign(context.Background(), g, Options{Prompter: p})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if !slices.Equal(p.Asked, []string{"leaf1", "leaf2"}) {
		t.Errorf("Asked = %v, want [leaf1 leaf2]", p.Asked)
	}
	want := map[string]int{"spine1": 1, "leaf1": 2, "leaf2": 4}
	if !maps.Equal(asg.Levels, want) {
		t.Errorf("Levels = %v, want %v", asg.Levels, want)
	}
	if asg.Icons["leaf1"] != "switch" {
		t.Errorf("Icons = %v", asg.Icons)
	}
	if asg.Method != Interactive {
		t.Errorf("Method = %s, want interactive", asg.Method)
	}
}

func TestAssignInteractiveRequest(t *testing.T) {
	g := graphOf(t, nil, "leaf1-spine1", "leaf2-spine1")
	var reqs []Request
	p := PrompterFunc(func(_ context.Context, req Request) (Response, error) {
		reqs = append(reqs, req)
		return Response{Level: req.Suggested}, nil
	})
	if _, err := Assign(context.Background(), g, Options{Prompter: p, Icons: []string{"router"}}); err != nil {
		t.Fatal(err)
	}
	if len(reqs) != 3 {
		t.Fatalf("len(reqs) = %d, want 3", len(reqs))
	}
	if reqs[0].Node.Name != "leaf1" || reqs[0].Suggested != 2 || reqs[0].Index != 1 || reqs[0].Total != 3 {
		t.Errorf("first request = %+v", reqs[0])
	}
	if reqs[1].Suggested != 1 || !slices.Equal(reqs[1].Neighbors, []string{"leaf1", "leaf2"}) {
		t.Errorf("spine1 request = %+v", reqs[1])
	}
}

func TestAssignInteractiveCancel(t *testing.T) {
	g := graphOf(t, nil, "leaf1-spine1", "leaf2-spine1")
	p := &ScriptedPrompter{CancelAt: "spine1"}

	asg, err := Assign(context.Background(), g, Options{Prompter: p})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Assign error = %v, want ErrCancelled", err)
	}
	if asg != nil {
		t.Error("partial assignment returned on cancel")
	}
	if !tderrors.Is(err, tderrors.ErrCodeCancelled) {
		t.Errorf("code = %s, want %s", tderrors.GetCode(err), tderrors.ErrCodeCancelled)
	}
}

func TestAssignInteractiveContextCancelled(t *testing.T) {
	g := graphOf(t, nil, "a-b")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Assign(ctx, g, Options{Prompter: &ScriptedPrompter{}})
	if !tderrors.Is(err, tderrors.ErrCodeCancelled) {
		t.Errorf("Assign error = %v, want cancelled", err)
	}
}

func TestAssignInteractiveInvalidLevel(t *testing.T) {
	g := graphOf(t, nil, "a-b")
	p := &ScriptedPrompter{Levels: map[string]int{"a": 0}}
	_, err := Assign(context.Background(), g, Options{Prompter: p})
	if !tderrors.Is(err, tderrors.ErrCodeInvalidInput) {
		t.Errorf("Assign error = %v, want invalid input", err)
	}
}

func TestSuggestKeepsExplicit(t *testing.T) {
	g := graphOf(t, []topology.Node{{Name: "x", Level: 7}}, "x-y")
	got := Suggest(g, Params{})
	if got["x"] != 7 || got["y"] != 8 {
		t.Errorf("Suggest = %v, want x=7 y=8", got)
	}
}

func TestParamsDefaults(t *testing.T) {
	p := Params{}.withDefaults()
	if p.Passes != DefaultPasses || p.LeafMaxFanOut != DefaultLeafMaxFanOut {
		t.Errorf("withDefaults = %+v", p)
	}
	p = Params{Passes: 2, LeafMaxFanOut: 3}.withDefaults()
	if p.Passes != 2 || p.LeafMaxFanOut != 3 {
		t.Errorf("withDefaults overrode explicit params: %+v", p)
	}
}

func TestMethodString(t *testing.T) {
	for m, want := range map[Method]string{Explicit: "explicit", Interactive: "interactive", Automatic: "automatic"} {
		if m.String() != want {
			t.Errorf("Method(%d).String() = %q, want %q", m, m.String(), want)
		}
	}
}
