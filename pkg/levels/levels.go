package levels

import (
	"context"
	"maps"
	"slices"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
	"github.com/matzehuels/topodraw/pkg/topology"
)

// Heuristic defaults.
const (
	// DefaultPasses bounds the propagation rounds per seeding.
	DefaultPasses = 16
	// DefaultLeafMaxFanOut is the largest number of distinct neighbors a
	// node may have and still be treated as an edge device (host, client).
	DefaultLeafMaxFanOut = 1
)

// Method records how an assignment was produced.
type Method int

const (
	Explicit Method = iota
	Interactive
	Automatic
)

func (m Method) String() string {
	switch m {
	case Explicit:
		return "explicit"
	case Interactive:
		return "interactive"
	default:
		return "automatic"
	}
}

// Params tunes the automatic heuristic. Zero values select the defaults.
type Params struct {
	Passes        int
	LeafMaxFanOut int
}

func (p Params) withDefaults() Params {
	if p.Passes <= 0 {
		p.Passes = DefaultPasses
	}
	if p.LeafMaxFanOut <= 0 {
		p.LeafMaxFanOut = DefaultLeafMaxFanOut
	}
	return p
}

// Options configures [Assign].
type Options struct {
	// Prompter asks a human for missing levels. Nil means non-interactive.
	Prompter Prompter
	// IncludeUnlinked places nodes without links one tier below the
	// deepest tier instead of leaving them out.
	IncludeUnlinked bool
	// Icons are the icon names offered to the Prompter.
	Icons  []string
	Params Params
}

// Assignment maps in-scope node names to tiers. Level 1 is the top tier.
type Assignment struct {
	Levels map[string]int
	// Icons holds icon choices made during an interactive session.
	Icons  map[string]string
	Method Method

	order []string
}

// Level returns the tier of a node and whether it is in scope.
func (a *Assignment) Level(name string) (int, bool) {
	l, ok := a.Levels[name]
	return l, ok
}

// Nodes returns the in-scope nodes in first-seen order.
func (a *Assignment) Nodes() []string { return slices.Clone(a.order) }

// Len returns the number of assigned nodes.
func (a *Assignment) Len() int { return len(a.order) }

// Tier is one level with its nodes in first-seen order.
type Tier struct {
	Level int
	Nodes []string
}

// Tiers groups the assignment by ascending level.
func (a *Assignment) Tiers() []Tier {
	byLevel := map[int][]string{}
	for _, name := range a.order {
		l := a.Levels[name]
		byLevel[l] = append(byLevel[l], name)
	}
	tiers := make([]Tier, 0, len(byLevel))
	for _, l := range slices.Sorted(maps.Keys(byLevel)) {
		tiers = append(tiers, Tier{Level: l, Nodes: byLevel[l]})
	}
	return tiers
}

// NewAssignment rebuilds an assignment from node names in first-seen
// order and their levels. Names missing from lv are ignored.
func NewAssignment(method Method, order []string, lv map[string]int) *Assignment {
	asg := &Assignment{Levels: map[string]int{}, Icons: map[string]string{}, Method: method}
	for _, name := range order {
		l, ok := lv[name]
		if !ok {
			continue
		}
		if _, dup := asg.Levels[name]; dup {
			continue
		}
		asg.Levels[name] = l
		asg.order = append(asg.order, name)
	}
	return asg
}

// Assign computes a level for every in-scope node of g.
//
// In-scope nodes are the linked ones, plus unlinked ones when
// Options.IncludeUnlinked is set. When all of them carry an explicit level
// the levels are used as given. Otherwise missing levels are asked from
// the Prompter, or computed by the automatic heuristic when there is none.
// Explicit levels always win. An empty graph yields an empty assignment.
func Assign(ctx context.Context, g *topology.Graph, opts Options) (*Assignment, error) {
	asg := &Assignment{
		Levels: map[string]int{},
		Icons:  map[string]string{},
		Method: Explicit,
	}

	var linked, isolated []string
	fixed := map[string]int{}
	for _, n := range g.Nodes() {
		switch {
		case g.IsLinked(n.Name):
			linked = append(linked, n.Name)
		case opts.IncludeUnlinked:
			isolated = append(isolated, n.Name)
		default:
			continue
		}
		asg.order = append(asg.order, n.Name)
		if n.HasLevel() {
			fixed[n.Name] = n.Level
		}
	}

	if len(fixed) == len(asg.order) {
		maps.Copy(asg.Levels, fixed)
		return asg, nil
	}

	suggested := automatic(g, linked, fixed, opts.Params.withDefaults())
	placeIsolated(suggested, isolated, fixed)

	if opts.Prompter == nil {
		asg.Method = Automatic
		asg.Levels = suggested
		return asg, nil
	}

	asg.Method = Interactive
	maps.Copy(asg.Levels, fixed)
	missing := 0
	for _, name := range asg.order {
		if _, ok := fixed[name]; !ok {
			missing++
		}
	}
	i := 0
	for _, name := range asg.order {
		if _, ok := fixed[name]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, tderrors.Wrap(tderrors.ErrCodeCancelled, err, "level assignment cancelled")
		}
		node, _ := g.Node(name)
		i++
		resp, err := opts.Prompter.Prompt(ctx, Request{
			Node:      node,
			Index:     i,
			Total:     missing,
			Suggested: suggested[name],
			Neighbors: g.Neighbors(name),
			Icons:     opts.Icons,
		})
		if err != nil {
			return nil, err
		}
		if resp.Level < 1 {
			return nil, tderrors.New(tderrors.ErrCodeInvalidInput, "level for %q must be at least 1, got %d", name, resp.Level)
		}
		asg.Levels[name] = resp.Level
		if resp.Icon != "" {
			asg.Icons[name] = resp.Icon
		}
	}
	return asg, nil
}

func placeIsolated(levels map[string]int, isolated []string, fixed map[string]int) {
	deepest := 0
	for _, l := range levels {
		deepest = max(deepest, l)
	}
	for _, name := range isolated {
		if l, ok := fixed[name]; ok {
			levels[name] = l
			continue
		}
		levels[name] = deepest + 1
	}
}
