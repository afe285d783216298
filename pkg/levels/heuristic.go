package levels

import (
	"cmp"
	"maps"
	"slices"

	"github.com/matzehuels/topodraw/pkg/topology"
)

// automatic assigns tiers to the linked nodes.
//
// Edge devices (fan-out <= LeafMaxFanOut) are set aside first. Among the
// remaining core nodes, those with the most core neighbors (and, on a tie,
// the fewest edge devices) become tier 1.
// Tiers then spread outwards, one more than the shallowest leveled
// neighbor, for at most Passes rounds; whatever is still unreached gets
// seeded again. Edge devices finally drop to one below the deepest core
// tier. Explicit levels in fixed are kept and act as seeds.
func automatic(g *topology.Graph, linked []string, fixed map[string]int, p Params) map[string]int {
	h := &heuristic{
		g:        g,
		params:   p,
		levels:   map[string]int{},
		leaf:     map[string]bool{},
		promoted: map[string]bool{},
	}
	for _, name := range linked {
		if l, ok := fixed[name]; ok {
			h.levels[name] = l
		}
		h.leaf[name] = g.FanOut(name) <= p.LeafMaxFanOut
	}

	seeded := len(h.levels) > 0
	for {
		pending := h.pending(linked)
		if len(pending) == 0 {
			break
		}
		if !seeded {
			h.seed(pending)
		}
		h.propagate(linked)
		seeded = false
	}

	h.sinkLeaves(linked, fixed)
	return h.levels
}

type heuristic struct {
	g        *topology.Graph
	params   Params
	levels   map[string]int
	leaf     map[string]bool
	promoted map[string]bool
}

func (h *heuristic) isCore(name string) bool { return !h.leaf[name] || h.promoted[name] }

func (h *heuristic) pending(names []string) []string {
	var out []string
	for _, n := range names {
		if _, ok := h.levels[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}

// coreFanOut counts distinct neighbors that are not edge devices.
func (h *heuristic) coreFanOut(name string) int {
	count := 0
	for _, m := range h.g.Neighbors(name) {
		if !h.leaf[m] {
			count++
		}
	}
	return count
}

// seed puts the most connected core nodes among pending at tier 1, ties
// going to the nodes with fewer edge devices attached. When pending holds
// only edge devices, the best of them is promoted instead.
func (h *heuristic) seed(pending []string) {
	var core []string
	for _, n := range pending {
		if !h.leaf[n] {
			core = append(core, n)
		}
	}
	if len(core) > 0 {
		// Rank by core neighbors, then by fewest attached edge devices:
		// spines and leaves both see each other, only leaves carry hosts.
		rank := func(n string) [2]int {
			c := h.coreFanOut(n)
			return [2]int{c, c - h.g.FanOut(n)}
		}
		best := rank(core[0])
		for _, n := range core[1:] {
			if r := rank(n); r[0] > best[0] || (r[0] == best[0] && r[1] > best[1]) {
				best = r
			}
		}
		for _, n := range core {
			if rank(n) == best {
				h.levels[n] = 1
			}
		}
		return
	}

	root := slices.MinFunc(pending, func(a, b string) int {
		return cmp.Or(
			cmp.Compare(h.g.FanOut(b), h.g.FanOut(a)),
			cmp.Compare(h.g.Degree(b), h.g.Degree(a)),
			cmp.Compare(h.g.Index(a), h.g.Index(b)),
		)
	})
	h.levels[root] = 1
	h.promoted[root] = true
}

// propagate runs up to Passes rounds. Each round visits the unleveled
// nodes that touch a leveled node, largest degree first, and places each
// one tier below its shallowest leveled neighbor.
func (h *heuristic) propagate(linked []string) {
	for range h.params.Passes {
		var frontier []string
		for _, n := range h.pending(linked) {
			if h.hasLeveledNeighbor(n) {
				frontier = append(frontier, n)
			}
		}
		if len(frontier) == 0 {
			return
		}
		slices.SortStableFunc(frontier, func(a, b string) int {
			return cmp.Or(
				cmp.Compare(h.g.Degree(b), h.g.Degree(a)),
				cmp.Compare(h.g.Index(a), h.g.Index(b)),
			)
		})
		for _, n := range frontier {
			h.levels[n] = h.shallowestNeighbor(n) + 1
		}
	}
}

func (h *heuristic) hasLeveledNeighbor(name string) bool {
	for _, m := range h.g.Neighbors(name) {
		if _, ok := h.levels[m]; ok {
			return true
		}
	}
	return false
}

func (h *heuristic) shallowestNeighbor(name string) int {
	best := 0
	for _, m := range h.g.Neighbors(name) {
		if l, ok := h.levels[m]; ok && (best == 0 || l < best) {
			best = l
		}
	}
	return best
}

// sinkLeaves moves edge devices without an explicit level below the
// deepest core tier.
func (h *heuristic) sinkLeaves(linked []string, fixed map[string]int) {
	deepest := 0
	for _, n := range linked {
		if h.isCore(n) {
			deepest = max(deepest, h.levels[n])
		}
	}
	if deepest == 0 {
		return
	}
	for _, n := range linked {
		if _, ok := fixed[n]; ok || h.isCore(n) {
			continue
		}
		h.levels[n] = deepest + 1
	}
}

// Suggest runs the automatic heuristic alone and returns a level for every
// linked node. Explicit levels on the graph are kept.
func Suggest(g *topology.Graph, p Params) map[string]int {
	var linked []string
	fixed := map[string]int{}
	for _, n := range g.Nodes() {
		if !g.IsLinked(n.Name) {
			continue
		}
		linked = append(linked, n.Name)
		if n.HasLevel() {
			fixed[n.Name] = n.Level
		}
	}
	return maps.Clone(automatic(g, linked, fixed, p.withDefaults()))
}
