package levels

import (
	"slices"

	"github.com/matzehuels/topodraw/pkg/topology"
)

// Crossings counts the link crossings between adjacent tiers when every
// tier is drawn in first-seen order. Links inside one tier, links that skip
// a tier and links to nodes outside the assignment are not counted. Fixed
// positions are ignored.
//
// The count is reported, never optimized: tier order stays first-seen.
func Crossings(g *topology.Graph, asg *Assignment) int {
	tiers := asg.Tiers()
	if len(tiers) < 2 {
		return 0
	}
	pos := make(map[string]int, asg.Len())
	for _, t := range tiers {
		for i, name := range t.Nodes {
			pos[name] = i
		}
	}

	total := 0
	links := g.Links()
	for i := 0; i+1 < len(tiers); i++ {
		upper, lower := tiers[i].Level, tiers[i+1].Level
		var edges []span
		for _, l := range links {
			a, b := l.Source().Node, l.Target().Node
			la, okA := asg.Level(a)
			lb, okB := asg.Level(b)
			if !okA || !okB {
				continue
			}
			switch {
			case la == upper && lb == lower:
				edges = append(edges, span{pos[a], pos[b]})
			case la == lower && lb == upper:
				edges = append(edges, span{pos[b], pos[a]})
			}
		}
		total += inversions(edges, len(tiers[i+1].Nodes))
	}
	return total
}

// span is a link between two adjacent tiers as slot indexes.
type span struct{ upper, lower int }

// inversions counts pairs of spans that cross, using a Fenwick tree over
// the lower slots.
func inversions(edges []span, width int) int {
	if len(edges) < 2 {
		return 0
	}
	slices.SortFunc(edges, func(a, b span) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	tree := make([]int, width+1)
	crossings, seen := 0, 0
	for _, e := range edges {
		atMost := 0
		for q := e.lower + 1; q > 0; q -= q & -q {
			atMost += tree[q]
		}
		crossings += seen - atMost
		seen++
		for q := e.lower + 1; q < len(tree); q += q & -q {
			tree[q]++
		}
	}
	return crossings
}
