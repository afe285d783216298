package topology

// defaultKindFields holds the kinds-table entry written for well-known kinds.
var defaultKindFields = map[string]map[string]any{
	"nokia_srlinux": {"image": "ghcr.io/nokia/srlinux", "type": "ixrd3"},
	"linux":         {"image": "ghcr.io/hellt/network-multitool"},
	"vr-sros":       {"image": "registry.srlinux.dev/pub/vr-sros:23.10"},
}

// DefaultKinds builds a kinds table covering every kind used by the graph,
// in first-use order. Unknown kinds get an entry with an empty image so the
// user has a place to fill it in.
func DefaultKinds(g *Graph) []Kind {
	var kinds []Kind
	seen := map[string]bool{}
	for _, n := range g.Nodes() {
		if n.Kind == "" || seen[n.Kind] {
			continue
		}
		seen[n.Kind] = true
		fields := map[string]any{"image": nil}
		if def, ok := defaultKindFields[n.Kind]; ok {
			fields = make(map[string]any, len(def))
			for k, v := range def {
				fields[k] = v
			}
		}
		kinds = append(kinds, Kind{Name: n.Kind, Fields: fields})
	}
	return kinds
}
