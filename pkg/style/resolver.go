package style

import (
	"slices"
	"strings"

	"github.com/matzehuels/topodraw/pkg/topology"
)

// Descriptor is the resolved look of a node.
type Descriptor struct {
	Role   string
	Style  string
	Width  float64
	Height float64

	// Fallback is set when the requested icon or role was unknown and the
	// default style was used instead.
	Fallback bool
}

// Resolver maps roles and nodes to style descriptors. It never fails: an
// unknown role resolves to the default style with Fallback set.
type Resolver struct {
	cfg *Config
}

// NewResolver creates a resolver over cfg.
func NewResolver(cfg *Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Config returns the underlying style configuration.
func (r *Resolver) Config() *Config { return r.cfg }

// Resolve returns the descriptor for a role.
func (r *Resolver) Resolve(role string) Descriptor {
	if custom, ok := r.cfg.CustomStyles[role]; ok {
		return r.descriptor(role, custom, false)
	}
	return r.descriptor(DefaultRole, r.cfg.CustomStyles[DefaultRole], role != DefaultRole)
}

// ResolveNode picks a role for the node and resolves it. The graph-icon is
// tried first, then the node kind, then well-known name fragments.
func (r *Resolver) ResolveNode(n *topology.Node) Descriptor {
	if n.Icon != "" {
		return r.Resolve(r.RoleForIcon(n.Icon))
	}
	if role, ok := r.cfg.KindToGroup[n.Kind]; ok && n.Kind != "" {
		return r.Resolve(role)
	}
	if role := roleFromName(n.Name); role != "" {
		if _, ok := r.cfg.CustomStyles[role]; ok {
			return r.Resolve(role)
		}
	}
	return r.Resolve(DefaultRole)
}

// RoleForIcon maps a graph-icon value to a role. Icons without a mapping
// are used as role names directly.
func (r *Resolver) RoleForIcon(icon string) string {
	if role, ok := r.cfg.IconToGroup[icon]; ok {
		return role
	}
	return icon
}

// Icons lists the icon names the style knows, for prompts.
func (r *Resolver) Icons() []string {
	seen := map[string]bool{}
	var icons []string
	for icon := range r.cfg.IconToGroup {
		if !seen[icon] {
			seen[icon] = true
			icons = append(icons, icon)
		}
	}
	for role := range r.cfg.CustomStyles {
		if !seen[role] {
			seen[role] = true
			icons = append(icons, role)
		}
	}
	slices.Sort(icons)
	return icons
}

func (r *Resolver) descriptor(role, custom string, fallback bool) Descriptor {
	return Descriptor{
		Role:     role,
		Style:    MergeStyle(r.cfg.BaseStyle, custom),
		Width:    r.cfg.NodeWidth,
		Height:   r.cfg.NodeHeight,
		Fallback: fallback,
	}
}

func roleFromName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "client"):
		return "server"
	case strings.Contains(lower, "leaf"):
		return "leaf"
	case strings.Contains(lower, "spine"):
		return "spine"
	case strings.Contains(lower, "dcgw"):
		return "dcgw"
	}
	return ""
}

// CompactInterfaceName shortens common long interface spellings:
// ethernet-1/1 and ethernet1/1 become e1/1, Ethernet1 becomes E1.
func CompactInterfaceName(name string) string {
	switch {
	case strings.HasPrefix(name, "Ethernet"):
		return "E" + name[len("Ethernet"):]
	case strings.HasPrefix(strings.ToLower(name), "ethernet-"):
		return "e" + name[len("ethernet-"):]
	case strings.HasPrefix(strings.ToLower(name), "ethernet"):
		return "e" + name[len("ethernet"):]
	}
	return name
}
