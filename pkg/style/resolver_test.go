package style

import (
	"strings"
	"testing"

	"github.com/matzehuels/topodraw/pkg/topology"
)

func TestResolve(t *testing.T) {
	r := NewResolver(Default())

	spine := r.Resolve("spine")
	if spine.Role != "spine" || spine.Fallback {
		t.Errorf("Resolve(spine) = %+v", spine)
	}
	if !strings.Contains(spine.Style, "fillColor=#F8CECC") || !strings.Contains(spine.Style, "rounded=1") {
		t.Errorf("spine style not merged over base: %q", spine.Style)
	}

	unknown := r.Resolve("firewall")
	if unknown.Role != DefaultRole || !unknown.Fallback {
		t.Errorf("Resolve(firewall) = %+v, want default with Fallback", unknown)
	}
	if def := r.Resolve(DefaultRole); def.Fallback {
		t.Error("Resolve(default).Fallback = true, want false")
	}
}

func TestResolveNode(t *testing.T) {
	r := NewResolver(Default())
	tests := []struct {
		node     topology.Node
		role     string
		fallback bool
	}{
		{topology.Node{Name: "r1", Icon: "router"}, "dcgw", false},
		{topology.Node{Name: "r1", Icon: "spine"}, "spine", false},
		{topology.Node{Name: "r1", Icon: "toaster"}, DefaultRole, true},
		{topology.Node{Name: "h1", Kind: "linux"}, "server", false},
		{topology.Node{Name: "client3"}, "server", false},
		{topology.Node{Name: "dc1-leaf2", Kind: "nokia_srlinux"}, "leaf", false},
		{topology.Node{Name: "SPINE-A"}, "spine", false},
		{topology.Node{Name: "pe1", Kind: "vr-sros"}, DefaultRole, false},
	}
	for _, tt := range tests {
		d := r.ResolveNode(&tt.node)
		if d.Role != tt.role || d.Fallback != tt.fallback {
			t.Errorf("ResolveNode(%+v) = role %q fallback %v, want %q %v", tt.node, d.Role, d.Fallback, tt.role, tt.fallback)
		}
		if d.Width != 75 || d.Height != 75 {
			t.Errorf("size = %vx%v, want 75x75", d.Width, d.Height)
		}
	}
}

func TestIcons(t *testing.T) {
	icons := NewResolver(Default()).Icons()
	if len(icons) == 0 || icons[0] > icons[len(icons)-1] {
		t.Errorf("Icons() = %v, want sorted non-empty list", icons)
	}
}

func TestCompactInterfaceName(t *testing.T) {
	tests := map[string]string{
		"ethernet-1/1": "e1/1",
		"ethernet1/3":  "e1/3",
		"Ethernet12":   "E12",
		"e1-1":         "e1-1",
		"eth0":         "eth0",
		"ETHERNET-2":   "e2",
	}
	for in, want := range tests {
		if got := CompactInterfaceName(in); got != want {
			t.Errorf("CompactInterfaceName(%q) = %q, want %q", in, got, want)
		}
	}
}
