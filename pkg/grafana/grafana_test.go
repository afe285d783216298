package grafana

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
	"github.com/matzehuels/topodraw/pkg/topology"
)

func pairGraph(t *testing.T) *topology.Graph {
	t.Helper()
	g := topology.NewGraph("lab")
	_ = g.AddNode(topology.Node{Name: "leaf1"})
	_ = g.AddNode(topology.Node{Name: "spine1"})
	if err := g.AddLink(topology.Link{Endpoints: [2]topology.Endpoint{
		{Node: "leaf1", Interface: "e1-49"},
		{Node: "spine1", Interface: "e1-1"},
	}}); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if len(cfg.Targets) != 3 {
		t.Errorf("targets = %d, want 3", len(cfg.Targets))
	}
	if len(cfg.Thresholds.Operstate) != 2 || len(cfg.Thresholds.Traffic) != 5 {
		t.Errorf("thresholds = %+v", cfg.Thresholds)
	}
	if cfg.LabelConfig.Units != "bps" {
		t.Errorf("units = %q, want bps", cfg.LabelConfig.Units)
	}
}

func TestParseConfigMissingSections(t *testing.T) {
	cfg, warns, err := ParseConfig([]byte("targets:\n  - expr: up\n"))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if len(cfg.Targets) != 1 || cfg.Targets[0].Expr != "up" {
		t.Errorf("targets = %+v", cfg.Targets)
	}
	if got := tderrors.CountWarnings(warns)[tderrors.WarnConfigDefault]; got != 2 {
		t.Errorf("config-default warnings = %d, want 2 (%v)", got, warns)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		code tderrors.Code
	}{
		{"bad yaml", "targets: [", tderrors.ErrCodeParse},
		{"unknown key", "targetz: []\n", tderrors.ErrCodeParse},
		{"target without expr", "targets:\n  - legend_format: x\n", tderrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseConfig([]byte(tt.data))
			if !tderrors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grafana.yml")
	if err := os.WriteFile(path, []byte("targets: []\nthresholds: {}\nlabel_config: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, warns, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(warns) != 0 || len(cfg.Targets) != 0 {
		t.Errorf("LoadConfig = %+v, %v", cfg, warns)
	}

	if _, _, err := LoadConfig(filepath.Join(dir, "missing.yml")); !tderrors.Is(err, tderrors.ErrCodeFileNotFound) {
		t.Errorf("missing file err = %v, want %s", err, tderrors.ErrCodeFileNotFound)
	}
}

func TestInterfaceMapper(t *testing.T) {
	tests := []struct {
		pattern, in, want string
	}{
		{"e1-{x}:ethernet1/{x}", "e1-7", "ethernet1/7"},
		{"e1-{x}:ethernet1/{x}", "e1-49", "ethernet1/49"},
		{"e1-{x}:ethernet1/{x}", "mgmt0", "mgmt0"},
		{"e{x}-{x}:ethernet-{x}/{x}", "e1-3", "ethernet-1/3"},
		{"eth{x}:Ethernet$${x}", "eth2", "Ethernet$$2"},
		{"", "e1-1", "e1-1"},
	}
	for _, tt := range tests {
		m, err := NewInterfaceMapper(tt.pattern)
		if err != nil {
			t.Errorf("NewInterfaceMapper(%q): %v", tt.pattern, err)
			continue
		}
		if got := m.Map(tt.in); got != tt.want {
			t.Errorf("Map(%q) with %q = %q, want %q", tt.in, tt.pattern, got, tt.want)
		}
	}
}

func TestInterfaceMapperErrors(t *testing.T) {
	for _, pattern := range []string{"no-colon", ":ethernet{x}", "e{x}:{x}/{x}"} {
		if _, err := NewInterfaceMapper(pattern); !tderrors.Is(err, tderrors.ErrCodeInvalidInput) {
			t.Errorf("NewInterfaceMapper(%q) err = %v, want %s", pattern, err, tderrors.ErrCodeInvalidInput)
		}
	}
}

func TestPanelYAML(t *testing.T) {
	m, _ := NewInterfaceMapper("e1-{x}:ethernet1/{x}")
	out, err := PanelYAML(pairGraph(t), DefaultConfig(), m)
	if err != nil {
		t.Fatalf("PanelYAML: %v", err)
	}
	text := string(out)
	if !strings.HasPrefix(text, "---\n") {
		t.Errorf("panel yaml does not start with a document marker:\n%s", text)
	}
	for _, want := range []string{"&thresholds-operstate", "&thresholds-traffic", "&label-config", "*thresholds-traffic", "*label-config"} {
		if !strings.Contains(text, want) {
			t.Errorf("panel yaml missing %q:\n%s", want, text)
		}
	}

	var panel struct {
		CellIDPreamble string `yaml:"cellIdPreamble"`
		Cells          map[string]struct {
			DataRef   string `yaml:"dataRef"`
			FillColor struct {
				Thresholds []Threshold `yaml:"thresholds"`
			} `yaml:"fillColor"`
			StrokeColor struct {
				Thresholds []Threshold `yaml:"thresholds"`
			} `yaml:"strokeColor"`
			Label map[string]any `yaml:"label"`
		} `yaml:"cells"`
	}
	if err := yaml.Unmarshal(out, &panel); err != nil {
		t.Fatalf("panel yaml does not parse: %v", err)
	}
	if panel.CellIDPreamble != CellIDPreamble {
		t.Errorf("cellIdPreamble = %q, want %q", panel.CellIDPreamble, CellIDPreamble)
	}
	if len(panel.Cells) != 4 {
		t.Fatalf("cells = %d, want 4", len(panel.Cells))
	}
	tests := map[string]string{
		"leaf1:e1-49:spine1:e1-1":         "oper-state:leaf1:ethernet1/49",
		"link_id:leaf1:e1-49:spine1:e1-1": "leaf1:ethernet1/49:out",
		"spine1:e1-1:leaf1:e1-49":         "oper-state:spine1:ethernet1/1",
		"link_id:spine1:e1-1:leaf1:e1-49": "spine1:ethernet1/1:out",
	}
	for id, ref := range tests {
		c, ok := panel.Cells[id]
		if !ok {
			t.Errorf("cell %q missing", id)
			continue
		}
		if c.DataRef != ref {
			t.Errorf("cells[%s].dataRef = %q, want %q", id, c.DataRef, ref)
		}
	}
	port := panel.Cells["leaf1:e1-49:spine1:e1-1"]
	if len(port.FillColor.Thresholds) != 2 {
		t.Errorf("fill thresholds = %v, want the operstate steps", port.FillColor.Thresholds)
	}
	half := panel.Cells["link_id:leaf1:e1-49:spine1:e1-1"]
	if len(half.StrokeColor.Thresholds) != 5 || half.Label["units"] != "bps" {
		t.Errorf("half-edge = %+v, want traffic steps and label config", half)
	}
}

func TestDashboard(t *testing.T) {
	cfg := DefaultConfig()
	panelYAML, err := PanelYAML(pairGraph(t), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Dashboard(cfg, panelYAML)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}

	var dash struct {
		Panels []struct {
			Type    string `json:"type"`
			Targets []struct {
				RefID string `json:"refId"`
				Expr  string `json:"expr"`
				Range bool   `json:"range"`
			} `json:"targets"`
			Options struct {
				PanelConfig string `json:"panelConfig"`
			} `json:"options"`
		} `json:"panels"`
	}
	if err := json.Unmarshal(out, &dash); err != nil {
		t.Fatalf("dashboard is not JSON: %v", err)
	}
	panel := dash.Panels[0]
	if len(panel.Targets) != len(cfg.Targets) {
		t.Fatalf("targets = %d, want %d", len(panel.Targets), len(cfg.Targets))
	}
	for i, want := range []string{"A", "B", "C"} {
		if panel.Targets[i].RefID != want {
			t.Errorf("targets[%d].refId = %q, want %q", i, panel.Targets[i].RefID, want)
		}
	}
	if panel.Targets[0].Range {
		t.Error("targets[0].range = true, want false from config")
	}
	if !panel.Targets[1].Range {
		t.Error("targets[1].range = false, want default true")
	}
	if panel.Options.PanelConfig != string(panelYAML) {
		t.Error("panelConfig does not hold the panel yaml")
	}
}
