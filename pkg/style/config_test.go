package style

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestThemes(t *testing.T) {
	names := Themes()
	for _, want := range []string{"default", "minimal", "nokia"} {
		if !slices.Contains(names, want) {
			t.Errorf("Themes() = %v, missing %s", names, want)
		}
	}
	for _, name := range names {
		cfg, err := Theme(name)
		if err != nil {
			t.Errorf("Theme(%q): %v", name, err)
			continue
		}
		if cfg.Name != name {
			t.Errorf("Theme(%q).Name = %q", name, cfg.Name)
		}
	}
	if _, err := Theme("neon"); !tderrors.Is(err, tderrors.ErrCodeInvalidStyle) {
		t.Errorf("Theme(neon) error = %v, want %s", err, tderrors.ErrCodeInvalidStyle)
	}
}

func TestMinimalThemeKeepsDefaults(t *testing.T) {
	cfg, err := Theme("minimal")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.NodeWidth != 60 {
		t.Errorf("NodeWidth = %v, want 60", cfg.NodeWidth)
	}
	if cfg.PortWidth != Default().PortWidth {
		t.Errorf("PortWidth = %v, want default %v", cfg.PortWidth, Default().PortWidth)
	}
	if cfg.IconToGroup["router"] != "dcgw" {
		t.Errorf("IconToGroup[router] = %q, want default mapping kept", cfg.IconToGroup["router"])
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		path := writeFile(t, "lab.yaml", "node_width: 90\ncustom_styles:\n  spine: \"fillColor=#000000;\"\n")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.NodeWidth != 90 {
			t.Errorf("NodeWidth = %v, want 90", cfg.NodeWidth)
		}
		if cfg.CustomStyles["spine"] != "fillColor=#000000;" {
			t.Errorf("spine style = %q", cfg.CustomStyles["spine"])
		}
	})

	t.Run("toml", func(t *testing.T) {
		path := writeFile(t, "lab.toml", "node_height = 50.0\npagew = \"1200\"\n\n[icon_to_group_mapping]\nfirewall = \"dcgw\"\n")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.NodeHeight != 50 || cfg.PageWidth != "1200" {
			t.Errorf("NodeHeight/PageWidth = %v/%q", cfg.NodeHeight, cfg.PageWidth)
		}
		if cfg.IconToGroup["firewall"] != "dcgw" {
			t.Errorf("IconToGroup = %v", cfg.IconToGroup)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil || cfg.Name != "default" {
			t.Errorf("Load(\"\") = %v, %v", cfg, err)
		}
	})

	tests := []struct {
		name, file, content string
		code                tderrors.Code
	}{
		{"negative padding", "a.yaml", "padding_x: -1\n", tderrors.ErrCodeInvalidStyle},
		{"zero width", "a.yaml", "node_width: 0\n", tderrors.ErrCodeInvalidStyle},
		{"bad page size", "a.yaml", "pagew: wide\n", tderrors.ErrCodeInvalidStyle},
		{"bad style string", "a.yaml", "link_style: \"=red;\"\n", tderrors.ErrCodeInvalidStyle},
		{"unknown key", "a.yaml", "nodewidth: 3\n", tderrors.ErrCodeInvalidStyle},
		{"unknown toml key", "a.toml", "nodewidth = 3\n", tderrors.ErrCodeInvalidStyle},
		{"malformed yaml", "a.yaml", "node_width: [\n", tderrors.ErrCodeInvalidStyle},
		{"bad extension", "a.json", "{}", tderrors.ErrCodeInvalidStyle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			if !tderrors.Is(err, tt.code) {
				t.Errorf("Load error = %v, want code %s", err, tt.code)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !tderrors.Is(err, tderrors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want %s", err, tderrors.ErrCodeFileNotFound)
	}
}
