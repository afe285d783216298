package style

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
)

//go:embed themes/*.yaml
var themeFS embed.FS

// DefaultRole is the role used when nothing else matches.
const DefaultRole = "default"

// AutoSize marks a page dimension that is computed from the layout.
const AutoSize = "auto"

// Config is a loaded style/theme file. It is read-only after loading.
type Config struct {
	Name       string `yaml:"name" toml:"name"`
	Background string `yaml:"background" toml:"background" validate:"omitempty,hexcolor|eq=none"`
	Shadow     bool   `yaml:"shadow" toml:"shadow"`
	Grid       bool   `yaml:"grid" toml:"grid"`
	PageWidth  string `yaml:"pagew" toml:"pagew" validate:"pagesize"`
	PageHeight string `yaml:"pageh" toml:"pageh" validate:"pagesize"`

	NodeWidth   float64 `yaml:"node_width" toml:"node_width" validate:"gt=0"`
	NodeHeight  float64 `yaml:"node_height" toml:"node_height" validate:"gt=0"`
	PaddingX    float64 `yaml:"padding_x" toml:"padding_x" validate:"gte=0"`
	PaddingY    float64 `yaml:"padding_y" toml:"padding_y" validate:"gte=0"`
	MarginX     float64 `yaml:"margin_x" toml:"margin_x" validate:"gte=0"`
	MarginY     float64 `yaml:"margin_y" toml:"margin_y" validate:"gte=0"`
	LabelOffset float64 `yaml:"label_offset" toml:"label_offset" validate:"gte=0"`
	PortWidth   float64 `yaml:"port_width" toml:"port_width" validate:"gt=0"`
	PortHeight  float64 `yaml:"port_height" toml:"port_height" validate:"gt=0"`

	// CompactInterfaceNames shortens ethernet-1/1 to e1/1 on labels.
	CompactInterfaceNames bool `yaml:"compact_interface_names" toml:"compact_interface_names"`

	BaseStyle      string `yaml:"base_style" toml:"base_style" validate:"drawiostyle"`
	LinkStyle      string `yaml:"link_style" toml:"link_style" validate:"drawiostyle"`
	SrcLabelStyle  string `yaml:"src_label_style" toml:"src_label_style" validate:"drawiostyle"`
	TrgtLabelStyle string `yaml:"trgt_label_style" toml:"trgt_label_style" validate:"drawiostyle"`
	PortStyle      string `yaml:"port_style" toml:"port_style" validate:"drawiostyle"`
	ConnectorStyle string `yaml:"connector_style" toml:"connector_style" validate:"drawiostyle"`

	// CustomStyles maps a role to its style. Each entry is merged over
	// BaseStyle when resolved.
	CustomStyles map[string]string `yaml:"custom_styles" toml:"custom_styles" validate:"dive,drawiostyle"`

	// IconToGroup maps graph-icon values to roles.
	IconToGroup map[string]string `yaml:"icon_to_group_mapping" toml:"icon_to_group_mapping"`

	// KindToGroup maps node kinds to roles for nodes without an icon.
	KindToGroup map[string]string `yaml:"kind_to_group_mapping" toml:"kind_to_group_mapping"`
}

// Default returns the built-in style.
func Default() *Config {
	return &Config{
		Name:        "default",
		Background:  "#FFFFFF",
		Shadow:      false,
		Grid:        true,
		PageWidth:   AutoSize,
		PageHeight:  AutoSize,
		NodeWidth:   75,
		NodeHeight:  75,
		PaddingX:    75,
		PaddingY:    100,
		MarginX:     100,
		MarginY:     100,
		LabelOffset: 20,
		PortWidth:   10,
		PortHeight:  10,

		BaseStyle:      "shape=rectangle;rounded=1;whiteSpace=wrap;html=1;labelPosition=center;verticalLabelPosition=bottom;align=center;verticalAlign=top;fontSize=11;",
		LinkStyle:      "endArrow=none;jumpStyle=gap;strokeWidth=1;strokeColor=#4D4D4D;",
		SrcLabelStyle:  "edgeLabel;html=1;align=center;verticalAlign=middle;resizable=0;points=[];fontSize=9;labelBackgroundColor=#FFFFFF;",
		TrgtLabelStyle: "edgeLabel;html=1;align=center;verticalAlign=middle;resizable=0;points=[];fontSize=9;labelBackgroundColor=#FFFFFF;",
		PortStyle:      "ellipse;html=1;aspect=fixed;fillColor=#CCCCCC;strokeColor=none;",
		ConnectorStyle: "shape=rectangle;fillColor=none;strokeColor=none;",

		CustomStyles: map[string]string{
			DefaultRole: "fillColor=#DAE8FC;strokeColor=#6C8EBF;",
			"spine":     "fillColor=#F8CECC;strokeColor=#B85450;",
			"leaf":      "fillColor=#D5E8D4;strokeColor=#82B366;",
			"dcgw":      "fillColor=#FFE6CC;strokeColor=#D79B00;",
			"server":    "shape=mxgraph.cisco.servers.fileserver;fillColor=#F5F5F5;strokeColor=#666666;",
		},
		IconToGroup: map[string]string{
			"router": "dcgw",
			"switch": "leaf",
			"host":   "server",
			"server": "server",
			"spine":  "spine",
			"leaf":   "leaf",
			"dcgw":   "dcgw",
		},
		KindToGroup: map[string]string{
			"linux": "server",
		},
	}
}

// Load reads a style file. The format is chosen by extension: .yaml/.yml
// or .toml. Keys absent from the file keep their default values. An
// empty path returns [Default].
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tderrors.Wrap(tderrors.ErrCodeFileNotFound, err, "style file %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var format string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	case ".toml":
		format = "toml"
	default:
		return nil, tderrors.New(tderrors.ErrCodeInvalidStyle, "style file %s: unsupported extension (want .yaml, .yml or .toml)", path)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("style file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates style data in "yaml" or "toml" format.
func Parse(data []byte, format string) (*Config, error) {
	cfg := Default()
	switch format {
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, tderrors.Wrap(tderrors.ErrCodeInvalidStyle, err, "decode yaml")
		}
	case "toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, tderrors.Wrap(tderrors.ErrCodeInvalidStyle, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, tderrors.New(tderrors.ErrCodeInvalidStyle, "unknown style key %q", undecoded[0].String())
		}
	default:
		return nil, tderrors.New(tderrors.ErrCodeInvalidStyle, "unsupported style format %q", format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Encode writes the style in "yaml" or "toml" format. The output loads
// back with [Parse].
func (c *Config) Encode(w io.Writer, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		return toml.NewEncoder(w).Encode(c)
	}
	return tderrors.New(tderrors.ErrCodeInvalidFormat, "unsupported style format %q", format)
}

// Theme returns a bundled theme by name.
func Theme(name string) (*Config, error) {
	if name == "" || name == "default" {
		return Default(), nil
	}
	data, err := themeFS.ReadFile("themes/" + name + ".yaml")
	if err != nil {
		return nil, tderrors.New(tderrors.ErrCodeInvalidStyle, "unknown theme %q (available: %s)", name, strings.Join(Themes(), ", "))
	}
	cfg, err := Parse(data, "yaml")
	if err != nil {
		return nil, fmt.Errorf("theme %s: %w", name, err)
	}
	return cfg, nil
}

// Themes lists the bundled theme names.
func Themes() []string {
	names := []string{"default"}
	entries, _ := themeFS.ReadDir("themes")
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	slices.Sort(names[1:])
	return names
}

// Select picks a style source: an explicit file path wins over a theme
// name.
func Select(path, theme string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	return Theme(theme)
}
