package grafana

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
)

//go:embed templates/default_config.yaml
var defaultConfig []byte

// Target is one Prometheus query of the dashboard panel.
type Target struct {
	Datasource   string `yaml:"datasource"`
	Expr         string `yaml:"expr"`
	LegendFormat string `yaml:"legend_format"`
	Hide         bool   `yaml:"hide"`
	Instant      bool   `yaml:"instant"`
	Range        *bool  `yaml:"range"`
}

// Threshold maps a value level to a color.
type Threshold struct {
	Color string  `yaml:"color"`
	Level float64 `yaml:"level"`
}

// Thresholds holds the color steps for port state and link traffic.
type Thresholds struct {
	Operstate []Threshold `yaml:"operstate"`
	Traffic   []Threshold `yaml:"traffic"`
}

// LabelConfig controls how traffic values are printed on links.
type LabelConfig struct {
	Separator     string `yaml:"separator"`
	Units         string `yaml:"units"`
	DecimalPoints *int   `yaml:"decimalPoints"`
	ValueMappings []any  `yaml:"valueMappings"`
}

// Config is a Grafana panel configuration file.
type Config struct {
	Targets     []Target    `yaml:"targets"`
	Thresholds  Thresholds  `yaml:"thresholds"`
	LabelConfig LabelConfig `yaml:"label_config"`
}

// DefaultConfig returns the bundled configuration.
func DefaultConfig() *Config {
	cfg, _, err := ParseConfig(defaultConfig)
	if err != nil {
		panic(fmt.Sprintf("grafana: bundled config: %v", err))
	}
	return cfg
}

// LoadConfig reads a configuration file. An empty path returns
// [DefaultConfig].
func LoadConfig(path string) (*Config, []tderrors.Warning, error) {
	if path == "" {
		return DefaultConfig(), nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, tderrors.Wrap(tderrors.ErrCodeFileNotFound, err, "grafana config %s", path)
		}
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, warns, err := ParseConfig(data)
	if err != nil {
		return nil, nil, fmt.Errorf("grafana config %s: %w", path, err)
	}
	return cfg, warns, nil
}

// ParseConfig decodes configuration YAML. Missing top-level sections are
// left empty and reported as warnings.
func ParseConfig(data []byte) (*Config, []tderrors.Warning, error) {
	var present map[string]yaml.Node
	if err := yaml.Unmarshal(data, &present); err != nil {
		return nil, nil, tderrors.Wrap(tderrors.ErrCodeParse, err, "decode grafana config")
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if len(bytes.TrimSpace(data)) > 0 {
		if err := dec.Decode(&cfg); err != nil {
			return nil, nil, tderrors.Wrap(tderrors.ErrCodeParse, err, "decode grafana config")
		}
	}

	var warns []tderrors.Warning
	for _, key := range []string{"targets", "thresholds", "label_config"} {
		if _, ok := present[key]; !ok {
			warns = append(warns, tderrors.Warnf(tderrors.WarnConfigDefault, key,
				"grafana config has no %q section, using an empty one", key))
		}
	}
	for i, tgt := range cfg.Targets {
		if tgt.Expr == "" {
			return nil, nil, tderrors.New(tderrors.ErrCodeInvalidInput, "targets[%d] has no expr", i)
		}
	}
	return &cfg, warns, nil
}

func (c LabelConfig) decimals() int {
	if c.DecimalPoints == nil {
		return 1
	}
	return *c.DecimalPoints
}

func (t Target) rangeQuery() bool {
	if t.Range == nil {
		return true
	}
	return *t.Range
}
