package grafana

import (
	_ "embed"
	"encoding/json"
	"fmt"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
)

//go:embed templates/flow_panel.json
var dashboardTemplate []byte

// Dashboard fills the bundled dashboard template: the first panel gets
// one query per configured target (refId A, B, C, ...) and panelYAML as
// its panel configuration.
func Dashboard(cfg *Config, panelYAML []byte) ([]byte, error) {
	if len(cfg.Targets) > 26 {
		return nil, tderrors.New(tderrors.ErrCodeInvalidInput, "grafana config has %d targets, at most 26 are supported", len(cfg.Targets))
	}

	var dash map[string]any
	if err := json.Unmarshal(dashboardTemplate, &dash); err != nil {
		return nil, tderrors.Wrap(tderrors.ErrCodeInternal, err, "dashboard template")
	}
	panels, _ := dash["panels"].([]any)
	if len(panels) == 0 {
		return nil, tderrors.New(tderrors.ErrCodeInternal, "dashboard template has no panels")
	}
	panel, ok := panels[0].(map[string]any)
	if !ok {
		return nil, tderrors.New(tderrors.ErrCodeInternal, "dashboard template panel is not an object")
	}

	targets := make([]any, len(cfg.Targets))
	for i, t := range cfg.Targets {
		ds := t.Datasource
		if ds == "" {
			ds = "prometheus"
		}
		targets[i] = map[string]any{
			"datasource":   map[string]any{"type": ds},
			"editorMode":   "code",
			"expr":         t.Expr,
			"hide":         t.Hide,
			"instant":      t.Instant,
			"legendFormat": t.LegendFormat,
			"range":        t.rangeQuery(),
			"refId":        string(rune('A' + i)),
		}
	}
	panel["targets"] = targets
	if opts, ok := panel["options"].(map[string]any); ok {
		opts["panelConfig"] = string(panelYAML)
	}

	out, err := json.MarshalIndent(dash, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode dashboard: %w", err)
	}
	return append(out, '\n'), nil
}
