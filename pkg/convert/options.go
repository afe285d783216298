package convert

import (
	"encoding/json"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/topodraw/pkg/cache"
	"github.com/matzehuels/topodraw/pkg/drawio"
	tderrors "github.com/matzehuels/topodraw/pkg/errors"
	"github.com/matzehuels/topodraw/pkg/grafana"
	"github.com/matzehuels/topodraw/pkg/levels"
	"github.com/matzehuels/topodraw/pkg/style"
	"github.com/matzehuels/topodraw/pkg/topology"
)

// =============================================================================
// Draw Options
// =============================================================================

// DrawOptions configures [Runner.Draw].
type DrawOptions struct {
	// Style is the loaded style. Nil selects [style.Default].
	Style *style.Config
	Axis  style.Axis
	Align drawio.Align
	// PageName names the diagram page; empty uses the lab name.
	PageName string

	IncludeUnlinked bool
	NoLinks         bool
	Compress        bool

	// ExpandEnv replaces ${VAR} placeholders in the source first. Lookup
	// resolves them; nil uses the process environment.
	ExpandEnv bool
	Lookup    topology.LookupFunc

	// Prompter asks for missing levels. Interactive runs bypass the cache.
	Prompter levels.Prompter
	Params   levels.Params

	// RecordLevels returns the source topology with the assigned levels
	// and icons written back as graph-level/graph-icon labels.
	RecordLevels bool

	// Grafana draws links as port cells and also produces the flow panel
	// configuration and dashboard.
	Grafana       bool
	GrafanaConfig *grafana.Config
	// InterfaceFormat maps drawn interface names to telemetry names, e.g.
	// "e1-{x}:ethernet1/{x}".
	InterfaceFormat string

	// Refresh skips the cache lookup but still stores the result.
	Refresh bool

	Logger *log.Logger
}

// SetDefaults fills unset options. It is idempotent.
func (o *DrawOptions) SetDefaults() {
	if o.Style == nil {
		o.Style = style.Default()
	}
	if o.Grafana && o.GrafanaConfig == nil {
		o.GrafanaConfig = grafana.DefaultConfig()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks option combinations that cannot produce a diagram.
func (o *DrawOptions) Validate() error {
	if o.Params.Passes < 0 || o.Params.LeafMaxFanOut < 0 {
		return tderrors.New(tderrors.ErrCodeInvalidInput, "level heuristic parameters must not be negative")
	}
	if o.Grafana && o.NoLinks {
		return tderrors.New(tderrors.ErrCodeInvalidInput, "grafana export needs links; drop no-links")
	}
	if o.InterfaceFormat != "" && !o.Grafana {
		return tderrors.New(tderrors.ErrCodeInvalidInput, "interface format only applies to grafana export")
	}
	if o.Style != nil {
		if err := o.Style.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults applies defaults, then validates.
func (o *DrawOptions) ValidateAndSetDefaults() error {
	o.SetDefaults()
	return o.Validate()
}

func (o *DrawOptions) interactive() bool { return o.Prompter != nil }

func (o *DrawOptions) buildOptions() drawio.Options {
	return drawio.Options{
		Axis:            o.Axis,
		IncludeUnlinked: o.IncludeUnlinked,
		NoLinks:         o.NoLinks,
		Ports:           o.Grafana,
		PageName:        o.PageName,
		Align:           o.Align,
		Compress:        o.Compress,
	}
}

// KeyOpts returns the cache key options for this draw.
func (o *DrawOptions) KeyOpts() cache.DrawKeyOpts {
	k := cache.DrawKeyOpts{
		Style:           digest(o.Style),
		Layout:          o.Axis.String(),
		Align:           o.Align.String(),
		PageName:        o.PageName,
		IncludeUnlinked: o.IncludeUnlinked,
		NoLinks:         o.NoLinks,
		Grafana:         o.Grafana,
		InterfaceFormat: o.InterfaceFormat,
		Compress:        o.Compress,
		ExpandEnv:       o.ExpandEnv,
		Passes:          o.Params.Passes,
		LeafMaxFanOut:   o.Params.LeafMaxFanOut,
		RecordLevels:    o.RecordLevels,
	}
	if o.Grafana {
		k.GrafanaConfig = digest(o.GrafanaConfig)
	}
	return k
}

// digest hashes the JSON form of a loaded configuration.
func digest(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// =============================================================================
// Extract Options
// =============================================================================

// ExtractOptions configures [Runner.Extract].
type ExtractOptions struct {
	// Diagram selects the page by name; required for multi-page files.
	Diagram string
	// DefaultKind is the kind of shapes without one.
	DefaultKind string
	// Endpoints selects flow or block style for link endpoints.
	Endpoints topology.EndpointStyle
	// Name is the lab name; empty uses the page name.
	Name string

	Refresh bool
	Logger  *log.Logger
}

// SetDefaults fills unset options. It is idempotent.
func (o *ExtractOptions) SetDefaults() {
	if o.DefaultKind == "" {
		o.DefaultKind = drawio.DefaultKind
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks the lab name override.
func (o *ExtractOptions) Validate() error {
	if o.Name != "" {
		if err := tderrors.ValidateNodeName(o.Name); err != nil {
			return tderrors.Wrap(tderrors.ErrCodeInvalidName, err, "lab name")
		}
	}
	return nil
}

// ValidateAndSetDefaults applies defaults, then validates.
func (o *ExtractOptions) ValidateAndSetDefaults() error {
	o.SetDefaults()
	return o.Validate()
}

// KeyOpts returns the cache key options for this extraction.
func (o *ExtractOptions) KeyOpts() cache.ExtractKeyOpts {
	return cache.ExtractKeyOpts{
		Diagram:       o.Diagram,
		DefaultKind:   o.DefaultKind,
		EndpointStyle: o.Endpoints.String(),
		Name:          o.Name,
	}
}
