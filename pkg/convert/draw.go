package convert

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/topodraw/pkg/cache"
	"github.com/matzehuels/topodraw/pkg/drawio"
	tderrors "github.com/matzehuels/topodraw/pkg/errors"
	"github.com/matzehuels/topodraw/pkg/grafana"
	"github.com/matzehuels/topodraw/pkg/levels"
	"github.com/matzehuels/topodraw/pkg/observability"
	"github.com/matzehuels/topodraw/pkg/style"
	"github.com/matzehuels/topodraw/pkg/topology"
)

// Stats summarizes a conversion.
type Stats struct {
	Nodes int
	Links int
	Tiers int
	// Crossings counts link crossings between adjacent tiers.
	Crossings int
	Warnings  int
	Duration  time.Duration
}

func (s Stats) hook() observability.Stats {
	return observability.Stats{Nodes: s.Nodes, Links: s.Links, Warnings: s.Warnings}
}

// DrawResult is the output of [Runner.Draw].
type DrawResult struct {
	// Diagram is the draw.io document.
	Diagram []byte
	// Panel and Dashboard are set when Grafana export was requested.
	Panel     []byte
	Dashboard []byte
	// Topology is the source rewritten with the assigned levels, set when
	// RecordLevels was requested.
	Topology []byte

	Graph      *topology.Graph
	Assignment *levels.Assignment
	Warnings   []tderrors.Warning
	Stats      Stats
	CacheHit   bool
}

// drawEntry is the cached part of a DrawResult.
type drawEntry struct {
	Diagram   []byte             `json:"diagram"`
	Panel     []byte             `json:"panel,omitempty"`
	Dashboard []byte             `json:"dashboard,omitempty"`
	Topology  []byte             `json:"topology,omitempty"`
	Method    levels.Method      `json:"method"`
	Order     []string           `json:"order"`
	Levels    map[string]int     `json:"levels"`
	Warnings  []tderrors.Warning `json:"warnings,omitempty"`
}

// Draw converts topology YAML into a draw.io document.
//
// The source is decoded first, so decode warnings are always fresh. Level
// assignment, layout and the Grafana outputs come from the cache when a
// previous non-interactive run used the same source and options.
func (r *Runner) Draw(ctx context.Context, src []byte, opts DrawOptions) (res *DrawResult, err error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger
	start := time.Now()

	if opts.ExpandEnv {
		src = []byte(topology.ExpandEnv(string(src), opts.Lookup))
	}
	doc, err := topology.Decode(src, topology.DecodeOptions{})
	if err != nil {
		return nil, err
	}
	g := doc.Graph
	logger.Debug("decoded topology", "lab", g.Name(), "nodes", g.NodeCount(), "links", g.LinkCount())

	hooks := observability.Conversion()
	hooks.OnDrawStart(ctx, g.Name())
	defer func() {
		var stats observability.Stats
		if res != nil {
			stats = res.Stats.hook()
		}
		hooks.OnDrawComplete(ctx, g.Name(), stats, time.Since(start), err)
	}()

	res = &DrawResult{Graph: g, Warnings: slices.Clone(doc.Warnings)}

	key := ""
	if !opts.interactive() {
		key = r.Keyer.DrawKey(cache.Hash(src), opts.KeyOpts())
		var entry drawEntry
		if !opts.Refresh && r.load(ctx, "draw", key, &entry) {
			res.fromEntry(entry)
			res.finish(start)
			logger.Info("diagram from cache", "lab", g.Name(), "nodes", res.Stats.Nodes)
			return res, nil
		}
	}

	resolver := style.NewResolver(opts.Style)
	asg, err := levels.Assign(ctx, g, levels.Options{
		Prompter:        opts.Prompter,
		IncludeUnlinked: opts.IncludeUnlinked,
		Icons:           resolver.Icons(),
		Params:          opts.Params,
	})
	if err != nil {
		return nil, fmt.Errorf("assign levels: %w", err)
	}
	res.Assignment = asg
	logger.Info("assigned levels", "method", asg.Method, "tiers", len(asg.Tiers()), "nodes", asg.Len())

	built, warns := drawio.Build(g, asg, resolver, opts.buildOptions())
	res.Warnings = append(res.Warnings, warns...)
	if res.Diagram, err = drawio.Encode(built); err != nil {
		return nil, tderrors.Wrap(tderrors.ErrCodeInternal, err, "encode diagram")
	}

	if opts.Grafana {
		if err := res.grafana(g, &opts); err != nil {
			return nil, err
		}
	}

	if opts.RecordLevels {
		if res.Topology, err = recordLevels(doc, asg); err != nil {
			return nil, err
		}
	}

	res.finish(start)
	logger.Info("built diagram",
		"lab", g.Name(),
		"nodes", res.Stats.Nodes,
		"links", res.Stats.Links,
		"warnings", res.Stats.Warnings,
		"duration", res.Stats.Duration)

	if key != "" {
		r.store(ctx, "draw", key, res.entry(len(doc.Warnings)), cache.TTLDiagram)
	}
	return res, nil
}

func (res *DrawResult) grafana(g *topology.Graph, opts *DrawOptions) error {
	mapper, err := grafana.NewInterfaceMapper(opts.InterfaceFormat)
	if err != nil {
		return err
	}
	if res.Panel, err = grafana.PanelYAML(g, opts.GrafanaConfig, mapper); err != nil {
		return err
	}
	res.Dashboard, err = grafana.Dashboard(opts.GrafanaConfig, res.Panel)
	return err
}

// recordLevels writes the assignment into the node labels and re-encodes
// the topology. Interactive icon choices are recorded as graph-icon.
func recordLevels(doc *topology.Document, asg *levels.Assignment) ([]byte, error) {
	for _, name := range asg.Nodes() {
		n, ok := doc.Graph.Node(name)
		if !ok {
			continue
		}
		n.Level, _ = asg.Level(name)
		if icon := asg.Icons[name]; icon != "" {
			n.Icon = icon
		}
	}
	out, err := topology.Encode(doc, topology.FlowEndpoints)
	if err != nil {
		return nil, tderrors.Wrap(tderrors.ErrCodeInternal, err, "encode topology")
	}
	return out, nil
}

func (res *DrawResult) finish(start time.Time) {
	res.Stats.Nodes = res.Assignment.Len()
	res.Stats.Tiers = len(res.Assignment.Tiers())
	if res.Graph != nil {
		res.Stats.Crossings = levels.Crossings(res.Graph, res.Assignment)
	}
	res.Stats.Warnings = len(res.Warnings)
	res.Stats.Duration = time.Since(start)
	if res.Graph != nil {
		res.Stats.Links = res.Graph.LinkCount()
	}
}

// entry drops the first skip warnings, which came from decoding.
func (res *DrawResult) entry(skip int) drawEntry {
	return drawEntry{
		Diagram:   res.Diagram,
		Panel:     res.Panel,
		Dashboard: res.Dashboard,
		Topology:  res.Topology,
		Method:    res.Assignment.Method,
		Order:     res.Assignment.Nodes(),
		Levels:    res.Assignment.Levels,
		Warnings:  res.Warnings[skip:],
	}
}

func (res *DrawResult) fromEntry(e drawEntry) {
	res.Diagram = e.Diagram
	res.Panel = e.Panel
	res.Dashboard = e.Dashboard
	res.Topology = e.Topology
	res.Assignment = levels.NewAssignment(e.Method, e.Order, e.Levels)
	res.Warnings = append(res.Warnings, e.Warnings...)
	res.CacheHit = true
}
