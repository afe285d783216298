package convert

import (
	"bytes"
	"context"
	"time"

	"github.com/matzehuels/topodraw/pkg/cache"
	"github.com/matzehuels/topodraw/pkg/drawio"
	tderrors "github.com/matzehuels/topodraw/pkg/errors"
	"github.com/matzehuels/topodraw/pkg/observability"
	"github.com/matzehuels/topodraw/pkg/topology"
)

// DefaultLabName names labs extracted from unnamed pages.
const DefaultLabName = "lab"

// ExtractResult is the output of [Runner.Extract].
type ExtractResult struct {
	// Topology is the containerlab topology YAML.
	Topology []byte
	Graph    *topology.Graph
	// Page is the name of the diagram page that was read.
	Page string
	// Attributes holds the raw custom properties of every node shape.
	Attributes map[string]map[string]string
	Warnings   []tderrors.Warning
	Stats      Stats
	CacheHit   bool
}

type extractEntry struct {
	Topology   []byte                       `json:"topology"`
	Page       string                       `json:"page"`
	Attributes map[string]map[string]string `json:"attributes"`
	Warnings   []tderrors.Warning           `json:"warnings,omitempty"`
}

// Extract recovers a containerlab topology from a draw.io document.
func (r *Runner) Extract(ctx context.Context, src []byte, opts ExtractOptions) (res *ExtractResult, err error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	start := time.Now()

	hooks := observability.Conversion()
	hooks.OnExtractStart(ctx, opts.Diagram)
	defer func() {
		var stats observability.Stats
		if res != nil {
			stats = res.Stats.hook()
		}
		hooks.OnExtractComplete(ctx, opts.Diagram, stats, time.Since(start), err)
	}()

	key := r.Keyer.ExtractKey(cache.Hash(src), opts.KeyOpts())
	var entry extractEntry
	if !opts.Refresh && r.load(ctx, "extract", key, &entry) {
		doc, err := topology.Decode(entry.Topology, topology.DecodeOptions{})
		if err == nil && entry.Attributes == nil {
			err = tderrors.New(tderrors.ErrCodeInternal, "entry has no attributes")
		}
		if err == nil {
			res = &ExtractResult{
				Topology:   entry.Topology,
				Graph:      doc.Graph,
				Page:       entry.Page,
				Attributes: entry.Attributes,
				Warnings:   entry.Warnings,
				CacheHit:   true,
			}
			res.finish(start)
			logger.Info("topology from cache", "page", res.Page, "nodes", res.Stats.Nodes)
			return res, nil
		}
		logger.Debug("discarding cache entry", "key", key, "err", err)
	}

	parsed, err := drawio.Parse(bytes.NewReader(src), drawio.ParseOptions{
		DiagramName: opts.Diagram,
		DefaultKind: opts.DefaultKind,
	})
	if err != nil {
		return nil, err
	}
	g := parsed.Graph
	switch {
	case opts.Name != "":
		g.SetName(opts.Name)
	case parsed.Page != "":
		g.SetName(parsed.Page)
	default:
		g.SetName(DefaultLabName)
	}

	doc := &topology.Document{Graph: g, Kinds: topology.DefaultKinds(g)}
	out, err := topology.Encode(doc, opts.Endpoints)
	if err != nil {
		return nil, tderrors.Wrap(tderrors.ErrCodeInternal, err, "encode topology")
	}

	res = &ExtractResult{
		Topology:   out,
		Graph:      g,
		Page:       parsed.Page,
		Attributes: parsed.Attributes,
		Warnings:   parsed.Warnings,
	}
	res.finish(start)
	logger.Info("extracted topology",
		"page", res.Page,
		"nodes", res.Stats.Nodes,
		"links", res.Stats.Links,
		"warnings", res.Stats.Warnings,
		"duration", res.Stats.Duration)

	r.store(ctx, "extract", key, extractEntry{
		Topology:   out,
		Page:       parsed.Page,
		Attributes: parsed.Attributes,
		Warnings:   parsed.Warnings,
	}, cache.TTLTopology)
	return res, nil
}

func (res *ExtractResult) finish(start time.Time) {
	res.Stats.Nodes = res.Graph.NodeCount()
	res.Stats.Links = res.Graph.LinkCount()
	res.Stats.Warnings = len(res.Warnings)
	res.Stats.Duration = time.Since(start)
}
