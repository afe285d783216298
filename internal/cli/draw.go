package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/topodraw/pkg/convert"
	"github.com/matzehuels/topodraw/pkg/drawio"
	tderrors "github.com/matzehuels/topodraw/pkg/errors"
	"github.com/matzehuels/topodraw/pkg/grafana"
	"github.com/matzehuels/topodraw/pkg/levels"
	"github.com/matzehuels/topodraw/pkg/style"
)

// Sidecar suffixes written next to the diagram.
const (
	suffixDashboard = ".grafana.json"
	suffixPanel     = ".flow_panel.yaml"
	suffixLevels    = ".mod.yaml"
)

// drawFlags holds the command-line flags for the draw command.
type drawFlags struct {
	output          string
	theme           string
	layout          string
	align           string
	page            string
	includeUnlinked bool
	noLinks         bool
	compress        bool
	expandEnv       bool
	interactive     bool
	recordLevels    bool
	grafana         bool
	grafanaConfig   string
	interfaceFormat string
	passes          int
	leafMaxFanOut   int
	noCache         bool
	refresh         bool
}

func (c *CLI) drawCommand() *cobra.Command {
	flags := drawFlags{theme: "default", layout: "vertical", align: "center", expandEnv: true}

	cmd := &cobra.Command{
		Use:   "draw <topology.clab.yml>",
		Short: "Draw a containerlab topology as a draw.io diagram",
		Long: `Draw a containerlab topology as a draw.io diagram.

Nodes are placed in tiers. A node's tier comes from its graph-level label;
when labels are missing, tiers are derived from the links, or asked for
with --interactive. Use "-" to read the topology from stdin.

Outputs (next to the input unless -o is given):
  <name>.drawio             the diagram
  <name>.grafana.json       Grafana dashboard (--grafana)
  <name>.flow_panel.yaml    flow panel configuration (--grafana)
  <name>.mod.yaml           topology with the chosen levels (--interactive, --record-levels)`,
		Example: `  topodraw draw lab.clab.yml
  topodraw draw lab.clab.yml --layout horizontal --theme nokia
  topodraw draw lab.clab.yml -g --interface-format 'e1-{x}:ethernet1/{x}'
  cat lab.clab.yml | topodraw draw - -o - > lab.drawio`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDraw(cmd.Context(), args[0], flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", `output file ("-" for stdout)`)
	f.StringVar(&flags.theme, "theme", flags.theme, "bundled theme name or path to a YAML/TOML style file")
	f.StringVar(&flags.layout, "layout", flags.layout, "vertical or horizontal")
	f.StringVar(&flags.align, "align", flags.align, "placement of short tiers: center or start")
	f.StringVar(&flags.page, "page", "", "diagram page name (default: lab name)")
	f.BoolVar(&flags.includeUnlinked, "include-unlinked-nodes", false, "include nodes without links")
	f.BoolVar(&flags.noLinks, "no-links", false, "do not draw links")
	f.BoolVar(&flags.compress, "compress", false, "store the page compressed, as draw.io does by default")
	f.BoolVar(&flags.expandEnv, "expand-env", flags.expandEnv, "expand ${VAR} placeholders in the topology")
	f.BoolVarP(&flags.interactive, "interactive", "I", false, "ask for graph levels and icons node by node")
	f.BoolVar(&flags.recordLevels, "record-levels", false, "also write the topology with the assigned levels")
	f.BoolVarP(&flags.grafana, "gf_dashboard", "g", false, "draw ports and write a Grafana flow panel dashboard")
	f.StringVar(&flags.grafanaConfig, "grafana-config", "", "Grafana exporter configuration YAML")
	f.StringVar(&flags.interfaceFormat, "interface-format", "", `map drawn to telemetry interface names, e.g. "e1-{x}:ethernet1/{x}"`)
	f.IntVar(&flags.passes, "passes", 0, "refinement passes of the automatic tiering")
	f.IntVar(&flags.leafMaxFanOut, "leaf-max-fanout", 0, "largest fan-out of a node still treated as a leaf")
	f.BoolVar(&flags.noCache, "no-cache", false, "disable the conversion cache")
	f.BoolVar(&flags.refresh, "refresh", false, "recompute even when cached")
	_ = f.MarkHidden("passes")
	_ = f.MarkHidden("leaf-max-fanout")

	return cmd
}

// drawOptions turns flags into convert.DrawOptions.
func (c *CLI) drawOptions(flags drawFlags) (convert.DrawOptions, error) {
	opts := convert.DrawOptions{
		PageName:        flags.page,
		IncludeUnlinked: flags.includeUnlinked,
		NoLinks:         flags.noLinks,
		Compress:        flags.compress,
		ExpandEnv:       flags.expandEnv,
		RecordLevels:    flags.recordLevels || flags.interactive,
		Grafana:         flags.grafana,
		InterfaceFormat: flags.interfaceFormat,
		Refresh:         flags.refresh,
		Logger:          c.Logger,
	}
	opts.Params.Passes = flags.passes
	opts.Params.LeafMaxFanOut = flags.leafMaxFanOut

	var err error
	if opts.Style, err = loadStyle(flags.theme); err != nil {
		return opts, err
	}
	if opts.Axis, err = style.ParseAxis(flags.layout); err != nil {
		return opts, err
	}
	if opts.Align, err = drawio.ParseAlign(flags.align); err != nil {
		return opts, err
	}
	if flags.grafanaConfig != "" {
		if !flags.grafana {
			return opts, tderrors.New(tderrors.ErrCodeInvalidInput, "--grafana-config requires --gf_dashboard")
		}
		cfg, warnings, err := grafana.LoadConfig(flags.grafanaConfig)
		if err != nil {
			return opts, err
		}
		logWarnings(c.Logger, warnings)
		opts.GrafanaConfig = cfg
	}
	if flags.interactive {
		opts.Prompter = newTermPrompter(c.Stdin, uiOut)
	}
	return opts, nil
}

func (c *CLI) runDraw(ctx context.Context, input string, flags drawFlags) error {
	if flags.interactive && input == stdio {
		return tderrors.New(tderrors.ErrCodeInvalidInput, "--interactive needs a topology file, not stdin")
	}
	if flags.grafana && input == stdio && (flags.output == "" || flags.output == stdio) {
		return tderrors.New(tderrors.ErrCodeInvalidInput, "--gf_dashboard writes several files; name the diagram with -o")
	}
	opts, err := c.drawOptions(flags)
	if err != nil {
		return err
	}
	src, err := c.readInput(input)
	if err != nil {
		return err
	}

	runner := c.newRunner(ctx, flags.noCache || flags.interactive)
	defer runner.Close()

	prog := newProgress(c.Logger)
	var spin *spinner
	if !flags.interactive {
		spin = startSpinner(ctx, "Drawing "+displayName(input)+"...")
	}
	res, err := runner.Draw(ctx, src, opts)
	spin.Stop()
	if err != nil {
		return err
	}
	logWarnings(c.Logger, res.Warnings)
	prog.done(fmt.Sprintf("Placed %d nodes in %d tiers (%s)", res.Stats.Nodes, res.Stats.Tiers, res.Assignment.Method))

	// Everything is in memory; only now touch the filesystem.
	out := outputPath(input, flags.output, ".drawio")
	base := out
	if out == stdio {
		base = input
	}
	outputs := []artifact{{out, res.Diagram}}
	if res.Dashboard != nil {
		outputs = append(outputs,
			artifact{sidecarPath(base, suffixDashboard), res.Dashboard},
			artifact{sidecarPath(base, suffixPanel), res.Panel})
	}
	if res.Topology != nil && base != stdio {
		outputs = append(outputs, artifact{sidecarPath(base, suffixLevels), res.Topology})
	}
	for _, o := range outputs {
		if err := c.writeOutput(o.path, o.data); err != nil {
			return err
		}
	}

	printSuccess("Diagram %s", StyleHighlight.Render(res.Graph.Name()))
	printStats(res.Stats, res.CacheHit)
	printTiers(res.Assignment)
	printWarningSummary(res.Warnings)
	for _, o := range outputs {
		printFile(o.path)
	}
	if out != stdio && !flags.interactive && res.Assignment.Method == levels.Automatic {
		printNextStep("Adjust tiers", "topodraw draw -I "+input)
	}
	return nil
}

// artifact is one file produced by a command.
type artifact struct {
	path string
	data []byte
}

func displayName(input string) string {
	if input == stdio {
		return "stdin"
	}
	return input
}
