package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/topodraw/pkg/convert"
	"github.com/matzehuels/topodraw/pkg/topology"
)

type extractFlags struct {
	output      string
	style       string
	diagram     string
	defaultKind string
	name        string
	noCache     bool
	refresh     bool
}

func (c *CLI) extractCommand() *cobra.Command {
	flags := extractFlags{style: "block"}

	cmd := &cobra.Command{
		Use:   "extract <diagram.drawio>",
		Short: "Recover a containerlab topology from a draw.io diagram",
		Long: `Recover a containerlab topology from a draw.io diagram.

Shapes become nodes and edges become links. Interface names are read from
the labels floating near each edge end. Custom shape properties such as
kind, image and mgmt-ipv4 are carried over, and each node's drawn position
and tier are kept as graph-* labels so the topology draws the same way
again.

Documents with several pages need --diagram-name.`,
		Example: `  topodraw extract lab.drawio
  topodraw extract lab.drawio --diagram-name core --style flow -o core.clab.yml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExtract(cmd.Context(), args[0], flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", `output file ("-" for stdout)`)
	f.StringVar(&flags.style, "style", flags.style, "link endpoint style: block or flow")
	f.StringVar(&flags.diagram, "diagram-name", "", "page (tab) to read")
	f.StringVar(&flags.defaultKind, "default-kind", "", "kind of shapes without one (default nokia_srlinux)")
	f.StringVar(&flags.name, "name", "", "lab name (default: page name)")
	f.BoolVar(&flags.noCache, "no-cache", false, "disable the conversion cache")
	f.BoolVar(&flags.refresh, "refresh", false, "recompute even when cached")

	return cmd
}

func (c *CLI) runExtract(ctx context.Context, input string, flags extractFlags) error {
	endpoints, err := topology.ParseEndpointStyle(flags.style)
	if err != nil {
		return err
	}
	src, err := c.readInput(input)
	if err != nil {
		return err
	}

	runner := c.newRunner(ctx, flags.noCache)
	defer runner.Close()

	prog := newProgress(c.Logger)
	spin := startSpinner(ctx, "Reading "+displayName(input)+"...")
	res, err := runner.Extract(ctx, src, convert.ExtractOptions{
		Diagram:     flags.diagram,
		DefaultKind: flags.defaultKind,
		Endpoints:   endpoints,
		Name:        flags.name,
		Refresh:     flags.refresh,
		Logger:      c.Logger,
	})
	spin.Stop()
	if err != nil {
		return err
	}
	logWarnings(c.Logger, res.Warnings)
	prog.done(fmt.Sprintf("Recovered %d nodes and %d links", res.Stats.Nodes, res.Stats.Links))

	out := outputPath(input, flags.output, ".yaml")
	if err := c.writeOutput(out, res.Topology); err != nil {
		return err
	}

	printSuccess("Topology %s", StyleHighlight.Render(res.Graph.Name()))
	if res.Page != "" {
		printDetail("page %s", res.Page)
	}
	printStats(res.Stats, res.CacheHit)
	printWarningSummary(res.Warnings)
	printFile(out)
	if out != stdio {
		printNextStep("Redraw", "topodraw draw "+out)
	}
	return nil
}
