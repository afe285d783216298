package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/topodraw/pkg/convert"
	"github.com/matzehuels/topodraw/pkg/render/nodelink"
	"github.com/matzehuels/topodraw/pkg/style"
)

// formatDOT writes the Graphviz source instead of rendering it.
const formatDOT = "dot"

type previewFlags struct {
	output          string
	format          string
	theme           string
	layout          string
	detailed        bool
	noInterfaces    bool
	includeUnlinked bool
	expandEnv       bool
}

func (c *CLI) previewCommand() *cobra.Command {
	flags := previewFlags{format: "svg", theme: "default", layout: "vertical", expandEnv: true}

	cmd := &cobra.Command{
		Use:   "preview <topology.clab.yml>",
		Short: "Render the tiers of a topology with Graphviz",
		Long: `Render the tiers of a topology with Graphviz.

The preview uses the same tiering as draw, with each tier on one rank, and
is meant for a quick check of the levels without opening draw.io.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPreview(cmd.Context(), args[0], flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", `output file ("-" for stdout)`)
	f.StringVarP(&flags.format, "format", "f", flags.format, "svg, png or dot")
	f.StringVar(&flags.theme, "theme", flags.theme, "bundled theme name or path to a style file")
	f.StringVar(&flags.layout, "layout", flags.layout, "vertical or horizontal")
	f.BoolVar(&flags.detailed, "detailed", false, "show kind and image in node labels")
	f.BoolVar(&flags.noInterfaces, "no-interfaces", false, "omit interface names on links")
	f.BoolVar(&flags.includeUnlinked, "include-unlinked-nodes", false, "include nodes without links")
	f.BoolVar(&flags.expandEnv, "expand-env", flags.expandEnv, "expand ${VAR} placeholders in the topology")

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, input string, flags previewFlags) error {
	var format nodelink.Format
	if flags.format != formatDOT {
		var err error
		if format, err = nodelink.ParseFormat(flags.format); err != nil {
			return err
		}
	}
	cfg, err := loadStyle(flags.theme)
	if err != nil {
		return err
	}
	axis, err := style.ParseAxis(flags.layout)
	if err != nil {
		return err
	}
	src, err := c.readInput(input)
	if err != nil {
		return err
	}

	runner := c.newRunner(ctx, false)
	defer runner.Close()

	res, err := runner.Draw(ctx, src, convert.DrawOptions{
		Style:           cfg,
		Axis:            axis,
		IncludeUnlinked: flags.includeUnlinked,
		ExpandEnv:       flags.expandEnv,
		Logger:          c.Logger,
	})
	if err != nil {
		return err
	}
	logWarnings(c.Logger, res.Warnings)

	dot := nodelink.ToDOT(res.Graph, res.Assignment, nodelink.Options{
		Axis:       axis,
		Interfaces: !flags.noInterfaces,
		Detailed:   flags.detailed,
		Resolver:   style.NewResolver(cfg),
	})

	out := outputPath(input, flags.output, "."+flags.format)
	data := []byte(dot)
	if flags.format != formatDOT {
		spin := startSpinner(ctx, "Rendering preview...")
		data, err = nodelink.Render(ctx, dot, format)
		spin.Stop()
		if err != nil {
			return fmt.Errorf("render preview: %w", err)
		}
	}
	if err := c.writeOutput(out, data); err != nil {
		return err
	}

	printSuccess("Preview %s", StyleHighlight.Render(res.Graph.Name()))
	printStats(res.Stats, res.CacheHit)
	printFile(out)
	return nil
}
