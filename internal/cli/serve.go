package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/topodraw/internal/server"
	"github.com/matzehuels/topodraw/pkg/cache"
	"github.com/matzehuels/topodraw/pkg/convert"
)

// apiKeyPrefix keeps API cache entries apart from CLI ones in a shared
// backend.
const apiKeyPrefix = "api:"

type serveFlags struct {
	addr      string
	noCache   bool
	noMetrics bool
	maxBody   int64
}

func (c *CLI) serveCommand() *cobra.Command {
	flags := serveFlags{addr: ":8080", maxBody: server.DefaultMaxBodyBytes}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

  POST /api/v1/draw       topology YAML to draw.io XML
  POST /api/v1/extract    draw.io XML to topology YAML
  POST /api/v1/preview    topology YAML to SVG
  GET  /api/v1/themes     bundled styles
  GET  /healthz
  GET  /metrics           Prometheus metrics

Set ` + redisEnv + ` to share the conversion cache between instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.addr, "addr", flags.addr, "listen address")
	f.BoolVar(&flags.noCache, "no-cache", false, "disable the conversion cache")
	f.BoolVar(&flags.noMetrics, "no-metrics", false, "do not serve /metrics")
	f.Int64Var(&flags.maxBody, "max-body", flags.maxBody, "largest accepted request body in bytes")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, flags serveFlags) error {
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), apiKeyPrefix)
	runner := convert.NewRunner(c.newCache(ctx, flags.noCache), keyer, c.Logger)
	defer runner.Close()

	opts := server.Options{Logger: c.Logger, MaxBodyBytes: flags.maxBody}
	if !flags.noMetrics {
		opts.Metrics = server.NewMetrics()
		opts.Metrics.Register()
	}

	printInfo("Serving on %s", StyleHighlight.Render(flags.addr))
	return server.ListenAndServe(ctx, flags.addr, server.New(runner, opts), c.Logger)
}
