package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/topodraw/pkg/style"
)

func (c *CLI) themesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List the bundled styles",
		Long: `List the bundled styles.

Any of these names works with --theme. A path to a YAML or TOML style file
works too; "topodraw themes show <name>" prints a theme as a starting point.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range style.Themes() {
				fmt.Fprintln(c.Stdout, name)
			}
			return nil
		},
	}
	cmd.AddCommand(c.themesShowCommand())
	return cmd
}

func (c *CLI) themesShowCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:       "show <name>",
		Short:     "Print a bundled style",
		Args:      cobra.ExactArgs(1),
		ValidArgs: style.Themes(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := style.Theme(args[0])
			if err != nil {
				return err
			}
			return cfg.Encode(c.Stdout, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "yaml or toml")
	return cmd
}
