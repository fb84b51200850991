package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/largo/internal/ui/style"
)

func (c *CLI) newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Resolve dependencies and write the lockfile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			lf, err := c.app.Resolve(cmd.Context(), cwd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Locked %d packages:\n", len(lf.Packages))
			for _, pkg := range lf.Packages {
				_, _ = fmt.Fprintf(out, "  %s %s\n", pkg.Identity, pkg.Revision)
			}
			return nil
		},
	}
}

func (c *CLI) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the lockfile still matches the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			_, lf, err := c.app.EnsureFresh(cmd.Context(), cwd)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s Lockfile is fresh (%d packages)\n", style.Check, len(lf.Packages))
			return nil
		},
	}
}
