package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/largo/internal/app"
)

func (c *CLI) newEjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eject",
		Short: "Export a standalone vendored project tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			profile, _ := cmd.Flags().GetString("profile")
			output, _ := cmd.Flags().GetString("output")
			snapshotBib, _ := cmd.Flags().GetBool("snapshot-bib")

			report, err := c.app.Eject(cmd.Context(), cwd, app.EjectOptions{
				Profile:        profile,
				Output:         output,
				SnapshotRemote: snapshotBib,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Vendored %d packages (%d already current)\n",
				len(report.Vendored), len(report.Skipped))
			if report.BibliographyFile != "" {
				_, _ = fmt.Fprintf(out, "Bibliography written to %s\n", report.BibliographyFile)
			}
			return nil
		},
	}
	cmd.Flags().StringP("profile", "p", "", "Build profile to materialize (default: global default profile)")
	cmd.Flags().StringP("output", "o", "", "Output directory (default: eject in place)")
	cmd.Flags().Bool("snapshot-bib", false, "Allow a one-time snapshot of a remote bibliography")
	return cmd
}
