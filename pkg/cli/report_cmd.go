package cli

import (
	"github.com/jlrickert/contammap/pkg/report"
	"github.com/spf13/cobra"
)

// NewReportCmd constructs the `report` subcommand.
func NewReportCmd(deps *Deps) *cobra.Command {
	var (
		html   bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "write a triage summary of every bin as Markdown or HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := deps.openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = p.Close()
			}()

			in := report.ForProject(p)
			data := report.Markdown(in)
			if html {
				if data, err = report.Render(in); err != nil {
					return err
				}
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			path, err := deps.absPath(output)
			if err != nil {
				return err
			}
			return deps.Runtime.AtomicWriteFile(path, data, 0o644)
		},
	}

	cmd.Flags().BoolVar(&html, "html", false, "render HTML instead of Markdown")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
