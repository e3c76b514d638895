package cli

import (
	"fmt"

	"github.com/jlrickert/contammap/pkg/project"
	"github.com/spf13/cobra"
)

// NewCreateCmd constructs the `create` subcommand.
//
// Usage examples:
//
//	contammap create --methylation motifs.tsv.zst --contig-bins bins.tsv --quality checkm2.tsv --output triage
//	contammap create --id sludge --store sqlite --methylation m.tsv --contig-bins b.tsv --output triage
func NewCreateCmd(deps *Deps) *cobra.Command {
	var (
		cfg   project.Config
		store string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "create a project from methylation, contig-bin and quality files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			for _, p := range []*string{&cfg.Inputs.Methylation, &cfg.Inputs.ContigBins, &cfg.Inputs.Quality, &cfg.OutputDir} {
				if *p, err = deps.absPath(*p); err != nil {
					return err
				}
			}
			cfg.Store.Kind = project.StoreKind(store)

			p, err := project.Create(cmd.Context(), deps.Runtime, cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = p.Close()
			}()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created project %s\n", p.ID())
			fmt.Fprintf(out, "%d bins, %d contigs, %d motifs\n", len(p.Bins()), len(p.Contigs()), len(p.Motifs()))
			fmt.Fprintln(out, p.Config().ConfigPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.ID, "id", "", "project id (default a generated uuid)")
	cmd.Flags().StringVar(&cfg.Title, "title", "", "human readable project title")
	cmd.Flags().StringVar(&cfg.Inputs.Methylation, "methylation", "", "motif methylation table (.tsv, .gz, .bgz, .zst)")
	cmd.Flags().StringVar(&cfg.Inputs.ContigBins, "contig-bins", "", "contig to bin table")
	cmd.Flags().StringVar(&cfg.Inputs.Quality, "quality", "", "bin quality table (CheckM2 style)")
	cmd.Flags().StringVarP(&cfg.OutputDir, "output", "o", "", "output directory for project.yaml and assignments")
	cmd.Flags().StringVar(&store, "store", string(project.StoreTSV), "assignment store: tsv or sqlite")
	cmd.Flags().StringVar(&cfg.Store.Path, "store-path", "", "assignment store file (default inside the output directory)")
	cmd.Flags().BoolVar(&cfg.Watch, "watch", false, "reload assignments when the tsv store is edited while serving")
	_ = cmd.MarkFlagRequired("methylation")
	_ = cmd.MarkFlagRequired("contig-bins")
	_ = cmd.MarkFlagRequired("output")

	_ = cmd.RegisterFlagCompletionFunc("store", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{string(project.StoreTSV), string(project.StoreSQLite)}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// NewInfoCmd constructs the `info` subcommand.
func NewInfoCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "show a summary of the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := deps.openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = p.Close()
			}()

			cfg := p.Config()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:\t%s\n", p.ID())
			if cfg.Title != "" {
				fmt.Fprintf(out, "title:\t%s\n", cfg.Title)
			}
			fmt.Fprintf(out, "bins:\t%d\n", len(p.Bins()))
			fmt.Fprintf(out, "contigs:\t%d\n", len(p.Contigs()))
			fmt.Fprintf(out, "motifs:\t%d\n", len(p.Motifs()))
			fmt.Fprintf(out, "store:\t%s %s\n", p.Store().Name(), cfg.StorePath())
			return nil
		},
	}
	return cmd
}
