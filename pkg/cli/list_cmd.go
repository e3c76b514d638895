package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jlrickert/contammap/pkg/mag"
	"github.com/spf13/cobra"
)

// NewBinsCmd constructs the `bins` subcommand.
func NewBinsCmd(deps *Deps) *cobra.Command {
	var (
		qualities []string
		asJSON    bool
		idOnly    bool
	)

	cmd := &cobra.Command{
		Use:     "bins",
		Short:   "list bins with quality and assignment counts",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := make([]mag.Quality, 0, len(qualities))
			for _, code := range qualities {
				q, err := mag.ParseQuality(strings.ToUpper(strings.TrimSpace(code)))
				if err != nil {
					return err
				}
				filter = append(filter, q)
			}

			p, err := deps.openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = p.Close()
			}()

			summaries := p.Summaries(filter...)
			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				return writeJSON(out, summaries)
			case idOnly:
				for _, s := range summaries {
					fmt.Fprintln(out, s.ID)
				}
				return nil
			}
			writeBinTable(out, summaries)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&qualities, "quality", "q", nil, "only bins with these quality labels (HQ, MQ, LQ)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	cmd.Flags().BoolVar(&idOnly, "id-only", false, "show only bin ids")

	_ = cmd.RegisterFlagCompletionFunc("quality", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"HQ", "MQ", "LQ"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func writeBinTable(w io.Writer, summaries []mag.BinSummary) {
	header := []string{"bin", "quality", "completeness", "contamination", "contigs"}
	for _, a := range mag.Assignments {
		header = append(header, a.Code())
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, s := range summaries {
		row := []string{string(s.ID), "-", "-", "-", strconv.Itoa(s.Contigs)}
		if s.Quality != nil {
			row[1] = s.Quality.Code()
		}
		if s.Completeness != nil {
			row[2] = strconv.FormatFloat(*s.Completeness, 'f', -1, 64)
		}
		if s.Contamination != nil {
			row[3] = strconv.FormatFloat(*s.Contamination, 'f', -1, 64)
		}
		for _, a := range mag.Assignments {
			row = append(row, strconv.Itoa(s.Assignments[a.Code()]))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}

// NewContigsCmd constructs the `contigs` subcommand. Without a bin it lists
// every methylated contig; with one it lists the bin's contigs and calls.
func NewContigsCmd(deps *Deps) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "contigs [BIN]",
		Short: "list contigs, or the contigs of a bin with their assignments",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := deps.openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = p.Close()
			}()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				ids := p.Contigs()
				if asJSON {
					return writeJSON(out, ids)
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			b, err := p.Bin(mag.BinID(args[0]))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, b)
			}
			for _, c := range b.Contigs {
				fmt.Fprintf(out, "%s\t%s\n", c.ContigID, c.Assignment)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

// NewMotifsCmd constructs the `motifs` subcommand.
func NewMotifsCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "motifs",
		Short: "list every observed motif",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := deps.openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = p.Close()
			}()
			for _, m := range p.Motifs() {
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
