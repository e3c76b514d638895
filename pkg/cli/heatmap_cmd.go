package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jlrickert/contammap/pkg/mag"
	"github.com/spf13/cobra"
)

// NewHeatmapCmd constructs the `heatmap` subcommand.
func NewHeatmapCmd(deps *Deps) *cobra.Command {
	var (
		bin         string
		contigs     []string
		minObs      int64
		minCoverage float64
		minVariance float64
		asTSV       bool
	)

	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "print the contig by motif methylation matrix of a bin or contig list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var q mag.HeatmapQuery
			switch {
			case bin != "" && len(contigs) > 0:
				return fmt.Errorf("use either --bin or --contig, not both")
			case bin != "":
				q.Selection = mag.BinSelection{Bin: mag.BinID(bin)}
			case len(contigs) > 0:
				ids := make([]mag.ContigID, len(contigs))
				for i, c := range contigs {
					ids[i] = mag.ContigID(c)
				}
				q.Selection = mag.ContigSelection{Contigs: ids}
			default:
				return fmt.Errorf("one of --bin or --contig is required")
			}

			flags := cmd.Flags()
			if flags.Changed("min-obs") {
				q.MinNMotifObs = &minObs
			}
			if flags.Changed("min-coverage") {
				q.MinCoverage = &minCoverage
			}
			if flags.Changed("min-variance") {
				q.MinMotifVariance = &minVariance
			}

			p, err := deps.openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = p.Close()
			}()

			h, err := p.Heatmap(q)
			if err != nil {
				return err
			}
			if asTSV {
				writeHeatmapTSV(cmd.OutOrStdout(), h)
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), h)
		},
	}

	cmd.Flags().StringVarP(&bin, "bin", "b", "", "select the contigs of this bin")
	cmd.Flags().StringSliceVar(&contigs, "contig", nil, "select these contigs (repeatable)")
	cmd.Flags().Int64Var(&minObs, "min-obs", 0, "drop observations with fewer motif occurrences")
	cmd.Flags().Float64Var(&minCoverage, "min-coverage", 0, "drop observations with lower mean read coverage")
	cmd.Flags().Float64Var(&minVariance, "min-variance", 0, "drop motifs whose methylation variance is lower")
	cmd.Flags().BoolVar(&asTSV, "tsv", false, "output a tab separated matrix instead of JSON")

	return cmd
}

// writeHeatmapTSV writes one row per contig with its assignment and mean
// coverage followed by one column per motif. Missing cells are empty.
func writeHeatmapTSV(w io.Writer, h *mag.Heatmap) {
	header := append([]string{"contig", "assignment", "mean_coverage"}, h.Motifs...)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for i, contig := range h.Contigs {
		meta := h.Metadata[contig]
		row := []string{contig, meta.Assignment.Code(), strconv.FormatFloat(meta.MeanCoverage, 'f', -1, 64)}
		for _, v := range h.Matrix[i] {
			if v == nil {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(*v, 'f', -1, 64))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}
