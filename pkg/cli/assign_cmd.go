package cli

import (
	"fmt"
	"strings"

	"github.com/jlrickert/cli-toolkit/mylog"
	"github.com/jlrickert/contammap/pkg/mag"
	"github.com/jlrickert/contammap/pkg/project"
	"github.com/spf13/cobra"
)

// NewAssignCmd constructs the `assign` subcommand.
//
// Usage examples:
//
//	contammap assign bin.12 contig_7=Contamination contig_9=Clean
//	contammap assign bin.12 --split bin.12_b contig_7=Contamination
func NewAssignCmd(deps *Deps) *cobra.Command {
	var split string

	cmd := &cobra.Command{
		Use:   "assign BIN CONTIG=ASSIGNMENT...",
		Short: "record contamination calls for contigs of a bin and save",
		Long: `record contamination calls for contigs of a bin and save.

Assignments are None, Clean, Contamination or Ambiguous. Contigs of the bin
that are not named keep their current call. With --split the named contigs
are stored as a new bin instead.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			calls := make([]mag.ContigAssignment, 0, len(args)-1)
			for _, arg := range args[1:] {
				c, err := parseCall(arg)
				if err != nil {
					return err
				}
				calls = append(calls, c)
			}

			p, err := deps.openProject(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = p.Close()
			}()

			update := project.AssignmentUpdate{Bin: mag.BinID(args[0]), Contigs: calls}
			if split != "" {
				update.Bin = mag.BinID(split)
			} else {
				b, err := p.Bin(update.Bin)
				if err != nil {
					return err
				}
				update.Contigs, err = mergeCalls(b, calls)
				if err != nil {
					return err
				}
			}

			if err := p.UpdateAssignments(ctx, update); err != nil {
				return err
			}
			if err := p.Save(ctx); err != nil {
				return err
			}
			mylog.LoggerFromContext(ctx).Debug("assign finished", "bin", string(update.Bin), "calls", len(calls))
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d contigs in bin %s\n", len(calls), update.Bin)
			return nil
		},
	}

	cmd.Flags().StringVar(&split, "split", "", "store the named contigs as this new bin")
	return cmd
}

// parseCall reads CONTIG=ASSIGNMENT. The assignment is case insensitive.
func parseCall(arg string) (mag.ContigAssignment, error) {
	contig, code, ok := strings.Cut(arg, "=")
	contig = strings.TrimSpace(contig)
	if !ok || contig == "" {
		return mag.ContigAssignment{}, fmt.Errorf("invalid call %q: expected CONTIG=ASSIGNMENT", arg)
	}
	code = strings.TrimSpace(code)
	for _, a := range mag.Assignments {
		if strings.EqualFold(a.Code(), code) {
			return mag.ContigAssignment{ContigID: mag.ContigID(contig), Assignment: a}, nil
		}
	}
	return mag.ContigAssignment{}, fmt.Errorf("invalid call %q: unknown assignment %q", arg, code)
}

// mergeCalls applies calls to the full contig list of b.
func mergeCalls(b *mag.Bin, calls []mag.ContigAssignment) ([]mag.ContigAssignment, error) {
	index := make(map[mag.ContigID]int, len(b.Contigs))
	merged := make([]mag.ContigAssignment, len(b.Contigs))
	for i, c := range b.Contigs {
		index[c.ContigID] = i
		merged[i] = c
	}
	for _, c := range calls {
		i, ok := index[c.ContigID]
		if !ok {
			return nil, fmt.Errorf("contig %s is not in bin %s", c.ContigID, b.ID)
		}
		merged[i].Assignment = c.Assignment
	}
	return merged, nil
}
