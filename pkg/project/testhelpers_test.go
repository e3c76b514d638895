package project_test

import (
	"context"
	"testing"

	"github.com/jlrickert/cli-toolkit/toolkit"
	"github.com/jlrickert/contammap/pkg/project"
	"github.com/stretchr/testify/require"
)

const (
	methylationTSV = "contig\tmotif\tmod_type\tmod_position\tmethylation_value\tmean_read_cov\tn_motif_obs\tmotif_occurences_total\n" +
		"c1\tGATC\ta\t1\t0.9\t12\t5\t6\n" +
		"c2\tGATC\ta\t1\t0.4\t8\t5\t6\n" +
		"c3\tCCWGG\tm\t1\t0.2\t30\t40\t41\n"

	contigBinsTSV = "contig\tbin\n" +
		"c1\tb1\n" +
		"c2\tb1\n" +
		"c3\tb2\n"

	qualityTSV = "Name\tCompleteness\tContamination\tGC_Content\tGenome_Size\n" +
		"b1\t95\t2\t0.5\t2000000\n" +
		"b2\t60\t8\t0.4\t1000000\n"
)

func newRuntime(t *testing.T) *toolkit.Runtime {
	t.Helper()
	rt, err := toolkit.NewTestRuntime(t.TempDir(), "/home/testuser", "testuser")
	require.NoError(t, err)
	return rt
}

func writeFile(t *testing.T, rt *toolkit.Runtime, path, data string) {
	t.Helper()
	require.NoError(t, rt.Mkdir("/data", 0o755, true))
	require.NoError(t, rt.WriteFile(path, []byte(data), 0o644))
}

// writeInputs writes the default fixture and returns a config pointing at it.
func writeInputs(t *testing.T, rt *toolkit.Runtime) project.Config {
	t.Helper()
	writeFile(t, rt, "/data/meth.tsv", methylationTSV)
	writeFile(t, rt, "/data/bins.tsv", contigBinsTSV)
	writeFile(t, rt, "/data/quality.tsv", qualityTSV)
	return project.Config{
		ID: "demo",
		Inputs: project.Inputs{
			Methylation: "/data/meth.tsv",
			ContigBins:  "/data/bins.tsv",
			Quality:     "/data/quality.tsv",
		},
		OutputDir: "/out/demo",
	}
}

func createProject(t *testing.T, rt *toolkit.Runtime, cfg project.Config) *project.Project {
	t.Helper()
	p, err := project.Create(context.Background(), rt, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}
