package mcpserver_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jlrickert/cli-toolkit/toolkit"
	"github.com/jlrickert/contammap/pkg/mcpserver"
	"github.com/jlrickert/contammap/pkg/project"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

const (
	methylationTSV = "contig\tmotif\tmod_type\tmod_position\tmethylation_value\tmean_read_cov\tn_motif_obs\tmotif_occurences_total\n" +
		"c1\tGATC\ta\t1\t0.9\t12\t5\t6\n" +
		"c2\tGATC\ta\t1\t0.4\t8\t5\t6\n" +
		"c3\tCCWGG\tm\t1\t0.2\t30\t40\t41\n"
	contigBinsTSV = "contig\tbin\nc1\tb1\nc2\tb1\nc3\tb2\n"
	qualityTSV    = "Name\tCompleteness\tContamination\nb1\t95\t2\nb2\t60\t8\n"
)

func newManager(t *testing.T) *project.Manager {
	t.Helper()
	rt, err := toolkit.NewTestRuntime(t.TempDir(), "/home/testuser", "testuser")
	require.NoError(t, err)
	require.NoError(t, rt.Mkdir("/data", 0o755, true))
	require.NoError(t, rt.WriteFile("/data/meth.tsv", []byte(methylationTSV), 0o644))
	require.NoError(t, rt.WriteFile("/data/bins.tsv", []byte(contigBinsTSV), 0o644))
	require.NoError(t, rt.WriteFile("/data/quality.tsv", []byte(qualityTSV), 0o644))

	m := project.NewManager(rt)
	t.Cleanup(func() { _ = m.CloseAll() })
	_, err = m.Create(context.Background(), project.Config{
		ID: "demo",
		Inputs: project.Inputs{
			Methylation: "/data/meth.tsv",
			ContigBins:  "/data/bins.tsv",
			Quality:     "/data/quality.tsv",
		},
		OutputDir: "/out/demo",
	})
	require.NoError(t, err)
	return m
}

func connect(t *testing.T, m *project.Manager) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	ct, st := mcp.NewInMemoryTransports()

	ss, err := mcpserver.New(m, "test").Connect(ctx, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

// call invokes a tool and decodes its text content into out.
func call(t *testing.T, cs *mcp.ClientSession, name string, args any, out any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	if out != nil && !res.IsError {
		text, ok := res.Content[0].(*mcp.TextContent)
		require.True(t, ok)
		require.NoError(t, json.Unmarshal([]byte(text.Text), out))
	}
	return res
}

func errorText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.True(t, res.IsError)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestTools_Listed(t *testing.T) {
	t.Parallel()
	cs := connect(t, newManager(t))

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"list_projects", "list_bins", "get_bin", "heatmap", "update_assignments", "save_project",
	}, names)
}

func TestTools_ListProjectsAndBins(t *testing.T) {
	t.Parallel()
	cs := connect(t, newManager(t))

	var projects struct {
		Projects []string `json:"projects"`
	}
	call(t, cs, "list_projects", map[string]any{}, &projects)
	require.Equal(t, []string{"demo"}, projects.Projects)

	var bins struct {
		Bins []struct {
			ID      string `json:"id"`
			Quality string `json:"quality"`
		} `json:"bins"`
	}
	call(t, cs, "list_bins", map[string]any{"project": "demo", "quality": []string{"MQ"}}, &bins)
	require.Len(t, bins.Bins, 1)
	require.Equal(t, "b2", bins.Bins[0].ID)
	require.Equal(t, "MQ", bins.Bins[0].Quality)

	res := call(t, cs, "list_bins", map[string]any{"project": "nope"}, nil)
	require.Contains(t, errorText(t, res), "nope")
}

func TestTools_HeatmapUpdateSave(t *testing.T) {
	t.Parallel()
	m := newManager(t)
	cs := connect(t, m)

	var h struct {
		Contigs []string     `json:"contigs"`
		Motifs  []string     `json:"motifs"`
		Matrix  [][]*float64 `json:"matrix"`
	}
	call(t, cs, "heatmap", map[string]any{"project": "demo", "bin": "b1"}, &h)
	require.Equal(t, []string{"c1", "c2"}, h.Contigs)
	require.Equal(t, []string{"GATC_a_1"}, h.Motifs)
	require.InDelta(t, 0.9, *h.Matrix[0][0], 1e-12)

	res := call(t, cs, "heatmap", map[string]any{"project": "demo"}, nil)
	require.Contains(t, errorText(t, res), "selection")

	res = call(t, cs, "update_assignments", map[string]any{
		"project": "demo",
		"bin":     "b1",
		"contigs": []map[string]string{{"contig_id": "c1", "assignment": "Clean"}},
	}, nil)
	require.Contains(t, errorText(t, res), "change bin name")

	call(t, cs, "update_assignments", map[string]any{
		"project": "demo",
		"bin":     "b1",
		"contigs": []map[string]string{
			{"contig_id": "c1", "assignment": "Clean"},
			{"contig_id": "c2", "assignment": "Contamination"},
		},
	}, nil)
	call(t, cs, "save_project", map[string]any{"project": "demo"}, nil)

	var bin struct {
		Contigs []struct {
			ContigID   string `json:"contig_id"`
			Assignment string `json:"assignment"`
		} `json:"contigs"`
	}
	call(t, cs, "get_bin", map[string]any{"project": "demo", "bin": "b1"}, &bin)
	require.Equal(t, "Contamination", bin.Contigs[1].Assignment)

	p, err := m.Get("demo")
	require.NoError(t, err)
	data, err := m.Runtime().ReadFile(p.Config().StorePath())
	require.NoError(t, err)
	require.Contains(t, string(data), "b1\tc2\tContamination\t95\t2\tHQ\n")
}
