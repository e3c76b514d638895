package report_test

import (
	"strings"
	"testing"

	"github.com/jlrickert/contammap/pkg/mag"
	"github.com/jlrickert/contammap/pkg/report"
	"github.com/stretchr/testify/require"
)

func summaries() []mag.BinSummary {
	comp, cont := 95.0, 2.0
	hq := mag.HQ
	b1 := &mag.Bin{
		ID: "b1",
		Contigs: []mag.ContigAssignment{
			{ContigID: "c1", Assignment: mag.Clean},
			{ContigID: "c2", Assignment: mag.Contamination},
		},
		Completeness:  &comp,
		Contamination: &cont,
		Quality:       &hq,
	}
	split := &mag.Bin{
		ID:      "b1_split",
		Contigs: []mag.ContigAssignment{{ContigID: "c9"}},
	}
	return []mag.BinSummary{mag.Summarize(b1), mag.Summarize(split)}
}

func TestMarkdown(t *testing.T) {
	t.Parallel()
	md := string(report.Markdown(report.Input{ProjectID: "demo", Contigs: 3, Motifs: 2, Bins: summaries()}))

	require.True(t, strings.HasPrefix(md, "# demo\n"))
	require.Contains(t, md, "Project `demo`: 2 bins, 3 methylated contigs, 2 motifs.")
	require.Contains(t, md, "| None | 1 |\n")
	require.Contains(t, md, "| Clean | 1 |\n")
	require.Contains(t, md, "| Contamination | 1 |\n")
	require.Contains(t, md, "| Ambiguous | 0 |\n")
	require.Contains(t, md, "| HQ | 1 |\n")
	require.Contains(t, md, "| - | 1 |\n")
	require.NotContains(t, md, "| LQ |")
	require.Contains(t, md, "| b1 | HQ | 95 | 2 | 2 | 0 | 1 | 1 | 0 |\n")
	require.Contains(t, md, `| b1\_split | - | - | - | 1 | 1 | 0 | 0 | 0 |`)
}

func TestMarkdown_NoBins(t *testing.T) {
	t.Parallel()
	md := string(report.Markdown(report.Input{ProjectID: "empty", Title: "Empty run"}))
	require.True(t, strings.HasPrefix(md, "# Empty run\n"))
	require.Contains(t, md, "No bins.")
}

func TestRender(t *testing.T) {
	t.Parallel()
	page, err := report.Render(report.Input{ProjectID: "demo", Title: "Sludge <A>", Bins: summaries()})
	require.NoError(t, err)

	html := string(page)
	require.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	require.Contains(t, html, "<title>Sludge &lt;A&gt;</title>")
	require.Contains(t, html, "<h2>Bins</h2>")
	require.Contains(t, html, "<table>")
	require.Contains(t, html, "<th>Bin</th>")
	require.Contains(t, html, "b1_split")
	require.NotContains(t, html, "<A>")
}
