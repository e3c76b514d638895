package mag_test

import (
	"encoding/json"
	"testing"

	"github.com/jlrickert/contammap/pkg/mag"
	"github.com/stretchr/testify/require"
)

func TestHeatmap_BinSelection(t *testing.T) {
	t.Parallel()
	e := newEngine(t,
		[]mag.MethylationRecord{
			methRec("c1", "GATC", "a", 1, 0.9, 12, 5),
			methRec("c2", "GATC", "a", 1, 0.4, 8, 5),
		},
		pairs("c1", "b1", "c2", "b1"),
	)

	h, err := e.Query(mag.HeatmapQuery{Selection: mag.BinSelection{Bin: "b1"}})
	require.NoError(t, err)
	requireShape(t, h)

	require.Equal(t, []string{"c1", "c2"}, h.Contigs)
	require.Equal(t, []string{"GATC_a_1"}, h.Motifs)
	require.Equal(t, 2, h.PresentCells())
	require.Equal(t, 0.9, *h.Matrix[0][0])
	require.Equal(t, 0.4, *h.Matrix[1][0])
	require.Equal(t, mag.Unset, h.Metadata["c1"].Assignment)
	require.Equal(t, mag.Unset, h.Metadata["c2"].Assignment)
	require.Equal(t, 12.0, h.Metadata["c1"].MeanCoverage)
}

func TestHeatmap_ObservationThresholdDropsEverything(t *testing.T) {
	t.Parallel()
	e := newEngine(t,
		[]mag.MethylationRecord{
			methRec("c1", "GATC", "a", 1, 0.9, 12, 5),
			methRec("c2", "GATC", "a", 1, 0.4, 8, 5),
		},
		pairs("c1", "b1", "c2", "b1"),
	)

	h, err := e.Query(mag.HeatmapQuery{
		Selection:    mag.BinSelection{Bin: "b1"},
		MinNMotifObs: i64(1000),
	})
	require.NoError(t, err)
	requireShape(t, h)
	require.Equal(t, 0, h.PresentCells())
	require.Empty(t, h.Motifs)
	require.Equal(t, []string{"c1", "c2"}, h.Contigs)
}

func TestHeatmap_Thresholds(t *testing.T) {
	t.Parallel()
	meth := []mag.MethylationRecord{
		methRec("c1", "GATC", "a", 1, 0.9, 12, 50),
		methRec("c1", "CCWGG", "m", 1, 0.2, 3, 50),
		methRec("c2", "GATC", "a", 1, 0.4, 30, 2),
		methRec("c2", "CCWGG", "m", 1, 0.7, 30, 50),
	}
	e := newEngine(t, meth, pairs("c1", "b1", "c2", "b1"))

	tests := []struct {
		name    string
		query   mag.HeatmapQuery
		motifs  []string
		present int
		c2GATC  bool
		c1CCWGG bool
	}{
		{
			name:    "none",
			query:   mag.HeatmapQuery{},
			motifs:  []string{"CCWGG_m_1", "GATC_a_1"},
			present: 4,
			c2GATC:  true,
			c1CCWGG: true,
		},
		{
			name:    "observations",
			query:   mag.HeatmapQuery{MinNMotifObs: i64(10)},
			motifs:  []string{"CCWGG_m_1", "GATC_a_1"},
			present: 3,
			c1CCWGG: true,
		},
		{
			name:    "coverage",
			query:   mag.HeatmapQuery{MinCoverage: f64(10)},
			motifs:  []string{"CCWGG_m_1", "GATC_a_1"},
			present: 3,
			c2GATC:  true,
		},
		{
			name:    "negative observations never exclude",
			query:   mag.HeatmapQuery{MinNMotifObs: i64(-1)},
			motifs:  []string{"CCWGG_m_1", "GATC_a_1"},
			present: 4,
			c2GATC:  true,
			c1CCWGG: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := tt.query
			q.Selection = mag.BinSelection{Bin: "b1"}
			h, err := e.Query(q)
			require.NoError(t, err)
			requireShape(t, h)
			require.Equal(t, tt.motifs, h.Motifs)
			require.Equal(t, tt.present, h.PresentCells())
			require.Equal(t, tt.c2GATC, h.Matrix[1][1] != nil)
			require.Equal(t, tt.c1CCWGG, h.Matrix[0][0] != nil)
		})
	}
}

func TestHeatmap_Variance(t *testing.T) {
	t.Parallel()
	meth := []mag.MethylationRecord{
		// GATC varies a lot, CCWGG is flat, GGCC is only seen once.
		methRec("c1", "GATC", "a", 1, 0.9, 10, 10),
		methRec("c2", "GATC", "a", 1, 0.1, 10, 10),
		methRec("c1", "CCWGG", "m", 1, 0.5, 10, 10),
		methRec("c2", "CCWGG", "m", 1, 0.5, 10, 10),
		methRec("c1", "GGCC", "21839", 2, 0.3, 10, 10),
	}
	e := newEngine(t, meth, pairs("c1", "b1", "c2", "b1"))

	h, err := e.Query(mag.HeatmapQuery{
		Selection:        mag.BinSelection{Bin: "b1"},
		MinMotifVariance: f64(0.01),
	})
	require.NoError(t, err)
	requireShape(t, h)
	require.Equal(t, []string{"GATC_a_1"}, h.Motifs)

	// Zero threshold keeps the flat column but still drops the single value.
	h, err = e.Query(mag.HeatmapQuery{
		Selection:        mag.BinSelection{Bin: "b1"},
		MinMotifVariance: f64(0),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"CCWGG_m_1", "GATC_a_1"}, h.Motifs)

	h, err = e.Query(mag.HeatmapQuery{Selection: mag.BinSelection{Bin: "b1"}})
	require.NoError(t, err)
	require.Equal(t, []string{"CCWGG_m_1", "GATC_a_1", "GGCC_21839_2"}, h.Motifs)
	require.Nil(t, h.Matrix[1][2])
}

func TestHeatmap_ContigSelection(t *testing.T) {
	t.Parallel()
	e := newEngine(t,
		[]mag.MethylationRecord{
			methRec("c1", "GATC", "a", 1, 0.9, 12, 5),
			methRec("c2", "GATC", "a", 1, 0.4, 8, 5),
			methRec("c3", "GATC", "a", 1, 0.1, 4, 5),
		},
		pairs("c1", "b1", "c2", "b1", "c3", "b2"),
	)

	h, err := e.Query(mag.HeatmapQuery{
		Selection: mag.ContigSelection{Contigs: []mag.ContigID{"c3", "missing", "c1", "c3"}},
	})
	require.NoError(t, err)
	requireShape(t, h)
	require.Equal(t, []string{"c1", "c3"}, h.Contigs)
	for _, md := range h.Metadata {
		require.Equal(t, mag.Unset, md.Assignment)
	}
}

func TestHeatmap_BinAssignmentsInMetadata(t *testing.T) {
	t.Parallel()
	e := newEngine(t,
		[]mag.MethylationRecord{
			methRec("c1", "GATC", "a", 1, 0.9, 12, 5),
			methRec("c2", "GATC", "a", 1, 0.4, 8, 5),
		},
		pairs("c1", "b1", "c2", "b1"),
	)
	require.NoError(t, e.Bins.Update("b1", []mag.ContigAssignment{
		{ContigID: "c1", Assignment: mag.Clean},
		{ContigID: "c2", Assignment: mag.Contamination},
	}))

	h, err := e.Query(mag.HeatmapQuery{Selection: mag.BinSelection{Bin: "b1"}})
	require.NoError(t, err)
	require.Equal(t, mag.Clean, h.Metadata["c1"].Assignment)
	require.Equal(t, mag.Contamination, h.Metadata["c2"].Assignment)
}

func TestHeatmap_BinWithoutMethylation(t *testing.T) {
	t.Parallel()
	e := newEngine(t,
		[]mag.MethylationRecord{methRec("c1", "GATC", "a", 1, 0.9, 12, 5)},
		pairs("c1", "b1", "c9", "b2"),
	)

	h, err := e.Query(mag.HeatmapQuery{Selection: mag.BinSelection{Bin: "b2"}})
	require.NoError(t, err)
	requireShape(t, h)
	require.Empty(t, h.Contigs)
	require.Empty(t, h.Motifs)
}

func TestHeatmap_UnknownBin(t *testing.T) {
	t.Parallel()
	e := newEngine(t,
		[]mag.MethylationRecord{methRec("c1", "GATC", "a", 1, 0.9, 12, 5)},
		pairs("c1", "b1"),
	)

	_, err := e.Query(mag.HeatmapQuery{Selection: mag.BinSelection{Bin: "nope"}})
	require.ErrorIs(t, err, mag.ErrBinNotFound)

	_, err = e.Query(mag.HeatmapQuery{})
	require.Error(t, err)
}

func TestHeatmap_Deterministic(t *testing.T) {
	t.Parallel()
	var meth []mag.MethylationRecord
	for _, c := range []string{"c5", "c3", "c1", "c4", "c2"} {
		meth = append(meth,
			methRec(c, "GATC", "a", 1, 0.5, 10, 10),
			methRec(c, "CCWGG", "m", 1, 0.5, 10, 10),
			methRec(c, "GGCC", "21839", 2, 0.5, 10, 10),
		)
	}
	e := newEngine(t, meth, pairs("c5", "b1", "c3", "b1", "c1", "b1", "c4", "b1", "c2", "b1"))

	first, err := e.Query(mag.HeatmapQuery{Selection: mag.BinSelection{Bin: "b1"}})
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	for range 10 {
		h, err := e.Query(mag.HeatmapQuery{Selection: mag.BinSelection{Bin: "b1"}})
		require.NoError(t, err)
		data, err := json.Marshal(h)
		require.NoError(t, err)
		require.JSONEq(t, string(firstJSON), string(data))
		require.Equal(t, first.Contigs, h.Contigs)
		require.Equal(t, first.Motifs, h.Motifs)
	}
	require.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, first.Contigs)
}

func TestHeatmapQuery_JSON(t *testing.T) {
	t.Parallel()
	var q mag.HeatmapQuery
	err := json.Unmarshal([]byte(`{
		"selection": {"Contigs": ["c1", "c2"]},
		"min_n_motif_obs": 3,
		"min_coverage": 1.5
	}`), &q)
	require.NoError(t, err)
	require.Equal(t, mag.ContigSelection{Contigs: []mag.ContigID{"c1", "c2"}}, q.Selection)
	require.Equal(t, int64(3), *q.MinNMotifObs)
	require.Equal(t, 1.5, *q.MinCoverage)
	require.Nil(t, q.MinMotifVariance)

	err = json.Unmarshal([]byte(`{"min_coverage": 1}`), &q)
	require.Error(t, err)

	data, err := json.Marshal(mag.HeatmapQuery{Selection: mag.BinSelection{Bin: "b1"}})
	require.NoError(t, err)
	require.JSONEq(t, `{"selection":{"Bin":"b1"}}`, string(data))
}

func TestHeatmap_JSONShape(t *testing.T) {
	t.Parallel()
	e := newEngine(t,
		[]mag.MethylationRecord{
			methRec("c1", "GATC", "a", 1, 0.25, 12, 5),
			methRec("c2", "CCWGG", "m", 1, 0.5, 8, 5),
		},
		pairs("c1", "b1", "c2", "b1"),
	)
	h, err := e.Query(mag.HeatmapQuery{Selection: mag.BinSelection{Bin: "b1"}})
	require.NoError(t, err)

	data, err := json.Marshal(h)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"contigs": ["c1", "c2"],
		"motifs": ["CCWGG_m_1", "GATC_a_1"],
		"matrix": [[null, 0.25], [0.5, null]],
		"metadata": {
			"c1": {"contig_id": "c1", "assignment": "None", "mean_coverage": 12},
			"c2": {"contig_id": "c2", "assignment": "None", "mean_coverage": 8}
		}
	}`, string(data))
}
