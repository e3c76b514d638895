package mag_test

import (
	"testing"

	"github.com/jlrickert/contammap/pkg/mag"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func i64(v int64) *int64 { return &v }

func methRec(contig, motif, mod string, pos uint8, value, cov float64, nobs uint32) mag.MethylationRecord {
	return mag.MethylationRecord{
		Contig:               contig,
		Motif:                motif,
		ModType:              mod,
		ModPosition:          pos,
		MethylationValue:     value,
		MeanReadCov:          cov,
		NMotifObs:            nobs,
		MotifOccurencesTotal: nobs,
	}
}

func pairs(kv ...string) []mag.ContigBinRecord {
	out := make([]mag.ContigBinRecord, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, mag.ContigBinRecord{Contig: kv[i], Bin: kv[i+1]})
	}
	return out
}

// newEngine builds both registries and fails the test on error.
func newEngine(t *testing.T, meth []mag.MethylationRecord, cb []mag.ContigBinRecord) *mag.HeatmapEngine {
	t.Helper()
	contigs, err := mag.BuildContigRegistry(meth)
	require.NoError(t, err)
	bins, err := mag.BuildBinRegistry(cb, nil)
	require.NoError(t, err)
	return mag.NewHeatmapEngine(contigs, bins)
}

func requireShape(t *testing.T, h *mag.Heatmap) {
	t.Helper()
	require.Len(t, h.Matrix, len(h.Contigs))
	for _, row := range h.Matrix {
		require.Len(t, row, len(h.Motifs))
	}
	require.Len(t, h.Metadata, len(h.Contigs))
}
