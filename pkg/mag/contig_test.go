package mag_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/jlrickert/contammap/pkg/mag"
	"github.com/stretchr/testify/require"
)

func TestBuildContigRegistry(t *testing.T) {
	t.Parallel()
	reg, err := mag.BuildContigRegistry([]mag.MethylationRecord{
		methRec("c1", "GATC", "a", 1, 0.8, 10, 100),
		methRec("c1", "GATC", "m", 3, 0.1, 30, 50),
		methRec("c2", "GATC", "a", 1, 0.2, 7, 5),
	})
	require.NoError(t, err)

	require.Equal(t, 2, reg.Len())
	require.Equal(t, []mag.ContigID{"c1", "c2"}, reg.IDs())

	motifs := reg.Motifs()
	require.Len(t, motifs, 2)
	require.Equal(t, "GATC_a_1", motifs[0].String())
	require.Equal(t, "GATC_m_3", motifs[1].String())

	c1, ok := reg.Get("c1")
	require.True(t, ok)
	cov, ok := c1.MeanCoverage()
	require.True(t, ok)
	require.InDelta(t, 20.0, cov, 1e-12, "unweighted mean of 10 and 30")
	require.Equal(t, 2, c1.Len())

	require.InDelta(t, 7.0, reg.MeanCoverage("c2"), 1e-12)
}

func TestBuildContigRegistry_DuplicateOverwrites(t *testing.T) {
	t.Parallel()
	reg, err := mag.BuildContigRegistry([]mag.MethylationRecord{
		methRec("c1", "GATC", "a", 1, 0.8, 10, 100),
		methRec("c1", "GATC", "a", 1, 0.3, 40, 7),
	})
	require.NoError(t, err)

	c1, ok := reg.Get("c1")
	require.True(t, ok)
	require.Equal(t, 1, c1.Len())

	k, err := mag.ParseMotif("GATC", "a", 1)
	require.NoError(t, err)
	sig, ok := c1.Signature(k)
	require.True(t, ok)
	require.Equal(t, 0.3, sig.MethylationValue)
	require.Equal(t, uint32(7), sig.NObs)

	cov, _ := c1.MeanCoverage()
	require.Equal(t, 40.0, cov)
}

func TestBuildContigRegistry_InvalidMotifAbortsLoad(t *testing.T) {
	t.Parallel()
	reg, err := mag.BuildContigRegistry([]mag.MethylationRecord{
		methRec("c1", "GATC", "a", 1, 0.8, 10, 100),
		methRec("c2", "GATC", "a", 0, 0.8, 10, 100),
	})
	require.Error(t, err)
	require.Nil(t, reg)
	require.ErrorIs(t, err, mag.ErrMotifParse)
	require.Contains(t, err.Error(), "GATC_a_0")
}

func TestContigRegistry_UnknownContig(t *testing.T) {
	t.Parallel()
	reg, err := mag.BuildContigRegistry(nil)
	require.NoError(t, err)

	_, ok := reg.Get("missing")
	require.False(t, ok)
	require.Equal(t, 0.0, reg.MeanCoverage("missing"))
}

func TestContig_NoSignatures(t *testing.T) {
	t.Parallel()
	c := mag.NewContig("empty")
	cov, ok := c.MeanCoverage()
	require.False(t, ok)
	require.Equal(t, 0.0, cov)
}

func TestContig_MeanCoverageIsStable(t *testing.T) {
	t.Parallel()
	coverages := []float64{12.7, 0.1, 33.3, 3.3, 0.2, 45.9, 7.7, 18.1, 0.3, 11.11}
	meth := make([]mag.MethylationRecord, len(coverages))
	for i, cov := range coverages {
		meth[i] = methRec("c1", strings.Repeat("A", i+1), "a", 0, 0.5, cov, 5)
	}

	first, err := mag.BuildContigRegistry(meth)
	require.NoError(t, err)
	want := first.MeanCoverage("c1")
	require.InDelta(t, 13.271, want, 1e-9)

	reversed := slices.Clone(meth)
	slices.Reverse(reversed)
	for i := range 200 {
		input := meth
		if i%2 == 1 {
			input = reversed
		}
		reg, err := mag.BuildContigRegistry(input)
		require.NoError(t, err)
		require.Equal(t, want, reg.MeanCoverage("c1"))
	}
}
