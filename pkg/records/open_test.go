package records_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/jlrickert/cli-toolkit/toolkit"
	"github.com/jlrickert/contammap/pkg/records"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

func compress(t *testing.T, c records.Compression, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	switch c {
	case records.CompressionGzip:
		w := gzip.NewWriter(&buf)
		_, err := w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case records.CompressionBGZF:
		w := bgzf.NewWriter(&buf, 1)
		_, err := w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case records.CompressionZstd:
		w, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	default:
		buf.Write(data)
	}
	return buf.Bytes()
}

func TestCompressionFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path     string
		expected records.Compression
	}{
		{"pileup.tsv", records.CompressionNone},
		{"pileup.tsv.gz", records.CompressionGzip},
		{"pileup.tsv.GZ", records.CompressionGzip},
		{"pileup.tsv.bgz", records.CompressionBGZF},
		{"pileup.tsv.zst", records.CompressionZstd},
		{"pileup.tsv.zstd", records.CompressionZstd},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, records.CompressionFor(tt.path), tt.path)
	}
}

func TestDecompress(t *testing.T) {
	t.Parallel()
	for _, c := range []records.Compression{
		records.CompressionNone,
		records.CompressionGzip,
		records.CompressionBGZF,
		records.CompressionZstd,
	} {
		t.Run(string(c), func(t *testing.T) {
			t.Parallel()
			rc, err := records.Decompress(c, bytes.NewReader(compress(t, c, []byte(methylationTSV))))
			require.NoError(t, err)
			defer rc.Close()

			recs, err := records.ReadMethylation("meth", rc)
			require.NoError(t, err)
			require.Len(t, recs, 2)
		})
	}
}

func TestDecompress_Corrupt(t *testing.T) {
	t.Parallel()
	_, err := records.Decompress(records.CompressionGzip, bytes.NewReader([]byte("plain text")))
	require.Error(t, err)

	_, err = records.Decompress("lz4", bytes.NewReader(nil))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Parallel()
	rt, err := toolkit.NewTestRuntime(t.TempDir(), "/home/testuser", "testuser")
	require.NoError(t, err)

	require.NoError(t, rt.Mkdir("/data", 0o755, true))
	require.NoError(t, rt.WriteFile("/data/bins.tsv.zst",
		compress(t, records.CompressionZstd, []byte("contig\tbin\nc1\tb1\n")), 0o644))

	recs, err := records.Load(rt, "/data/bins.tsv.zst", records.ReadContigBins)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	_, err = records.Load(rt, "/data/missing.tsv", records.ReadContigBins)
	require.Error(t, err)

	rc, err := records.Open(rt, "/data/bins.tsv.zst")
	require.NoError(t, err)
	raw, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "contig\tbin\nc1\tb1\n", string(raw))
}
