package records

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/jlrickert/cli-toolkit/toolkit"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression is the codec applied to an input file.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionBGZF Compression = "bgzf"
	CompressionZstd Compression = "zstd"
)

// CompressionFor picks the codec from the file extension.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompressionGzip
	case ".bgz", ".bgzf":
		return CompressionBGZF
	case ".zst", ".zstd":
		return CompressionZstd
	}
	return CompressionNone
}

// Decompress wraps r with the decoder for c.
func Decompress(c Compression, r io.Reader) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		return zr, nil
	case CompressionBGZF:
		br, err := bgzf.NewReader(r, 0)
		if err != nil {
			return nil, fmt.Errorf("open bgzf stream: %w", err)
		}
		return br, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		return dec.IOReadCloser(), nil
	}
	return nil, fmt.Errorf("unsupported compression %q", c)
}

// Open reads path through rt and returns its decompressed content.
func Open(rt *toolkit.Runtime, path string) (io.ReadCloser, error) {
	data, err := rt.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decompress(CompressionFor(path), bytes.NewReader(data))
}

// Load opens path and decodes it with read.
func Load[T any](rt *toolkit.Runtime, path string, read func(string, io.Reader) ([]T, error)) ([]T, error) {
	rc, err := Open(rt, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rc.Close()
	}()
	return read(path, rc)
}
