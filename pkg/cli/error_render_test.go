package cli

import (
	"fmt"
	"testing"

	"github.com/jlrickert/contammap/pkg/mag"
	"github.com/stretchr/testify/require"
)

func TestRenderUserError(t *testing.T) {
	t.Parallel()
	recErr := mag.NewRecordError("/data/meth.tsv", 4, "mean_read_cov", "x", fmt.Errorf("invalid syntax"))
	tests := []struct {
		name     string
		err      error
		level    string
		expected string
	}{
		{
			name:     "same count different contigs",
			err:      &mag.MetadataMismatchError{Bin: "b1", Stored: 2, Received: 2},
			expected: "the given contigs are not the contigs of bin b1; use --split to move contigs into a new bin",
		},
		{
			name:     "count differs",
			err:      fmt.Errorf("update: %w", &mag.MetadataMismatchError{Bin: "b1", Stored: 2, Received: 1}),
			expected: "bin b1 has 2 contigs but 1 were given; use --split to move contigs into a new bin",
		},
		{
			name:     "record error",
			err:      recErr,
			expected: "malformed input /data/meth.tsv at line 4 (rerun with --log-level debug for details)",
		},
		{
			name:     "record error at debug level",
			err:      recErr,
			level:    "debug",
			expected: recErr.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.expected, renderUserError(tt.err, &Deps{LogLevel: tt.level}))
		})
	}
}
