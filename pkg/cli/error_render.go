package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jlrickert/contammap/pkg/mag"
)

func renderUserError(err error, deps *Deps) string {
	if err == nil {
		return ""
	}

	var recErr *mag.RecordError
	if errors.As(err, &recErr) && !isDebugLogLevel(deps) {
		if recErr.Line > 0 {
			return fmt.Sprintf("malformed input %s at line %d (rerun with --log-level debug for details)", recErr.Source, recErr.Line)
		}
		return fmt.Sprintf("malformed input %s (rerun with --log-level debug for details)", recErr.Source)
	}

	var mismatch *mag.MetadataMismatchError
	if errors.As(err, &mismatch) {
		if mismatch.Stored == mismatch.Received {
			return fmt.Sprintf("the given contigs are not the contigs of bin %s; use --split to move contigs into a new bin",
				mismatch.Bin)
		}
		return fmt.Sprintf("bin %s has %d contigs but %d were given; use --split to move contigs into a new bin",
			mismatch.Bin, mismatch.Stored, mismatch.Received)
	}

	return err.Error()
}

func isDebugLogLevel(deps *Deps) bool {
	if deps == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(deps.LogLevel), "debug")
}
