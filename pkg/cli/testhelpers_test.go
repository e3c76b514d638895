package cli_test

import (
	"context"
	"embed"
	"testing"

	tu "github.com/jlrickert/cli-toolkit/sandbox"
	"github.com/jlrickert/cli-toolkit/toolkit"
	"github.com/jlrickert/contammap/pkg/cli"
	"github.com/stretchr/testify/require"
)

// testdata holds the input fixtures. data/inputs is a small three contig,
// two bin data set.
//
//go:embed all:data/**
var testdata embed.FS

const (
	dataDir    = "/home/testuser/data"
	projectDir = "/home/testuser/triage"
)

func NewSandbox(t *testing.T, opts ...tu.Option) *tu.Sandbox {
	return tu.NewSandbox(t, &tu.Options{
		Data: testdata,
		Home: "/home/testuser",
		User: "testuser",
	}, opts...)
}

func NewProcess(t *testing.T, isTTY bool, args ...string) *tu.Process {
	return tu.NewProcess(func(ctx context.Context, rt *toolkit.Runtime) (int, error) {
		return cli.Run(ctx, rt, args)
	}, isTTY)
}

// newProjectSandbox returns a sandbox with the inputs under ~/data and a
// project created in ~/triage.
func newProjectSandbox(t *testing.T) *tu.Sandbox {
	t.Helper()
	sb := NewSandbox(t, tu.WithFixture("inputs", "~/data"))
	res := NewProcess(t, false,
		"create",
		"--id", "demo",
		"--methylation", dataDir+"/meth.tsv",
		"--contig-bins", dataDir+"/bins.tsv",
		"--quality", dataDir+"/quality.tsv",
		"--output", projectDir,
	).Run(sb.Context(), sb.Runtime())
	require.NoError(t, res.Err, string(res.Stderr))
	return sb
}
