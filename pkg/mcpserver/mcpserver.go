// Package mcpserver exposes the triage operations of open projects as MCP
// tools so an agent can list bins, inspect heatmaps and record calls.
package mcpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jlrickert/cli-toolkit/mylog"
	"github.com/jlrickert/contammap/pkg/mag"
	"github.com/jlrickert/contammap/pkg/project"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Name is the implementation name announced to clients.
const Name = "contammap"

type ProjectInput struct {
	Project string `json:"project" jsonschema:"id of an open project"`
}

type ListBinsInput struct {
	Project string   `json:"project" jsonschema:"id of an open project"`
	Quality []string `json:"quality,omitempty" jsonschema:"only bins with one of these quality labels (HQ, MQ, LQ)"`
}

type GetBinInput struct {
	Project string `json:"project" jsonschema:"id of an open project"`
	Bin     string `json:"bin" jsonschema:"bin id"`
}

type HeatmapInput struct {
	Project          string   `json:"project" jsonschema:"id of an open project"`
	Bin              string   `json:"bin,omitempty" jsonschema:"select the contigs of this bin"`
	Contigs          []string `json:"contigs,omitempty" jsonschema:"select these contigs instead of a bin"`
	MinNMotifObs     *int64   `json:"min_n_motif_obs,omitempty" jsonschema:"drop observations with fewer motif occurrences"`
	MinCoverage      *float64 `json:"min_coverage,omitempty" jsonschema:"drop observations with lower mean read coverage"`
	MinMotifVariance *float64 `json:"min_motif_variance,omitempty" jsonschema:"drop motifs whose methylation varies less across the selected contigs"`
}

type ContigCall struct {
	ContigID   string `json:"contig_id"`
	Assignment string `json:"assignment" jsonschema:"one of None, Clean, Contamination, Ambiguous"`
}

type UpdateAssignmentsInput struct {
	Project string       `json:"project" jsonschema:"id of an open project"`
	Bin     string       `json:"bin" jsonschema:"bin to update; a new id splits the contigs into a new bin"`
	Contigs []ContigCall `json:"contigs" jsonschema:"the full contig list of the bin with one call each"`
}

// New builds an MCP server whose tools operate on the projects of mgr.
func New(mgr *project.Manager, version string) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil)
	t := &tools{mgr: mgr}

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_projects",
		Description: "List the ids of open projects.",
	}, t.listProjects)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_bins",
		Description: "List the bins of a project with quality and assignment counts.",
	}, t.listBins)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_bin",
		Description: "Return one bin with the assignment of each of its contigs.",
	}, t.getBin)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "heatmap",
		Description: "Build the contig by motif methylation matrix for a bin or a contig list.",
	}, t.heatmap)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "update_assignments",
		Description: "Replace the contamination calls of one bin. The contig set must match the bin.",
	}, t.updateAssignments)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "save_project",
		Description: "Persist the assignments of a project.",
	}, t.saveProject)
	return s
}

// RunStdio serves the tools over stdin and stdout until ctx is done or the
// client disconnects.
func RunStdio(ctx context.Context, mgr *project.Manager, version string) error {
	mylog.LoggerFromContext(ctx).Info("mcp server listening on stdio")
	return New(mgr, version).Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler serves the tools over the streamable HTTP transport.
func HTTPHandler(mgr *project.Manager, version string) http.Handler {
	s := New(mgr, version)
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s }, nil)
}

type tools struct {
	mgr *project.Manager
}

func (t *tools) listProjects(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	return nil, map[string]any{"projects": t.mgr.List()}, nil
}

func (t *tools) listBins(ctx context.Context, _ *mcp.CallToolRequest, in ListBinsInput) (*mcp.CallToolResult, any, error) {
	p, err := t.mgr.Get(in.Project)
	if err != nil {
		return nil, nil, err
	}
	qualities := make([]mag.Quality, 0, len(in.Quality))
	for _, code := range in.Quality {
		q, err := mag.ParseQuality(code)
		if err != nil {
			return nil, nil, err
		}
		qualities = append(qualities, q)
	}
	return nil, map[string]any{"bins": p.Summaries(qualities...)}, nil
}

func (t *tools) getBin(ctx context.Context, _ *mcp.CallToolRequest, in GetBinInput) (*mcp.CallToolResult, any, error) {
	p, err := t.mgr.Get(in.Project)
	if err != nil {
		return nil, nil, err
	}
	b, err := p.Bin(mag.BinID(in.Bin))
	if err != nil {
		return nil, nil, err
	}
	return nil, b, nil
}

func (t *tools) heatmap(ctx context.Context, _ *mcp.CallToolRequest, in HeatmapInput) (*mcp.CallToolResult, any, error) {
	p, err := t.mgr.Get(in.Project)
	if err != nil {
		return nil, nil, err
	}
	q := mag.HeatmapQuery{
		MinNMotifObs:     in.MinNMotifObs,
		MinCoverage:      in.MinCoverage,
		MinMotifVariance: in.MinMotifVariance,
	}
	switch {
	case in.Bin != "" && in.Contigs != nil:
		return nil, nil, fmt.Errorf("invalid selection: set either bin or contigs, not both")
	case in.Bin != "":
		q.Selection = mag.BinSelection{Bin: mag.BinID(in.Bin)}
	case in.Contigs != nil:
		ids := make([]mag.ContigID, len(in.Contigs))
		for i, c := range in.Contigs {
			ids[i] = mag.ContigID(c)
		}
		q.Selection = mag.ContigSelection{Contigs: ids}
	default:
		return nil, nil, fmt.Errorf("invalid selection: expected bin or contigs")
	}

	h, err := p.Heatmap(q)
	if err != nil {
		return nil, nil, err
	}
	mylog.LoggerFromContext(ctx).Debug("heatmap built",
		"project", in.Project, "contigs", len(h.Contigs), "motifs", len(h.Motifs))
	return nil, h, nil
}

func (t *tools) updateAssignments(ctx context.Context, _ *mcp.CallToolRequest, in UpdateAssignmentsInput) (*mcp.CallToolResult, any, error) {
	p, err := t.mgr.Get(in.Project)
	if err != nil {
		return nil, nil, err
	}
	u := project.AssignmentUpdate{
		Bin:     mag.BinID(in.Bin),
		Contigs: make([]mag.ContigAssignment, len(in.Contigs)),
	}
	for i, c := range in.Contigs {
		a, err := mag.ParseAssignment(c.Assignment)
		if err != nil {
			return nil, nil, err
		}
		u.Contigs[i] = mag.ContigAssignment{ContigID: mag.ContigID(c.ContigID), Assignment: a}
	}
	if err := p.UpdateAssignments(ctx, u); err != nil {
		return nil, nil, err
	}
	return nil, map[string]any{"bin": in.Bin, "contigs": len(u.Contigs)}, nil
}

func (t *tools) saveProject(ctx context.Context, _ *mcp.CallToolRequest, in ProjectInput) (*mcp.CallToolResult, any, error) {
	p, err := t.mgr.Get(in.Project)
	if err != nil {
		return nil, nil, err
	}
	if err := p.Save(ctx); err != nil {
		return nil, nil, err
	}
	return nil, map[string]any{"project": in.Project, "saved": true}, nil
}
