package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jlrickert/contammap/pkg/mag"
	"github.com/jlrickert/contammap/pkg/project"
	"github.com/jlrickert/contammap/pkg/report"
)

// CreateRequest describes a new project by its input files.
type CreateRequest struct {
	ProjectID           string `json:"project_id"`
	Title               string `json:"title,omitempty"`
	MethylationDataPath string `json:"methylation_data_path"`
	ContigBinPath       string `json:"contig_bin_path"`
	BinQualityPath      string `json:"bin_quality_path,omitempty"`
	OutputPath          string `json:"output_path"`
	Store               string `json:"store,omitempty"`
	StorePath           string `json:"store_path,omitempty"`
	Watch               bool   `json:"watch,omitempty"`
}

func (r CreateRequest) config() project.Config {
	return project.Config{
		ID:    r.ProjectID,
		Title: r.Title,
		Inputs: project.Inputs{
			Methylation: r.MethylationDataPath,
			ContigBins:  r.ContigBinPath,
			Quality:     r.BinQualityPath,
		},
		OutputDir: r.OutputPath,
		Store:     project.StoreConfig{Kind: project.StoreKind(r.Store), Path: r.StorePath},
		Watch:     r.Watch,
	}
}

// LoadRequest points at an existing project.yaml or its directory.
type LoadRequest struct {
	Path string `json:"path"`
}

// ProjectInfo describes an open project.
type ProjectInfo struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Bins    int    `json:"bins"`
	Contigs int    `json:"contigs"`
	Motifs  int    `json:"motifs"`
	Store   string `json:"store"`
	Output  string `json:"output_path"`
}

func infoFor(p *project.Project) ProjectInfo {
	cfg := p.Config()
	return ProjectInfo{
		ID:      p.ID(),
		Title:   cfg.Title,
		Bins:    len(p.Bins()),
		Contigs: len(p.Contigs()),
		Motifs:  len(p.Motifs()),
		Store:   p.Store().Name(),
		Output:  cfg.OutputDir,
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return badRequest(fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

func (s *Server) projectFor(r *http.Request) (*project.Project, error) {
	return s.mgr.Get(r.PathValue("id"))
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	ids := s.mgr.List()
	writeJSON(w, r, http.StatusOK, ids)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.mgr.Create(r.Context(), req.config())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, infoFor(p))
}

func (s *Server) loadProject(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		writeError(w, r, badRequest(errors.New("path is required")))
		return
	}
	p, err := s.mgr.Load(r.Context(), req.Path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, infoFor(p))
}

func (s *Server) closeProject(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.Close(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) projectInfo(w http.ResponseWriter, r *http.Request) {
	p, err := s.projectFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, infoFor(p))
}

// parseQualities reads repeated or comma separated quality parameters.
func parseQualities(r *http.Request) ([]mag.Quality, error) {
	var out []mag.Quality
	for _, v := range r.URL.Query()["quality"] {
		for code := range strings.SplitSeq(v, ",") {
			code = strings.TrimSpace(code)
			if code == "" {
				continue
			}
			q, err := mag.ParseQuality(code)
			if err != nil {
				return nil, badRequest(err)
			}
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *Server) listBins(w http.ResponseWriter, r *http.Request) {
	p, err := s.projectFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	qualities, err := parseQualities(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p.Summaries(qualities...))
}

func (s *Server) listContigs(w http.ResponseWriter, r *http.Request) {
	p, err := s.projectFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p.Contigs())
}

func (s *Server) binContigs(w http.ResponseWriter, r *http.Request) {
	p, err := s.projectFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := p.Bin(mag.BinID(r.PathValue("bin")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, b)
}

func (s *Server) listMotifs(w http.ResponseWriter, r *http.Request) {
	p, err := s.projectFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p.Motifs())
}

func (s *Server) heatmap(w http.ResponseWriter, r *http.Request) {
	p, err := s.projectFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var q mag.HeatmapQuery
	if err := decode(w, r, &q); err != nil {
		writeError(w, r, err)
		return
	}
	h, err := p.Heatmap(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h)
}

func (s *Server) updateAssignments(w http.ResponseWriter, r *http.Request) {
	p, err := s.projectFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var u project.AssignmentUpdate
	if err := decode(w, r, &u); err != nil {
		writeError(w, r, err)
		return
	}
	if u.Bin == "" {
		writeError(w, r, badRequest(errors.New("bin is required")))
		return
	}
	if err := p.UpdateAssignments(r.Context(), u); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := p.Bin(u.Bin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, b)
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	p, err := s.projectFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := p.Save(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) renderReport(w http.ResponseWriter, r *http.Request) {
	p, err := s.projectFor(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := report.Render(report.ForProject(p))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}
