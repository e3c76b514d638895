package project

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/jlrickert/cli-toolkit/mylog"
	"github.com/jlrickert/cli-toolkit/toolkit"
	"github.com/jlrickert/contammap/pkg/mag"
	"github.com/jlrickert/contammap/pkg/records"
)

// Project is one triage session: the contig registry built from the
// methylation input, the bin registry with its assignments, and the store the
// assignments are persisted to.
//
// The contig registry is read-only after construction. The bin registry is
// guarded by mu; heatmap queries and listings take the read lock and
// assignment updates take the write lock.
type Project struct {
	cfg   Config
	store AssignmentStore

	mu      sync.RWMutex
	contigs *mag.ContigRegistry
	bins    *mag.BinRegistry

	// saveMu orders snapshots with their writes.
	saveMu sync.Mutex
}

// AssignmentUpdate replaces the assignments of one bin.
type AssignmentUpdate struct {
	Bin     mag.BinID              `json:"bin"`
	Contigs []mag.ContigAssignment `json:"contigs"`
}

// Create builds a project from its input files, writes project.yaml into the
// output directory and saves the initial (all Unset) assignments.
func Create(ctx context.Context, rt *toolkit.Runtime, cfg Config) (*Project, error) {
	lg := mylog.LoggerFromContext(ctx)
	cfg.Normalize()
	cfg.ExpandEnv(rt)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pairs, err := records.Load(rt, cfg.Inputs.ContigBins, records.ReadContigBins)
	if err != nil {
		lg.Error("failed to read contig-bin file", "path", cfg.Inputs.ContigBins, "err", err)
		return nil, err
	}
	var quality []mag.QualityRecord
	if cfg.Inputs.Quality != "" {
		quality, err = records.Load(rt, cfg.Inputs.Quality, records.ReadQuality)
		if err != nil {
			lg.Error("failed to read quality file", "path", cfg.Inputs.Quality, "err", err)
			return nil, err
		}
	}
	bins, err := mag.BuildBinRegistry(pairs, quality)
	if err != nil {
		lg.Error("failed to build bins", "project", cfg.ID, "err", err)
		return nil, err
	}

	contigs, err := loadContigs(ctx, rt, cfg)
	if err != nil {
		return nil, err
	}
	if err := assertContigOverlap(bins, contigs); err != nil {
		lg.Error("inputs do not overlap", "project", cfg.ID, "err", err)
		return nil, err
	}

	if err := rt.Mkdir(cfg.OutputDir, 0o755, true); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	data, err := cfg.ToYAML()
	if err != nil {
		return nil, fmt.Errorf("encode project file: %w", err)
	}
	if err := rt.AtomicWriteFile(cfg.ConfigPath(), data, 0o644); err != nil {
		return nil, fmt.Errorf("write project file: %w", err)
	}

	store, err := openStore(ctx, rt, cfg)
	if err != nil {
		return nil, err
	}
	p := &Project{cfg: cfg, store: store, contigs: contigs, bins: bins}
	if err := p.Save(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	lg.Info("project created",
		"project", cfg.ID,
		"bins", bins.Len(),
		"contigs", contigs.Len(),
		"motifs", len(contigs.Motifs()),
		"store", store.Name(),
	)
	return p, nil
}

// Open reopens a project from its project.yaml. Bins and assignments come
// from the assignment store, so prior calls survive the reload.
func Open(ctx context.Context, rt *toolkit.Runtime, path string) (*Project, error) {
	lg := mylog.LoggerFromContext(ctx)
	if filepath.Base(path) != ConfigFile && filepath.Ext(path) == "" {
		path = filepath.Join(path, ConfigFile)
	}
	raw, err := rt.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	cfg, err := ParseConfigData(raw)
	if err != nil {
		lg.Error("failed to parse project file", "path", path, "err", err)
		return nil, err
	}
	cfg.ExpandEnv(rt)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	contigs, err := loadContigs(ctx, rt, cfg)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, rt, cfg)
	if err != nil {
		return nil, err
	}
	recs, err := store.Load(ctx)
	if err != nil {
		_ = store.Close()
		lg.Error("failed to load assignments", "project", cfg.ID, "store", store.Name(), "err", err)
		return nil, err
	}
	bins := mag.BinRegistryFromRecords(recs)

	lg.Info("project loaded", "project", cfg.ID, "bins", bins.Len(), "contigs", contigs.Len())
	return &Project{cfg: cfg, store: store, contigs: contigs, bins: bins}, nil
}

func loadContigs(ctx context.Context, rt *toolkit.Runtime, cfg Config) (*mag.ContigRegistry, error) {
	lg := mylog.LoggerFromContext(ctx)
	meth, err := records.Load(rt, cfg.Inputs.Methylation, records.ReadMethylation)
	if err != nil {
		lg.Error("failed to read methylation file", "path", cfg.Inputs.Methylation, "err", err)
		return nil, err
	}
	contigs, err := mag.BuildContigRegistry(meth)
	if err != nil {
		lg.Error("failed to build contig registry", "path", cfg.Inputs.Methylation, "err", err)
		return nil, err
	}
	lg.Debug("methylation loaded", "records", len(meth), "contigs", contigs.Len())
	return contigs, nil
}

func openStore(ctx context.Context, rt *toolkit.Runtime, cfg Config) (AssignmentStore, error) {
	store, err := NewStore(rt, cfg.Store.Kind, cfg.StorePath())
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("init %s store: %w", store.Name(), err)
	}
	return store, nil
}

// assertContigOverlap fails when no binned contig has methylation data.
func assertContigOverlap(bins *mag.BinRegistry, contigs *mag.ContigRegistry) error {
	binned := bins.ContigIDs()
	for _, id := range binned {
		if _, ok := contigs.Get(id); ok {
			return nil
		}
	}
	return &mag.ContigOverlapError{BinnedContigs: len(binned), MethylatedContigs: contigs.Len()}
}

// ID returns the project id.
func (p *Project) ID() string { return p.cfg.ID }

// Config returns a copy of the project configuration.
func (p *Project) Config() Config { return p.cfg }

// Store returns the assignment store.
func (p *Project) Store() AssignmentStore { return p.store }

// Heatmap answers a heatmap query under the read lock.
func (p *Project) Heatmap(q mag.HeatmapQuery) (*mag.Heatmap, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return mag.NewHeatmapEngine(p.contigs, p.bins).Query(q)
}

// UpdateAssignments replaces the assignments of one bin in memory. Call Save
// to persist.
func (p *Project) UpdateAssignments(ctx context.Context, u AssignmentUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.bins.Update(u.Bin, u.Contigs); err != nil {
		mylog.LoggerFromContext(ctx).Warn("assignment update rejected",
			"project", p.cfg.ID, "bin", string(u.Bin), "err", err)
		return err
	}
	mylog.LoggerFromContext(ctx).Info("updated assignments",
		"project", p.cfg.ID, "bin", string(u.Bin), "contigs", len(u.Contigs))
	return nil
}

// Save persists the bin registry. A failed save leaves the in-memory state
// untouched and queryable.
func (p *Project) Save(ctx context.Context) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	p.mu.RLock()
	recs := p.bins.Records()
	p.mu.RUnlock()

	if err := p.store.Save(ctx, recs); err != nil {
		mylog.LoggerFromContext(ctx).Error("failed to save assignments",
			"project", p.cfg.ID, "store", p.store.Name(), "err", err)
		return err
	}
	mylog.LoggerFromContext(ctx).Info("assignments saved",
		"project", p.cfg.ID, "store", p.store.Name(), "rows", len(recs))
	return nil
}

// Reload replaces the bin registry with the store's current content.
func (p *Project) Reload(ctx context.Context) error {
	recs, err := p.store.Load(ctx)
	if err != nil {
		return err
	}
	bins := mag.BinRegistryFromRecords(recs)
	p.mu.Lock()
	p.bins = bins
	p.mu.Unlock()
	mylog.LoggerFromContext(ctx).Info("assignments reloaded", "project", p.cfg.ID, "bins", bins.Len())
	return nil
}

// Bins lists bins in lexicographic order, optionally filtered by quality.
func (p *Project) Bins(qualities ...mag.Quality) []*mag.Bin {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bins.Bins(qualities...)
}

// Bin returns one bin with its assignments.
func (p *Project) Bin(id mag.BinID) (*mag.Bin, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.bins.Get(id)
	if !ok {
		return nil, mag.NewBinNotFoundError(id)
	}
	return b, nil
}

// Summaries summarizes every bin, optionally filtered by quality.
func (p *Project) Summaries(qualities ...mag.Quality) []mag.BinSummary {
	bins := p.Bins(qualities...)
	out := make([]mag.BinSummary, len(bins))
	for i, b := range bins {
		out[i] = mag.Summarize(b)
	}
	return out
}

// Contigs lists every contig with methylation data, sorted.
func (p *Project) Contigs() []mag.ContigID {
	return p.contigs.IDs()
}

// Motifs lists every observed motif name, sorted.
func (p *Project) Motifs() []string {
	keys := p.contigs.Motifs()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

// Close releases the assignment store.
func (p *Project) Close() error {
	return p.store.Close()
}
