package mag

import (
	"encoding/json"
	"errors"
	"slices"
)

// HeatmapQuery selects contigs and filters their motif observations. Nil
// thresholds never exclude anything.
type HeatmapQuery struct {
	Selection        Selection
	MinNMotifObs     *int64
	MinCoverage      *float64
	MinMotifVariance *float64
}

type heatmapQueryJSON struct {
	Selection        json.RawMessage `json:"selection"`
	MinNMotifObs     *int64          `json:"min_n_motif_obs,omitempty"`
	MinCoverage      *float64        `json:"min_coverage,omitempty"`
	MinMotifVariance *float64        `json:"min_motif_variance,omitempty"`
}

func (q HeatmapQuery) MarshalJSON() ([]byte, error) {
	sel, err := json.Marshal(q.Selection)
	if err != nil {
		return nil, err
	}
	return json.Marshal(heatmapQueryJSON{
		Selection:        sel,
		MinNMotifObs:     q.MinNMotifObs,
		MinCoverage:      q.MinCoverage,
		MinMotifVariance: q.MinMotifVariance,
	})
}

func (q *HeatmapQuery) UnmarshalJSON(data []byte) error {
	var raw heatmapQueryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Selection) == 0 {
		return errors.New("invalid query: selection is required")
	}
	sel, err := ParseSelection(raw.Selection)
	if err != nil {
		return err
	}
	*q = HeatmapQuery{
		Selection:        sel,
		MinNMotifObs:     raw.MinNMotifObs,
		MinCoverage:      raw.MinCoverage,
		MinMotifVariance: raw.MinMotifVariance,
	}
	return nil
}

// keep reports whether a signature passes the observation and coverage
// thresholds.
func (q HeatmapQuery) keep(s MotifSignature) bool {
	if q.MinNMotifObs != nil && int64(s.NObs) < *q.MinNMotifObs {
		return false
	}
	if q.MinCoverage != nil && s.MeanCoverage < *q.MinCoverage {
		return false
	}
	return true
}

// ContigMetadata is the per-row metadata of a heatmap.
type ContigMetadata struct {
	ContigID     ContigID   `json:"contig_id"`
	Assignment   Assignment `json:"assignment"`
	MeanCoverage float64    `json:"mean_coverage"`
}

// Heatmap is a contig×motif methylation matrix. Matrix[i][j] is the
// methylation fraction of Contigs[i] at Motifs[j], or nil when there is no
// surviving observation.
type Heatmap struct {
	Contigs  []string                  `json:"contigs"`
	Motifs   []string                  `json:"motifs"`
	Matrix   [][]*float64              `json:"matrix"`
	Metadata map[string]ContigMetadata `json:"metadata"`

	// MotifKeys mirrors Motifs.
	MotifKeys []MotifKey `json:"-"`
}

// PresentCells counts the non-nil cells.
func (h *Heatmap) PresentCells() int {
	n := 0
	for _, row := range h.Matrix {
		for _, v := range row {
			if v != nil {
				n++
			}
		}
	}
	return n
}

// HeatmapEngine answers heatmap queries over a contig and a bin registry. It
// only reads the registries.
type HeatmapEngine struct {
	Contigs *ContigRegistry
	Bins    *BinRegistry
}

// NewHeatmapEngine constructs an engine over the given registries.
func NewHeatmapEngine(contigs *ContigRegistry, bins *BinRegistry) *HeatmapEngine {
	return &HeatmapEngine{Contigs: contigs, Bins: bins}
}

// Query builds the heatmap for q.
//
// Rows are the selected contigs present in the contig registry, sorted by
// id. Columns are the motifs with at least one cell surviving the
// observation and coverage thresholds, sorted by name. When
// MinMotifVariance is set, columns whose sample variance is below it, or
// that hold fewer than two values, are dropped.
func (e *HeatmapEngine) Query(q HeatmapQuery) (*Heatmap, error) {
	sel, err := resolveSelection(e.Bins, q.Selection)
	if err != nil {
		return nil, err
	}

	contigs := e.candidates(sel.ids)
	motifs := e.Contigs.Motifs()

	cells := make([][]*float64, len(contigs))
	survivors := make([]bool, len(motifs))
	for i, c := range contigs {
		row := make([]*float64, len(motifs))
		for j, m := range motifs {
			s, ok := c.Signature(m)
			if !ok || !q.keep(s) {
				continue
			}
			v := s.MethylationValue
			row[j] = &v
			survivors[j] = true
		}
		cells[i] = row
	}

	cols := make([]int, 0, len(motifs))
	for j, ok := range survivors {
		if !ok {
			continue
		}
		if q.MinMotifVariance != nil {
			v, defined := sampleVariance(column(cells, j))
			if !defined || v < *q.MinMotifVariance {
				continue
			}
		}
		cols = append(cols, j)
	}

	h := &Heatmap{
		Contigs:   make([]string, len(contigs)),
		Motifs:    make([]string, len(cols)),
		MotifKeys: make([]MotifKey, len(cols)),
		Matrix:    make([][]*float64, len(contigs)),
		Metadata:  make(map[string]ContigMetadata, len(contigs)),
	}
	for k, j := range cols {
		h.MotifKeys[k] = motifs[j]
		h.Motifs[k] = motifs[j].String()
	}
	for i, c := range contigs {
		h.Contigs[i] = string(c.ID)
		row := make([]*float64, len(cols))
		for k, j := range cols {
			row[k] = cells[i][j]
		}
		h.Matrix[i] = row
		h.Metadata[string(c.ID)] = ContigMetadata{
			ContigID:     c.ID,
			Assignment:   sel.assignment(c.ID),
			MeanCoverage: e.Contigs.MeanCoverage(c.ID),
		}
	}
	return h, nil
}

// candidates returns the registry contigs named in ids, deduplicated and
// sorted. Unknown ids are skipped.
func (e *HeatmapEngine) candidates(ids []ContigID) []*Contig {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	out := make([]*Contig, 0, len(sorted))
	for _, id := range sorted {
		if c, ok := e.Contigs.Get(id); ok {
			out = append(out, c)
		}
	}
	return out
}

func column(cells [][]*float64, j int) []float64 {
	out := make([]float64, 0, len(cells))
	for _, row := range cells {
		if row[j] != nil {
			out = append(out, *row[j])
		}
	}
	return out
}

// sampleVariance returns the n-1 variance of values. It is undefined for
// fewer than two values.
func sampleVariance(values []float64) (float64, bool) {
	n := len(values)
	if n <= 1 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return ss / float64(n-1), true
}
