package mag

import (
	"slices"
)

// BinID is the unique name of a bin.
type BinID string

// ContigBinRecord maps a contig to the bin it was placed in.
type ContigBinRecord struct {
	Contig string
	Bin    string
}

// QualityRecord is the genome-quality estimate of a bin (for example a
// CheckM2 quality report row).
type QualityRecord struct {
	Bin           string
	Completeness  float64
	Contamination float64
}

// Bin is a cluster of contigs with optional quality estimates. Quality is set
// if and only if both percentages are set.
type Bin struct {
	ID            BinID              `json:"id"`
	Contigs       []ContigAssignment `json:"contigs"`
	Completeness  *float64           `json:"completeness"`
	Contamination *float64           `json:"contamination"`
	Quality       *Quality           `json:"quality"`
}

// SetQuality attaches the estimates and recomputes the label.
func (b *Bin) SetQuality(t QualityThresholds, completeness, contamination float64) {
	q := t.Classify(completeness, contamination)
	b.Completeness = &completeness
	b.Contamination = &contamination
	b.Quality = &q
}

// ContigIDs returns the bin's contig ids in stored order.
func (b *Bin) ContigIDs() []ContigID {
	out := make([]ContigID, len(b.Contigs))
	for i, c := range b.Contigs {
		out[i] = c.ContigID
	}
	return out
}

// Clone returns a deep copy.
func (b *Bin) Clone() *Bin {
	if b == nil {
		return nil
	}
	cp := *b
	cp.Contigs = slices.Clone(b.Contigs)
	if b.Completeness != nil {
		v := *b.Completeness
		cp.Completeness = &v
	}
	if b.Contamination != nil {
		v := *b.Contamination
		cp.Contamination = &v
	}
	if b.Quality != nil {
		v := *b.Quality
		cp.Quality = &v
	}
	return &cp
}

// BinRegistry holds every bin of a project. Iteration is always in
// lexicographic bin order. BinRegistry does not synchronize; callers guard
// concurrent access.
type BinRegistry struct {
	bins map[BinID]*Bin
}

// NewBinRegistry returns an empty registry.
func NewBinRegistry() *BinRegistry {
	return &BinRegistry{bins: make(map[BinID]*Bin)}
}

// BuildBinRegistry groups contig-bin pairs into bins and attaches quality
// records using DefaultQualityThresholds.
func BuildBinRegistry(pairs []ContigBinRecord, quality []QualityRecord) (*BinRegistry, error) {
	return BuildBinRegistryWith(DefaultQualityThresholds, pairs, quality)
}

// BuildBinRegistryWith is BuildBinRegistry with explicit thresholds.
func BuildBinRegistryWith(t QualityThresholds, pairs []ContigBinRecord, quality []QualityRecord) (*BinRegistry, error) {
	reg := NewBinRegistry()
	for _, p := range pairs {
		id := BinID(p.Bin)
		b, ok := reg.bins[id]
		if !ok {
			b = &Bin{ID: id}
			reg.bins[id] = b
		}
		b.Contigs = append(b.Contigs, ContigAssignment{ContigID: ContigID(p.Contig)})
	}
	if len(reg.bins) == 0 {
		return nil, &NoBinsError{Records: len(pairs)}
	}

	if len(quality) == 0 {
		return reg, nil
	}
	matched := 0
	names := make(map[string]struct{}, len(quality))
	for _, q := range quality {
		names[q.Bin] = struct{}{}
		b, ok := reg.bins[BinID(q.Bin)]
		if !ok {
			continue
		}
		if b.Quality == nil {
			matched++
		}
		b.SetQuality(t, q.Completeness, q.Contamination)
	}
	if matched == 0 {
		return nil, &QualityOverlapError{QualityBins: len(names), Bins: len(reg.bins)}
	}
	return reg, nil
}

// Len returns the number of bins.
func (r *BinRegistry) Len() int { return len(r.bins) }

// IDs returns bin ids in lexicographic order.
func (r *BinRegistry) IDs() []BinID {
	out := make([]BinID, 0, len(r.bins))
	for id := range r.bins {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Get returns a copy of the bin.
func (r *BinRegistry) Get(id BinID) (*Bin, bool) {
	b, ok := r.bins[id]
	if !ok {
		return nil, false
	}
	return b.Clone(), true
}

// Bins returns copies of every bin in lexicographic order. When qualities is
// non-empty only bins labelled with one of them are returned.
func (r *BinRegistry) Bins(qualities ...Quality) []*Bin {
	out := make([]*Bin, 0, len(r.bins))
	for _, id := range r.IDs() {
		b := r.bins[id]
		if len(qualities) > 0 && (b.Quality == nil || !slices.Contains(qualities, *b.Quality)) {
			continue
		}
		out = append(out, b.Clone())
	}
	return out
}

// ContigIDs returns every contig id referenced by any bin, deduplicated and
// sorted.
func (r *BinRegistry) ContigIDs() []ContigID {
	seen := make(map[ContigID]struct{})
	for _, b := range r.bins {
		for _, c := range b.Contigs {
			seen[c.ContigID] = struct{}{}
		}
	}
	out := make([]ContigID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Update replaces the assignment list of a bin. The new list must name
// exactly the contigs already in the bin; otherwise a MetadataMismatchError
// is returned and nothing changes. An unknown bin is created without quality
// estimates. Empty ids and ids holding tabs or line breaks fail with an
// InvalidIDError.
func (r *BinRegistry) Update(id BinID, assignments []ContigAssignment) error {
	if err := validateID("bin id", string(id)); err != nil {
		return err
	}
	for _, c := range assignments {
		if err := validateID("contig id", string(c.ContigID)); err != nil {
			return err
		}
	}
	b, ok := r.bins[id]
	if !ok {
		r.bins[id] = &Bin{ID: id, Contigs: slices.Clone(assignments)}
		return nil
	}
	if !sameContigSet(b.Contigs, assignments) {
		return &MetadataMismatchError{Bin: id, Stored: len(b.Contigs), Received: len(assignments)}
	}
	b.Contigs = slices.Clone(assignments)
	return nil
}

func sameContigSet(stored, received []ContigAssignment) bool {
	if len(stored) != len(received) {
		return false
	}
	set := make(map[ContigID]struct{}, len(received))
	for _, c := range received {
		set[c.ContigID] = struct{}{}
	}
	if len(set) != len(received) {
		return false
	}
	for _, c := range stored {
		if _, ok := set[c.ContigID]; !ok {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the registry.
func (r *BinRegistry) Clone() *BinRegistry {
	cp := NewBinRegistry()
	for id, b := range r.bins {
		cp.bins[id] = b.Clone()
	}
	return cp
}

// AssignmentRecord is the flat persisted form of one contig of one bin. The
// bin's quality fields are repeated on every row.
type AssignmentRecord struct {
	BinID         BinID
	ContigID      ContigID
	Assignment    Assignment
	Completeness  *float64
	Contamination *float64
	Quality       *Quality
}

// Records flattens the registry in bin-then-contig order.
func (r *BinRegistry) Records() []AssignmentRecord {
	var out []AssignmentRecord
	for _, id := range r.IDs() {
		b := r.bins[id]
		for _, c := range b.Contigs {
			out = append(out, AssignmentRecord{
				BinID:         b.ID,
				ContigID:      c.ContigID,
				Assignment:    c.Assignment,
				Completeness:  b.Completeness,
				Contamination: b.Contamination,
				Quality:       b.Quality,
			})
		}
	}
	return out
}

// BinRegistryFromRecords regroups flat records by bin. Contigs keep record
// order; quality fields come from the first record of each bin.
func BinRegistryFromRecords(records []AssignmentRecord) *BinRegistry {
	reg := NewBinRegistry()
	for _, rec := range records {
		b, ok := reg.bins[rec.BinID]
		if !ok {
			b = &Bin{
				ID:            rec.BinID,
				Completeness:  rec.Completeness,
				Contamination: rec.Contamination,
				Quality:       rec.Quality,
			}
			b = b.Clone()
			reg.bins[rec.BinID] = b
		}
		b.Contigs = append(b.Contigs, ContigAssignment{ContigID: rec.ContigID, Assignment: rec.Assignment})
	}
	return reg
}

// BinSummary counts a bin's contigs per assignment.
type BinSummary struct {
	ID            BinID          `json:"id"`
	Contigs       int            `json:"contigs"`
	Assignments   map[string]int `json:"assignments"`
	Completeness  *float64       `json:"completeness"`
	Contamination *float64       `json:"contamination"`
	Quality       *Quality       `json:"quality"`
}

// Summarize returns a summary of b.
func Summarize(b *Bin) BinSummary {
	s := BinSummary{
		ID:            b.ID,
		Contigs:       len(b.Contigs),
		Assignments:   make(map[string]int, len(Assignments)),
		Completeness:  b.Completeness,
		Contamination: b.Contamination,
		Quality:       b.Quality,
	}
	for _, a := range Assignments {
		s.Assignments[a.Code()] = 0
	}
	for _, c := range b.Contigs {
		s.Assignments[c.Assignment.Code()]++
	}
	return s
}
