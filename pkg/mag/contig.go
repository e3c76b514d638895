package mag

import (
	"slices"
	"sort"
)

// ContigID is the unique name of an assembled contig.
type ContigID string

// MethylationRecord is one row of the per-contig motif methylation table.
type MethylationRecord struct {
	Contig               string
	Motif                string
	ModType              string
	ModPosition          uint8
	MethylationValue     float64
	MeanReadCov          float64
	NMotifObs            uint32
	MotifOccurencesTotal uint32
}

// MotifSignature is the aggregated methylation observation of one contig at
// one motif.
type MotifSignature struct {
	Motif            MotifKey
	MethylationValue float64
	NObs             uint32
	MeanCoverage     float64
}

// Contig holds the motif signatures recorded for a contig and the derived
// mean coverage across them.
type Contig struct {
	ID         ContigID
	signatures map[MotifKey]MotifSignature

	meanCoverage float64
	hasCoverage  bool
}

// NewContig builds a contig from signatures. Later signatures for the same
// motif replace earlier ones.
func NewContig(id ContigID, sigs ...MotifSignature) *Contig {
	c := &Contig{ID: id, signatures: make(map[MotifKey]MotifSignature, len(sigs))}
	for _, s := range sigs {
		c.signatures[s.Motif] = s
	}
	c.deriveMeanCoverage()
	return c
}

// deriveMeanCoverage recomputes the unweighted mean of the signature
// coverages. Must run after every change to the signature set.
func (c *Contig) deriveMeanCoverage() {
	if len(c.signatures) == 0 {
		c.meanCoverage, c.hasCoverage = 0, false
		return
	}
	// Summed in motif order so the float result does not depend on map
	// iteration.
	var total float64
	for _, m := range c.Motifs() {
		total += c.signatures[m].MeanCoverage
	}
	c.meanCoverage = total / float64(len(c.signatures))
	c.hasCoverage = true
}

// MeanCoverage returns the mean coverage and false when the contig has no
// signatures.
func (c *Contig) MeanCoverage() (float64, bool) {
	return c.meanCoverage, c.hasCoverage
}

// Signature returns the signature recorded for motif.
func (c *Contig) Signature(motif MotifKey) (MotifSignature, bool) {
	s, ok := c.signatures[motif]
	return s, ok
}

// Len returns the number of motifs observed on the contig.
func (c *Contig) Len() int { return len(c.signatures) }

// Motifs returns the contig's motifs sorted by name.
func (c *Contig) Motifs() []MotifKey {
	out := make([]MotifKey, 0, len(c.signatures))
	for k := range c.signatures {
		out = append(out, k)
	}
	sortMotifs(out)
	return out
}

// ContigRegistry maps contig ids to contigs and tracks every motif observed
// in the methylation input. It is immutable once built.
type ContigRegistry struct {
	contigs map[ContigID]*Contig
	motifs  map[MotifKey]struct{}
}

// BuildContigRegistry consumes methylation records. A record whose motif
// cannot be parsed aborts the whole build.
func BuildContigRegistry(records []MethylationRecord) (*ContigRegistry, error) {
	reg := &ContigRegistry{
		contigs: make(map[ContigID]*Contig),
		motifs:  make(map[MotifKey]struct{}),
	}
	for _, rec := range records {
		motif, err := ParseMotif(rec.Motif, rec.ModType, rec.ModPosition)
		if err != nil {
			return nil, err
		}
		reg.motifs[motif] = struct{}{}

		id := ContigID(rec.Contig)
		c, ok := reg.contigs[id]
		if !ok {
			c = &Contig{ID: id, signatures: make(map[MotifKey]MotifSignature)}
			reg.contigs[id] = c
		}
		c.signatures[motif] = MotifSignature{
			Motif:            motif,
			MethylationValue: rec.MethylationValue,
			NObs:             rec.NMotifObs,
			MeanCoverage:     rec.MeanReadCov,
		}
	}
	for _, c := range reg.contigs {
		c.deriveMeanCoverage()
	}
	return reg, nil
}

// Get looks up a contig. Unknown contigs are not an error.
func (r *ContigRegistry) Get(id ContigID) (*Contig, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.contigs[id]
	return c, ok
}

// MeanCoverage returns the contig's mean coverage, or 0 when the contig is
// unknown or has no signatures.
func (r *ContigRegistry) MeanCoverage(id ContigID) float64 {
	c, ok := r.Get(id)
	if !ok {
		return 0
	}
	cov, _ := c.MeanCoverage()
	return cov
}

// Len returns the number of contigs.
func (r *ContigRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.contigs)
}

// IDs returns every contig id in lexicographic order.
func (r *ContigRegistry) IDs() []ContigID {
	if r == nil {
		return nil
	}
	out := make([]ContigID, 0, len(r.contigs))
	for id := range r.contigs {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Motifs returns the project-wide motif set sorted by name.
func (r *ContigRegistry) Motifs() []MotifKey {
	if r == nil {
		return nil
	}
	out := make([]MotifKey, 0, len(r.motifs))
	for k := range r.motifs {
		out = append(out, k)
	}
	sortMotifs(out)
	return out
}

// sortMotifs orders motifs by their rendered name.
func sortMotifs(motifs []MotifKey) {
	sort.Slice(motifs, func(i, j int) bool {
		return motifs[i].String() < motifs[j].String()
	})
}
