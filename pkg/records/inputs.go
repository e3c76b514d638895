// Package records reads and writes the tab separated files a project is
// built from: per-contig methylation statistics, the contig to bin mapping,
// CheckM2 quality reports and the persisted contig assignments.
package records

import (
	"errors"
	"io"

	"github.com/jlrickert/contammap/pkg/mag"
)

// Methylation column names.
const (
	ColContig               = "contig"
	ColMotif                = "motif"
	ColModType              = "mod_type"
	ColModPosition          = "mod_position"
	ColMethylationValue     = "methylation_value"
	ColMeanReadCov          = "mean_read_cov"
	ColNMotifObs            = "n_motif_obs"
	ColMotifOccurencesTotal = "motif_occurences_total"
)

// Contig-bin and CheckM2 column names.
const (
	ColBin           = "bin"
	ColName          = "Name"
	ColCompleteness  = "Completeness"
	ColContamination = "Contamination"
)

// ReadMethylation decodes every methylation row of r. Any malformed row
// aborts the read with a *mag.RecordError naming the row and field.
func ReadMethylation(source string, r io.Reader) ([]mag.MethylationRecord, error) {
	t, err := newTable(source, r)
	if err != nil {
		return nil, err
	}
	var idx [8]int
	for i, name := range []string{
		ColContig, ColMotif, ColModType, ColModPosition,
		ColMethylationValue, ColMeanReadCov, ColNMotifObs, ColMotifOccurencesTotal,
	} {
		if idx[i], err = t.column(name); err != nil {
			return nil, err
		}
	}

	var out []mag.MethylationRecord
	for {
		rw, err := t.next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		rec, err := decodeMethylation(rw, idx)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

func decodeMethylation(rw row, idx [8]int) (mag.MethylationRecord, error) {
	var (
		rec mag.MethylationRecord
		err error
	)
	if rec.Contig, err = rw.required(ColContig, idx[0]); err != nil {
		return rec, err
	}
	if rec.Motif, err = rw.required(ColMotif, idx[1]); err != nil {
		return rec, err
	}
	if rec.ModType, err = rw.required(ColModType, idx[2]); err != nil {
		return rec, err
	}
	pos, err := rw.uint(ColModPosition, idx[3], 8)
	if err != nil {
		return rec, err
	}
	rec.ModPosition = uint8(pos)
	if rec.MethylationValue, err = rw.float(ColMethylationValue, idx[4]); err != nil {
		return rec, err
	}
	if rec.MeanReadCov, err = rw.float(ColMeanReadCov, idx[5]); err != nil {
		return rec, err
	}
	nobs, err := rw.uint(ColNMotifObs, idx[6], 32)
	if err != nil {
		return rec, err
	}
	rec.NMotifObs = uint32(nobs)
	total, err := rw.uint(ColMotifOccurencesTotal, idx[7], 32)
	if err != nil {
		return rec, err
	}
	rec.MotifOccurencesTotal = uint32(total)
	return rec, nil
}

// ReadContigBins decodes a contig to bin mapping.
func ReadContigBins(source string, r io.Reader) ([]mag.ContigBinRecord, error) {
	t, err := newTable(source, r)
	if err != nil {
		return nil, err
	}
	ci, err := t.column(ColContig)
	if err != nil {
		return nil, err
	}
	bi, err := t.column(ColBin)
	if err != nil {
		return nil, err
	}

	var out []mag.ContigBinRecord
	for {
		rw, err := t.next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		contig, err := rw.required(ColContig, ci)
		if err != nil {
			return nil, err
		}
		bin, err := rw.required(ColBin, bi)
		if err != nil {
			return nil, err
		}
		out = append(out, mag.ContigBinRecord{Contig: contig, Bin: bin})
	}
}

// ReadQuality decodes a CheckM2 quality report. Only the bin name,
// completeness and contamination columns are read.
func ReadQuality(source string, r io.Reader) ([]mag.QualityRecord, error) {
	t, err := newTable(source, r)
	if err != nil {
		return nil, err
	}
	ni, err := t.column(ColName, "bin_name")
	if err != nil {
		return nil, err
	}
	pi, err := t.column(ColCompleteness, "completeness")
	if err != nil {
		return nil, err
	}
	xi, err := t.column(ColContamination, "contamination")
	if err != nil {
		return nil, err
	}

	var out []mag.QualityRecord
	for {
		rw, err := t.next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		name, err := rw.required(ColName, ni)
		if err != nil {
			return nil, err
		}
		comp, err := rw.float(ColCompleteness, pi)
		if err != nil {
			return nil, err
		}
		cont, err := rw.float(ColContamination, xi)
		if err != nil {
			return nil, err
		}
		out = append(out, mag.QualityRecord{Bin: name, Completeness: comp, Contamination: cont})
	}
}
