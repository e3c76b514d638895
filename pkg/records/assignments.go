package records

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jlrickert/contammap/pkg/mag"
)

// AssignmentHeader is the column order of the persisted assignment file.
var AssignmentHeader = []string{
	"bin_id", "contig_id", "assignment", "completeness", "contamination", "quality",
}

// EncodeAssignments serializes records to the canonical assignment TSV. Rows
// are written in the given order. Absent optionals are empty fields and
// floats use their shortest exact representation, so decoding and
// re-encoding yields identical bytes.
func EncodeAssignments(recs []mag.AssignmentRecord) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(AssignmentHeader, "\t"))
	b.WriteByte('\n')
	for _, r := range recs {
		b.WriteString(string(r.BinID))
		b.WriteByte('\t')
		b.WriteString(string(r.ContigID))
		b.WriteByte('\t')
		b.WriteString(r.Assignment.Code())
		b.WriteByte('\t')
		b.WriteString(formatOptional(r.Completeness))
		b.WriteByte('\t')
		b.WriteString(formatOptional(r.Contamination))
		b.WriteByte('\t')
		if r.Quality != nil {
			b.WriteString(r.Quality.Code())
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// WriteAssignments writes the canonical encoding of recs to w.
func WriteAssignments(w io.Writer, recs []mag.AssignmentRecord) error {
	if _, err := w.Write(EncodeAssignments(recs)); err != nil {
		return fmt.Errorf("write assignments: %w", err)
	}
	return nil
}

// ReadAssignments decodes an assignment TSV in file order.
func ReadAssignments(source string, r io.Reader) ([]mag.AssignmentRecord, error) {
	t, err := newTable(source, r)
	if err != nil {
		return nil, err
	}
	var idx [6]int
	for i, name := range AssignmentHeader {
		if idx[i], err = t.column(name); err != nil {
			return nil, err
		}
	}

	var out []mag.AssignmentRecord
	for {
		rw, err := t.next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		rec, err := decodeAssignment(rw, idx)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

func decodeAssignment(rw row, idx [6]int) (mag.AssignmentRecord, error) {
	var rec mag.AssignmentRecord
	bin, err := rw.required("bin_id", idx[0])
	if err != nil {
		return rec, err
	}
	contig, err := rw.required("contig_id", idx[1])
	if err != nil {
		return rec, err
	}
	code, err := rw.required("assignment", idx[2])
	if err != nil {
		return rec, err
	}
	a, err := mag.ParseAssignment(code)
	if err != nil {
		return rec, rw.fail("assignment", code, err)
	}
	rec = mag.AssignmentRecord{BinID: mag.BinID(bin), ContigID: mag.ContigID(contig), Assignment: a}

	if rec.Completeness, err = rw.optionalFloat("completeness", idx[3]); err != nil {
		return rec, err
	}
	if rec.Contamination, err = rw.optionalFloat("contamination", idx[4]); err != nil {
		return rec, err
	}
	q, err := rw.str("quality", idx[5])
	if err != nil {
		// A trailing empty quality column may be stripped by editors.
		q = ""
	}
	if q != "" {
		parsed, err := mag.ParseQuality(q)
		if err != nil {
			return rec, rw.fail("quality", q, err)
		}
		rec.Quality = &parsed
	}
	return rec, nil
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
