package records

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jlrickert/contammap/pkg/mag"
)

const maxLineSize = 4 << 20

// table is a header-indexed tab separated reader. Columns are looked up by
// header name so extra columns and column order do not matter.
type table struct {
	source string
	sc     *bufio.Scanner
	cols   map[string]int
	header int
	line   int
}

func newTable(source string, r io.Reader) (*table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	t := &table{source: source, sc: sc, cols: map[string]int{}}

	for sc.Scan() {
		t.line++
		ln := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(ln) == "" {
			continue
		}
		for i, name := range strings.Split(ln, "\t") {
			name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
			if _, dup := t.cols[name]; !dup {
				t.cols[name] = i
			}
		}
		t.header = t.line
		return t, nil
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return nil, mag.NewRecordError(source, 0, "header", "", fmt.Errorf("missing header row"))
}

// column returns the index of the first header name present.
func (t *table) column(names ...string) (int, error) {
	for _, n := range names {
		if i, ok := t.cols[n]; ok {
			return i, nil
		}
	}
	return 0, mag.NewRecordError(t.source, t.header, names[0], "", fmt.Errorf("missing column"))
}

// next returns the fields of the next non-blank row, or io.EOF.
func (t *table) next() (row, error) {
	for t.sc.Scan() {
		t.line++
		ln := strings.TrimRight(t.sc.Text(), "\r")
		if strings.TrimSpace(ln) == "" {
			continue
		}
		return row{t: t, line: t.line, fields: strings.Split(ln, "\t")}, nil
	}
	if err := t.sc.Err(); err != nil {
		return row{}, fmt.Errorf("read %s: %w", t.source, err)
	}
	return row{}, io.EOF
}

type row struct {
	t      *table
	line   int
	fields []string
}

func (r row) fail(field, value string, cause error) error {
	return mag.NewRecordError(r.t.source, r.line, field, value, cause)
}

func (r row) str(field string, i int) (string, error) {
	if i >= len(r.fields) {
		return "", r.fail(field, "", fmt.Errorf("missing field"))
	}
	return strings.TrimSpace(r.fields[i]), nil
}

func (r row) required(field string, i int) (string, error) {
	v, err := r.str(field, i)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", r.fail(field, v, fmt.Errorf("empty value"))
	}
	return v, nil
}

func (r row) float(field string, i int) (float64, error) {
	v, err := r.required(field, i)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, r.fail(field, v, err)
	}
	return f, nil
}

func (r row) uint(field string, i int, bits int) (uint64, error) {
	v, err := r.required(field, i)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil {
		return 0, r.fail(field, v, err)
	}
	return n, nil
}

// optionalFloat parses an empty field as nil.
func (r row) optionalFloat(field string, i int) (*float64, error) {
	v, err := r.str(field, i)
	if err != nil || v == "" {
		return nil, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, r.fail(field, v, err)
	}
	return &f, nil
}
