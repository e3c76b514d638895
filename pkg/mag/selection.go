package mag

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Selection picks the contigs a heatmap query covers. It is either a
// BinSelection or a ContigSelection.
type Selection interface {
	isSelection()
}

// BinSelection selects the contigs of one bin, carrying their assignments.
type BinSelection struct {
	Bin BinID
}

// ContigSelection selects an explicit list of contigs. The ids are not
// validated against any registry.
type ContigSelection struct {
	Contigs []ContigID
}

func (BinSelection) isSelection()    {}
func (ContigSelection) isSelection() {}

// resolvedSelection is the contig list of a selection plus the assignment of
// each contig.
type resolvedSelection struct {
	ids         []ContigID
	assignments map[ContigID]Assignment
}

func (r resolvedSelection) assignment(id ContigID) Assignment {
	return r.assignments[id]
}

func resolveBinSelection(bins *BinRegistry, sel BinSelection) (resolvedSelection, error) {
	if bins == nil {
		return resolvedSelection{}, NewBinNotFoundError(sel.Bin)
	}
	b, ok := bins.bins[sel.Bin]
	if !ok {
		return resolvedSelection{}, NewBinNotFoundError(sel.Bin)
	}
	res := resolvedSelection{
		ids:         make([]ContigID, 0, len(b.Contigs)),
		assignments: make(map[ContigID]Assignment, len(b.Contigs)),
	}
	for _, c := range b.Contigs {
		res.ids = append(res.ids, c.ContigID)
		if _, dup := res.assignments[c.ContigID]; !dup {
			res.assignments[c.ContigID] = c.Assignment
		}
	}
	return res, nil
}

func resolveContigSelection(sel ContigSelection) resolvedSelection {
	// No bin owns these contigs so every assignment stays Unset.
	return resolvedSelection{ids: sel.Contigs}
}

func resolveSelection(bins *BinRegistry, sel Selection) (resolvedSelection, error) {
	switch s := sel.(type) {
	case BinSelection:
		return resolveBinSelection(bins, s)
	case *BinSelection:
		return resolveBinSelection(bins, *s)
	case ContigSelection:
		return resolveContigSelection(s), nil
	case *ContigSelection:
		return resolveContigSelection(*s), nil
	case nil:
		return resolvedSelection{}, errors.New("selection is required")
	}
	return resolvedSelection{}, fmt.Errorf("unsupported selection %T", sel)
}

// selectionJSON is the externally tagged wire form: {"Bin": "b1"} or
// {"Contigs": ["c1", "c2"]}.
type selectionJSON struct {
	Bin     *string   `json:"Bin,omitempty"`
	Contigs *[]string `json:"Contigs,omitempty"`
}

func (s BinSelection) MarshalJSON() ([]byte, error) {
	name := string(s.Bin)
	return json.Marshal(selectionJSON{Bin: &name})
}

func (s ContigSelection) MarshalJSON() ([]byte, error) {
	ids := make([]string, len(s.Contigs))
	for i, c := range s.Contigs {
		ids[i] = string(c)
	}
	return json.Marshal(selectionJSON{Contigs: &ids})
}

// ParseSelection decodes the wire form of a selection.
func ParseSelection(data []byte) (Selection, error) {
	var raw selectionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid selection: %w", err)
	}
	switch {
	case raw.Bin != nil && raw.Contigs != nil:
		return nil, errors.New("invalid selection: set either Bin or Contigs, not both")
	case raw.Bin != nil:
		return BinSelection{Bin: BinID(*raw.Bin)}, nil
	case raw.Contigs != nil:
		ids := make([]ContigID, len(*raw.Contigs))
		for i, c := range *raw.Contigs {
			ids[i] = ContigID(c)
		}
		return ContigSelection{Contigs: ids}, nil
	}
	return nil, errors.New("invalid selection: expected Bin or Contigs")
}
