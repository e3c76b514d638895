package mag

import (
	"encoding/json"
	"fmt"
)

// Assignment is the human contamination call for a contig within a bin.
type Assignment uint8

const (
	// Unset is the default; no call has been made.
	Unset Assignment = iota
	// Clean marks a contig that belongs in its bin.
	Clean
	// Contamination marks a contig that does not belong in its bin.
	Contamination
	// Ambiguous marks a contig whose placement cannot be decided.
	Ambiguous
)

// Assignments lists every assignment in declaration order.
var Assignments = []Assignment{Unset, Clean, Contamination, Ambiguous}

// Code returns the stable string used in persisted and transported records.
func (a Assignment) Code() string {
	switch a {
	case Unset:
		return "None"
	case Clean:
		return "Clean"
	case Contamination:
		return "Contamination"
	case Ambiguous:
		return "Ambiguous"
	}
	return fmt.Sprintf("Assignment(%d)", uint8(a))
}

func (a Assignment) String() string { return a.Code() }

// ParseAssignment is the inverse of Code.
func ParseAssignment(s string) (Assignment, error) {
	switch s {
	case "None":
		return Unset, nil
	case "Clean":
		return Clean, nil
	case "Contamination":
		return Contamination, nil
	case "Ambiguous":
		return Ambiguous, nil
	}
	return Unset, fmt.Errorf("could not convert %q to Assignment", s)
}

func (a Assignment) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Code())
}

func (a *Assignment) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseAssignment(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ContigAssignment is one contig entry of a bin.
type ContigAssignment struct {
	ContigID   ContigID   `json:"contig_id"`
	Assignment Assignment `json:"assignment"`
}
