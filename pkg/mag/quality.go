package mag

import (
	"encoding/json"
	"fmt"
)

// Quality is the three-level genome quality label of a bin.
type Quality uint8

const (
	// HQ is a high quality draft.
	HQ Quality = iota + 1
	// MQ is a medium quality draft.
	MQ
	// LQ is everything below MQ.
	LQ
)

// Code returns the persisted label.
func (q Quality) Code() string {
	switch q {
	case HQ:
		return "HQ"
	case MQ:
		return "MQ"
	case LQ:
		return "LQ"
	}
	return fmt.Sprintf("Quality(%d)", uint8(q))
}

func (q Quality) String() string { return q.Code() }

// ParseQuality is the inverse of Code.
func ParseQuality(s string) (Quality, error) {
	switch s {
	case "HQ":
		return HQ, nil
	case "MQ":
		return MQ, nil
	case "LQ":
		return LQ, nil
	}
	return 0, fmt.Errorf("could not convert %q to BinQuality", s)
}

func (q Quality) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Code())
}

func (q *Quality) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseQuality(s)
	if err != nil {
		return err
	}
	*q = v
	return nil
}

// Classification bounds, in percent.
const (
	HQMinCompleteness  = 90.0 // exclusive
	HQMaxContamination = 5.0  // exclusive
	MQMinCompleteness  = 50.0 // exclusive
	MQMaxContamination = 10.0 // inclusive
)

// QualityThresholds holds the bounds used by Classify. The Inclusive flags
// select between the strict and non-strict comparison for each bound.
type QualityThresholds struct {
	HQMinCompleteness  float64
	HQMaxContamination float64
	MQMinCompleteness  float64
	MQMaxContamination float64

	HQCompletenessInclusive  bool
	HQContaminationInclusive bool
	MQCompletenessInclusive  bool
	MQContaminationInclusive bool
}

// DefaultQualityThresholds: HQ if completeness > 90 and contamination < 5,
// MQ if completeness > 50 and contamination <= 10, LQ otherwise.
var DefaultQualityThresholds = QualityThresholds{
	HQMinCompleteness:        HQMinCompleteness,
	HQMaxContamination:       HQMaxContamination,
	MQMinCompleteness:        MQMinCompleteness,
	MQMaxContamination:       MQMaxContamination,
	MQContaminationInclusive: true,
}

func above(v, bound float64, inclusive bool) bool {
	if inclusive {
		return v >= bound
	}
	return v > bound
}

func below(v, bound float64, inclusive bool) bool {
	if inclusive {
		return v <= bound
	}
	return v < bound
}

// Classify derives the quality label from completeness and contamination.
func (t QualityThresholds) Classify(completeness, contamination float64) Quality {
	switch {
	case above(completeness, t.HQMinCompleteness, t.HQCompletenessInclusive) &&
		below(contamination, t.HQMaxContamination, t.HQContaminationInclusive):
		return HQ
	case above(completeness, t.MQMinCompleteness, t.MQCompletenessInclusive) &&
		below(contamination, t.MQMaxContamination, t.MQContaminationInclusive):
		return MQ
	default:
		return LQ
	}
}

// ClassifyQuality classifies with DefaultQualityThresholds.
func ClassifyQuality(completeness, contamination float64) Quality {
	return DefaultQualityThresholds.Classify(completeness, contamination)
}
