package balance

import (
	"bytes"
	"encoding/json"

	"nourish/internal/nutrient"
)

// Status classifies one nutrient of a day against its target.
type Status string

const (
	StatusDeficit Status = "deficit"
	StatusOK      Status = "ok"
	StatusExcess  Status = "excess"
	// StatusNoTarget marks intake of a nutrient whose target is zero.
	StatusNoTarget Status = "no_target"
)

// Band limits in percent of target.
const (
	DeficitBelow = 80.0
	ExcessAbove  = 120.0
)

// Entry is the comparison of one nutrient.
type Entry struct {
	Field      nutrient.Field `json:"-"`
	Actual     float64        `json:"actual"`
	Target     float64        `json:"target"`
	Percentage float64        `json:"percentage"`
	Status     Status         `json:"status"`
}

// Report holds one Entry per nutrient field in field order.
type Report []Entry

// Get returns the entry for f.
func (r Report) Get(f nutrient.Field) Entry {
	for _, e := range r {
		if e.Field == f {
			return e
		}
	}
	return Entry{Field: f}
}

// ByStatus returns the entries with status s, in field order.
func (r Report) ByStatus(s Status) []Entry {
	var out []Entry
	for _, e := range r {
		if e.Status == s {
			out = append(out, e)
		}
	}
	return out
}

// MarshalJSON writes the report as an object keyed by field name.
func (r Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(e.Field.String())
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Classify compares a single actual value with its target.
//
// A positive target yields actual/target*100 rounded to one decimal. A zero
// target yields 0 % for zero intake (a deficit) and a 100 % placeholder with
// StatusNoTarget for any positive intake.
func Classify(actual, target float64) (percentage float64, status Status) {
	if target <= 0 {
		if actual == 0 {
			return 0, StatusDeficit
		}
		return 100, StatusNoTarget
	}
	percentage = nutrient.RoundTo(actual/target*100, 1)
	return percentage, bandStatus(percentage)
}

func bandStatus(pct float64) Status {
	switch {
	case pct < DeficitBelow:
		return StatusDeficit
	case pct > ExcessAbove:
		return StatusExcess
	default:
		return StatusOK
	}
}

// Deficits compares every nutrient of actual with target.
func Deficits(actual, target nutrient.Profile) Report {
	fields := nutrient.Fields()
	report := make(Report, 0, len(fields))
	for _, f := range fields {
		a, t := actual.Get(f), target.Get(f)
		pct, status := Classify(a, t)
		report = append(report, Entry{
			Field:      f,
			Actual:     nutrient.RoundTo(a, 2),
			Target:     nutrient.RoundTo(t, 2),
			Percentage: pct,
			Status:     status,
		})
	}
	return report
}
