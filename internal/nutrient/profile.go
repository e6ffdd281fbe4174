// Package nutrient defines the fixed-shape nutrient profile shared by food
// records, consumed items, daily aggregates and targets.
package nutrient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Profile is an immutable set of non-negative nutrient amounts. Every
// profile carries every field; missing data is zero.
type Profile struct {
	values [numFields]float64
}

// New builds a profile from the given field values. Unset fields are zero.
func New(values map[Field]float64) Profile {
	var p Profile
	for f, v := range values {
		if f < 0 || f >= numFields {
			continue
		}
		p.values[f] = clean(v)
	}
	return p
}

// FromMap builds a profile from a decoded JSON object keyed by field name.
// Unknown keys and non-numeric values are ignored.
func FromMap(raw map[string]any) Profile {
	var p Profile
	for key, v := range raw {
		f, ok := ParseField(key)
		if !ok {
			continue
		}
		if n, ok := Number(v); ok {
			p.values[f] = clean(n)
		}
	}
	return p
}

// Get returns the value of a single field.
func (p Profile) Get(f Field) float64 {
	if f < 0 || f >= numFields {
		return 0
	}
	return p.values[f]
}

// Add returns the field-wise sum of p and o.
func (p Profile) Add(o Profile) Profile {
	for i := range p.values {
		p.values[i] += o.values[i]
	}
	return p
}

// Multiply returns p with every field multiplied by factor.
func (p Profile) Multiply(factor float64) Profile {
	for i := range p.values {
		p.values[i] = clean(p.values[i] * factor)
	}
	return p
}

// Divide returns p with every field divided by d. A zero divisor yields the
// zero profile.
func (p Profile) Divide(d float64) Profile {
	if d == 0 {
		return Profile{}
	}
	for i := range p.values {
		p.values[i] = clean(p.values[i] / d)
	}
	return p
}

// Round returns p with every field rounded to the given number of decimals.
func (p Profile) Round(places int) Profile {
	for i := range p.values {
		p.values[i] = RoundTo(p.values[i], places)
	}
	return p
}

// IsZero reports whether every field is zero.
func (p Profile) IsZero() bool {
	return p == Profile{}
}

// Map returns the profile as a field-name keyed map.
func (p Profile) Map() map[string]float64 {
	m := make(map[string]float64, numFields)
	for f := Field(0); f < numFields; f++ {
		m[f.String()] = p.values[f]
	}
	return m
}

// Sum adds all profiles field-wise. The sum of nothing is the zero profile.
func Sum(profiles ...Profile) Profile {
	var total Profile
	for _, p := range profiles {
		total = total.Add(p)
	}
	return total
}

// MarshalJSON writes all fields in canonical order.
func (p Profile) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for f := Field(0); f < numFields; f++ {
		if f > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(f.String())
		buf.WriteString(`":`)
		buf.Write(strconv.AppendFloat(nil, p.values[f], 'f', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts any JSON object; see FromMap for the tolerated shapes.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode nutrient profile: %w", err)
	}
	*p = FromMap(raw)
	return nil
}

// Decode parses a stored nutrient blob. A blob that is not a JSON object
// yields the zero profile and false so that a single corrupt record cannot
// abort an aggregation.
func Decode(data []byte) (Profile, bool) {
	var p Profile
	if err := p.UnmarshalJSON(data); err != nil {
		return Profile{}, false
	}
	return p, true
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

func clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Number converts a decoded JSON value into a float. Strings, booleans and
// nulls are not numbers.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
