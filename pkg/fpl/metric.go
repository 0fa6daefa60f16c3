package fpl

import (
	"encoding/json"
	"fmt"
)

// Metric is a per-game figure or ratio that is undefined when nothing contributed to it.
// An undefined Metric is never treated as zero
type Metric struct {
	Float64 float64
	Valid   bool
}

// Defined returns a valid Metric holding v
func Defined(v float64) Metric {
	return Metric{Float64: v, Valid: true}
}

// Undefined returns the "no data" Metric
func Undefined() Metric {
	return Metric{}
}

// Get returns the value and whether it is defined
func (m Metric) Get() (float64, bool) {
	return m.Float64, m.Valid
}

// ratio divides m by a league average. The result is undefined unless m is defined
// and the denominator is positive
func (m Metric) ratio(denominator float64) Metric {
	if !m.Valid || denominator <= 0 {
		return Undefined()
	}
	return Defined(m.Float64 / denominator)
}

func (m Metric) String() string {
	if !m.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", m.Float64)
}

// MarshalJSON writes undefined metrics as null
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Float64)
}

// UnmarshalJSON reads null as undefined
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Undefined()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to decode metric: %w", err)
	}
	*m = Defined(v)
	return nil
}
