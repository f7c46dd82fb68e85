package contracts

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Metric is an optional financial figure
// ⭐ SSOT: "unknown ≠ zero" 표현은 이 타입으로만
// A zero Metric is absent. NaN and ±Inf are never stored.
type Metric struct {
	value   float64
	present bool
}

// Some wraps a known value; non-finite values become absent
func Some(v float64) Metric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Metric{}
	}
	return Metric{value: v, present: true}
}

// None is the absent metric
func None() Metric {
	return Metric{}
}

// FromPtr converts a decoded JSON pointer into a Metric
func FromPtr(v *float64) Metric {
	if v == nil {
		return Metric{}
	}
	return Some(*v)
}

// Get returns the value and whether it is present
func (m Metric) Get() (float64, bool) {
	return m.value, m.present
}

// Present reports whether the value is known
func (m Metric) Present() bool {
	return m.present
}

// Positive reports whether the value is known and > 0
func (m Metric) Positive() bool {
	return m.present && m.value > 0
}

// Or returns the value, or fallback when absent (display only)
func (m Metric) Or(fallback float64) float64 {
	if !m.present {
		return fallback
	}
	return m.value
}

// Scale multiplies a present value; absent stays absent
func (m Metric) Scale(k float64) Metric {
	if !m.present {
		return m
	}
	return Some(m.value * k)
}

// String renders the value or "N/A"
func (m Metric) String() string {
	if !m.present {
		return "N/A"
	}
	return strconv.FormatFloat(m.value, 'f', -1, 64)
}

// MarshalJSON encodes absent as null
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.present {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

// UnmarshalJSON decodes null as absent
func (m *Metric) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = Metric{}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Some(v)
	return nil
}
