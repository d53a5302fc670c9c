package stats

import (
	"encoding/json"
	"errors"
	"math"
)

// ErrEmptyInput is returned when an average or ratio has a zero denominator.
var ErrEmptyInput = errors.New("stats: empty input")

// Metric is a derived number that may be undefined. An undefined metric
// marshals to JSON null.
type Metric struct {
	Value float64
	Valid bool
}

// Some wraps v as a defined metric. NaN and infinities are treated as undefined.
func Some(v float64) Metric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Metric{}
	}
	return Metric{Value: v, Valid: true}
}

// None is the undefined metric.
func None() Metric { return Metric{} }

// Or returns the value, or def when the metric is undefined.
func (m Metric) Or(def float64) float64 {
	if !m.Valid {
		return def
	}
	return m.Value
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m *Metric) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Metric{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*m = Some(v)
	return nil
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyInput
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// MeanMetric is Mean with the error folded into an undefined Metric.
func MeanMetric(values []float64) Metric {
	m, err := Mean(values)
	if err != nil {
		return None()
	}
	return Some(m)
}

// Ratio returns num/den, or ErrEmptyInput when den is zero.
func Ratio(num, den float64) (float64, error) {
	if den == 0 {
		return 0, ErrEmptyInput
	}
	return num / den, nil
}
