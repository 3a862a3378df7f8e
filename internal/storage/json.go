package storage

import (
	"encoding/json"
	"math"
)

// Metrics is a metric table whose NaN and ±Inf values, common in diverged
// runs, are stored as JSON null and read back as NaN.
type Metrics map[string]float64

func (m Metrics) MarshalJSON() ([]byte, error) {
	out := make(map[string]*float64, len(m))
	for name, v := range m {
		out[name] = finite(v)
	}
	return json.Marshal(out)
}

func (m *Metrics) UnmarshalJSON(data []byte) error {
	var raw map[string]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = make(Metrics, len(raw))
	for name, v := range raw {
		(*m)[name] = orNaN(v)
	}
	return nil
}

// Series is a signal column with the same null encoding as Metrics.
type Series []float64

func (s Series) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	out := make([]*float64, len(s))
	for i, v := range s {
		out[i] = finite(v)
	}
	return json.Marshal(out)
}

func (s *Series) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = nil
		return nil
	}
	*s = make(Series, len(raw))
	for i, v := range raw {
		(*s)[i] = orNaN(v)
	}
	return nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
