package thermal

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises the valid readings of a line profile. All values are °C.
type Stats struct {
	Samples int     `json:"samples"`
	Valid   int     `json:"valid"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	P50     float64 `json:"p50"`
	P95     float64 `json:"p95"`
}

// Summarize computes profile statistics over the valid samples only. When no
// sample is valid the numeric fields stay zero and Valid reports 0.
func Summarize(samples []Sample) Stats {
	s := Stats{Samples: len(samples)}
	xs := make([]float64, 0, len(samples))
	for _, sm := range samples {
		if sm.Valid {
			xs = append(xs, sm.Celsius)
		}
	}
	s.Valid = len(xs)
	if len(xs) == 0 {
		return s
	}
	sort.Float64s(xs)
	s.Min = floats.Min(xs)
	s.Max = floats.Max(xs)
	s.Mean = stat.Mean(xs, nil)
	s.P50 = stat.Quantile(0.5, stat.Empirical, xs, nil)
	s.P95 = stat.Quantile(0.95, stat.Empirical, xs, nil)
	return s
}
