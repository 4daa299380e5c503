package algorithm

import (
	"math"
	"slices"
)

// StatisticalSummary describes the distribution of a node property, used by
// the stats mode of the algorithms.
type StatisticalSummary struct {
	Count  int64   `json:"count" yaml:"count"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stdDev" yaml:"stdDev"`
	P50    float64 `json:"p50" yaml:"p50"`
	P75    float64 `json:"p75" yaml:"p75"`
	P90    float64 `json:"p90" yaml:"p90"`
	P95    float64 `json:"p95" yaml:"p95"`
	P99    float64 `json:"p99" yaml:"p99"`
	P999   float64 `json:"p999" yaml:"p999"`
}

// SummarizeValues returns the statistical summary of values, NaN values are
// ignored.
func SummarizeValues(values []float64) StatisticalSummary {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return StatisticalSummary{}
	}
	slices.Sort(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var sq float64
	for _, v := range sorted {
		sq += (v - mean) * (v - mean)
	}

	return StatisticalSummary{
		Count:  int64(len(sorted)),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		StdDev: math.Sqrt(sq / float64(len(sorted))),
		P50:    percentile(sorted, 50),
		P75:    percentile(sorted, 75),
		P90:    percentile(sorted, 90),
		P95:    percentile(sorted, 95),
		P99:    percentile(sorted, 99),
		P999:   percentile(sorted, 99.9),
	}
}

// percentile uses the nearest rank method on sorted values.
func percentile(sorted []float64, p float64) float64 {
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
