package util

import "math"

// ShardBalance describes how evenly keys are spread over the shards of an engine
type ShardBalance struct {
	Min          int     `json:"min"`
	Max          int     `json:"max"`
	Mean         float64 `json:"mean"`
	StdDeviation float64 `json:"std_deviation"`
	// Quality is 1 for a perfectly even spread and approaches 0 the more keys
	// pile up in few shards. It averages 1-cv (capped at 0) and min/max.
	Quality float64 `json:"quality"`
}

// NewShardBalance computes the balance of the given per shard key counts
func NewShardBalance(sizes []int) ShardBalance {
	if len(sizes) == 0 {
		return ShardBalance{}
	}

	b := ShardBalance{Min: sizes[0], Max: sizes[0]}
	total := 0
	for _, n := range sizes {
		total += n
		b.Min = min(b.Min, n)
		b.Max = max(b.Max, n)
	}
	b.Mean = float64(total) / float64(len(sizes))

	var sq float64
	for _, n := range sizes {
		d := float64(n) - b.Mean
		sq += d * d
	}
	b.StdDeviation = math.Sqrt(sq / float64(len(sizes)))

	// an empty engine is perfectly balanced
	if b.Max == 0 {
		b.Quality = 1
		return b
	}
	cv := b.StdDeviation / b.Mean
	b.Quality = (1-math.Min(1, cv))/2 + float64(b.Min)/float64(b.Max)/2
	return b
}
