package chapterpages

import (
	"math"
	"sort"
)

// Stats aggregates chapter lengths in pages.
type Stats struct {
	Count  int     `json:"count"`
	Total  int     `json:"total"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Avg    float64 `json:"avg"`
	Median int     `json:"median"`
	P90    float64 `json:"p90"`
	StdDev float64 `json:"std_dev"`
}

// Summarize computes Stats over the chapter lengths.
func Summarize(chapters []Chapter) Stats {
	if len(chapters) == 0 {
		return Stats{}
	}
	values := make([]int, 0, len(chapters))
	sum := 0
	for _, c := range chapters {
		values = append(values, c.Length)
		sum += c.Length
	}
	sort.Ints(values)

	avg := float64(sum) / float64(len(values))
	var sq float64
	for _, v := range values {
		d := float64(v) - avg
		sq += d * d
	}

	return Stats{
		Count:  len(values),
		Total:  sum,
		Min:    values[0],
		Max:    values[len(values)-1],
		Avg:    avg,
		Median: values[len(values)/2],
		P90:    percentile(values, 90),
		StdDev: math.Sqrt(sq / float64(len(values))),
	}
}

func percentile(sortedValues []int, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}

// Bucket is the number of chapters with a given length.
type Bucket struct {
	Length   int
	Chapters int
	Percent  float64
}

// Distribution groups chapters by length, shortest first.
func Distribution(chapters []Chapter) []Bucket {
	counts := map[int]int{}
	for _, c := range chapters {
		counts[c.Length]++
	}
	out := make([]Bucket, 0, len(counts))
	for length, n := range counts {
		out = append(out, Bucket{
			Length:   length,
			Chapters: n,
			Percent:  float64(n) / float64(len(chapters)) * 100,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Length < out[j].Length })
	return out
}
