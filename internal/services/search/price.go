package search

import (
	"sort"

	"precificador/internal/domain"
)

// PriceReference summarizes the unit prices of the consolidated candidates.
// It returns nil when no candidate carries a price.
func PriceReference(c Consolidation) *domain.PriceReference {
	var prices []float64
	var sources []string
	units := map[string]int{}
	for _, cand := range c.Candidates {
		if cand.UnitPrice == nil || *cand.UnitPrice <= 0 {
			continue
		}
		prices = append(prices, *cand.UnitPrice)
		if cand.SourceID != "" {
			sources = append(sources, cand.SourceID)
		}
		if cand.Unit != "" {
			units[cand.Unit]++
		}
	}
	if len(prices) == 0 {
		return nil
	}
	sort.Float64s(prices)
	sum := 0.0
	for _, p := range prices {
		sum += p
	}
	n := len(prices)
	median := prices[n/2]
	if n%2 == 0 {
		median = (prices[n/2-1] + prices[n/2]) / 2
	}
	return &domain.PriceReference{
		MatchType: c.MatchType,
		Samples:   n,
		Unit:      dominant(units),
		Min:       prices[0],
		Max:       prices[n-1],
		Mean:      sum / float64(n),
		Median:    median,
		Sources:   sources,
	}
}

func dominant(counts map[string]int) string {
	best, bestN := "", 0
	for u, n := range counts {
		if n > bestN || (n == bestN && u < best) {
			best, bestN = u, n
		}
	}
	return best
}
