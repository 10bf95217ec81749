// Package analytics derives summary statistics from ranked results and
// tracks how those statistics move over time.
package analytics

import (
	"sort"

	"github.com/okian/merch/internal/domain/model"
)

const topBrandsLimit = 5

// BrandCount is the number of ranked entries carrying a brand.
type BrandCount struct {
	Brand string `json:"brand"`
	Count int    `json:"count"`
}

// Summary aggregates one ranked result.
type Summary struct {
	TotalProducts   int            `json:"total_products"`
	TotalRevenue    float64        `json:"total_revenue_last_month"`
	AverageScore    float64        `json:"average_merchandising_score"`
	BrandTierCounts map[string]int `json:"brand_tier_distribution"`
	TopBrands       []BrandCount   `json:"top_brands"`
}

// Summarize aggregates entries. An empty input yields a zero Summary with
// empty, non-nil collections.
func Summarize(entries []model.RankedEntry) Summary {
	s := Summary{
		TotalProducts:   len(entries),
		BrandTierCounts: make(map[string]int),
		TopBrands:       []BrandCount{},
	}
	if len(entries) == 0 {
		return s
	}

	brands := make(map[string]int)
	var scoreSum float64
	for i := range entries {
		p := &entries[i].Product
		s.TotalRevenue += p.RevenueLastMonth
		scoreSum += entries[i].Score
		s.BrandTierCounts[p.BrandTier]++
		brands[p.Brand]++
	}
	s.AverageScore = scoreSum / float64(len(entries))

	top := make([]BrandCount, 0, len(brands))
	for b, n := range brands {
		top = append(top, BrandCount{Brand: b, Count: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Brand < top[j].Brand
	})
	if len(top) > topBrandsLimit {
		top = top[:topBrandsLimit]
	}
	s.TopBrands = top
	return s
}
