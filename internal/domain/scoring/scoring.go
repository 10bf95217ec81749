// Package scoring computes the merchandising sub-scores and their weighted
// composite for a single product.
package scoring

import (
	"math"

	"github.com/okian/merch/internal/domain/model"
)

// Scoring constants.
const (
	maxScore = 100.0

	conversionScale     = 10.0  // conversion % that maps to the cap: 10%
	volumeReference     = 200.0 // units sold that reach the cap
	conversionBlend     = 0.6
	volumeBlend         = 0.4
	marginScale         = 2.0 // 50% margin reaches the cap
	healthyDaysMin      = 30
	healthyDaysMax      = 90
	overstockSpanDays   = 100.0
	overstockMaxPenalty = 50.0
	viewsReference      = 5000.0

	defaultTierScore = 50.0
)

var tierScores = map[string]float64{
	"A": 100,
	"B": 75,
	"C": 50,
}

// Breakdown holds the five sub-scores of a product.
type Breakdown struct {
	SalesVelocity   float64 `json:"sales_velocity"`
	ProfitMargin    float64 `json:"profit_margin"`
	InventoryHealth float64 `json:"inventory_health"`
	BrandTier       float64 `json:"brand_tier"`
	Engagement      float64 `json:"engagement_score"`
}

// Weighted blends the sub-scores with w.
func (b Breakdown) Weighted(w model.ScoringWeights) float64 {
	return b.SalesVelocity*w.SalesVelocity +
		b.ProfitMargin*w.ProfitMargin +
		b.InventoryHealth*w.InventoryHealth +
		b.BrandTier*w.BrandTier +
		b.Engagement*w.Engagement
}

// Scorer computes the composite merchandising score of a product.
type Scorer interface {
	// Composite blends the sub-scores with w, multiplies by boost and caps
	// the result at 100. A boost of 1 leaves the blend unchanged.
	Composite(p *model.Product, w model.ScoringWeights, boost float64) float64
}

// WeightedScorer is the production Scorer.
type WeightedScorer struct{}

// NewWeightedScorer returns the production Scorer.
func NewWeightedScorer() *WeightedScorer {
	return &WeightedScorer{}
}

// Composite implements Scorer.
func (WeightedScorer) Composite(p *model.Product, w model.ScoringWeights, boost float64) float64 {
	return Composite(p, w, boost)
}

// Composite is the weighted sum of the sub-scores, scaled by boost and capped
// at 100. There is no lower clamp: a boost below 1 or weights that do not
// sum to one can push the result outside [0, 100] on the low end.
func Composite(p *model.Product, w model.ScoringWeights, boost float64) float64 {
	score := Score(p).Weighted(w) * boost
	return math.Min(score, maxScore)
}

// Score returns the five sub-scores of p.
func Score(p *model.Product) Breakdown {
	return Breakdown{
		SalesVelocity:   SalesVelocity(p),
		ProfitMargin:    ProfitMargin(p),
		InventoryHealth: InventoryHealth(p),
		BrandTier:       BrandTier(p),
		Engagement:      Engagement(p),
	}
}

// SalesVelocity blends conversion efficiency with absolute volume, each
// capped before blending. Products without views score zero.
func SalesVelocity(p *model.Product) float64 {
	if p.ViewsLastMonth == 0 {
		return 0
	}
	conversion := math.Min(p.ConversionRatePct*conversionScale, maxScore)
	volume := math.Min(float64(p.VolumeSoldLastMonth)/volumeReference*maxScore, maxScore)
	return conversion*conversionBlend + volume*volumeBlend
}

// ProfitMargin scales margin linearly; negative margins floor at zero.
func ProfitMargin(p *model.Product) float64 {
	return clamp(p.ProfitMarginPct * marginScale)
}

// InventoryHealth is 100 inside the 30-90 day band. Under-stock is penalised
// linearly down to zero; over-stock loses 50 points per 100 extra days.
func InventoryHealth(p *model.Product) float64 {
	d := float64(p.DaysInventory)
	switch {
	case p.DaysInventory >= healthyDaysMin && p.DaysInventory <= healthyDaysMax:
		return maxScore
	case p.DaysInventory < healthyDaysMin:
		return math.Max(0, d/healthyDaysMin*maxScore)
	default:
		return math.Max(0, maxScore-(d-healthyDaysMax)/overstockSpanDays*overstockMaxPenalty)
	}
}

// BrandTier maps A/B/C to 100/75/50; unknown tiers fall back to 50.
func BrandTier(p *model.Product) float64 {
	if s, ok := tierScores[p.BrandTier]; ok {
		return s
	}
	return defaultTierScore
}

// Engagement scales monthly views against a 5000-view reference.
func Engagement(p *model.Product) float64 {
	return math.Min(float64(p.ViewsLastMonth)/viewsReference*maxScore, maxScore)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(v, maxScore))
}
