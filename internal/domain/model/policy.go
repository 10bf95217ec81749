package model

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// WeightTolerance is how far the weight sum may drift from 1.0.
const WeightTolerance = 0.01

// Known touchpoint identifiers.
const (
	HomepageCarousel = "homepage_carousel"
	CollectionPage   = "collection_page"
	UpsellWidget     = "upsell_widget"
	CheckoutAddon    = "checkout_addon"
)

// Weight keys accepted by ScoringWeights.Apply.
const (
	WeightSalesVelocity   = "sales_velocity"
	WeightProfitMargin    = "profit_margin"
	WeightInventoryHealth = "inventory_health"
	WeightBrandTier       = "brand_tier"
	WeightEngagement      = "engagement_score"
)

// ScoringWeights holds the blend fractions of the five sub-scores.
type ScoringWeights struct {
	SalesVelocity   float64 `koanf:"sales_velocity" json:"sales_velocity"`
	ProfitMargin    float64 `koanf:"profit_margin" json:"profit_margin"`
	InventoryHealth float64 `koanf:"inventory_health" json:"inventory_health"`
	BrandTier       float64 `koanf:"brand_tier" json:"brand_tier"`
	Engagement      float64 `koanf:"engagement_score" json:"engagement_score"`
}

// Sum returns the total of all weights.
func (w ScoringWeights) Sum() float64 {
	return w.SalesVelocity + w.ProfitMargin + w.InventoryHealth + w.BrandTier + w.Engagement
}

// Validate checks that every weight is non-negative and that they sum to 1.0.
func (w ScoringWeights) Validate() error {
	for key, v := range w.asMap() {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidWeights, key, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > WeightTolerance {
		return fmt.Errorf("%w: weights must sum to 1.0, got %.4f", ErrInvalidWeights, sum)
	}
	return nil
}

// Apply merges named updates onto w and validates the result. Unknown keys
// are rejected. w itself is never modified.
func (w ScoringWeights) Apply(updates map[string]float64) (ScoringWeights, error) {
	if len(updates) == 0 {
		return w, fmt.Errorf("%w: no weights supplied", ErrInvalidWeights)
	}
	next := w
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		v := updates[key]
		switch strings.ToLower(strings.TrimSpace(key)) {
		case WeightSalesVelocity:
			next.SalesVelocity = v
		case WeightProfitMargin:
			next.ProfitMargin = v
		case WeightInventoryHealth:
			next.InventoryHealth = v
		case WeightBrandTier:
			next.BrandTier = v
		case WeightEngagement, "engagement":
			next.Engagement = v
		default:
			return w, fmt.Errorf("%w: unknown weight %q", ErrInvalidWeights, key)
		}
	}
	if err := next.Validate(); err != nil {
		return w, err
	}
	return next, nil
}

func (w ScoringWeights) asMap() map[string]float64 {
	return map[string]float64{
		WeightSalesVelocity:   w.SalesVelocity,
		WeightProfitMargin:    w.ProfitMargin,
		WeightInventoryHealth: w.InventoryHealth,
		WeightBrandTier:       w.BrandTier,
		WeightEngagement:      w.Engagement,
	}
}

// FilterCriteria are the eligibility thresholds for a touchpoint.
type FilterCriteria struct {
	MinStockUnits      int     `koanf:"min_stock_units" json:"min_stock_units"`
	MaxDaysInventory   int     `koanf:"max_days_inventory" json:"max_days_inventory"`
	MinProfitMarginPct float64 `koanf:"min_profit_margin" json:"min_profit_margin"`
	MinViewsThreshold  int     `koanf:"min_views_threshold" json:"min_views_threshold"`
	ExcludeOutOfStock  bool    `koanf:"exclude_out_of_stock" json:"exclude_out_of_stock"`
}

// TouchpointConfig is the scoring policy of one placement surface.
type TouchpointConfig struct {
	ID                   string         `koanf:"id" json:"touchpoint_id"`
	MaxProducts          int            `koanf:"max_products" json:"max_products"`
	Weights              ScoringWeights `koanf:"weights" json:"weights"`
	Filters              FilterCriteria `koanf:"filters" json:"filters"`
	RefreshIntervalHours int            `koanf:"refresh_interval_hours" json:"refresh_interval_hours"`
	SeasonalBoostEnabled bool           `koanf:"seasonal_boost_enabled" json:"seasonal_boost_enabled"`
	AllowManualOverrides bool           `koanf:"allow_manual_overrides" json:"allow_manual_overrides"`
}

// RefreshInterval is the cache TTL of the touchpoint.
func (c TouchpointConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalHours) * time.Hour
}

// Validate checks the structural invariants of the config.
func (c TouchpointConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.ID) == "":
		return fmt.Errorf("%w: missing touchpoint id", ErrInvalidConfig)
	case c.MaxProducts < 1:
		return fmt.Errorf("%w: %s: max_products must be positive", ErrInvalidConfig, c.ID)
	case c.RefreshIntervalHours < 1:
		return fmt.Errorf("%w: %s: refresh_interval_hours must be positive", ErrInvalidConfig, c.ID)
	}
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, c.ID, err)
	}
	return nil
}

// DefaultTouchpoints returns the stock configuration for the homepage
// carousel and collection page.
func DefaultTouchpoints() map[string]TouchpointConfig {
	return map[string]TouchpointConfig{
		HomepageCarousel: {
			ID:          HomepageCarousel,
			MaxProducts: 20,
			Weights: ScoringWeights{
				SalesVelocity:   0.35,
				ProfitMargin:    0.25,
				InventoryHealth: 0.15,
				BrandTier:       0.15,
				Engagement:      0.10,
			},
			Filters: FilterCriteria{
				MinStockUnits:      15,
				MaxDaysInventory:   60,
				MinProfitMarginPct: 25,
				MinViewsThreshold:  500,
				ExcludeOutOfStock:  true,
			},
			RefreshIntervalHours: 1,
			SeasonalBoostEnabled: true,
			AllowManualOverrides: true,
		},
		CollectionPage: {
			ID:          CollectionPage,
			MaxProducts: 48,
			Weights: ScoringWeights{
				SalesVelocity:   0.25,
				ProfitMargin:    0.20,
				InventoryHealth: 0.25,
				BrandTier:       0.20,
				Engagement:      0.10,
			},
			Filters: FilterCriteria{
				MinStockUnits:      5,
				MaxDaysInventory:   120,
				MinProfitMarginPct: 15,
				MinViewsThreshold:  100,
				ExcludeOutOfStock:  true,
			},
			RefreshIntervalHours: 6,
			SeasonalBoostEnabled: true,
			AllowManualOverrides: true,
		},
	}
}
