// Package types contains response shapes shared by the service and its transports.
package types

import (
	"time"

	"github.com/okian/merch/internal/domain/analytics"
	"github.com/okian/merch/internal/domain/model"
)

// Rankings is a ranked result for one touchpoint plus its metadata.
type Rankings struct {
	TouchpointID string               `json:"touchpoint_id"`
	GeneratedAt  time.Time            `json:"generated_at"`
	TotalCount   int                  `json:"total_count"`
	MaxProducts  int                  `json:"max_products"`
	Weights      model.ScoringWeights `json:"weights"`
	Generation   string               `json:"generation"`
	Cached       bool                 `json:"cached"`
	Products     []model.RankedEntry  `json:"products"`
}

// Analytics is the analytics view of a touchpoint's current ranking.
type Analytics struct {
	TouchpointID        string            `json:"touchpoint"`
	Summary             analytics.Summary `json:"analytics"`
	ManualOverrides     int               `json:"manual_overrides_count"`
	BlacklistedProducts int               `json:"blacklisted_products_count"`
	GeneratedAt         time.Time         `json:"generated_at"`
}

// Stats describes the state of the service.
type Stats struct {
	CatalogLoaded bool                       `json:"catalog_loaded"`
	CatalogSize   int                        `json:"catalog_size"`
	CatalogAt     time.Time                  `json:"catalog_loaded_at"`
	Touchpoints   map[string]TouchpointStats `json:"touchpoints"`
}

// TouchpointStats describes the state of one touchpoint.
type TouchpointStats struct {
	Cached          bool      `json:"cached"`
	ExpiresAt       time.Time `json:"expires_at,omitempty"`
	ManualOverrides int       `json:"manual_overrides"`
	Blacklisted     int       `json:"blacklisted"`
	SeasonalBoosts  int       `json:"seasonal_boosts"`
}
