package analytics

import "github.com/okian/merch/internal/domain/model"

// Default inventory alert thresholds.
const (
	DefaultLowStockUnits     = 20
	DefaultHighInventoryDays = 90
)

// Alert kinds.
const (
	AlertLowStock      = "low_stock"
	AlertHighInventory = "high_inventory"
)

// Alert flags a ranked product whose inventory needs attention.
type Alert struct {
	Kind    string `json:"kind"`
	Product string `json:"product_name"`
	Value   int    `json:"value"`
}

// Thresholds bound healthy inventory: fewer than LowStockUnits units or more
// than HighInventoryDays days of cover raises an alert.
type Thresholds struct {
	LowStockUnits     int
	HighInventoryDays int
}

// DefaultThresholds returns the stock alert thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{LowStockUnits: DefaultLowStockUnits, HighInventoryDays: DefaultHighInventoryDays}
}

// InventoryAlerts lists alerts in ranking order. A product can raise both kinds.
func InventoryAlerts(entries []model.RankedEntry, t Thresholds) []Alert {
	var out []Alert
	for i := range entries {
		p := &entries[i].Product
		if p.UnitsInStock < t.LowStockUnits {
			out = append(out, Alert{Kind: AlertLowStock, Product: p.Name, Value: p.UnitsInStock})
		}
		if p.DaysInventory > t.HighInventoryDays {
			out = append(out, Alert{Kind: AlertHighInventory, Product: p.Name, Value: p.DaysInventory})
		}
	}
	return out
}
