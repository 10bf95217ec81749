// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Catalog record headers, as exported by the merchandising dataset.
const (
	FieldName          = "Product Name"
	FieldBrand         = "Brand"
	FieldBrandTier     = "Brand Tier"
	FieldPrice         = "Price (USD)"
	FieldCOGS          = "COGS (USD)"
	FieldDaysInventory = "Days of Inventory"
	FieldUnitsInStock  = "Units in Stock"
	FieldViews         = "Views Last Month"
	FieldVolumeSold    = "Volume Sold Last Month"
)

// RecordFields lists every header a catalog record must carry.
var RecordFields = []string{
	FieldName, FieldBrand, FieldBrandTier, FieldPrice, FieldCOGS,
	FieldDaysInventory, FieldUnitsInStock, FieldViews, FieldVolumeSold,
}

// Record is one raw catalog row keyed by header.
type Record map[string]string

// Product is an immutable snapshot of one catalog item and its derived metrics.
type Product struct {
	Name                string  `json:"name"`
	Brand               string  `json:"brand"`
	BrandTier           string  `json:"brand_tier"`
	Price               float64 `json:"price"`
	COGS                float64 `json:"cogs"`
	DaysInventory       int     `json:"days_inventory"`
	UnitsInStock        int     `json:"units_stock"`
	ViewsLastMonth      int     `json:"views_last_month"`
	VolumeSoldLastMonth int     `json:"volume_sold_last_month"`

	// Derived once in NewProduct.
	ProfitMarginPct    float64 `json:"profit_margin"`
	ConversionRatePct  float64 `json:"conversion_rate"`
	RevenueLastMonth   float64 `json:"revenue_last_month"`
	SellThroughRatePct float64 `json:"sell_through_rate"`
}

// ProductInput carries the raw attributes of a product.
type ProductInput struct {
	Name                string
	Brand               string
	BrandTier           string
	Price               float64
	COGS                float64
	DaysInventory       int
	UnitsInStock        int
	ViewsLastMonth      int
	VolumeSoldLastMonth int
}

// NewProduct builds a Product and computes its derived metrics.
// Zero denominators yield zero-valued metrics rather than errors.
func NewProduct(in ProductInput) Product {
	p := Product{
		Name:                in.Name,
		Brand:               in.Brand,
		BrandTier:           in.BrandTier,
		Price:               in.Price,
		COGS:                in.COGS,
		DaysInventory:       in.DaysInventory,
		UnitsInStock:        in.UnitsInStock,
		ViewsLastMonth:      in.ViewsLastMonth,
		VolumeSoldLastMonth: in.VolumeSoldLastMonth,
	}
	if p.Price > 0 {
		p.ProfitMarginPct = (p.Price - p.COGS) / p.Price * 100
	}
	if p.ViewsLastMonth > 0 {
		p.ConversionRatePct = float64(p.VolumeSoldLastMonth) / float64(p.ViewsLastMonth) * 100
	}
	p.RevenueLastMonth = p.Price * float64(p.VolumeSoldLastMonth)
	if moved := p.UnitsInStock + p.VolumeSoldLastMonth; moved > 0 {
		p.SellThroughRatePct = float64(p.VolumeSoldLastMonth) / float64(moved) * 100
	}
	return p
}

// ParseRecord converts a raw catalog record into a Product.
// A missing, blank or non-numeric field fails with ErrMalformedRecord.
func ParseRecord(r Record) (Product, error) {
	var (
		in  ProductInput
		err error
	)
	if in.Name, err = r.text(FieldName); err != nil {
		return Product{}, err
	}
	if in.Brand, err = r.text(FieldBrand); err != nil {
		return Product{}, err
	}
	if in.BrandTier, err = r.text(FieldBrandTier); err != nil {
		return Product{}, err
	}
	if in.Price, err = r.float(FieldPrice); err != nil {
		return Product{}, err
	}
	if in.COGS, err = r.float(FieldCOGS); err != nil {
		return Product{}, err
	}
	if in.DaysInventory, err = r.count(FieldDaysInventory); err != nil {
		return Product{}, err
	}
	if in.UnitsInStock, err = r.count(FieldUnitsInStock); err != nil {
		return Product{}, err
	}
	if in.ViewsLastMonth, err = r.count(FieldViews); err != nil {
		return Product{}, err
	}
	if in.VolumeSoldLastMonth, err = r.count(FieldVolumeSold); err != nil {
		return Product{}, err
	}
	return NewProduct(in), nil
}

func (r Record) text(field string) (string, error) {
	v, ok := r[field]
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: missing %q", ErrMalformedRecord, field)
	}
	return v, nil
}

func (r Record) float(field string) (float64, error) {
	v, err := r.text(field)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not numeric: %q", ErrMalformedRecord, field, v)
	}
	return f, nil
}

// count parses a non-negative integer. Spreadsheet exports often render
// integers as "12.0", so integral floats are accepted.
func (r Record) count(field string) (int, error) {
	v, err := r.text(field)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %q is not an integer: %q", ErrMalformedRecord, field, v)
		}
		n = int(f)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %q must not be negative: %d", ErrMalformedRecord, field, n)
	}
	return n, nil
}
