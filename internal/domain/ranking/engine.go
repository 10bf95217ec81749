// Package ranking orders a catalog snapshot for a touchpoint: it filters,
// scores, sorts and reconciles the algorithmic order with manual overrides.
package ranking

import (
	"context"
	"sort"

	"github.com/okian/merch/internal/domain/model"
	"github.com/okian/merch/internal/domain/scoring"
	"github.com/okian/merch/pkg/logger"
)

const noBoost = 1.0

// Engine is stateless; all mutable inputs arrive through State. It is safe
// for concurrent use as long as each State is accessed by one caller.
type Engine struct {
	scorer scoring.Scorer
	logger logger.Logger
}

// NewEngine creates an Engine backed by the weighted scorer.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		scorer: scoring.NewWeightedScorer(),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type scored struct {
	product model.Product
	score   float64
}

// ApplyFilters returns the products eligible under f, preserving input order.
// The stock threshold only applies when ExcludeOutOfStock is set.
func (e *Engine) ApplyFilters(products []model.Product, f model.FilterCriteria, state *State) []model.Product {
	out := make([]model.Product, 0, len(products))
	for i := range products {
		p := &products[i]
		switch {
		case state != nil && state.IsBlacklisted(p.Name):
		case f.ExcludeOutOfStock && p.UnitsInStock < f.MinStockUnits:
		case p.DaysInventory > f.MaxDaysInventory:
		case p.ProfitMarginPct < f.MinProfitMarginPct:
		case p.ViewsLastMonth < f.MinViewsThreshold:
		default:
			out = append(out, *p)
		}
	}
	return out
}

// Score returns the composite score of p, applying its seasonal boost when
// the touchpoint enables boosts.
func (e *Engine) Score(p *model.Product, cfg model.TouchpointConfig, state *State) float64 {
	boost := noBoost
	if cfg.SeasonalBoostEnabled && state != nil {
		if m, ok := state.Boost(p.Name); ok {
			boost = m
		}
	}
	return e.scorer.Composite(p, cfg.Weights, boost)
}

// GenerateRankings filters, scores and orders products for cfg and merges
// the manual overrides held in state. The result holds at most
// cfg.MaxProducts entries with 1-based positions. Identical inputs always
// produce identical output.
func (e *Engine) GenerateRankings(ctx context.Context, products []model.Product, cfg model.TouchpointConfig, state *State) []model.RankedEntry {
	if state == nil {
		state = NewState()
	}
	eligible := e.ApplyFilters(products, cfg.Filters, state)

	ranked := make([]scored, len(eligible))
	for i := range eligible {
		ranked[i] = scored{product: eligible[i], score: e.Score(&eligible[i], cfg, state)}
	}
	// Stable: ties keep filter-pass order.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	entries := e.merge(ctx, ranked, cfg.MaxProducts, state)

	e.logger.Debug(ctx, "rankings generated",
		logger.String("touchpoint", cfg.ID),
		logger.Int("catalog", len(products)),
		logger.Int("eligible", len(eligible)),
		logger.Int("returned", len(entries)),
	)
	return entries
}

// merge interleaves overrides with the algorithmic order. Overrides are
// resolved against the scored set only, so filtered, blacklisted or unknown
// names never surface. When two overrides claim a position the most recent
// registration wins and the other product rejoins the algorithmic walk.
func (e *Engine) merge(ctx context.Context, ranked []scored, maxProducts int, state *State) []model.RankedEntry {
	index := make(map[string]int, len(ranked))
	for i := range ranked {
		index[ranked[i].product.Name] = i
	}

	pinned := make(map[int]int) // position -> index into ranked
	for _, o := range state.Overrides() {
		i, ok := index[o.ProductName]
		if !ok {
			e.logger.Debug(ctx, "override dropped; product not eligible",
				logger.String("product", o.ProductName),
				logger.Int("position", o.Position),
			)
			continue
		}
		pinned[o.Position] = i
	}
	placed := make(map[int]struct{}, len(pinned))
	for _, i := range pinned {
		placed[i] = struct{}{}
	}

	out := make([]scored, 0, maxProducts)
	manual := make([]bool, 0, maxProducts)
	emitted := make(map[int]struct{}, len(pinned))
	pos := 0
	for i := range ranked {
		if len(out) >= maxProducts {
			break
		}
		if _, ok := placed[i]; ok {
			continue
		}
		for {
			idx, ok := pinned[pos]
			if !ok {
				break
			}
			out = append(out, ranked[idx])
			manual = append(manual, true)
			emitted[pos] = struct{}{}
			pos++
		}
		out = append(out, ranked[i])
		manual = append(manual, false)
		pos++
	}

	// Overrides the walk never reached are appended in position order.
	rest := make([]int, 0, len(pinned))
	for p := range pinned {
		if _, ok := emitted[p]; !ok {
			rest = append(rest, p)
		}
	}
	sort.Ints(rest)
	for _, p := range rest {
		out = append(out, ranked[pinned[p]])
		manual = append(manual, true)
	}

	if len(out) > maxProducts {
		out = out[:maxProducts]
	}
	entries := make([]model.RankedEntry, len(out))
	for i := range out {
		entries[i] = model.RankedEntry{
			Product:          out[i].product,
			Score:            out[i].score,
			Position:         i + 1,
			IsManualOverride: manual[i],
		}
	}
	return entries
}
