package model

// RankedEntry is one slot of a computed ranking. Entries are produced fresh
// on every computation and never mutated afterwards. Product fields are
// flattened into the entry on the wire.
type RankedEntry struct {
	Product
	Score            float64 `json:"merchandising_score"`
	Position         int     `json:"position"`
	IsManualOverride bool    `json:"is_manual_override"`
}
