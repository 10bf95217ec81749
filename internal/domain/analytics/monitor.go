package analytics

import (
	"fmt"
	"sync"
	"time"
)

const defaultHistory = 100

// Snapshot is one recorded observation of a touchpoint's ranked result.
type Snapshot struct {
	Timestamp       time.Time      `json:"timestamp"`
	TotalProducts   int            `json:"total_products"`
	TotalRevenue    float64        `json:"total_revenue"`
	AverageScore    float64        `json:"average_score"`
	BrandTierCounts map[string]int `json:"brand_tier_distribution"`
	ManualOverrides int            `json:"manual_overrides"`
}

// Trends compares the two most recent snapshots.
type Trends struct {
	RevenueChangePct   float64 `json:"revenue_change"`
	ScoreChange        float64 `json:"score_change"`
	ProductCountChange int     `json:"product_count_change"`
}

// Report describes the latest snapshot of a touchpoint and its trend.
type Report struct {
	TouchpointID string    `json:"touchpoint"`
	Current      Snapshot  `json:"current_metrics"`
	Trends       *Trends   `json:"trends,omitempty"`
	DataPoints   int       `json:"data_points"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Monitor keeps a bounded history of snapshots per touchpoint.
// It is safe for concurrent use.
type Monitor struct {
	mu      sync.Mutex
	series  map[string][]Snapshot
	history int
	now     func() time.Time
}

// NewMonitor creates a Monitor keeping the last 100 snapshots per touchpoint.
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{
		series:  make(map[string][]Snapshot),
		history: defaultHistory,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record appends a snapshot built from s for the touchpoint and returns it.
func (m *Monitor) Record(touchpointID string, s Summary, manualOverrides int) Snapshot {
	tiers := make(map[string]int, len(s.BrandTierCounts))
	for k, v := range s.BrandTierCounts {
		tiers[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Timestamp:       m.now(),
		TotalProducts:   s.TotalProducts,
		TotalRevenue:    s.TotalRevenue,
		AverageScore:    s.AverageScore,
		BrandTierCounts: tiers,
		ManualOverrides: manualOverrides,
	}
	series := append(m.series[touchpointID], snap)
	if len(series) > m.history {
		series = append([]Snapshot(nil), series[len(series)-m.history:]...)
	}
	m.series[touchpointID] = series
	return snap
}

// Report summarizes the recorded history of a touchpoint.
func (m *Monitor) Report(touchpointID string) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	series := m.series[touchpointID]
	if len(series) == 0 {
		return Report{}, fmt.Errorf("%w: %s", ErrNoPerformanceData, touchpointID)
	}
	latest := series[len(series)-1]
	r := Report{
		TouchpointID: touchpointID,
		Current:      latest,
		DataPoints:   len(series),
		GeneratedAt:  m.now(),
	}
	if len(series) >= 2 {
		prev := series[len(series)-2]
		t := &Trends{
			ScoreChange:        latest.AverageScore - prev.AverageScore,
			ProductCountChange: latest.TotalProducts - prev.TotalProducts,
		}
		if prev.TotalRevenue > 0 {
			t.RevenueChangePct = (latest.TotalRevenue - prev.TotalRevenue) / prev.TotalRevenue * 100
		}
		r.Trends = t
	}
	return r, nil
}

// DataPoints returns the number of snapshots held for a touchpoint.
func (m *Monitor) DataPoints(touchpointID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.series[touchpointID])
}
