package analytics

import "time"

// Option configures a Monitor.
type Option func(*Monitor)

// WithHistory sets how many snapshots are kept per touchpoint.
func WithHistory(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.history = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}
