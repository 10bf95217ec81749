package analytics

import "errors"

// ErrNoPerformanceData is returned when a report is requested before any
// snapshot was recorded for the touchpoint.
var ErrNoPerformanceData = errors.New("no performance data available")
