package metrics

import (
	"context"
	"time"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, sample *Sample) error
	Close() error
}

// Repository defines the interface for sample storage
type Repository interface {
	Record(sample *Sample) error
	Close() error
}

// Sample is one poll tick's worth of history
type Sample struct {
	Timestamp time.Time
	Power     PowerMetrics
	Activity  ActivityMetrics
}

// Domain value objects
type PowerMetrics struct {
	// State is the power state after the tick ("active" or "standby")
	State string
	// StateSeconds is how long the set has been in that state
	StateSeconds int64
}

type ActivityMetrics struct {
	// Active reports whether any tracked counter changed this tick
	Active bool
	// Devices is the number of devices present in the snapshot
	Devices int
}
