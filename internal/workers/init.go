package workers

import (
	"context"
	"time"

	"evewspace/sitetracker/internal/db/repositories"
	"evewspace/sitetracker/internal/metrics"
)

type WorkersContainer struct {
	Gauges *FleetGaugeWorker
}

// InitWorkers starts the background workers; they stop when ctx is cancelled.
func InitWorkers(ctx context.Context, repo *repositories.Repository, m *metrics.MetricsRegistry, gaugeInterval time.Duration) *WorkersContainer {
	gauges := NewFleetGaugeWorker(repo, m)
	go gauges.Start(ctx, gaugeInterval)

	return &WorkersContainer{
		Gauges: gauges,
	}
}
