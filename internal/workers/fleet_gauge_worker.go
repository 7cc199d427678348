package workers

import (
	"context"
	"fmt"
	"time"

	"evewspace/sitetracker/internal/db/repositories"
	"evewspace/sitetracker/internal/logging"
	"evewspace/sitetracker/internal/metrics"
)

// FleetGaugeWorker periodically publishes fleet population gauges
type FleetGaugeWorker struct {
	repo    *repositories.Repository
	metrics *metrics.MetricsRegistry
}

// NewFleetGaugeWorker creates a new gauge worker
func NewFleetGaugeWorker(repo *repositories.Repository, m *metrics.MetricsRegistry) *FleetGaugeWorker {
	return &FleetGaugeWorker{
		repo:    repo,
		metrics: m,
	}
}

// Start refreshes the gauges every interval until ctx is cancelled
func (w *FleetGaugeWorker) Start(ctx context.Context, interval time.Duration) {
	logging.Info("Starting fleet gauge worker", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start
	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			logging.Info("Fleet gauge worker shutting down")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *FleetGaugeWorker) refresh(ctx context.Context) {
	if err := w.Refresh(ctx); err != nil {
		logging.Error("Failed to refresh fleet gauges", "error", err)
	}
}

// Refresh reads the current counts and publishes them once
func (w *FleetGaugeWorker) Refresh(ctx context.Context) error {
	fleets, err := w.repo.Fleets.CountActive(ctx)
	if err != nil {
		return fmt.Errorf("count fleets: %w", err)
	}
	members, err := w.repo.Members.CountActive(ctx)
	if err != nil {
		return fmt.Errorf("count members: %w", err)
	}
	pending, err := w.repo.Sites.CountPending(ctx)
	if err != nil {
		return fmt.Errorf("count pending claims: %w", err)
	}

	w.metrics.SetFleetGauges(fleets, members, pending)
	logging.Debug("Fleet gauges refreshed", "fleets", fleets, "members", members, "pending", pending)
	return nil
}
