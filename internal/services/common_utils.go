package services

import (
	"strings"
	"time"

	"evewspace/sitetracker/internal/apperrors"
	"evewspace/sitetracker/internal/logging"
	"evewspace/sitetracker/internal/metrics"
)

// Options carries the collaborators every sitetracker service takes.
type Options struct {
	Metrics              *metrics.MetricsRegistry
	Now                  func() time.Time
	PromoteRequireMember bool
}

func (o Options) clock() func() time.Time {
	if o.Now != nil {
		return o.Now
	}
	return func() time.Time { return time.Now().UTC() }
}

// outcome is the metrics label for an operation result.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(string(apperrors.KindOf(err)))
}

// logFailure reports infrastructure failures; domain rejections are returned
// to the caller without logging.
func logFailure(op, fleetID, actorID string, err error) {
	if err != nil && apperrors.KindOf(err) == apperrors.KindInternal {
		logging.WithFleet(fleetID, actorID).Errorw("Fleet operation failed", "operation", op, "error", err)
	}
}
