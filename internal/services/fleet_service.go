package services

import (
	"context"
	"errors"
	"time"

	"evewspace/sitetracker/internal/apperrors"
	"evewspace/sitetracker/internal/db/repositories"
	"evewspace/sitetracker/internal/logging"
	"evewspace/sitetracker/internal/metrics"
	gormModels "evewspace/sitetracker/internal/models/gorm"
	"evewspace/sitetracker/internal/policy"
)

// FleetService owns the fleet lifecycle and the membership ledger.
type FleetService struct {
	fleetMutator
	metrics              *metrics.MetricsRegistry
	now                  func() time.Time
	promoteRequireMember bool
}

// NewFleetService creates a fleet lifecycle service. locks must be the same
// instance the SiteCreditService uses.
func NewFleetService(repo *repositories.Repository, locks *FleetLocks, opts Options) *FleetService {
	return &FleetService{
		fleetMutator:         fleetMutator{repo: repo, locks: locks},
		metrics:              opts.Metrics,
		now:                  opts.clock(),
		promoteRequireMember: opts.PromoteRequireMember,
	}
}

func (svc *FleetService) record(op, fleetID, actorID string, err error) {
	svc.metrics.RecordFleetOp(op, outcome(err))
	logFailure(op, fleetID, actorID, err)
}

// CreateFleet opens a fleet in systemID led by actorID and joins the actor to it.
func (svc *FleetService) CreateFleet(ctx context.Context, actorID, systemID string) (fleet *gormModels.Fleet, err error) {
	defer func() { svc.record("create", "", actorID, err) }()

	err = svc.repo.InTx(ctx, func(tx *repositories.Repository) error {
		if _, err := tx.Users.GetByID(ctx, actorID); err != nil {
			return err
		}
		if _, err := tx.Systems.GetByID(ctx, systemID); err != nil {
			return err
		}

		now := svc.now()
		fleet = &gormModels.Fleet{
			SystemID:      systemID,
			InitialBossID: actorID,
			CurrentBossID: actorID,
			StartedAt:     now,
		}
		if err := tx.Fleets.Create(ctx, fleet); err != nil {
			return err
		}

		return tx.Members.Create(ctx, &gormModels.MembershipRecord{
			FleetID:  fleet.ID,
			UserID:   actorID,
			JoinTime: now,
		})
	})
	if err != nil {
		return nil, err
	}

	logging.WithFleet(fleet.ID, actorID).Infow("Fleet created", "system_id", systemID)
	return fleet, nil
}

// JoinFleet adds the actor to the roster. Joining twice returns the open
// interval instead of creating another.
func (svc *FleetService) JoinFleet(ctx context.Context, actorID, fleetID string) (record *gormModels.MembershipRecord, err error) {
	defer func() { svc.record("join", fleetID, actorID, err) }()

	err = svc.withFleet(ctx, fleetID, func(tx *repositories.Repository, fleet *gormModels.Fleet) error {
		if err := policy.RequireActive(fleet); err != nil {
			return err
		}
		if _, err := tx.Users.GetByID(ctx, actorID); err != nil {
			return err
		}

		existing, err := tx.Members.FindActive(ctx, fleetID, actorID)
		if err == nil {
			record = existing
			return nil
		}
		if !errors.Is(err, apperrors.ErrMembershipNotFound) {
			return err
		}

		record = &gormModels.MembershipRecord{
			FleetID:  fleetID,
			UserID:   actorID,
			JoinTime: svc.now(),
		}
		return tx.Members.Create(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	logging.WithFleet(fleetID, actorID).Infow("Fleet joined", "membership_id", record.ID)
	return record, nil
}

// LeaveFleet closes the actor's open interval. Leaving a fleet the actor is
// not in does nothing.
func (svc *FleetService) LeaveFleet(ctx context.Context, actorID, fleetID string) (err error) {
	defer func() { svc.record("leave", fleetID, actorID, err) }()

	var closed int64
	err = svc.withFleet(ctx, fleetID, func(tx *repositories.Repository, fleet *gormModels.Fleet) error {
		if err := policy.RequireActive(fleet); err != nil {
			return err
		}
		var err error
		closed, err = tx.Members.CloseForUser(ctx, fleetID, actorID, svc.now())
		return err
	})
	if err != nil {
		return err
	}

	if closed > 0 {
		logging.WithFleet(fleetID, actorID).Infow("Fleet left")
	}
	return nil
}

// LeaveAllFleets closes every open interval the actor holds and returns how
// many fleets were left.
func (svc *FleetService) LeaveAllFleets(ctx context.Context, actorID string) (left int64, err error) {
	defer func() { svc.record("leave_all", "", actorID, err) }()

	open, err := svc.repo.Members.ListActiveByUser(ctx, actorID)
	if err != nil {
		return 0, err
	}
	if len(open) == 0 {
		return 0, nil
	}

	fleetIDs := make([]string, 0, len(open))
	for _, m := range open {
		fleetIDs = append(fleetIDs, m.FleetID)
	}
	unlock := svc.locks.LockMany(fleetIDs)
	defer unlock()

	err = svc.repo.InTx(ctx, func(tx *repositories.Repository) error {
		var err error
		left, err = tx.Members.CloseAllForUser(ctx, actorID, svc.now())
		return err
	})
	if err != nil {
		return 0, err
	}

	logging.Info("Left all fleets", "actor_id", actorID, "count", left)
	return left, nil
}

// KickMember removes targetID from the roster. Boss only.
func (svc *FleetService) KickMember(ctx context.Context, actorID, fleetID, targetID string) (err error) {
	defer func() { svc.record("kick", fleetID, actorID, err) }()

	err = svc.withFleet(ctx, fleetID, func(tx *repositories.Repository, fleet *gormModels.Fleet) error {
		if err := policy.RequireBoss(fleet, actorID); err != nil {
			return err
		}
		closed, err := tx.Members.CloseForUser(ctx, fleetID, targetID, svc.now())
		if err != nil {
			return err
		}
		if closed == 0 {
			return apperrors.ErrMembershipNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	logging.WithFleet(fleetID, actorID).Infow("Member kicked", "target_id", targetID)
	return nil
}

// PromoteMember makes targetID the current boss. Any caller may promote so
// an unresponsive boss can be replaced.
func (svc *FleetService) PromoteMember(ctx context.Context, actorID, fleetID, targetID string) (err error) {
	defer func() { svc.record("promote", fleetID, actorID, err) }()

	var previous string
	err = svc.withFleet(ctx, fleetID, func(tx *repositories.Repository, fleet *gormModels.Fleet) error {
		if err := policy.RequireActive(fleet); err != nil {
			return err
		}
		if _, err := tx.Users.GetByID(ctx, targetID); err != nil {
			return err
		}
		if svc.promoteRequireMember {
			if _, err := tx.Members.FindActive(ctx, fleetID, targetID); err != nil {
				return err
			}
		}
		previous = fleet.CurrentBossID
		return tx.Fleets.UpdateBoss(ctx, fleetID, targetID)
	})
	if err != nil {
		return err
	}

	logging.WithFleet(fleetID, actorID).Infow("Fleet boss changed", "from", previous, "to", targetID)
	return nil
}

// DisbandFleet ends the fleet and closes the roster. Boss only; a second
// call fails because the fleet has already ended.
func (svc *FleetService) DisbandFleet(ctx context.Context, actorID, fleetID string) (err error) {
	defer func() { svc.record("disband", fleetID, actorID, err) }()

	err = svc.withFleet(ctx, fleetID, func(tx *repositories.Repository, fleet *gormModels.Fleet) error {
		if err := policy.RequireBoss(fleet, actorID); err != nil {
			return err
		}
		now := svc.now()
		if err := tx.Fleets.MarkEnded(ctx, fleetID, now); err != nil {
			return err
		}
		_, err := tx.Members.CloseAllForFleet(ctx, fleetID, now)
		return err
	})
	if err != nil {
		return err
	}

	logging.WithFleet(fleetID, actorID).Infow("Fleet disbanded")
	return nil
}
