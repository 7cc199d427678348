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

// SiteCreditService owns site records and the claims on them.
type SiteCreditService struct {
	fleetMutator
	catalog *SiteTypeCatalog
	metrics *metrics.MetricsRegistry
	now     func() time.Time
}

// NewSiteCreditService creates a site credit service. locks must be the same
// instance the FleetService uses.
func NewSiteCreditService(repo *repositories.Repository, locks *FleetLocks, catalog *SiteTypeCatalog, opts Options) *SiteCreditService {
	return &SiteCreditService{
		fleetMutator: fleetMutator{repo: repo, locks: locks},
		catalog:      catalog,
		metrics:      opts.Metrics,
		now:          opts.clock(),
	}
}

func (svc *SiteCreditService) record(op, fleetID, actorID string, err error) {
	svc.metrics.RecordSiteOp(op, outcome(err))
	logFailure(op, fleetID, actorID, err)
}

// CreditSite records a completed site for the fleet and credits every
// current member with an approved claim. Boss only.
func (svc *SiteCreditService) CreditSite(ctx context.Context, actorID, fleetID, siteTypeShortName string) (site *gormModels.SiteRecord, err error) {
	defer func() { svc.record("credit", fleetID, actorID, err) }()

	if siteTypeShortName == "" {
		return nil, apperrors.ErrInvalidSiteTypeInput
	}
	// resolved outside the transaction; the lookup error is reported only
	// after the fleet guards pass
	siteType, typeErr := svc.catalog.Get(ctx, siteTypeShortName)

	err = svc.withFleet(ctx, fleetID, func(tx *repositories.Repository, fleet *gormModels.Fleet) error {
		if err := policy.RequireBoss(fleet, actorID); err != nil {
			return err
		}
		if typeErr != nil {
			return typeErr
		}

		roster, err := tx.Members.ListActiveByFleet(ctx, fleetID)
		if err != nil {
			return err
		}

		claims := make([]gormModels.UserSite, 0, len(roster))
		for _, m := range roster {
			claims = append(claims, gormModels.UserSite{UserID: m.UserID, Pending: false})
		}

		site = &gormModels.SiteRecord{
			SiteTypeID:   siteType.ID,
			SystemID:     fleet.SystemID,
			FleetID:      fleetID,
			CreditedAt:   svc.now(),
			CreditedByID: actorID,
			FleetSize:    len(roster),
			Claims:       claims,
		}
		return tx.Sites.Create(ctx, site)
	})
	if err != nil {
		return nil, err
	}

	site.SiteType = *siteType
	logging.WithFleet(fleetID, actorID).Infow("Site credited",
		"site_id", site.ID, "site_type", siteType.ShortName, "fleet_size", site.FleetSize)
	return site, nil
}

// RemoveSite deletes a site record of the fleet along with its claims. Boss only.
func (svc *SiteCreditService) RemoveSite(ctx context.Context, actorID, fleetID, siteID string) (err error) {
	defer func() { svc.record("remove", fleetID, actorID, err) }()

	err = svc.withFleet(ctx, fleetID, func(tx *repositories.Repository, fleet *gormModels.Fleet) error {
		if err := policy.RequireBoss(fleet, actorID); err != nil {
			return err
		}
		if _, err := tx.Sites.GetInFleet(ctx, fleetID, siteID); err != nil {
			return err
		}
		return tx.Sites.Delete(ctx, siteID)
	})
	if err != nil {
		return err
	}

	logging.WithFleet(fleetID, actorID).Infow("Site removed", "site_id", siteID)
	return nil
}

// RequestCredit files a pending self-claim for the actor. A second request
// on the same site is rejected.
func (svc *SiteCreditService) RequestCredit(ctx context.Context, actorID, fleetID, siteID string) (claim *gormModels.UserSite, err error) {
	defer func() { svc.record("request", fleetID, actorID, err) }()

	err = svc.withFleet(ctx, fleetID, func(tx *repositories.Repository, fleet *gormModels.Fleet) error {
		if err := policy.RequireActive(fleet); err != nil {
			return err
		}
		var err error
		claim, err = svc.requestCredit(ctx, tx, fleetID, siteID, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// GrantCredit gives targetID an approved claim, approving a pending one if
// present. Boss only.
func (svc *SiteCreditService) GrantCredit(ctx context.Context, actorID, fleetID, siteID, targetID string) (claim *gormModels.UserSite, err error) {
	defer func() { svc.record("grant", fleetID, actorID, err) }()

	err = svc.withFleet(ctx, fleetID, func(tx *repositories.Repository, fleet *gormModels.Fleet) error {
		if err := policy.RequireBoss(fleet, actorID); err != nil {
			return err
		}
		var err error
		claim, err = svc.grantCredit(ctx, tx, fleetID, siteID, targetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// ClaimSite is the combined claim entry point. The boss grants or approves
// credit for anyone; other users may only file a pending claim for
// themselves on a site they have not claimed yet. An empty targetID means
// the actor.
func (svc *SiteCreditService) ClaimSite(ctx context.Context, actorID, fleetID, siteID, targetID string) (claim *gormModels.UserSite, err error) {
	defer func() { svc.record("claim", fleetID, actorID, err) }()

	if targetID == "" {
		targetID = actorID
	}

	err = svc.withFleet(ctx, fleetID, func(tx *repositories.Repository, fleet *gormModels.Fleet) error {
		if err := policy.RequireActive(fleet); err != nil {
			return err
		}
		if !policy.IsBoss(fleet, actorID) && actorID != targetID {
			return apperrors.ErrNotClaimOwner
		}
		if _, err := tx.Sites.GetInFleet(ctx, fleetID, siteID); err != nil {
			return err
		}

		_, findErr := tx.Sites.FindClaim(ctx, siteID, targetID)
		if findErr != nil && !errors.Is(findErr, apperrors.ErrClaimNotFound) {
			return findErr
		}

		var err error
		switch policy.DecideClaim(fleet, actorID, targetID, findErr == nil) {
		case policy.ClaimGrant:
			claim, err = svc.grantCredit(ctx, tx, fleetID, siteID, targetID)
		case policy.ClaimRequest:
			claim, err = svc.requestCredit(ctx, tx, fleetID, siteID, actorID)
		default:
			err = apperrors.ErrAlreadyClaimed
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// UnclaimSite removes targetID's claim. The boss may remove any claim and a
// user their own. Removing a claim that does not exist does nothing.
func (svc *SiteCreditService) UnclaimSite(ctx context.Context, actorID, fleetID, siteID, targetID string) (err error) {
	defer func() { svc.record("unclaim", fleetID, actorID, err) }()

	if targetID == "" {
		targetID = actorID
	}

	var removed bool
	err = svc.withFleet(ctx, fleetID, func(tx *repositories.Repository, fleet *gormModels.Fleet) error {
		if err := policy.RequireActive(fleet); err != nil {
			return err
		}
		if !policy.CanUnclaim(fleet, actorID, targetID) {
			return apperrors.ErrNotClaimOwner
		}
		if _, err := tx.Sites.GetInFleet(ctx, fleetID, siteID); err != nil {
			return err
		}
		var err error
		removed, err = tx.Sites.DeleteClaim(ctx, siteID, targetID)
		return err
	})
	if err != nil {
		return err
	}

	if removed {
		logging.WithFleet(fleetID, actorID).Infow("Claim removed", "site_id", siteID, "target_id", targetID)
	}
	return nil
}

// ApproveClaim clears the pending flag on targetID's claim. Boss only.
func (svc *SiteCreditService) ApproveClaim(ctx context.Context, actorID, fleetID, siteID, targetID string) (err error) {
	defer func() { svc.record("approve", fleetID, actorID, err) }()

	err = svc.withFleet(ctx, fleetID, func(tx *repositories.Repository, fleet *gormModels.Fleet) error {
		if err := policy.RequireBoss(fleet, actorID); err != nil {
			return err
		}
		if _, err := tx.Sites.GetInFleet(ctx, fleetID, siteID); err != nil {
			return err
		}
		claim, err := tx.Sites.FindClaim(ctx, siteID, targetID)
		if err != nil {
			return err
		}
		if !claim.Pending {
			return nil
		}
		return tx.Sites.ApproveClaim(ctx, claim.ID)
	})
	if err != nil {
		return err
	}

	logging.WithFleet(fleetID, actorID).Infow("Claim approved", "site_id", siteID, "target_id", targetID)
	return nil
}

func (svc *SiteCreditService) requestCredit(ctx context.Context, tx *repositories.Repository, fleetID, siteID, actorID string) (*gormModels.UserSite, error) {
	if _, err := tx.Sites.GetInFleet(ctx, fleetID, siteID); err != nil {
		return nil, err
	}
	if _, err := tx.Users.GetByID(ctx, actorID); err != nil {
		return nil, err
	}

	_, err := tx.Sites.FindClaim(ctx, siteID, actorID)
	if err == nil {
		return nil, apperrors.ErrAlreadyClaimed
	}
	if !errors.Is(err, apperrors.ErrClaimNotFound) {
		return nil, err
	}

	claim := &gormModels.UserSite{SiteID: siteID, UserID: actorID, Pending: true}
	if err := tx.Sites.CreateClaim(ctx, claim); err != nil {
		return nil, err
	}

	logging.WithFleet(fleetID, actorID).Infow("Credit requested", "site_id", siteID)
	return claim, nil
}

func (svc *SiteCreditService) grantCredit(ctx context.Context, tx *repositories.Repository, fleetID, siteID, targetID string) (*gormModels.UserSite, error) {
	if _, err := tx.Sites.GetInFleet(ctx, fleetID, siteID); err != nil {
		return nil, err
	}
	if _, err := tx.Users.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	claim, err := tx.Sites.FindClaim(ctx, siteID, targetID)
	switch {
	case err == nil:
		if claim.Pending {
			if err := tx.Sites.ApproveClaim(ctx, claim.ID); err != nil {
				return nil, err
			}
			claim.Pending = false
		}
	case errors.Is(err, apperrors.ErrClaimNotFound):
		claim = &gormModels.UserSite{SiteID: siteID, UserID: targetID, Pending: false}
		if err := tx.Sites.CreateClaim(ctx, claim); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	logging.Info("Credit granted", "fleet_id", fleetID, "site_id", siteID, "target_id", targetID)
	return claim, nil
}
