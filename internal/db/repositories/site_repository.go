package repositories

import (
	"context"
	"errors"
	"fmt"

	"evewspace/sitetracker/internal/apperrors"
	gormModels "evewspace/sitetracker/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SiteRepository struct {
	db *gorm.DB
}

// NewSiteRepository creates a new GORM-based site record and claim repository
func NewSiteRepository(db *gorm.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// Create inserts a site record together with any claims set on it
func (r *SiteRepository) Create(ctx context.Context, site *gormModels.SiteRecord) error {
	claims := site.Claims
	site.Claims = nil

	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(site).Error
	if err != nil {
		return fmt.Errorf("failed to create site record: %w", err)
	}

	if len(claims) > 0 {
		for i := range claims {
			claims[i].SiteID = site.ID
		}
		if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&claims).Error; err != nil {
			return fmt.Errorf("failed to create site claims: %w", err)
		}
	}
	site.Claims = claims
	return nil
}

// GetInFleet fetches a site record only if it belongs to the fleet
func (r *SiteRepository) GetInFleet(ctx context.Context, fleetID, siteID string) (*gormModels.SiteRecord, error) {
	var site gormModels.SiteRecord

	err := r.db.WithContext(ctx).
		Preload("SiteType").
		Where("id = ? AND fleet_id = ?", siteID, fleetID).
		First(&site).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSiteNotFound
		}
		return nil, fmt.Errorf("failed to fetch site record: %w", err)
	}
	return &site, nil
}

// ListByFleet returns the fleet's sites in credit order with types and claims preloaded
func (r *SiteRepository) ListByFleet(ctx context.Context, fleetID string) ([]gormModels.SiteRecord, error) {
	var sites []gormModels.SiteRecord

	err := r.db.WithContext(ctx).
		Preload("SiteType").
		Preload("System").
		Preload("CreditedBy").
		Preload("Claims").
		Preload("Claims.User").
		Where("fleet_id = ?", fleetID).
		Order("credited_at ASC").
		Find(&sites).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list fleet sites: %w", err)
	}
	return sites, nil
}

// Delete removes a site record and its claims. Claims are deleted explicitly
// so the cascade holds on sqlite, where foreign keys are off by default.
func (r *SiteRepository) Delete(ctx context.Context, siteID string) error {
	db := r.db.WithContext(ctx)

	if err := db.Where("site_id = ?", siteID).Delete(&gormModels.UserSite{}).Error; err != nil {
		return fmt.Errorf("failed to delete site claims: %w", err)
	}
	if err := db.Where("id = ?", siteID).Delete(&gormModels.SiteRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete site record: %w", err)
	}
	return nil
}

// FindClaim returns the user's claim on a site
func (r *SiteRepository) FindClaim(ctx context.Context, siteID, userID string) (*gormModels.UserSite, error) {
	var claim gormModels.UserSite

	err := r.db.WithContext(ctx).
		Where("site_id = ? AND user_id = ?", siteID, userID).
		First(&claim).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrClaimNotFound
		}
		return nil, fmt.Errorf("failed to fetch claim: %w", err)
	}
	return &claim, nil
}

// CreateClaim inserts a claim
func (r *SiteRepository) CreateClaim(ctx context.Context, claim *gormModels.UserSite) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(claim).Error; err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}
	return nil
}

// ApproveClaim clears the pending flag
func (r *SiteRepository) ApproveClaim(ctx context.Context, claimID string) error {
	err := r.db.WithContext(ctx).
		Model(&gormModels.UserSite{}).
		Where("id = ?", claimID).
		Update("pending", false).Error

	if err != nil {
		return fmt.Errorf("failed to approve claim: %w", err)
	}
	return nil
}

// DeleteClaim removes the user's claim on a site and reports whether one existed
func (r *SiteRepository) DeleteClaim(ctx context.Context, siteID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("site_id = ? AND user_id = ?", siteID, userID).
		Delete(&gormModels.UserSite{})

	if res.Error != nil {
		return false, fmt.Errorf("failed to delete claim: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListPendingBySite returns the pending claims on one site
func (r *SiteRepository) ListPendingBySite(ctx context.Context, siteID string) ([]gormModels.UserSite, error) {
	var claims []gormModels.UserSite

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("site_id = ? AND pending = ?", siteID, true).
		Find(&claims).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list pending claims: %w", err)
	}
	return claims, nil
}

// ListClaimsByUserInFleet returns every claim the user holds on the fleet's sites
func (r *SiteRepository) ListClaimsByUserInFleet(ctx context.Context, fleetID, userID string) ([]gormModels.UserSite, error) {
	var claims []gormModels.UserSite

	err := r.db.WithContext(ctx).
		Joins("JOIN st_site_records ON st_site_records.id = st_user_sites.site_id").
		Where("st_site_records.fleet_id = ? AND st_user_sites.user_id = ?", fleetID, userID).
		Find(&claims).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list member claims: %w", err)
	}
	return claims, nil
}

// CountPending returns the number of pending claims across fleets that have not ended
func (r *SiteRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&gormModels.UserSite{}).
		Joins("JOIN st_site_records ON st_site_records.id = st_user_sites.site_id").
		Joins("JOIN st_fleets ON st_fleets.id = st_site_records.fleet_id").
		Where("st_user_sites.pending = ? AND st_fleets.ended = ?", true, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending claims: %w", err)
	}
	return count, nil
}
