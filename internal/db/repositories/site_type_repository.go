package repositories

import (
	"context"
	"errors"
	"fmt"

	"evewspace/sitetracker/internal/apperrors"
	gormModels "evewspace/sitetracker/internal/models/gorm"

	"gorm.io/gorm"
)

type SiteTypeRepository struct {
	db *gorm.DB
}

// NewSiteTypeRepository creates a new GORM-based site type repository
func NewSiteTypeRepository(db *gorm.DB) *SiteTypeRepository {
	return &SiteTypeRepository{db: db}
}

// GetByShortName fetches a site type by its short identifier, e.g. K162
func (r *SiteTypeRepository) GetByShortName(ctx context.Context, shortName string) (*gormModels.SiteType, error) {
	var siteType gormModels.SiteType

	err := r.db.WithContext(ctx).
		Where("short_name = ?", shortName).
		First(&siteType).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSiteTypeNotFound
		}
		return nil, fmt.Errorf("failed to fetch site type: %w", err)
	}
	return &siteType, nil
}

// ListAvailable returns every site type that is not defunct
func (r *SiteTypeRepository) ListAvailable(ctx context.Context) ([]gormModels.SiteType, error) {
	var types []gormModels.SiteType

	err := r.db.WithContext(ctx).
		Where("defunct = ?", false).
		Order("short_name ASC").
		Find(&types).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list site types: %w", err)
	}
	return types, nil
}

// Create inserts a site type
func (r *SiteTypeRepository) Create(ctx context.Context, siteType *gormModels.SiteType) error {
	if err := r.db.WithContext(ctx).Create(siteType).Error; err != nil {
		return fmt.Errorf("failed to create site type: %w", err)
	}
	return nil
}
