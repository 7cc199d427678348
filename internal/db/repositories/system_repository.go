package repositories

import (
	"context"
	"errors"
	"fmt"

	"evewspace/sitetracker/internal/apperrors"
	gormModels "evewspace/sitetracker/internal/models/gorm"

	"gorm.io/gorm"
)

type SystemRepository struct {
	db *gorm.DB
}

// NewSystemRepository creates a new GORM-based location registry
func NewSystemRepository(db *gorm.DB) *SystemRepository {
	return &SystemRepository{db: db}
}

func (r *SystemRepository) GetByID(ctx context.Context, systemID string) (*gormModels.System, error) {
	var system gormModels.System

	err := r.db.WithContext(ctx).
		Where("id = ?", systemID).
		First(&system).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSystemNotFound
		}
		return nil, fmt.Errorf("failed to fetch system: %w", err)
	}
	return &system, nil
}

func (r *SystemRepository) Create(ctx context.Context, system *gormModels.System) error {
	if err := r.db.WithContext(ctx).Create(system).Error; err != nil {
		return fmt.Errorf("failed to create system: %w", err)
	}
	return nil
}
