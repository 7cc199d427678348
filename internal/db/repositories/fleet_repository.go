package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"evewspace/sitetracker/internal/apperrors"
	gormModels "evewspace/sitetracker/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FleetRepository struct {
	db *gorm.DB
}

// NewFleetRepository creates a new GORM-based fleet repository
func NewFleetRepository(db *gorm.DB) *FleetRepository {
	return &FleetRepository{db: db}
}

// Create inserts a new fleet
func (r *FleetRepository) Create(ctx context.Context, fleet *gormModels.Fleet) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(fleet).Error; err != nil {
		return fmt.Errorf("failed to create fleet: %w", err)
	}
	return nil
}

// GetByID fetches a fleet without relationships
func (r *FleetRepository) GetByID(ctx context.Context, fleetID string) (*gormModels.Fleet, error) {
	var fleet gormModels.Fleet

	err := r.db.WithContext(ctx).
		Where("id = ?", fleetID).
		First(&fleet).Error

	if err != nil {
		return nil, translateFleetErr(err)
	}
	return &fleet, nil
}

// GetForUpdate fetches a fleet and takes a row lock on it for the rest of the
// surrounding transaction. sqlite ignores the locking clause.
func (r *FleetRepository) GetForUpdate(ctx context.Context, fleetID string) (*gormModels.Fleet, error) {
	var fleet gormModels.Fleet

	q := r.db.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Where("id = ?", fleetID).First(&fleet).Error

	if err != nil {
		return nil, translateFleetErr(err)
	}
	return &fleet, nil
}

// GetDetail fetches a fleet with its system, bosses and active roster preloaded
func (r *FleetRepository) GetDetail(ctx context.Context, fleetID string) (*gormModels.Fleet, error) {
	var fleet gormModels.Fleet

	err := r.db.WithContext(ctx).
		Preload("System").
		Preload("InitialBoss").
		Preload("CurrentBoss").
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Where("leave_time IS NULL").Order("join_time ASC")
		}).
		Preload("Members.User").
		Where("id = ?", fleetID).
		First(&fleet).Error

	if err != nil {
		return nil, translateFleetErr(err)
	}
	return &fleet, nil
}

// ListActive returns every fleet that has not ended, newest first
func (r *FleetRepository) ListActive(ctx context.Context) ([]gormModels.Fleet, error) {
	var fleets []gormModels.Fleet

	err := r.db.WithContext(ctx).
		Preload("System").
		Preload("CurrentBoss").
		Preload("Members", "leave_time IS NULL").
		Preload("Sites").
		Where("ended = ?", false).
		Order("started_at DESC").
		Find(&fleets).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list active fleets: %w", err)
	}
	return fleets, nil
}

// ListActiveForUser returns the open fleets in which the user holds an active membership
func (r *FleetRepository) ListActiveForUser(ctx context.Context, userID string) ([]gormModels.Fleet, error) {
	var fleets []gormModels.Fleet

	err := r.db.WithContext(ctx).
		Preload("System").
		Preload("CurrentBoss").
		Preload("Members", "leave_time IS NULL").
		Preload("Sites").
		Joins("JOIN st_user_logs ON st_user_logs.fleet_id = st_fleets.id").
		Where("st_user_logs.user_id = ? AND st_user_logs.leave_time IS NULL", userID).
		Where("st_fleets.ended = ?", false).
		Order("st_fleets.started_at DESC").
		Find(&fleets).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list fleets for user: %w", err)
	}
	return fleets, nil
}

// UpdateBoss replaces the current boss
func (r *FleetRepository) UpdateBoss(ctx context.Context, fleetID, bossID string) error {
	err := r.db.WithContext(ctx).
		Model(&gormModels.Fleet{}).
		Where("id = ?", fleetID).
		Update("current_boss_id", bossID).Error

	if err != nil {
		return fmt.Errorf("failed to update fleet boss: %w", err)
	}
	return nil
}

// MarkEnded soft-closes the fleet
func (r *FleetRepository) MarkEnded(ctx context.Context, fleetID string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&gormModels.Fleet{}).
		Where("id = ?", fleetID).
		Updates(map[string]interface{}{
			"ended":    true,
			"ended_at": at,
		}).Error

	if err != nil {
		return fmt.Errorf("failed to end fleet: %w", err)
	}
	return nil
}

// CountActive returns the number of fleets that have not ended
func (r *FleetRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&gormModels.Fleet{}).
		Where("ended = ?", false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active fleets: %w", err)
	}
	return count, nil
}

func translateFleetErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrFleetNotFound
	}
	return fmt.Errorf("failed to fetch fleet: %w", err)
}
