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

// MembershipRepository is the membership ledger. Records are only ever
// inserted or closed, never deleted.
type MembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new GORM-based membership ledger repository
func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Create opens a new membership interval
func (r *MembershipRepository) Create(ctx context.Context, record *gormModels.MembershipRecord) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// FindActive returns the open interval for (fleet, user)
func (r *MembershipRepository) FindActive(ctx context.Context, fleetID, userID string) (*gormModels.MembershipRecord, error) {
	var record gormModels.MembershipRecord

	err := r.db.WithContext(ctx).
		Where("fleet_id = ? AND user_id = ? AND leave_time IS NULL", fleetID, userID).
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to fetch membership: %w", err)
	}
	return &record, nil
}

// Latest returns the most recent interval for (fleet, user) by join time,
// open or closed.
func (r *MembershipRepository) Latest(ctx context.Context, fleetID, userID string) (*gormModels.MembershipRecord, error) {
	var record gormModels.MembershipRecord

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("fleet_id = ? AND user_id = ?", fleetID, userID).
		Order("join_time DESC").
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to fetch membership: %w", err)
	}
	return &record, nil
}

// ListActiveByFleet returns the current roster ordered by join time
func (r *MembershipRepository) ListActiveByFleet(ctx context.Context, fleetID string) ([]gormModels.MembershipRecord, error) {
	var records []gormModels.MembershipRecord

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("fleet_id = ? AND leave_time IS NULL", fleetID).
		Order("join_time ASC").
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list fleet members: %w", err)
	}
	return records, nil
}

// ListByFleet returns every interval ever recorded for the fleet
func (r *MembershipRepository) ListByFleet(ctx context.Context, fleetID string) ([]gormModels.MembershipRecord, error) {
	var records []gormModels.MembershipRecord

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("fleet_id = ?", fleetID).
		Order("join_time ASC").
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list fleet history: %w", err)
	}
	return records, nil
}

// ListActiveByUser returns every open interval the user holds across fleets
func (r *MembershipRepository) ListActiveByUser(ctx context.Context, userID string) ([]gormModels.MembershipRecord, error) {
	var records []gormModels.MembershipRecord

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND leave_time IS NULL", userID).
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list user memberships: %w", err)
	}
	return records, nil
}

// CloseForUser closes every open interval of the user in one fleet
func (r *MembershipRepository) CloseForUser(ctx context.Context, fleetID, userID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&gormModels.MembershipRecord{}).
		Where("fleet_id = ? AND user_id = ? AND leave_time IS NULL", fleetID, userID).
		Update("leave_time", at)

	if res.Error != nil {
		return 0, fmt.Errorf("failed to close membership: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CloseAllForUser closes every open interval the user holds across fleets
func (r *MembershipRepository) CloseAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&gormModels.MembershipRecord{}).
		Where("user_id = ? AND leave_time IS NULL", userID).
		Update("leave_time", at)

	if res.Error != nil {
		return 0, fmt.Errorf("failed to close memberships: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CloseAllForFleet closes the whole roster
func (r *MembershipRepository) CloseAllForFleet(ctx context.Context, fleetID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&gormModels.MembershipRecord{}).
		Where("fleet_id = ? AND leave_time IS NULL", fleetID).
		Update("leave_time", at)

	if res.Error != nil {
		return 0, fmt.Errorf("failed to close fleet roster: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CountActive returns the number of open intervals in fleets that have not ended
func (r *MembershipRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&gormModels.MembershipRecord{}).
		Joins("JOIN st_fleets ON st_fleets.id = st_user_logs.fleet_id").
		Where("st_user_logs.leave_time IS NULL AND st_fleets.ended = ?", false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active members: %w", err)
	}
	return count, nil
}
