package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Repository groups the sitetracker repositories over one gorm handle so a
// service can run several of them inside a single transaction.
type Repository struct {
	db *gorm.DB

	Fleets    *FleetRepository
	Members   *MembershipRepository
	Sites     *SiteRepository
	SiteTypes *SiteTypeRepository
	Users     *UserRepository
	Systems   *SystemRepository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:        db,
		Fleets:    NewFleetRepository(db),
		Members:   NewMembershipRepository(db),
		Sites:     NewSiteRepository(db),
		SiteTypes: NewSiteTypeRepository(db),
		Users:     NewUserRepository(db),
		Systems:   NewSystemRepository(db),
	}
}

// DB returns the underlying gorm handle.
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// InTx runs fn against a Repository bound to one transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
func (r *Repository) InTx(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
