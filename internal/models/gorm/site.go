package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SiteType is reference data describing a kind of site and its credit value.
type SiteType struct {
	ID        string `gorm:"column:id;primaryKey;size:36"`
	ShortName string `gorm:"column:short_name;uniqueIndex;not null"`
	LongName  string `gorm:"column:long_name"`
	Value     int64  `gorm:"column:value;not null"`
	Defunct   bool   `gorm:"column:defunct"`
}

// TableName specifies the table name for GORM
func (SiteType) TableName() string {
	return "st_site_types"
}

func (s *SiteType) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// SiteRecord is one site credited to a fleet.
type SiteRecord struct {
	ID           string    `gorm:"column:id;primaryKey;size:36"`
	SiteTypeID   string    `gorm:"column:site_type_id;size:36;not null"`
	SystemID     string    `gorm:"column:system_id;size:36;not null"`
	FleetID      string    `gorm:"column:fleet_id;size:36;not null;index"`
	CreditedAt   time.Time `gorm:"column:credited_at;not null"`
	CreditedByID string    `gorm:"column:credited_by_id;size:36;not null"`
	FleetSize    int       `gorm:"column:fleet_size;not null"`

	// Relationships
	SiteType   SiteType   `gorm:"foreignKey:SiteTypeID"`
	System     System     `gorm:"foreignKey:SystemID"`
	CreditedBy User       `gorm:"foreignKey:CreditedByID"`
	Claims     []UserSite `gorm:"foreignKey:SiteID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (SiteRecord) TableName() string {
	return "st_site_records"
}

func (s *SiteRecord) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// UserSite is a user's claim on a site. Pending claims await boss approval.
type UserSite struct {
	ID      string `gorm:"column:id;primaryKey;size:36"`
	SiteID  string `gorm:"column:site_id;size:36;not null;uniqueIndex:idx_st_user_sites_site_user"`
	UserID  string `gorm:"column:user_id;size:36;not null;uniqueIndex:idx_st_user_sites_site_user;index"`
	Pending bool   `gorm:"column:pending;not null"`

	// Relationships
	User User `gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for GORM
func (UserSite) TableName() string {
	return "st_user_sites"
}

func (u *UserSite) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Models lists every table sitetracker owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&System{},
		&SiteType{},
		&Fleet{},
		&MembershipRecord{},
		&SiteRecord{},
		&UserSite{},
	}
}
