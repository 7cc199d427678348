package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Fleet is a bounded-lifetime group led by a boss in one system.
// InitialBossID is written once at creation.
type Fleet struct {
	ID            string     `gorm:"column:id;primaryKey;size:36"`
	SystemID      string     `gorm:"column:system_id;size:36;not null;index"`
	InitialBossID string     `gorm:"column:initial_boss_id;size:36;not null"`
	CurrentBossID string     `gorm:"column:current_boss_id;size:36;not null;index"`
	Ended         bool       `gorm:"column:ended;not null;index"`
	StartedAt     time.Time  `gorm:"column:started_at;not null"`
	EndedAt       *time.Time `gorm:"column:ended_at"`

	// Relationships
	System      System             `gorm:"foreignKey:SystemID"`
	InitialBoss User               `gorm:"foreignKey:InitialBossID"`
	CurrentBoss User               `gorm:"foreignKey:CurrentBossID"`
	Members     []MembershipRecord `gorm:"foreignKey:FleetID"`
	Sites       []SiteRecord       `gorm:"foreignKey:FleetID"`
}

// TableName specifies the table name for GORM
func (Fleet) TableName() string {
	return "st_fleets"
}

func (f *Fleet) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// MembershipRecord is one join interval of a user in a fleet.
// LeaveTime NULL means the user is still in the fleet; the partial unique
// index keeps that to one open record per (fleet, user).
type MembershipRecord struct {
	ID        string     `gorm:"column:id;primaryKey;size:36"`
	FleetID   string     `gorm:"column:fleet_id;size:36;not null;index;uniqueIndex:idx_st_user_logs_active,where:leave_time IS NULL"`
	UserID    string     `gorm:"column:user_id;size:36;not null;index;uniqueIndex:idx_st_user_logs_active,where:leave_time IS NULL"`
	JoinTime  time.Time  `gorm:"column:join_time;not null"`
	LeaveTime *time.Time `gorm:"column:leave_time"`

	// Relationships
	Fleet Fleet `gorm:"foreignKey:FleetID"`
	User  User  `gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for GORM
func (MembershipRecord) TableName() string {
	return "st_user_logs"
}

func (m *MembershipRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Active reports whether the interval is still open.
func (m MembershipRecord) Active() bool {
	return m.LeaveTime == nil
}
