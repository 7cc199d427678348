package gorm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// System is a map location a fleet operates in.
type System struct {
	ID    string `gorm:"column:id;primaryKey;size:36"`
	Name  string `gorm:"column:name;uniqueIndex;not null"`
	Class string `gorm:"column:class"`
}

// TableName specifies the table name for GORM
func (System) TableName() string {
	return "systems"
}

func (s *System) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
