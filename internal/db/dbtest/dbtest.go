// Package dbtest opens throwaway sqlite databases migrated with the
// sitetracker models, plus helpers to seed reference rows.
package dbtest

import (
	"context"
	"testing"

	"evewspace/sitetracker/internal/db"
	gormModels "evewspace/sitetracker/internal/models/gorm"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated in-memory database that lives as long as the test.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// an in-memory database exists per connection
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

// User inserts a user allowed to use the site tracker.
func User(t testing.TB, gdb *gorm.DB, username string) *gormModels.User {
	t.Helper()
	u := &gormModels.User{Username: username, DisplayName: username, IsActive: true, CanSiteTracker: true}
	if err := gdb.WithContext(context.Background()).Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

// System inserts a location.
func System(t testing.TB, gdb *gorm.DB, name string) *gormModels.System {
	t.Helper()
	s := &gormModels.System{Name: name, Class: "C3"}
	if err := gdb.WithContext(context.Background()).Create(s).Error; err != nil {
		t.Fatalf("seed system %s: %v", name, err)
	}
	return s
}

// SiteType inserts a site type with the given credit value.
func SiteType(t testing.TB, gdb *gorm.DB, shortName string, value int64) *gormModels.SiteType {
	t.Helper()
	st := &gormModels.SiteType{ShortName: shortName, LongName: shortName + " site", Value: value}
	if err := gdb.WithContext(context.Background()).Create(st).Error; err != nil {
		t.Fatalf("seed site type %s: %v", shortName, err)
	}
	return st
}
