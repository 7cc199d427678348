package api

import (
	"time"

	"evewspace/sitetracker/internal/auth"
	"evewspace/sitetracker/internal/common"
	"evewspace/sitetracker/internal/config"
	"evewspace/sitetracker/internal/db/repositories"
	"evewspace/sitetracker/internal/metrics"
	"evewspace/sitetracker/internal/services"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Repositories struct {
	Store *repositories.Repository
	// Keys is nil when the raw SQL pool is unavailable.
	Keys *repositories.KeysRepo
}

type Services struct {
	Cache    common.CacheInterface
	Fleets   *services.FleetService
	Sites    *services.SiteCreditService
	Views    *services.FleetViewService
	Export   *services.FleetExportService
	Catalog  *services.SiteTypeCatalog
	Tokens   *auth.TokenService
	Sessions *common.SessionService
}

type Dependencies struct {
	Repo     *Repositories
	Services *Services
	Metrics  *metrics.MetricsRegistry
	SQL      *sqlx.DB
	Redis    *redis.Client
}

// InitDependencies wires repositories and services. sqlDB and redisClient
// may be nil; the features backed by them are then disabled.
func InitDependencies(cfg *config.Config, gdb *gorm.DB, sqlDB *sqlx.DB, redisClient *redis.Client, metricsReg *metrics.MetricsRegistry) (*Dependencies, error) {
	store := repositories.NewRepository(gdb)

	repos := &Repositories{Store: store}
	if sqlDB != nil {
		repos.Keys = repositories.NewApiKeysRepo(sqlDB)
	}

	// Use Redis when available, else the in-process cache
	var cache common.CacheInterface
	var sessions *common.SessionService
	if redisClient != nil {
		cache = common.NewRedisCacheService(redisClient)
		sessions = common.NewSessionService(redisClient, 0)
	} else {
		cache = common.NewCacheService(cfg.Cache.TTLSeconds, 600)
	}

	opts := services.Options{
		Metrics:              metricsReg,
		PromoteRequireMember: cfg.Fleet.PromoteRequireMember,
	}

	locks := services.NewFleetLocks()
	catalog := services.NewSiteTypeCatalog(store.SiteTypes, cache, time.Duration(cfg.Cache.TTLSeconds)*time.Second, metricsReg)
	views := services.NewFleetViewService(store)

	svcs := &Services{
		Cache:    cache,
		Fleets:   services.NewFleetService(store, locks, opts),
		Sites:    services.NewSiteCreditService(store, locks, catalog, opts),
		Views:    views,
		Export:   services.NewFleetExportService(store, views),
		Catalog:  catalog,
		Tokens:   auth.NewTokenService([]byte(cfg.JWT.Secret), cfg.JWT.TTL),
		Sessions: sessions,
	}

	return &Dependencies{
		Repo:     repos,
		Services: svcs,
		Metrics:  metricsReg,
		SQL:      sqlDB,
		Redis:    redisClient,
	}, nil
}
