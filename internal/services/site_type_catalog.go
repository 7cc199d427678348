package services

import (
	"context"
	"time"

	"evewspace/sitetracker/internal/apperrors"
	"evewspace/sitetracker/internal/common"
	"evewspace/sitetracker/internal/constants"
	"evewspace/sitetracker/internal/db/repositories"
	"evewspace/sitetracker/internal/metrics"
	"evewspace/sitetracker/internal/models/dtos/responses"
	gormModels "evewspace/sitetracker/internal/models/gorm"

	"golang.org/x/sync/singleflight"
)

// SiteTypeCatalog serves site type reference data from cache. Concurrent
// misses for one key share a single database read.
type SiteTypeCatalog struct {
	repo    *repositories.SiteTypeRepository
	cache   common.CacheInterface
	ttl     time.Duration
	metrics *metrics.MetricsRegistry
	group   singleflight.Group
}

func NewSiteTypeCatalog(repo *repositories.SiteTypeRepository, cache common.CacheInterface, ttl time.Duration, m *metrics.MetricsRegistry) *SiteTypeCatalog {
	return &SiteTypeCatalog{repo: repo, cache: cache, ttl: ttl, metrics: m}
}

// Get resolves a site type by short name. Defunct types are reported as
// not found so they can no longer be credited.
func (c *SiteTypeCatalog) Get(ctx context.Context, shortName string) (*gormModels.SiteType, error) {
	if shortName == "" {
		return nil, apperrors.ErrInvalidSiteTypeInput
	}

	key := string(constants.CachePrefixSiteType) + shortName
	if val, found := c.cache.Get(key); found {
		if st, ok := common.DecodeCached[gormModels.SiteType](val); ok {
			c.metrics.RecordCache(string(constants.CachePrefixSiteType), true)
			return usable(&st)
		}
	}
	c.metrics.RecordCache(string(constants.CachePrefixSiteType), false)

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		st, err := c.repo.GetByShortName(ctx, shortName)
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, *st, c.ttl)
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	return usable(val.(*gormModels.SiteType))
}

func usable(st *gormModels.SiteType) (*gormModels.SiteType, error) {
	if st.Defunct {
		return nil, apperrors.ErrSiteTypeNotFound
	}
	return st, nil
}

// List returns every creditable site type.
func (c *SiteTypeCatalog) List(ctx context.Context) ([]responses.SiteTypeView, error) {
	key := string(constants.CachePrefixSiteTypes)
	if val, found := c.cache.Get(key); found {
		if views, ok := common.DecodeCached[[]responses.SiteTypeView](val); ok {
			c.metrics.RecordCache(key, true)
			return views, nil
		}
	}
	c.metrics.RecordCache(key, false)

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		types, err := c.repo.ListAvailable(ctx)
		if err != nil {
			return nil, err
		}
		views := make([]responses.SiteTypeView, 0, len(types))
		for _, st := range types {
			views = append(views, responses.SiteTypeView{
				ShortName: st.ShortName,
				LongName:  st.LongName,
				Value:     st.Value,
			})
		}
		c.cache.Set(key, views, c.ttl)
		return views, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]responses.SiteTypeView), nil
}

// Invalidate drops every cached site type.
func (c *SiteTypeCatalog) Invalidate() {
	c.cache.DeletePrefix(string(constants.CachePrefixSiteType))
	c.cache.Delete(string(constants.CachePrefixSiteTypes))
}
