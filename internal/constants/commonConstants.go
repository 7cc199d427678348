package constants

import "time"

type (
	RequestSource string
	APIStatus     string
	CachePrefix   string
)

const (
	RequestSourceAPI       RequestSource = "API"
	RequestSourceWebClient RequestSource = "WEB_CLIENT"

	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixSiteType  CachePrefix = "ST_TYPE_"
	CachePrefixSiteTypes CachePrefix = "ST_TYPES_ALL"
	CachePrefixSession   CachePrefix = "session:"
)

const (
	SessionCookieName = "sitetracker_session"
	SessionTTL        = 12 * time.Hour

	HeaderAPIKey    = "X-API-Key"
	HeaderUserID    = "X-User-Id"
	HeaderRequestID = "X-Request-Id"
)
