package constants

// Permission strings carried in auth claims.
const (
	PermSiteTracker = "sitetracker.can_sitetracker"
	PermAdmin       = "sitetracker.admin"
)
