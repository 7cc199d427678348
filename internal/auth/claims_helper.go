package auth

import (
	"evewspace/sitetracker/internal/constants"
	gormModels "evewspace/sitetracker/internal/models/gorm"
)

// PermissionsFor derives the permission strings a stored user carries.
// Inactive users carry none.
func PermissionsFor(user *gormModels.User) []string {
	if !user.IsActive {
		return nil
	}
	var perms []string
	if user.CanSiteTracker {
		perms = append(perms, constants.PermSiteTracker)
	}
	return perms
}

func MakeClaimsFromApi(user *gormModels.User) *APIKeyClaims {
	return &APIKeyClaims{
		UserUUID: user.ID,
		Name:     user.Name(),
		Perms:    PermissionsFor(user),
	}
}
