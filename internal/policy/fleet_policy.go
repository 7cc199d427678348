// Package policy holds the guards that gate fleet and site credit transitions.
// Guards only read the fleet they are given and never mutate anything, so a
// service can run them all before its first write.
package policy

import (
	"evewspace/sitetracker/internal/apperrors"
	gormModels "evewspace/sitetracker/internal/models/gorm"
)

// RequireActive fails with InvalidState once the fleet has ended.
func RequireActive(fleet *gormModels.Fleet) error {
	if fleet.Ended {
		return apperrors.ErrFleetEnded
	}
	return nil
}

// RequireBoss fails with InvalidState when the fleet has ended and with
// PermissionDenied unless userID is the current boss.
func RequireBoss(fleet *gormModels.Fleet, userID string) error {
	if err := RequireActive(fleet); err != nil {
		return err
	}
	if !IsBoss(fleet, userID) {
		return apperrors.ErrNotBoss
	}
	return nil
}

// IsBoss reports whether userID currently leads the fleet.
func IsBoss(fleet *gormModels.Fleet, userID string) bool {
	return userID != "" && fleet.CurrentBossID == userID
}

// IsMember reports whether userID has an open interval in the roster.
func IsMember(roster []gormModels.MembershipRecord, userID string) bool {
	for _, m := range roster {
		if m.UserID == userID && m.Active() {
			return true
		}
	}
	return false
}

// CanUnclaim reports whether actorID may remove targetID's claim: the boss
// may remove any claim, everyone else only their own.
func CanUnclaim(fleet *gormModels.Fleet, actorID, targetID string) bool {
	return IsBoss(fleet, actorID) || (actorID != "" && actorID == targetID)
}

// ClaimDecision is the outcome of a combined claim request.
type ClaimDecision int

const (
	// ClaimDenied rejects the request.
	ClaimDenied ClaimDecision = iota
	// ClaimGrant creates or approves an approved claim for the target.
	ClaimGrant
	// ClaimRequest creates a pending self-claim.
	ClaimRequest
)

// DecideClaim resolves who may claim a site on whose behalf. hasClaim says
// whether the target already holds a claim on the site.
func DecideClaim(fleet *gormModels.Fleet, actorID, targetID string, hasClaim bool) ClaimDecision {
	if IsBoss(fleet, actorID) {
		return ClaimGrant
	}
	if hasClaim {
		return ClaimDenied
	}
	if actorID != "" && actorID == targetID {
		return ClaimRequest
	}
	return ClaimDenied
}
