package auth

import (
	"context"

	"evewspace/sitetracker/internal/common"
)

type contextKey string

var userClaimsKey contextKey = "user_claims"
var sessionDataKey contextKey = "session_data"

func SetUserClaims(ctx context.Context, claims UserClaims) context.Context {
	return context.WithValue(ctx, userClaimsKey, claims)
}

func GetUserClaims(ctx context.Context) UserClaims {
	val := ctx.Value(userClaimsKey)
	if claims, ok := val.(UserClaims); ok {
		return claims
	}
	return nil
}

// SetSessionData stores the browser session behind the request
func SetSessionData(ctx context.Context, sessionData *common.SessionData) context.Context {
	return context.WithValue(ctx, sessionDataKey, sessionData)
}

// GetSessionData retrieves session data from context
func GetSessionData(ctx context.Context) *common.SessionData {
	if s, ok := ctx.Value(sessionDataKey).(*common.SessionData); ok {
		return s
	}
	return nil
}
