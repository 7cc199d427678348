package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"evewspace/sitetracker/internal/apperrors"
	"evewspace/sitetracker/internal/auth"
	"evewspace/sitetracker/internal/common"
	"evewspace/sitetracker/internal/constants"
	"evewspace/sitetracker/internal/db/repositories"
	"evewspace/sitetracker/internal/logging"
	"evewspace/sitetracker/internal/models/entities"
)

// KeyStatusGetter looks up an API key.
type KeyStatusGetter interface {
	GetStatus(ctx context.Context, key string) (*entities.ApiKey, error)
}

// SessionGetter resolves a session cookie.
type SessionGetter interface {
	GetSession(ctx context.Context, sessionID string) (*common.SessionData, error)
}

// AuthDeps are the credential stores AuthMiddleware checks. Keys and
// Sessions may be nil when that credential type is disabled.
type AuthDeps struct {
	Users    *repositories.UserRepository
	Keys     KeyStatusGetter
	Tokens   *auth.TokenService
	Sessions SessionGetter
}

// AuthMiddleware resolves the acting user from a bearer token, an API key
// acting for X-User-Id, or a session cookie, in that order.
func AuthMiddleware(deps AuthDeps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			apiKey := r.Header.Get(constants.HeaderAPIKey)

			var claims auth.UserClaims

			switch {
			case strings.HasPrefix(authHeader, "Bearer ") && deps.Tokens != nil:
				jwtClaims, err := deps.Tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
				if err != nil {
					common.RespondAppError(w, start, apperrors.ErrUnauthenticated)
					return
				}
				claims = jwtClaims

			case apiKey != "" && deps.Keys != nil:
				keyRes, err := deps.Keys.GetStatus(ctx, apiKey)
				if err != nil || !keyRes.Status {
					common.RespondAppError(w, start, apperrors.New(apperrors.KindUnauthenticated, "invalid or inactive API key"))
					return
				}

				user, err := deps.Users.GetByID(ctx, r.Header.Get(constants.HeaderUserID))
				if err != nil {
					common.RespondAppError(w, start, apperrors.ErrUnauthenticated)
					return
				}
				claims = auth.MakeClaimsFromApi(user)

			default:
				session := sessionFromCookie(r, deps.Sessions)
				if session == nil {
					common.RespondAppError(w, start, apperrors.ErrUnauthenticated)
					return
				}
				claims = &auth.SessionClaims{
					UserUUID:  session.UserID,
					Name:      session.Username,
					Perms:     session.Permissions,
					SessionID: session.SessionID,
				}
				ctx = auth.SetSessionData(ctx, session)
			}

			noteUser(ctx, claims.UserID())
			ctx = auth.SetUserClaims(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromCookie(r *http.Request, sessions SessionGetter) *common.SessionData {
	if sessions == nil {
		return nil
	}
	cookie, err := r.Cookie(constants.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	session, err := sessions.GetSession(r.Context(), cookie.Value)
	if err != nil {
		logging.Debug("Session lookup failed", "error", err)
		return nil
	}
	return session
}
