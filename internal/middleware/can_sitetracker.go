package middleware

import (
	"net/http"
	"time"

	"evewspace/sitetracker/internal/apperrors"
	"evewspace/sitetracker/internal/auth"
	"evewspace/sitetracker/internal/common"
	"evewspace/sitetracker/internal/constants"
)

// RequirePermission rejects requests whose claims lack perm. It must run
// after AuthMiddleware.
func RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.GetUserClaims(r.Context())
			if claims == nil {
				common.RespondAppError(w, time.Now(), apperrors.ErrUnauthenticated)
				return
			}

			if !claims.HasPermission(perm) {
				common.RespondAppError(w, time.Now(), apperrors.ErrPermissionRequired)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CanSiteTrackerMiddleware gates every site tracker endpoint.
func CanSiteTrackerMiddleware() func(http.Handler) http.Handler {
	return RequirePermission(constants.PermSiteTracker)
}
