package middleware

import (
	"context"
	"net/http"
	"time"

	"evewspace/sitetracker/internal/logging"
)

type loggedUserKey struct{}

// loggedUser is filled in by AuthMiddleware further down the chain.
type loggedUser struct {
	id string
}

func noteUser(ctx context.Context, userID string) {
	if lu, ok := ctx.Value(loggedUserKey{}).(*loggedUser); ok {
		lu.id = userID
	}
}

// Logging writes one structured line per request once the handler returns.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		user := &loggedUser{}

		next.ServeHTTP(lw, r.WithContext(context.WithValue(r.Context(), loggedUserKey{}, user)))

		logging.WithRequest(GetRequestID(r.Context()), user.id, r.URL.Path).Infow("HTTP request completed",
			"method", r.Method,
			"status_code", lw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
