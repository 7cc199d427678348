package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"evewspace/sitetracker/internal/auth"
	"evewspace/sitetracker/internal/common"
	"evewspace/sitetracker/internal/constants"
	"evewspace/sitetracker/internal/db/dbtest"
	"evewspace/sitetracker/internal/db/repositories"
	"evewspace/sitetracker/internal/models/entities"
)

type stubKeys map[string]bool

func (s stubKeys) GetStatus(_ context.Context, key string) (*entities.ApiKey, error) {
	status, ok := s[key]
	if !ok {
		return nil, errors.New("no rows")
	}
	return &entities.ApiKey{ApiKey: key, Status: status}, nil
}

type stubSessions map[string]*common.SessionData

func (s stubSessions) GetSession(_ context.Context, id string) (*common.SessionData, error) {
	if data, ok := s[id]; ok {
		return data, nil
	}
	return nil, common.ErrSessionNotFound
}

// echoUser writes the resolved user id so tests can see who was authenticated.
func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := auth.GetUserClaims(r.Context())
		w.Write([]byte(claims.Source() + ":" + claims.UserID()))
	})
}

func TestAuthMiddleware(t *testing.T) {
	gdb := dbtest.New(t)
	alice := dbtest.User(t, gdb, "alice")

	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	token, _, err := tokens.Issue(alice.ID, "alice", auth.PermissionsFor(alice))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	deps := AuthDeps{
		Users:  repositories.NewUserRepository(gdb),
		Keys:   stubKeys{"live": true, "revoked": false},
		Tokens: tokens,
		Sessions: stubSessions{"sess-1": {
			SessionID: "sess-1", UserID: alice.ID, Username: "alice",
			Permissions: []string{constants.PermSiteTracker},
		}},
	}
	handler := AuthMiddleware(deps)(echoUser())

	tests := []struct {
		name     string
		setup    func(r *http.Request)
		wantCode int
		wantBody string
	}{
		{
			name:     "bearer token",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantCode: http.StatusOK,
			wantBody: "JWT:" + alice.ID,
		},
		{
			name:     "bad bearer token",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "api key for user",
			setup: func(r *http.Request) {
				r.Header.Set(constants.HeaderAPIKey, "live")
				r.Header.Set(constants.HeaderUserID, alice.ID)
			},
			wantCode: http.StatusOK,
			wantBody: "API_KEY:" + alice.ID,
		},
		{
			name: "revoked api key",
			setup: func(r *http.Request) {
				r.Header.Set(constants.HeaderAPIKey, "revoked")
				r.Header.Set(constants.HeaderUserID, alice.ID)
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "api key for unknown user",
			setup: func(r *http.Request) {
				r.Header.Set(constants.HeaderAPIKey, "live")
				r.Header.Set(constants.HeaderUserID, "ghost")
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "session cookie",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "sess-1"})
			},
			wantCode: http.StatusOK,
			wantBody: "SESSION:" + alice.ID,
		},
		{
			name: "unknown session",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "sess-2"})
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "no credentials",
			setup:    func(r *http.Request) {},
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/fleets", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := CanSiteTrackerMiddleware()(ok)

	tests := []struct {
		name     string
		claims   auth.UserClaims
		wantCode int
	}{
		{"no claims", nil, http.StatusUnauthorized},
		{"missing permission", &auth.JWTClaims{UserUUID: "u1"}, http.StatusForbidden},
		{"granted", &auth.JWTClaims{UserUUID: "u1", Perms: []string{constants.PermSiteTracker}}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.claims != nil {
				req = req.WithContext(auth.SetUserClaims(req.Context(), tt.claims))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("10.0.0.1:5000"); code != http.StatusOK {
		t.Fatalf("first request = %d", code)
	}
	if code := send("10.0.0.1:5001"); code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", code)
	}
	if code := send("10.0.0.2:5000"); code != http.StatusOK {
		t.Fatalf("other client = %d", code)
	}
	for i := 0; i < 3; i++ {
		if code := send("127.0.0.1:5000"); code != http.StatusOK {
			t.Fatalf("loopback request %d = %d", i, code)
		}
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(constants.HeaderRequestID, "abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen != "abc" || rec.Header().Get(constants.HeaderRequestID) != "abc" {
		t.Errorf("expected the caller's id to be kept, got %q", seen)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "abc" {
		t.Errorf("expected a generated id, got %q", seen)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := map[string]string{
		"/api/v1/fleets":                     "/api/v1/fleets",
		"/api/v1/fleets/42/sites":            "/api/v1/fleets/{id}/sites",
		"/api/v1/fleets/" + sampleUUID + "/": "/api/v1/fleets/{id}/",
	}
	for in, want := range tests {
		if got := NormalizeEndpoint(in); got != want {
			t.Errorf("NormalizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

const sampleUUID = "0b7c8e6a-4f1d-4c55-9d0e-3a1b2c3d4e5f"
