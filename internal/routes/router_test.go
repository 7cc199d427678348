package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"evewspace/sitetracker/internal/api"
	"evewspace/sitetracker/internal/auth"
	"evewspace/sitetracker/internal/config"
	"evewspace/sitetracker/internal/db/dbtest"
	"evewspace/sitetracker/internal/metrics"
	"evewspace/sitetracker/internal/models/dtos"
	gormModels "evewspace/sitetracker/internal/models/gorm"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

type apiEnv struct {
	t       *testing.T
	db      *gorm.DB
	handler http.Handler
	metrics *metrics.MetricsRegistry
	tokens  *auth.TokenService
}

func testConfig() *config.Config {
	cfg := &config.Config{AppEnv: "test"}
	cfg.DB.Driver = "sqlite"
	cfg.JWT.Secret = "router-test-secret"
	cfg.JWT.TTL = time.Hour
	cfg.RateLimit.RPS = 1000
	cfg.RateLimit.Burst = 1000
	cfg.Fleet.PromoteRequireMember = true
	cfg.Cache.TTLSeconds = 60
	cfg.Gauge.Interval = time.Minute
	return cfg
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	cfg := testConfig()
	gdb := dbtest.New(t)
	m := metrics.NewMetricsRegistry(prometheus.NewRegistry())

	deps, err := api.InitDependencies(cfg, gdb, nil, nil, m)
	if err != nil {
		t.Fatalf("init dependencies: %v", err)
	}
	return &apiEnv{
		t:       t,
		db:      gdb,
		handler: RegisterRoutes(cfg, deps, time.Now()),
		metrics: m,
		tokens:  deps.Services.Tokens,
	}
}

func (e *apiEnv) tokenFor(u *gormModels.User) string {
	token, _, err := e.tokens.Issue(u.ID, u.Username, auth.PermissionsFor(u))
	if err != nil {
		e.t.Fatalf("issue token: %v", err)
	}
	return token
}

// do sends a request as user (nil for anonymous) and decodes the envelope.
func (e *apiEnv) do(method, path string, user *gormModels.User, body any) (*httptest.ResponseRecorder, dtos.APIResponse) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+e.tokenFor(user))
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var resp dtos.APIResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	}
	return rec, resp
}

// dataField digs a string field out of the generic envelope data.
func dataField(t *testing.T, resp dtos.APIResponse, key string) string {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected object data, got %T", resp.Data)
	}
	v, _ := m[key].(string)
	return v
}

func TestFleetLifecycleOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	alice := dbtest.User(t, env.db, "alice")
	carol := dbtest.User(t, env.db, "carol")
	system := dbtest.System(t, env.db, "J100820")
	dbtest.SiteType(t, env.db, "K162", 10)

	rec, resp := env.do(http.MethodPost, "/api/v1/fleets", alice, dtos.CreateFleetRequest{SystemID: system.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create fleet = %d: %s", rec.Code, rec.Body.String())
	}
	fleetID := dataField(t, resp, "fleet_id")
	base := "/api/v1/fleets/" + fleetID

	if rec, _ := env.do(http.MethodPost, base+"/join", carol, nil); rec.Code != http.StatusOK {
		t.Fatalf("join = %d: %s", rec.Code, rec.Body.String())
	}

	rec, resp = env.do(http.MethodPost, base+"/sites", alice, dtos.CreditSiteRequest{SiteType: "K162"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("credit = %d: %s", rec.Code, rec.Body.String())
	}
	siteID := dataField(t, resp, "site_id")

	// carol is not the boss
	rec, resp = env.do(http.MethodPost, base+"/sites", carol, dtos.CreditSiteRequest{SiteType: "K162"})
	if rec.Code != http.StatusForbidden || resp.Kind != "PERMISSION_DENIED" {
		t.Fatalf("non-boss credit = %d kind %q", rec.Code, resp.Kind)
	}

	if rec, _ := env.do(http.MethodDelete, base+"/sites/"+siteID+"/claims/"+carol.ID, carol, nil); rec.Code != http.StatusOK {
		t.Fatalf("unclaim = %d: %s", rec.Code, rec.Body.String())
	}
	rec, resp = env.do(http.MethodPost, base+"/sites/"+siteID+"/claims", carol, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("self claim = %d: %s", rec.Code, rec.Body.String())
	}
	if pending, _ := resp.Data.(map[string]any)["pending"].(bool); !pending {
		t.Fatalf("expected a pending claim, got %+v", resp.Data)
	}

	rec, _ = env.do(http.MethodGet, base+"/sites/"+siteID+"/claims/pending", alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pending = %d", rec.Code)
	}
	if rec, _ := env.do(http.MethodPost, base+"/sites/"+siteID+"/claims/"+carol.ID+"/approve", alice, nil); rec.Code != http.StatusOK {
		t.Fatalf("approve = %d: %s", rec.Code, rec.Body.String())
	}

	rec, _ = env.do(http.MethodGet, base+"/export", carol, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Disposition"), ".xlsx") {
		t.Fatalf("export = %d, disposition %q", rec.Code, rec.Header().Get("Content-Disposition"))
	}

	if rec, _ := env.do(http.MethodPost, base+"/disband", alice, nil); rec.Code != http.StatusOK {
		t.Fatalf("disband = %d", rec.Code)
	}
	rec, resp = env.do(http.MethodPost, base+"/join", carol, nil)
	if rec.Code != http.StatusConflict || resp.Kind != "INVALID_STATE" {
		t.Fatalf("join ended fleet = %d kind %q", rec.Code, resp.Kind)
	}

	got := testutil.ToFloat64(env.metrics.HTTPRequestsTotal.WithLabelValues("/api/v1/fleets/{fleet_id}/join", http.MethodPost, "200"))
	if got != 1 {
		t.Errorf("expected one successful join counted under the route pattern, got %v", got)
	}
}

func TestRequestRejections(t *testing.T) {
	env := newAPIEnv(t)
	alice := dbtest.User(t, env.db, "alice")
	banned := &gormModels.User{Username: "dave", IsActive: true}
	if err := env.db.Create(banned).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	tests := []struct {
		name     string
		method   string
		path     string
		user     *gormModels.User
		body     any
		wantCode int
	}{
		{"anonymous", http.MethodGet, "/api/v1/fleets", nil, nil, http.StatusUnauthorized},
		{"missing permission", http.MethodGet, "/api/v1/fleets", banned, nil, http.StatusForbidden},
		{"unknown fleet", http.MethodGet, "/api/v1/fleets/nope", alice, nil, http.StatusNotFound},
		{"empty create body", http.MethodPost, "/api/v1/fleets", alice, nil, http.StatusBadRequest},
		{"missing kick target", http.MethodPost, "/api/v1/fleets/nope/kick", alice, dtos.TargetUserRequest{}, http.StatusBadRequest},
		{"unknown system", http.MethodPost, "/api/v1/fleets", alice, dtos.CreateFleetRequest{SystemID: "nowhere"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := env.do(tt.method, tt.path, tt.user, tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func TestListsAndTokens(t *testing.T) {
	env := newAPIEnv(t)
	alice := dbtest.User(t, env.db, "alice")
	system := dbtest.System(t, env.db, "J100820")
	dbtest.SiteType(t, env.db, "CORE", 30)

	if rec, _ := env.do(http.MethodPost, "/api/v1/fleets", alice, dtos.CreateFleetRequest{SystemID: system.ID}); rec.Code != http.StatusCreated {
		t.Fatalf("create = %d", rec.Code)
	}

	for _, path := range []string{"/api/v1/fleets", "/api/v1/fleets/mine"} {
		_, resp := env.do(http.MethodGet, path, alice, nil)
		if list, _ := resp.Data.([]any); len(list) != 1 {
			t.Errorf("%s: expected one fleet, got %+v", path, resp.Data)
		}
	}

	_, resp := env.do(http.MethodGet, "/api/v1/site-types", alice, nil)
	if list, _ := resp.Data.([]any); len(list) != 1 {
		t.Errorf("expected one site type, got %+v", resp.Data)
	}

	_, resp = env.do(http.MethodDelete, "/api/v1/fleets/memberships", alice, nil)
	if left, _ := resp.Data.(map[string]any)["fleets_left"].(float64); left != 1 {
		t.Errorf("expected to leave one fleet, got %+v", resp.Data)
	}

	rec, resp := env.do(http.MethodPost, "/api/v1/auth/token", alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("token = %d", rec.Code)
	}
	token := dataField(t, resp, "token")
	claims, err := env.tokens.Parse(token)
	if err != nil || claims.UserID() != alice.ID {
		t.Fatalf("issued token did not parse back to alice: %v", err)
	}

	// sessions need Redis
	if rec, _ := env.do(http.MethodPost, "/api/v1/auth/session", alice, nil); rec.Code != http.StatusConflict {
		t.Errorf("session without redis = %d, want 409", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/healthCheck", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("health = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Status   string                    `json:"status"`
		Services map[string]map[string]any `json:"services"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Services["database"] == nil {
		t.Errorf("unexpected health body %+v", body)
	}
}
