package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"evewspace/sitetracker/internal/apperrors"
	"evewspace/sitetracker/internal/common"
	"evewspace/sitetracker/internal/db/dbtest"
	"evewspace/sitetracker/internal/db/repositories"
	"evewspace/sitetracker/internal/metrics"
	gormModels "evewspace/sitetracker/internal/models/gorm"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

type testEnv struct {
	db      *gorm.DB
	repo    *repositories.Repository
	metrics *metrics.MetricsRegistry
	fleets  *FleetService
	sites   *SiteCreditService
	views   *FleetViewService
	export  *FleetExportService
	catalog *SiteTypeCatalog
	system  *gormModels.System
	clock   *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// Now advances a second on every call so join times are strictly ordered.
func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestEnv(t *testing.T, promoteRequireMember bool) *testEnv {
	t.Helper()

	db := dbtest.New(t)
	repo := repositories.NewRepository(db)
	m := metrics.NewMetricsRegistry(prometheus.NewRegistry())
	clock := &fakeClock{now: time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)}
	opts := Options{Metrics: m, Now: clock.Now, PromoteRequireMember: promoteRequireMember}

	locks := NewFleetLocks()
	catalog := NewSiteTypeCatalog(repo.SiteTypes, common.NewCacheService(60, 120), time.Minute, m)
	views := NewFleetViewService(repo)

	return &testEnv{
		db:      db,
		repo:    repo,
		metrics: m,
		fleets:  NewFleetService(repo, locks, opts),
		sites:   NewSiteCreditService(repo, locks, catalog, opts),
		views:   views,
		export:  NewFleetExportService(repo, views),
		catalog: catalog,
		system:  dbtest.System(t, db, "J123450"),
		clock:   clock,
	}
}

func (e *testEnv) newFleet(t *testing.T, boss *gormModels.User) *gormModels.Fleet {
	t.Helper()
	fleet, err := e.fleets.CreateFleet(context.Background(), boss.ID, e.system.ID)
	if err != nil {
		t.Fatalf("CreateFleet: %v", err)
	}
	return fleet
}

func (e *testEnv) join(t *testing.T, fleetID string, users ...*gormModels.User) {
	t.Helper()
	for _, u := range users {
		if _, err := e.fleets.JoinFleet(context.Background(), u.ID, fleetID); err != nil {
			t.Fatalf("JoinFleet %s: %v", u.Username, err)
		}
	}
}

func (e *testEnv) activeCount(t *testing.T, fleetID, userID string) int64 {
	t.Helper()
	var n int64
	err := e.db.Model(&gormModels.MembershipRecord{}).
		Where("fleet_id = ? AND user_id = ? AND leave_time IS NULL", fleetID, userID).
		Count(&n).Error
	if err != nil {
		t.Fatalf("count memberships: %v", err)
	}
	return n
}

func (e *testEnv) reload(t *testing.T, fleetID string) *gormModels.Fleet {
	t.Helper()
	fleet, err := e.repo.Fleets.GetByID(context.Background(), fleetID)
	if err != nil {
		t.Fatalf("reload fleet: %v", err)
	}
	return fleet
}

func assertKind(t *testing.T, err error, want apperrors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := apperrors.KindOf(err); got != want {
		t.Fatalf("expected %s, got %s (%v)", want, got, err)
	}
}

func TestCreateFleet_BossIsActiveMember(t *testing.T) {
	env := newTestEnv(t, true)
	a := dbtest.User(t, env.db, "alice")

	fleet := env.newFleet(t, a)

	if fleet.InitialBossID != a.ID || fleet.CurrentBossID != a.ID {
		t.Fatalf("expected alice as initial and current boss, got %s/%s", fleet.InitialBossID, fleet.CurrentBossID)
	}
	if fleet.SystemID != env.system.ID {
		t.Errorf("expected system %s, got %s", env.system.ID, fleet.SystemID)
	}
	if fleet.Ended {
		t.Error("expected new fleet to be active")
	}
	if n := env.activeCount(t, fleet.ID, a.ID); n != 1 {
		t.Fatalf("expected one active membership for boss, got %d", n)
	}
}

func TestCreateFleet_UnknownSystemOrUser(t *testing.T) {
	env := newTestEnv(t, true)
	a := dbtest.User(t, env.db, "alice")
	ctx := context.Background()

	_, err := env.fleets.CreateFleet(ctx, a.ID, "missing-system")
	if !errors.Is(err, apperrors.ErrSystemNotFound) {
		t.Fatalf("expected ErrSystemNotFound, got %v", err)
	}

	_, err = env.fleets.CreateFleet(ctx, "missing-user", env.system.ID)
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	var count int64
	env.db.Model(&gormModels.Fleet{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no fleets after failed creates, got %d", count)
	}
}

func TestJoinFleet_Idempotent(t *testing.T) {
	env := newTestEnv(t, true)
	a := dbtest.User(t, env.db, "alice")
	b := dbtest.User(t, env.db, "bob")
	fleet := env.newFleet(t, a)
	ctx := context.Background()

	first, err := env.fleets.JoinFleet(ctx, b.ID, fleet.ID)
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	second, err := env.fleets.JoinFleet(ctx, b.ID, fleet.ID)
	if err != nil {
		t.Fatalf("second join: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected the open record to be reused, got %s and %s", first.ID, second.ID)
	}
	if n := env.activeCount(t, fleet.ID, b.ID); n != 1 {
		t.Fatalf("expected one active membership, got %d", n)
	}
}

func TestJoinFleet_RejoinAfterLeaveOpensNewInterval(t *testing.T) {
	env := newTestEnv(t, true)
	a := dbtest.User(t, env.db, "alice")
	b := dbtest.User(t, env.db, "bob")
	fleet := env.newFleet(t, a)
	ctx := context.Background()

	env.join(t, fleet.ID, b)
	if err := env.fleets.LeaveFleet(ctx, b.ID, fleet.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	env.join(t, fleet.ID, b)

	history, err := env.repo.Members.ListByFleet(ctx, fleet.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var bobRecords int
	for _, r := range history {
		if r.UserID == b.ID {
			bobRecords++
		}
	}
	if bobRecords != 2 {
		t.Fatalf("expected two intervals for bob, got %d", bobRecords)
	}
	if n := env.activeCount(t, fleet.ID, b.ID); n != 1 {
		t.Fatalf("expected one active membership, got %d", n)
	}
}

func TestJoinFleet_Concurrent(t *testing.T) {
	env := newTestEnv(t, true)
	a := dbtest.User(t, env.db, "alice")
	b := dbtest.User(t, env.db, "bob")
	fleet := env.newFleet(t, a)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.fleets.JoinFleet(context.Background(), b.ID, fleet.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent join: %v", err)
	}
	if n := env.activeCount(t, fleet.ID, b.ID); n != 1 {
		t.Fatalf("expected one active membership, got %d", n)
	}
}

func TestLeaveFleet_NoMembershipIsNoop(t *testing.T) {
	env := newTestEnv(t, true)
	a := dbtest.User(t, env.db, "alice")
	b := dbtest.User(t, env.db, "bob")
	fleet := env.newFleet(t, a)

	if err := env.fleets.LeaveFleet(context.Background(), b.ID, fleet.ID); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestLeaveAllFleets(t *testing.T) {
	env := newTestEnv(t, true)
	a := dbtest.User(t, env.db, "alice")
	c := dbtest.User(t, env.db, "carol")
	b := dbtest.User(t, env.db, "bob")
	f1 := env.newFleet(t, a)
	f2 := env.newFleet(t, c)
	env.join(t, f1.ID, b)
	env.join(t, f2.ID, b)

	left, err := env.fleets.LeaveAllFleets(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("LeaveAllFleets: %v", err)
	}
	if left != 2 {
		t.Fatalf("expected to leave 2 fleets, got %d", left)
	}
	if env.activeCount(t, f1.ID, b.ID)+env.activeCount(t, f2.ID, b.ID) != 0 {
		t.Fatal("expected no active memberships left")
	}

	left, err = env.fleets.LeaveAllFleets(context.Background(), b.ID)
	if err != nil || left != 0 {
		t.Fatalf("expected second call to leave nothing, got %d, %v", left, err)
	}
}

func TestKickMember(t *testing.T) {
	env := newTestEnv(t, true)
	a := dbtest.User(t, env.db, "alice")
	d := dbtest.User(t, env.db, "dave")
	e := dbtest.User(t, env.db, "erin")
	fleet := env.newFleet(t, a)
	env.join(t, fleet.ID, d, e)
	ctx := context.Background()

	// non boss D tries to kick E
	err := env.fleets.KickMember(ctx, d.ID, fleet.ID, e.ID)
	if !errors.Is(err, apperrors.ErrNotBoss) {
		t.Fatalf("expected ErrNotBoss, got %v", err)
	}
	if n := env.activeCount(t, fleet.ID, e.ID); n != 1 {
		t.Fatal("expected erin to remain after rejected kick")
	}

	if err := env.fleets.KickMember(ctx, a.ID, fleet.ID, e.ID); err != nil {
		t.Fatalf("boss kick: %v", err)
	}
	if n := env.activeCount(t, fleet.ID, e.ID); n != 0 {
		t.Fatal("expected erin to be removed")
	}

	err = env.fleets.KickMember(ctx, a.ID, fleet.ID, e.ID)
	if !errors.Is(err, apperrors.ErrMembershipNotFound) {
		t.Fatalf("expected ErrMembershipNotFound on second kick, got %v", err)
	}
}

func TestPromoteThenDisband(t *testing.T) {
	env := newTestEnv(t, true)
	a := dbtest.User(t, env.db, "alice")
	b := dbtest.User(t, env.db, "bob")
	fleet := env.newFleet(t, a)
	env.join(t, fleet.ID, b)
	ctx := context.Background()

	if err := env.fleets.PromoteMember(ctx, a.ID, fleet.ID, b.ID); err != nil {
		t.Fatalf("promote: %v", err)
	}

	err := env.fleets.DisbandFleet(ctx, a.ID, fleet.ID)
	assertKind(t, err, apperrors.KindPermissionDenied)

	if err := env.fleets.DisbandFleet(ctx, b.ID, fleet.ID); err != nil {
		t.Fatalf("disband by new boss: %v", err)
	}

	got := env.reload(t, fleet.ID)
	if !got.Ended || got.EndedAt == nil {
		t.Fatal("expected fleet to be ended with a timestamp")
	}
	if got.InitialBossID != a.ID {
		t.Errorf("expected initial boss to stay alice, got %s", got.InitialBossID)
	}
	if env.activeCount(t, fleet.ID, a.ID)+env.activeCount(t, fleet.ID, b.ID) != 0 {
		t.Error("expected disband to close the roster")
	}
}

func TestPromoteMember_SeizureByNonBoss(t *testing.T) {
	env := newTestEnv(t, true)
	a := dbtest.User(t, env.db, "alice")
	b := dbtest.User(t, env.db, "bob")
	fleet := env.newFleet(t, a)
	env.join(t, fleet.ID, b)

	if err := env.fleets.PromoteMember(context.Background(), b.ID, fleet.ID, b.ID); err != nil {
		t.Fatalf("expected seizure to succeed, got %v", err)
	}
	if got := env.reload(t, fleet.ID); got.CurrentBossID != b.ID {
		t.Fatalf("expected bob as boss, got %s", got.CurrentBossID)
	}
}

func TestPromoteMember_TargetChecks(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t, true)
		a := dbtest.User(t, env.db, "alice")
		fleet := env.newFleet(t, a)

		err := env.fleets.PromoteMember(ctx, a.ID, fleet.ID, "nobody")
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("non member rejected by default", func(t *testing.T) {
		env := newTestEnv(t, true)
		a := dbtest.User(t, env.db, "alice")
		outsider := dbtest.User(t, env.db, "oscar")
		fleet := env.newFleet(t, a)

		err := env.fleets.PromoteMember(ctx, a.ID, fleet.ID, outsider.ID)
		if !errors.Is(err, apperrors.ErrMembershipNotFound) {
			t.Fatalf("expected ErrMembershipNotFound, got %v", err)
		}
		if got := env.reload(t, fleet.ID); got.CurrentBossID != a.ID {
			t.Fatal("expected boss to be unchanged")
		}
	})

	t.Run("non member allowed when permissive", func(t *testing.T) {
		env := newTestEnv(t, false)
		a := dbtest.User(t, env.db, "alice")
		outsider := dbtest.User(t, env.db, "oscar")
		fleet := env.newFleet(t, a)

		if err := env.fleets.PromoteMember(ctx, a.ID, fleet.ID, outsider.ID); err != nil {
			t.Fatalf("expected permissive promote, got %v", err)
		}
	})
}

func TestEndedFleetRejectsEveryMutation(t *testing.T) {
	env := newTestEnv(t, true)
	a := dbtest.User(t, env.db, "alice")
	b := dbtest.User(t, env.db, "bob")
	dbtest.SiteType(t, env.db, "K162", 10)
	fleet := env.newFleet(t, a)
	env.join(t, fleet.ID, b)
	ctx := context.Background()

	site, err := env.sites.CreditSite(ctx, a.ID, fleet.ID, "K162")
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := env.fleets.DisbandFleet(ctx, a.ID, fleet.ID); err != nil {
		t.Fatalf("disband: %v", err)
	}

	ops := map[string]func() error{
		"disband": func() error { return env.fleets.DisbandFleet(ctx, a.ID, fleet.ID) },
		"join": func() error {
			_, err := env.fleets.JoinFleet(ctx, b.ID, fleet.ID)
			return err
		},
		"leave":   func() error { return env.fleets.LeaveFleet(ctx, b.ID, fleet.ID) },
		"kick":    func() error { return env.fleets.KickMember(ctx, a.ID, fleet.ID, b.ID) },
		"promote": func() error { return env.fleets.PromoteMember(ctx, a.ID, fleet.ID, b.ID) },
		"credit": func() error {
			_, err := env.sites.CreditSite(ctx, a.ID, fleet.ID, "K162")
			return err
		},
		"remove": func() error { return env.sites.RemoveSite(ctx, a.ID, fleet.ID, site.ID) },
		"claim": func() error {
			_, err := env.sites.ClaimSite(ctx, b.ID, fleet.ID, site.ID, b.ID)
			return err
		},
		"request": func() error {
			_, err := env.sites.RequestCredit(ctx, b.ID, fleet.ID, site.ID)
			return err
		},
		"grant": func() error {
			_, err := env.sites.GrantCredit(ctx, a.ID, fleet.ID, site.ID, b.ID)
			return err
		},
		"unclaim": func() error { return env.sites.UnclaimSite(ctx, a.ID, fleet.ID, site.ID, b.ID) },
		"approve": func() error { return env.sites.ApproveClaim(ctx, a.ID, fleet.ID, site.ID, b.ID) },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			if !errors.Is(err, apperrors.ErrFleetEnded) {
				t.Fatalf("expected ErrFleetEnded, got %v", err)
			}
		})
	}
}

func TestUnknownFleet(t *testing.T) {
	env := newTestEnv(t, true)
	a := dbtest.User(t, env.db, "alice")

	err := env.fleets.DisbandFleet(context.Background(), a.ID, "missing")
	if !errors.Is(err, apperrors.ErrFleetNotFound) {
		t.Fatalf("expected ErrFleetNotFound, got %v", err)
	}
}

func TestFleetOperationMetrics(t *testing.T) {
	env := newTestEnv(t, true)
	a := dbtest.User(t, env.db, "alice")
	b := dbtest.User(t, env.db, "bob")
	fleet := env.newFleet(t, a)
	env.join(t, fleet.ID, b)

	_ = env.fleets.DisbandFleet(context.Background(), b.ID, fleet.ID)

	if got := testutil.ToFloat64(env.metrics.FleetOperationsTotal.WithLabelValues("create", "ok")); got != 1 {
		t.Errorf("expected 1 create, got %v", got)
	}
	if got := testutil.ToFloat64(env.metrics.FleetOperationsTotal.WithLabelValues("disband", "permission_denied")); got != 1 {
		t.Errorf("expected 1 denied disband, got %v", got)
	}
}
