package workers

import (
	"context"
	"testing"
	"time"

	"evewspace/sitetracker/internal/common"
	"evewspace/sitetracker/internal/db/dbtest"
	"evewspace/sitetracker/internal/db/repositories"
	"evewspace/sitetracker/internal/metrics"
	"evewspace/sitetracker/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestFleetGaugeWorker_Refresh(t *testing.T) {
	gdb := dbtest.New(t)
	repo := repositories.NewRepository(gdb)
	m := metrics.NewMetricsRegistry(prometheus.NewRegistry())
	ctx := context.Background()

	alice := dbtest.User(t, gdb, "alice")
	bob := dbtest.User(t, gdb, "bob")
	system := dbtest.System(t, gdb, "J100820")
	dbtest.SiteType(t, gdb, "K162", 10)

	locks := services.NewFleetLocks()
	opts := services.Options{PromoteRequireMember: true}
	fleets := services.NewFleetService(repo, locks, opts)
	catalog := services.NewSiteTypeCatalog(repo.SiteTypes, common.NewCacheService(60, 120), time.Minute, nil)
	sites := services.NewSiteCreditService(repo, locks, catalog, opts)

	open, err := fleets.CreateFleet(ctx, alice.ID, system.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ended, err := fleets.CreateFleet(ctx, bob.ID, system.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := fleets.JoinFleet(ctx, bob.ID, open.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	site, err := sites.CreditSite(ctx, alice.ID, open.ID, "K162")
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := sites.UnclaimSite(ctx, bob.ID, open.ID, site.ID, bob.ID); err != nil {
		t.Fatalf("unclaim: %v", err)
	}
	if _, err := sites.RequestCredit(ctx, bob.ID, open.ID, site.ID); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := fleets.DisbandFleet(ctx, bob.ID, ended.ID); err != nil {
		t.Fatalf("disband: %v", err)
	}

	w := NewFleetGaugeWorker(repo, m)
	if err := w.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if got := testutil.ToFloat64(m.ActiveFleets); got != 1 {
		t.Errorf("active fleets = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ActiveMembers); got != 2 {
		t.Errorf("active members = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.PendingClaims); got != 1 {
		t.Errorf("pending claims = %v, want 1", got)
	}
}

func TestFleetGaugeWorker_StopsOnCancel(t *testing.T) {
	gdb := dbtest.New(t)
	w := NewFleetGaugeWorker(repositories.NewRepository(gdb), metrics.NewMetricsRegistry(prometheus.NewRegistry()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
