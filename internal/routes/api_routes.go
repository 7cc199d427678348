package routes

import (
	"evewspace/sitetracker/internal/api"
	"evewspace/sitetracker/internal/config"
	"evewspace/sitetracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes registers all API v1 routes and handlers
func RegisterAPIRoutes(r chi.Router, cfg *config.Config, deps *api.Dependencies, handlers *api.Handlers) {
	authDeps := middleware.AuthDeps{
		Users:  deps.Repo.Store.Users,
		Tokens: deps.Services.Tokens,
	}
	// leave the interfaces nil rather than holding typed nil pointers
	if deps.Repo.Keys != nil {
		authDeps.Keys = deps.Repo.Keys
	}
	if deps.Services.Sessions != nil {
		authDeps.Sessions = deps.Services.Sessions
	}

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		v1.Use(middleware.AuthMiddleware(authDeps)) // global: all routes must be authenticated

		v1.Post("/auth/token", handlers.IssueToken())
		v1.Post("/auth/session", handlers.CreateSession())
		v1.Delete("/auth/session", handlers.DeleteSession())

		v1.Group(func(st chi.Router) {
			st.Use(middleware.CanSiteTrackerMiddleware())

			st.Get("/site-types", handlers.ListSiteTypes())

			st.Route("/fleets", func(fleets chi.Router) {
				fleets.Get("/", handlers.ActiveFleets())
				fleets.Post("/", handlers.CreateFleet())
				fleets.Get("/mine", handlers.MyFleets())
				fleets.Delete("/memberships", handlers.LeaveAllFleets())

				fleets.Route("/{fleet_id}", func(fleet chi.Router) {
					fleet.Get("/", handlers.FleetDetail())
					fleet.Get("/boss", handlers.BossPanel())
					fleet.Get("/export", handlers.ExportFleet())
					fleet.Get("/members/{user_id}", handlers.MemberDetail())

					fleet.Post("/join", handlers.JoinFleet())
					fleet.Post("/leave", handlers.LeaveFleet())
					fleet.Post("/kick", handlers.KickMember())
					fleet.Post("/promote", handlers.PromoteMember())
					fleet.Post("/disband", handlers.DisbandFleet())

					fleet.Post("/sites", handlers.CreditSite())
					fleet.Route("/sites/{site_id}", func(site chi.Router) {
						site.Delete("/", handlers.RemoveSite())
						site.Post("/claims", handlers.ClaimSite())
						site.Get("/claims/pending", handlers.PendingClaims())
						site.Delete("/claims/{user_id}", handlers.UnclaimSite())
						site.Post("/claims/{user_id}/approve", handlers.ApproveClaim())
					})
				})
			})
		})
	})
}
