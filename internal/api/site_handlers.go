package api

import (
	"net/http"
	"time"

	"evewspace/sitetracker/internal/common"
	"evewspace/sitetracker/internal/constants"
	"evewspace/sitetracker/internal/models/dtos"
	"evewspace/sitetracker/internal/models/dtos/responses"
	gormModels "evewspace/sitetracker/internal/models/gorm"
	"evewspace/sitetracker/internal/services"
)

// CreditSite handles POST /api/v1/fleets/{fleet_id}/sites
//
// @Summary      Credit a site
// @Description  Records a completed site and credits every active member. Boss only.
// @Tags         Sites
// @Accept       json
// @Produce      json
// @Param        fleet_id  path      string                  true  "Fleet ID"
// @Param        input     body      dtos.CreditSiteRequest  true  "Site type short name"
// @Success      201       {object}  dtos.APIResponse
// @Failure      403       {object}  dtos.APIResponse
// @Failure      404       {object}  dtos.APIResponse
// @Failure      409       {object}  dtos.APIResponse
// @Router       /api/v1/fleets/{fleet_id}/sites [post]
func (h *Handlers) CreditSite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, fleetID, ok := fleetRequest(w, r, initTime)
		if !ok {
			return
		}

		var req dtos.CreditSiteRequest
		if err := decodeBody(r, &req, false); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		site, err := h.deps.Services.Sites.CreditSite(r.Context(), actor, fleetID, req.SiteType)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Site credited", siteView(site), http.StatusCreated)
	}
}

// RemoveSite handles DELETE /api/v1/fleets/{fleet_id}/sites/{site_id}
func (h *Handlers) RemoveSite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, fleetID, siteID, ok := siteRequest(w, r, initTime)
		if !ok {
			return
		}

		if err := h.deps.Services.Sites.RemoveSite(r.Context(), actor, fleetID, siteID); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, constants.MsgSiteRemoved, nil)
	}
}

// ClaimSite handles POST /api/v1/fleets/{fleet_id}/sites/{site_id}/claims
//
// @Summary      Claim credit for a site
// @Description  Without a user_id the caller claims for themselves and the claim waits for approval.
// @Description  The boss may name any user, which grants an approved claim.
// @Tags         Sites
// @Accept       json
// @Produce      json
// @Param        fleet_id  path      string                  true   "Fleet ID"
// @Param        site_id   path      string                  true   "Site ID"
// @Param        input     body      dtos.TargetUserRequest  false  "Claimant"
// @Success      201       {object}  dtos.APIResponse
// @Failure      403       {object}  dtos.APIResponse
// @Router       /api/v1/fleets/{fleet_id}/sites/{site_id}/claims [post]
func (h *Handlers) ClaimSite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, fleetID, siteID, ok := siteRequest(w, r, initTime)
		if !ok {
			return
		}

		var req dtos.TargetUserRequest
		if err := decodeBody(r, &req, true); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		claim, err := h.deps.Services.Sites.ClaimSite(r.Context(), actor, fleetID, siteID, req.UserID)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Claim recorded", responses.ClaimView{
			UserID:  claim.UserID,
			Pending: claim.Pending,
		}, http.StatusCreated)
	}
}

// UnclaimSite handles DELETE /api/v1/fleets/{fleet_id}/sites/{site_id}/claims/{user_id}
func (h *Handlers) UnclaimSite() http.HandlerFunc {
	return h.claimAction(constants.MsgClaimRemoved, func(r *http.Request, actor, fleetID, siteID, target string) error {
		return h.deps.Services.Sites.UnclaimSite(r.Context(), actor, fleetID, siteID, target)
	})
}

// ApproveClaim handles POST /api/v1/fleets/{fleet_id}/sites/{site_id}/claims/{user_id}/approve
func (h *Handlers) ApproveClaim() http.HandlerFunc {
	return h.claimAction(constants.MsgClaimApproved, func(r *http.Request, actor, fleetID, siteID, target string) error {
		return h.deps.Services.Sites.ApproveClaim(r.Context(), actor, fleetID, siteID, target)
	})
}

// PendingClaims handles GET /api/v1/fleets/{fleet_id}/sites/{site_id}/claims/pending
func (h *Handlers) PendingClaims() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		_, fleetID, siteID, ok := siteRequest(w, r, initTime)
		if !ok {
			return
		}

		pending, err := h.deps.Services.Views.PendingClaims(r.Context(), fleetID, siteID)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Pending claims fetched", pending)
	}
}

// ListSiteTypes handles GET /api/v1/site-types
func (h *Handlers) ListSiteTypes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		types, err := h.deps.Services.Catalog.List(r.Context())
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Site types fetched", types)
	}
}

func (h *Handlers) claimAction(msg string, fn func(r *http.Request, actor, fleetID, siteID, target string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, fleetID, siteID, ok := siteRequest(w, r, initTime)
		if !ok {
			return
		}
		target, err := urlParam(r, "user_id")
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		if err := fn(r, actor, fleetID, siteID, target); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, msg, nil)
	}
}

func siteRequest(w http.ResponseWriter, r *http.Request, initTime time.Time) (actor, fleetID, siteID string, ok bool) {
	actor, fleetID, ok = fleetRequest(w, r, initTime)
	if !ok {
		return "", "", "", false
	}
	siteID, err := urlParam(r, "site_id")
	if err != nil {
		common.RespondAppError(w, initTime, err)
		return "", "", "", false
	}
	return actor, fleetID, siteID, true
}

func siteView(site *gormModels.SiteRecord) responses.SiteView {
	approved := 0
	claims := make([]responses.ClaimView, 0, len(site.Claims))
	for _, c := range site.Claims {
		if !c.Pending {
			approved++
		}
		claims = append(claims, responses.ClaimView{UserID: c.UserID, Pending: c.Pending})
	}
	return responses.SiteView{
		SiteID:         site.ID,
		SiteType:       site.SiteType.ShortName,
		SiteTypeName:   site.SiteType.LongName,
		Value:          site.SiteType.Value,
		CreditedAt:     site.CreditedAt,
		FleetSize:      site.FleetSize,
		ApprovedClaims: approved,
		ShareValue:     services.SiteShare(site.SiteType.Value, approved),
		Claims:         claims,
	}
}
