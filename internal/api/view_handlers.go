package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"evewspace/sitetracker/internal/common"
)

// ActiveFleets handles GET /api/v1/fleets
//
// @Summary      List open fleets
// @Tags         Fleets
// @Produce      json
// @Success      200  {object}  dtos.FleetListSwaggerResponse
// @Router       /api/v1/fleets [get]
func (h *Handlers) ActiveFleets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		fleets, err := h.deps.Services.Views.ActiveFleets(r.Context())
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Active fleets fetched", fleets)
	}
}

// MyFleets handles GET /api/v1/fleets/mine
//
// @Summary      List the caller's fleets
// @Tags         Fleets
// @Produce      json
// @Success      200  {object}  dtos.FleetListSwaggerResponse
// @Router       /api/v1/fleets/mine [get]
func (h *Handlers) MyFleets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, err := actorID(r)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		fleets, err := h.deps.Services.Views.MyFleets(r.Context(), actor)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Fleets fetched", fleets)
	}
}

// FleetDetail handles GET /api/v1/fleets/{fleet_id}
//
// @Summary      Fleet roster, sites and credit
// @Tags         Fleets
// @Produce      json
// @Param        fleet_id  path      string  true  "Fleet ID"
// @Success      200       {object}  dtos.FleetDetailSwaggerResponse
// @Failure      404       {object}  dtos.APIResponse
// @Router       /api/v1/fleets/{fleet_id} [get]
func (h *Handlers) FleetDetail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, fleetID, ok := fleetRequest(w, r, initTime)
		if !ok {
			return
		}

		detail, err := h.deps.Services.Views.FleetDetail(r.Context(), actor, fleetID)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Fleet fetched", detail)
	}
}

// BossPanel handles GET /api/v1/fleets/{fleet_id}/boss
//
// @Summary      Boss management view
// @Tags         Fleets
// @Produce      json
// @Param        fleet_id  path      string  true  "Fleet ID"
// @Success      200       {object}  dtos.BossPanelSwaggerResponse
// @Failure      403       {object}  dtos.APIResponse
// @Router       /api/v1/fleets/{fleet_id}/boss [get]
func (h *Handlers) BossPanel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, fleetID, ok := fleetRequest(w, r, initTime)
		if !ok {
			return
		}

		panel, err := h.deps.Services.Views.BossPanel(r.Context(), actor, fleetID)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Boss panel fetched", panel)
	}
}

// MemberDetail handles GET /api/v1/fleets/{fleet_id}/members/{user_id}
func (h *Handlers) MemberDetail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, fleetID, ok := fleetRequest(w, r, initTime)
		if !ok {
			return
		}
		memberID, err := urlParam(r, "user_id")
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		detail, err := h.deps.Services.Views.MemberDetail(r.Context(), actor, fleetID, memberID)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Member fetched", detail)
	}
}

// ExportFleet handles GET /api/v1/fleets/{fleet_id}/export
//
// @Summary      Download the fleet as a spreadsheet
// @Tags         Fleets
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        fleet_id  path  string  true  "Fleet ID"
// @Success      200
// @Failure      404  {object}  dtos.APIResponse
// @Router       /api/v1/fleets/{fleet_id}/export [get]
func (h *Handlers) ExportFleet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, fleetID, ok := fleetRequest(w, r, initTime)
		if !ok {
			return
		}

		data, name, err := h.deps.Services.Export.ExportFleet(r.Context(), actor, fleetID)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
