package api

import (
	"net/http"
	"time"

	"evewspace/sitetracker/internal/apperrors"
	"evewspace/sitetracker/internal/common"
	"evewspace/sitetracker/internal/constants"
	"evewspace/sitetracker/internal/models/dtos"
	"evewspace/sitetracker/internal/models/dtos/responses"
)

// CreateFleet handles POST /api/v1/fleets
//
// @Summary      Start a fleet
// @Description  Creates a fleet in the given system with the caller as boss and first member.
// @Tags         Fleets
// @Accept       json
// @Produce      json
// @Param        input  body      dtos.CreateFleetRequest  true  "System"
// @Success      201    {object}  dtos.APIResponse
// @Failure      404    {object}  dtos.APIResponse
// @Router       /api/v1/fleets [post]
func (h *Handlers) CreateFleet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		actor, err := actorID(r)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		var req dtos.CreateFleetRequest
		if err := decodeBody(r, &req, false); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		if req.SystemID == "" {
			common.RespondAppError(w, initTime, apperrors.New(apperrors.KindInvalidArgument, "system_id is required"))
			return
		}

		fleet, err := h.deps.Services.Fleets.CreateFleet(r.Context(), actor, req.SystemID)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		detail, err := h.deps.Services.Views.FleetDetail(r.Context(), actor, fleet.ID)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Fleet created", detail, http.StatusCreated)
	}
}

// JoinFleet handles POST /api/v1/fleets/{fleet_id}/join
//
// @Summary      Join a fleet
// @Tags         Fleets
// @Produce      json
// @Param        fleet_id  path      string  true  "Fleet ID"
// @Success      200       {object}  dtos.APIResponse
// @Failure      409       {object}  dtos.APIResponse
// @Router       /api/v1/fleets/{fleet_id}/join [post]
func (h *Handlers) JoinFleet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, fleetID, ok := fleetRequest(w, r, initTime)
		if !ok {
			return
		}

		record, err := h.deps.Services.Fleets.JoinFleet(r.Context(), actor, fleetID)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Joined fleet", responses.MemberView{
			UserID:   record.UserID,
			Name:     claimsName(r),
			JoinTime: record.JoinTime,
		})
	}
}

// LeaveFleet handles POST /api/v1/fleets/{fleet_id}/leave
func (h *Handlers) LeaveFleet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, fleetID, ok := fleetRequest(w, r, initTime)
		if !ok {
			return
		}

		if err := h.deps.Services.Fleets.LeaveFleet(r.Context(), actor, fleetID); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, constants.MsgFleetLeft, nil)
	}
}

// LeaveAllFleets handles DELETE /api/v1/fleets/memberships
//
// @Summary      Leave every fleet
// @Description  Closes all of the caller's active memberships.
// @Tags         Fleets
// @Produce      json
// @Success      200  {object}  dtos.APIResponse
// @Router       /api/v1/fleets/memberships [delete]
func (h *Handlers) LeaveAllFleets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, err := actorID(r)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		left, err := h.deps.Services.Fleets.LeaveAllFleets(r.Context(), actor)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, constants.MsgFleetsLeft, responses.LeaveAllResult{FleetsLeft: left})
	}
}

// KickMember handles POST /api/v1/fleets/{fleet_id}/kick
//
// @Summary      Remove a member
// @Tags         Fleets
// @Accept       json
// @Produce      json
// @Param        fleet_id  path      string                  true  "Fleet ID"
// @Param        input     body      dtos.TargetUserRequest  true  "Member"
// @Success      200       {object}  dtos.APIResponse
// @Failure      403       {object}  dtos.APIResponse
// @Router       /api/v1/fleets/{fleet_id}/kick [post]
func (h *Handlers) KickMember() http.HandlerFunc {
	return h.targetAction(constants.MsgMemberKicked, func(r *http.Request, actor, fleetID, target string) error {
		return h.deps.Services.Fleets.KickMember(r.Context(), actor, fleetID, target)
	})
}

// PromoteMember handles POST /api/v1/fleets/{fleet_id}/promote
func (h *Handlers) PromoteMember() http.HandlerFunc {
	return h.targetAction(constants.MsgBossPromoted, func(r *http.Request, actor, fleetID, target string) error {
		return h.deps.Services.Fleets.PromoteMember(r.Context(), actor, fleetID, target)
	})
}

// DisbandFleet handles POST /api/v1/fleets/{fleet_id}/disband
func (h *Handlers) DisbandFleet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, fleetID, ok := fleetRequest(w, r, initTime)
		if !ok {
			return
		}

		if err := h.deps.Services.Fleets.DisbandFleet(r.Context(), actor, fleetID); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, constants.MsgFleetDisbanded, nil)
	}
}

// targetAction runs a boss action on the member named in the body.
func (h *Handlers) targetAction(msg string, fn func(r *http.Request, actor, fleetID, target string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, fleetID, ok := fleetRequest(w, r, initTime)
		if !ok {
			return
		}

		var req dtos.TargetUserRequest
		if err := decodeBody(r, &req, false); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		if req.UserID == "" {
			common.RespondAppError(w, initTime, apperrors.New(apperrors.KindInvalidArgument, "user_id is required"))
			return
		}

		if err := fn(r, actor, fleetID, req.UserID); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, msg, nil)
	}
}
