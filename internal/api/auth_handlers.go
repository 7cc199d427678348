package api

import (
	"net/http"
	"time"

	"evewspace/sitetracker/internal/apperrors"
	"evewspace/sitetracker/internal/auth"
	"evewspace/sitetracker/internal/common"
	"evewspace/sitetracker/internal/constants"
	"evewspace/sitetracker/internal/logging"
	"evewspace/sitetracker/internal/models/dtos/responses"
	gormModels "evewspace/sitetracker/internal/models/gorm"
)

// IssueToken handles POST /api/v1/auth/token
//
// @Summary      Exchange the current credentials for a bearer token
// @Description  Typically called by a trusted client holding an API key on behalf of X-User-Id.
// @Tags         Auth
// @Produce      json
// @Param        X-API-Key  header    string  false  "API KEY"
// @Param        X-User-Id  header    string  false  "User the key acts for"
// @Success      200        {object}  dtos.APIResponse
// @Failure      401        {object}  dtos.APIResponse
// @Router       /api/v1/auth/token [post]
func (h *Handlers) IssueToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		user, perms, err := h.currentUser(r)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		token, expiresAt, err := h.deps.Services.Tokens.Issue(user.ID, user.Name(), perms)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Token issued", responses.TokenResponse{Token: token, ExpiresAt: expiresAt})
	}
}

// CreateSession handles POST /api/v1/auth/session and sets the session cookie.
func (h *Handlers) CreateSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		sessions := h.deps.Services.Sessions
		if sessions == nil {
			common.RespondAppError(w, initTime, apperrors.New(apperrors.KindInvalidState, "sessions are disabled"))
			return
		}

		user, perms, err := h.currentUser(r)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		sessionID, err := sessions.CreateSession(r.Context(), user.ID, user.Name(), perms)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     constants.SessionCookieName,
			Value:    sessionID,
			Path:     "/",
			Expires:  time.Now().Add(constants.SessionTTL),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		common.RespondSuccess(w, initTime, "Session created", nil, http.StatusCreated)
	}
}

// DeleteSession handles DELETE /api/v1/auth/session
func (h *Handlers) DeleteSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		session := auth.GetSessionData(r.Context())
		if session != nil && h.deps.Services.Sessions != nil {
			if err := h.deps.Services.Sessions.DeleteSession(r.Context(), session.SessionID); err != nil {
				logging.Warn("Failed to delete session", "session_id", session.SessionID, "error", err)
			}
		}

		http.SetCookie(w, &http.Cookie{
			Name:     constants.SessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
		common.RespondSuccess(w, initTime, "Logged out", nil)
	}
}

// currentUser reloads the caller and derives permissions from the stored row.
func (h *Handlers) currentUser(r *http.Request) (*gormModels.User, []string, error) {
	actor, err := actorID(r)
	if err != nil {
		return nil, nil, err
	}
	user, err := h.deps.Repo.Store.Users.GetByID(r.Context(), actor)
	if err != nil {
		return nil, nil, err
	}
	perms := auth.PermissionsFor(user)
	if len(perms) == 0 {
		return nil, nil, apperrors.ErrPermissionRequired
	}
	return user, perms, nil
}
