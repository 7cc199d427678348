package api

import (
	"encoding/json"
	"net/http"
	"time"

	"evewspace/sitetracker/internal/apperrors"
	"evewspace/sitetracker/internal/auth"
	"evewspace/sitetracker/internal/common"
	"evewspace/sitetracker/internal/constants"

	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	deps *Dependencies
}

// NewHandlers creates a new handlers instance with injected dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		deps: deps,
	}
}

// actorID returns the authenticated user behind the request.
func actorID(r *http.Request) (string, error) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil || claims.UserID() == "" {
		return "", apperrors.ErrUnauthenticated
	}
	return claims.UserID(), nil
}

// decodeBody decodes a JSON body into dst. An empty body is accepted when
// optional is set.
func decodeBody(r *http.Request, dst any, optional bool) error {
	if r.Body == nil || r.ContentLength == 0 {
		if optional {
			return nil
		}
		return apperrors.New(apperrors.KindInvalidArgument, "request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Newf(apperrors.KindInvalidArgument, "%s: %v", constants.MsgInvalidBody, err)
	}
	return nil
}

func urlParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if v == "" {
		return "", apperrors.Newf(apperrors.KindInvalidArgument, "%s: %s", constants.MsgMissingParam, name)
	}
	return v, nil
}

// fleetRequest resolves the acting user and the {fleet_id} path parameter
// shared by every fleet scoped handler.
func fleetRequest(w http.ResponseWriter, r *http.Request, initTime time.Time) (actor, fleetID string, ok bool) {
	actor, err := actorID(r)
	if err != nil {
		common.RespondAppError(w, initTime, err)
		return "", "", false
	}
	fleetID, err = urlParam(r, "fleet_id")
	if err != nil {
		common.RespondAppError(w, initTime, err)
		return "", "", false
	}
	return actor, fleetID, true
}

func claimsName(r *http.Request) string {
	if claims := auth.GetUserClaims(r.Context()); claims != nil {
		return claims.Username()
	}
	return ""
}
