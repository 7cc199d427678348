package common

import (
	"encoding/json"
	"net/http"
	"time"

	"evewspace/sitetracker/internal/apperrors"
	"evewspace/sitetracker/internal/constants"
	"evewspace/sitetracker/internal/logging"
	"evewspace/sitetracker/internal/models/dtos"
)

// RespondSuccess sends a standardized JSON success response.
func RespondSuccess(w http.ResponseWriter, initTime time.Time, message string, data any, statusCode ...int) {
	code := http.StatusOK
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusOk),
		Message:      message,
		ResponseTime: GetResponseTime(initTime),
		Data:         data,
	}

	writeJSON(w, code, response)
}

// RespondError sends a standardized JSON error response.
func RespondError(w http.ResponseWriter, initTime time.Time, err error, message string, statusCode ...int) {
	code := http.StatusInternalServerError
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	msg := message
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      msg,
		ResponseTime: GetResponseTime(initTime),
	}

	writeJSON(w, code, response)
}

// RespondAppError maps err's kind to a status. Internal errors are logged and
// their detail withheld from the client.
func RespondAppError(w http.ResponseWriter, initTime time.Time, err error) {
	kind := apperrors.KindOf(err)

	msg := err.Error()
	if kind == apperrors.KindInternal {
		logging.Error("Request failed", "error", err)
		msg = constants.MsgInternal
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      msg,
		Kind:         string(kind),
		ResponseTime: GetResponseTime(initTime),
	}

	writeJSON(w, kind.HTTPStatus(), response)
}

// writeJSON marshals data and writes it to the HTTP response.
func writeJSON(w http.ResponseWriter, code int, body dtos.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("JSON encode failed", "error", err)
	}
}
