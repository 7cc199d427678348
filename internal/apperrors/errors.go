// Package apperrors provides the typed errors surfaced by the fleet and site
// credit operations. Callers match sentinels with errors.Is and branch on the
// Kind to choose a transport status.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the transport layer.
type Kind string

const (
	// KindInternal represents an infrastructure failure.
	KindInternal Kind = "INTERNAL"
	// KindNotFound means a referenced fleet, site, user or claim does not exist.
	KindNotFound Kind = "NOT_FOUND"
	// KindPermissionDenied means the acting user lacks authority for the transition.
	KindPermissionDenied Kind = "PERMISSION_DENIED"
	// KindInvalidState means the fleet has ended or the transition is terminal.
	KindInvalidState Kind = "INVALID_STATE"
	// KindInvalidArgument means the request itself was malformed.
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
	// KindUnauthenticated means no acting user could be resolved.
	KindUnauthenticated Kind = "UNAUTHENTICATED"
)

// HTTPStatus maps a kind to the status code handlers respond with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindInvalidState:
		return http.StatusConflict
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error with a human readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is reports a match when target is an *Error of the same kind and message,
// or a bare kind marker created with Mark.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" {
		return t.Kind == e.Kind
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// New creates a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Mark returns a kind-only marker usable as an errors.Is target.
func Mark(kind Kind) error {
	return &Error{Kind: kind}
}

// KindOf extracts the kind of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Sentinels shared by the services.
var (
	ErrFleetNotFound        = New(KindNotFound, "fleet not found")
	ErrUserNotFound         = New(KindNotFound, "user not found")
	ErrSystemNotFound       = New(KindNotFound, "system not found")
	ErrSiteNotFound         = New(KindNotFound, "site not found")
	ErrSiteTypeNotFound     = New(KindNotFound, "site type not found")
	ErrClaimNotFound        = New(KindNotFound, "claim not found")
	ErrMembershipNotFound   = New(KindNotFound, "user is not an active member of this fleet")
	ErrNotBoss              = New(KindPermissionDenied, "operation requires the current fleet boss")
	ErrNotClaimOwner        = New(KindPermissionDenied, "only the boss or the claimant may change this claim")
	ErrAlreadyClaimed       = New(KindPermissionDenied, "site already claimed; only the boss may approve it")
	ErrFleetEnded           = New(KindInvalidState, "fleet has ended")
	ErrPermissionRequired   = New(KindPermissionDenied, "sitetracker permission required")
	ErrUnauthenticated      = New(KindUnauthenticated, "authentication required")
	ErrInvalidSiteTypeInput = New(KindInvalidArgument, "site type is required")
)
