package httpx

import (
	"errors"
	"net/http"

	"github.com/authboard/authboard/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807, attaching
// a machine-readable code where the taxonomy defines one.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrUnknownEntity):
		ProblemCode(w, http.StatusBadRequest, "Unknown Entity", err.Error(), "UNKNOWN_ENTITY")
	case errors.Is(err, shared.ErrMissingID):
		ProblemCode(w, http.StatusBadRequest, "Missing Identifier", err.Error(), "MISSING_ID")
	case errors.Is(err, shared.ErrUnsupportedAction):
		ProblemCode(w, http.StatusBadRequest, "Unsupported Action", err.Error(), "UNSUPPORTED_ACTION")
	case errors.Is(err, shared.ErrUnauthorized), errors.Is(err, shared.ErrInvalidCredentials):
		ProblemCode(w, http.StatusUnauthorized, "Unauthorized", "", "UNAUTHORIZED")
	case errors.Is(err, shared.ErrForbidden), errors.Is(err, shared.ErrBanned):
		ProblemCode(w, http.StatusForbidden, "Forbidden", "", "FORBIDDEN")
	case errors.Is(err, shared.ErrNotFound):
		ProblemCode(w, http.StatusNotFound, "Not Found", "", "NOT_FOUND")
	case errors.Is(err, shared.ErrDuplicate):
		ProblemCode(w, http.StatusConflict, "Duplicate", shared.UserSafeMessage(err), "DUPLICATE")
	case errors.Is(err, shared.ErrTokenExpired):
		ProblemCode(w, http.StatusBadRequest, "Token Expired", shared.UserSafeMessage(err), "TOKEN_EXPIRED")
	case errors.Is(err, shared.ErrDeletePending):
		ProblemCode(w, http.StatusConflict, "Delete Pending", shared.UserSafeMessage(err), "DELETE_PENDING")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
