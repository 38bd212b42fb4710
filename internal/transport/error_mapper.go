package transport

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
)

// WriteDomainError maps a domain error onto the HTTP error contract.
// Unclassified errors are logged and reported as internal_error.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := observability.GetLogger(r.Context())

	switch {
	case errors.Is(err, domain.ErrEmptyMessage):
		WriteError(w, http.StatusBadRequest, CodeEmptyMessage, "message text is empty")
	case errors.Is(err, domain.ErrMessageTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, CodeMessageTooLarge, "message exceeds the size limit")
	case domain.IsValidation(err):
		WriteError(w, http.StatusBadRequest, CodeInvalidInput, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
	case domain.IsAuthorization(err):
		WriteError(w, http.StatusForbidden, CodeForbidden, "access denied")
	case domain.IsNotFound(err):
		WriteError(w, http.StatusNotFound, CodeNotFound, err.Error())
	default:
		log.Error("internal_error", zap.String("path", r.URL.Path), zap.Error(err))
		WriteError(w, http.StatusInternalServerError, CodeInternal, "an unexpected error occurred")
	}
}
