package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/holocron/holocron/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Unclassified errors are logged with an incident id and answered with an
// opaque 500 that carries only that id.
func RespondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var domainErr *shared.Error
	errors.As(err, &domainErr)

	switch {
	case errors.Is(err, shared.ErrValidation):
		p := ProblemDetail{Title: "Validation Failed", Status: http.StatusUnprocessableEntity, Detail: shared.UserSafeMessage(err)}
		if domainErr != nil {
			p.Errors = domainErr.Fields
		}
		writeProblem(w, p)
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusBadRequest, "Conflict", shared.UserSafeMessage(err))
	default:
		incident := uuid.New()
		shared.LoggerFromContext(r.Context(), logger).Error("request failed",
			slog.String("incident", incident.String()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		writeProblem(w, ProblemDetail{
			Title:    "Internal Error",
			Status:   http.StatusInternalServerError,
			Detail:   "internal server error",
			Instance: "urn:uuid:" + incident.String(),
		})
	}
}
