package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/holocron/holocron/internal/platform/httpx"
)

// AssignmentsHandler serves the /users/{id}/roles endpoints.
type AssignmentsHandler struct {
	logger  *slog.Logger
	service *Service
}

// NewAssignmentsHandler builds AssignmentsHandler instance.
func NewAssignmentsHandler(logger *slog.Logger, service *Service) *AssignmentsHandler {
	return &AssignmentsHandler{logger: logger, service: service}
}

// MountRoutes registers assignment routes under a /users router.
func (h *AssignmentsHandler) MountRoutes(r chi.Router) {
	r.Get("/{id}/roles", h.listUserRoles)
	r.Post("/{id}/roles/{roleId}", h.assignRole)
	r.Delete("/{id}/roles/{roleId}", h.unassignRole)
}

func (h *AssignmentsHandler) ids(r *http.Request) (int64, int64, error) {
	userID, err := httpx.IDParam(r, "id")
	if err != nil {
		return 0, 0, err
	}
	roleID, err := httpx.IDParam(r, "roleId")
	if err != nil {
		return 0, 0, err
	}
	return userID, roleID, nil
}

func (h *AssignmentsHandler) listUserRoles(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	roles, err := h.service.ListUserRoles(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, roles)
}

func (h *AssignmentsHandler) assignRole(w http.ResponseWriter, r *http.Request) {
	userID, roleID, err := h.ids(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if err := h.service.AssignRole(r.Context(), userID, roleID); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, httpx.Message{Detail: "Role assigned successfully"})
}

func (h *AssignmentsHandler) unassignRole(w http.ResponseWriter, r *http.Request) {
	userID, roleID, err := h.ids(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if err := h.service.UnassignRole(r.Context(), userID, roleID); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Message{Detail: "Role removed successfully"})
}
