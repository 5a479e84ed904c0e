package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amsilks/amsilks-erp/internal/platform/httpx"
	"github.com/amsilks/amsilks-erp/internal/shared"
)

// PermissionsHandler reports what the signed-in user may do, so clients can
// hide actions they would be refused.
type PermissionsHandler struct {
	logger  *slog.Logger
	service PermissionResolver
	rbac    Middleware
}

// NewPermissionsHandler builds a PermissionsHandler.
func NewPermissionsHandler(logger *slog.Logger, service PermissionResolver, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireUser).Get("/me/permissions", h.listMine)
}

type permissionsResponse struct {
	UserID      int64    `json:"user_id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

func (h *PermissionsHandler) listMine(w http.ResponseWriter, r *http.Request) {
	userID, name, _ := shared.CurrentUser(r.Context())
	perms, err := h.service.EffectivePermissions(r.Context(), userID)
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if perms == nil {
		perms = []string{}
	}
	httpx.JSON(w, http.StatusOK, permissionsResponse{UserID: userID, Name: name, Permissions: perms})
}
