package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerlink/ledgerlink-backend/internal/dto"
	"github.com/ledgerlink/ledgerlink-backend/internal/errs"
	"github.com/ledgerlink/ledgerlink-backend/internal/models"
	"github.com/ledgerlink/ledgerlink-backend/internal/response"
)

type AdminService interface {
	ListUsers(ctx context.Context, q dto.UserListQuery) (dto.UserListResult, error)
	SetActive(ctx context.Context, userID string, active *bool) (*models.User, error)
	Stats(ctx context.Context) (dto.AdminStats, error)
}

type adminHandlers struct {
	ResponseHandler response.ResponseHandler
	AdminSvc        AdminService
}

func NewAdminHandlers(deps *Deps) *adminHandlers {
	return &adminHandlers{
		ResponseHandler: deps.ResponseHandler,
		AdminSvc:        deps.AdminSvc,
	}
}

func (h *adminHandlers) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/stats", h.Stats)
	r.Get("/users", h.ListUsers)
	r.Patch("/users/{id}/active", h.SetActive)
	return r
}

func (h *adminHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := dto.UserListQuery{
		Page:     intQuery(r, "page", 1),
		PageSize: intQuery(r, "pageSize", 25),
		Search:   r.URL.Query().Get("search"),
		Active:   r.URL.Query().Get("active"),
		Role:     r.URL.Query().Get("role"),
	}

	result, err := h.AdminSvc.ListUsers(r.Context(), q)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, result)
}

func (h *adminHandlers) SetActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active *bool `json:"active"`
	}
	// An empty or absent body means "toggle the stored value".
	_ = json.NewDecoder(r.Body).Decode(&body)

	id := chi.URLParam(r, "id")
	user, err := h.AdminSvc.SetActive(r.Context(), id, body.Active)
	if err != nil {
		if _, ok := err.(*errs.NotFoundError); ok {
			h.ResponseHandler.WriteError(w, r, http.StatusNotFound, "not_found", "")
			return
		}
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]any{
		"ok":   true,
		"user": user,
	})
}

func (h *adminHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.AdminSvc.Stats(r.Context())
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, stats)
}

func intQuery(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}
