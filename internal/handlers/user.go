package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerlink/ledgerlink-backend/internal/dto"
	"github.com/ledgerlink/ledgerlink-backend/internal/errs"
	"github.com/ledgerlink/ledgerlink-backend/internal/middleware"
	"github.com/ledgerlink/ledgerlink-backend/internal/response"
)

type UserService interface {
	GetSettings(ctx context.Context, userID string) (dto.ResolvedSettings, error)
	UpdateSettings(ctx context.Context, userID string, patch dto.SettingsPatch) (dto.ResolvedSettings, error)
}

type userHandlers struct {
	ResponseHandler response.ResponseHandler
	UserSvc         UserService
}

func NewUserHandlers(deps *Deps) *userHandlers {
	return &userHandlers{
		ResponseHandler: deps.ResponseHandler,
		UserSvc:         deps.UserSvc,
	}
}

func (h *userHandlers) UserRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/me", h.Me)
	r.Get("/settings", h.GetSettings)
	r.Post("/settings", h.UpdateSettings)
	return r
}

func (h *userHandlers) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.User(r.Context())
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, user)
}

func (h *userHandlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())

	settings, err := h.UserSvc.GetSettings(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, settings)
}

func (h *userHandlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch dto.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}

	uid := middleware.UID(r.Context())
	settings, err := h.UserSvc.UpdateSettings(r.Context(), uid, patch)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, settings)
}
