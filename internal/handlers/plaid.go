package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerlink/ledgerlink-backend/internal/dto"
	"github.com/ledgerlink/ledgerlink-backend/internal/errs"
	"github.com/ledgerlink/ledgerlink-backend/internal/middleware"
	"github.com/ledgerlink/ledgerlink-backend/internal/response"
	"github.com/ledgerlink/ledgerlink-backend/pkg/logger"
)

type LinkService interface {
	CreateLinkToken(ctx context.Context, userID string, products []string) (string, error)
	SetToken(ctx context.Context, userID string, input dto.SetTokenInput) (string, error)
}

type InstitutionService interface {
	ListWithAccounts(ctx context.Context, userID string) ([]*dto.InstitutionWithAccounts, error)
	Delete(ctx context.Context, userID, institutionID string) (dto.CascadeResult, error)
}

type AccountService interface {
	RemoveByID(ctx context.Context, userID, accountID string) error
}

type plaidHandlers struct {
	ResponseHandler response.ResponseHandler
	LinkSvc         LinkService
	InstitutionSvc  InstitutionService
	AccountSvc      AccountService
}

func NewPlaidHandlers(deps *Deps) *plaidHandlers {
	return &plaidHandlers{
		ResponseHandler: deps.ResponseHandler,
		LinkSvc:         deps.LinkSvc,
		InstitutionSvc:  deps.InstitutionSvc,
		AccountSvc:      deps.AccountSvc,
	}
}

func (h *plaidHandlers) PlaidRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/link-token", h.CreateLinkToken)
	r.Post("/event", h.LinkEvent)
	r.Post("/set-token", h.SetToken)
	r.Delete("/account/{accountId}", h.DeleteAccount)
	r.Delete("/institution/{institutionId}", h.DeleteInstitution)
	return r
}

func (h *plaidHandlers) CreateLinkToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Product json.RawMessage `json:"product"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) { // allow empty body
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}

	uid := middleware.UID(r.Context())
	linkToken, err := h.LinkSvc.CreateLinkToken(r.Context(), uid, decodeStringOrList(body.Product))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]string{"link_token": linkToken})
}

// LinkEvent records client-side Link lifecycle events. Logging only; a
// malformed event must never break the link flow.
func (h *plaidHandlers) LinkEvent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EventName string          `json:"eventName"`
		Metadata  json.RawMessage `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.EventName == "" {
		h.ResponseHandler.WriteError(w, r, http.StatusBadRequest, "invalid_input", "Missing eventName")
		return
	}

	log := logger.FromContext(r.Context())
	log.Info("plaid link event",
		"event", body.EventName,
		"metadata", string(body.Metadata))

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]bool{"ok": true})
}

func (h *plaidHandlers) SetToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PublicToken        string               `json:"public_token"`
		InstitutionName    string               `json:"institutionName"`
		InstitutionID      string               `json:"institutionId"`
		PlaidInstitutionID string               `json:"plaidInstitutionId"`
		Product            json.RawMessage      `json:"product"`
		Account            *dto.AccountPayload  `json:"account"`
		Accounts           []dto.AccountPayload `json:"accounts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}

	accounts := body.Accounts
	if len(accounts) == 0 && body.Account != nil {
		accounts = []dto.AccountPayload{*body.Account}
	}

	uid := middleware.UID(r.Context())
	itemID, err := h.LinkSvc.SetToken(r.Context(), uid, dto.SetTokenInput{
		PublicToken:        body.PublicToken,
		InstitutionName:    body.InstitutionName,
		InstitutionID:      body.InstitutionID,
		PlaidInstitutionID: body.PlaidInstitutionID,
		Products:           decodeStringOrList(body.Product),
		Accounts:           accounts,
	})
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]string{"item_id": itemID})
}

func (h *plaidHandlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	accountID := chi.URLParam(r, "accountId")

	if err := h.AccountSvc.RemoveByID(r.Context(), uid, accountID); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]any{
		"success":   true,
		"deleted":   true,
		"accountId": accountID,
	})
}

func (h *plaidHandlers) DeleteInstitution(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	institutionID := chi.URLParam(r, "institutionId")

	result, err := h.InstitutionSvc.Delete(r.Context(), uid, institutionID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]any{
		"success":      true,
		"deleted":      true,
		"accountCount": result.AccountCount,
		"itemCount":    result.ItemCount,
	})
}

func (h *plaidHandlers) ListInstitutions(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())

	institutions, err := h.InstitutionSvc.ListWithAccounts(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, institutions)
}

// decodeStringOrList accepts both `"transactions"` and `["transactions"]`
// for the product field; Plaid Link metadata sends either shape.
func decodeStringOrList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil
		}
		return []string{single}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, p := range list {
			if p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return nil
}
