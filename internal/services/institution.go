package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/ledgerlink/ledgerlink-backend/internal/dto"
	"github.com/ledgerlink/ledgerlink-backend/internal/errs"
	"github.com/ledgerlink/ledgerlink-backend/internal/models"
	"github.com/ledgerlink/ledgerlink-backend/pkg/logger"
)

type institutionISStore interface {
	FindByID(ctx context.Context, userID, institutionID string) (*models.Institution, error)
	FindOrCreate(ctx context.Context, userID, plaidInstitutionID, name string, opts dto.InstitutionCreateOpts) (*models.Institution, bool, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Institution, error)
	DeleteCascade(ctx context.Context, userID, institutionID string) (dto.CascadeResult, error)
}

type accountISStore interface {
	ListByInstitution(ctx context.Context, userID, institutionID string) ([]*models.Account, error)
}

type institutionService struct {
	institutions institutionISStore
	accounts     accountISStore
}

func NewInstitutionService(institutions institutionISStore, accounts accountISStore) *institutionService {
	return &institutionService{
		institutions: institutions,
		accounts:     accounts,
	}
}

// FindOrCreate resolves or registers one institution for the user. Existing
// active institutions come back unchanged; branding is deliberately not
// refreshed on a repeat link.
func (s *institutionService) FindOrCreate(ctx context.Context, userID, plaidInstitutionID, name string, opts dto.InstitutionCreateOpts) (*models.Institution, error) {
	if name == "" {
		name = "Unknown Institution"
	}

	inst, created, err := s.institutions.FindOrCreate(ctx, userID, plaidInstitutionID, name, opts)
	if err != nil {
		return nil, err
	}
	if created {
		log := logger.FromContext(ctx)
		log.Info("institution linked", "institution_id", inst.ID, "plaid_institution_id", plaidInstitutionID)
	}
	return inst, nil
}

// Resolve maps an institution reference from a linking payload to a concrete
// institution. A UUID-shaped id is a local record that must already exist;
// anything else is treated as an external Plaid institution id and resolved
// through FindOrCreate. No reference at all is a validation error.
func (s *institutionService) Resolve(ctx context.Context, userID, institutionID, plaidInstitutionID, name string, opts dto.InstitutionCreateOpts) (*models.Institution, error) {
	if institutionID != "" && isLocalID(institutionID) {
		inst, err := s.institutions.FindByID(ctx, userID, institutionID)
		if err != nil {
			return nil, err
		}
		if inst == nil {
			return nil, errs.NewNotFoundError("Institution not found")
		}
		return inst, nil
	}

	externalID := plaidInstitutionID
	if externalID == "" {
		externalID = institutionID
	}
	if externalID == "" {
		return nil, errs.NewValidationError("no institution reference provided")
	}
	return s.FindOrCreate(ctx, userID, externalID, name, opts)
}

func (s *institutionService) List(ctx context.Context, userID string) ([]*models.Institution, error) {
	return s.institutions.ListForUser(ctx, userID)
}

// ListWithAccounts is the dashboard read: each linked institution with the
// accounts attached to it.
func (s *institutionService) ListWithAccounts(ctx context.Context, userID string) ([]*dto.InstitutionWithAccounts, error) {
	institutions, err := s.institutions.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.InstitutionWithAccounts, 0, len(institutions))
	for _, inst := range institutions {
		accounts, err := s.accounts.ListByInstitution(ctx, userID, inst.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, &dto.InstitutionWithAccounts{Institution: inst, Accounts: accounts})
	}
	return out, nil
}

// Delete removes the user's institution and everything linked through it.
// Ownership is implicit in the lookup scope: an institution belonging to
// someone else is indistinguishable from one that never existed.
func (s *institutionService) Delete(ctx context.Context, userID, institutionID string) (dto.CascadeResult, error) {
	result, err := s.institutions.DeleteCascade(ctx, userID, institutionID)
	if err != nil {
		return result, err
	}

	log := logger.FromContext(ctx)
	log.Info("institution deleted",
		"institution_id", institutionID,
		"accounts_removed", result.AccountCount,
		"items_removed", result.ItemCount)
	return result, nil
}

func isLocalID(id string) bool {
	return uuid.Validate(id) == nil
}
