package services

import (
	"context"
	"fmt"

	"github.com/ledgerlink/ledgerlink-backend/internal/dto"
	"github.com/ledgerlink/ledgerlink-backend/internal/errs"
	"github.com/ledgerlink/ledgerlink-backend/internal/models"
	"github.com/ledgerlink/ledgerlink-backend/pkg/logger"
)

type accountASStore interface {
	Create(ctx context.Context, userID string, account *models.Account, maxAccountsPerInstitution int) (*models.Account, error)
	RemoveByID(ctx context.Context, userID, accountID string) error
	FindByPlaidItemID(ctx context.Context, userID, plaidItemID string) (*models.Account, error)
	FindByPlaidAccountID(ctx context.Context, userID, plaidAccountID string) (*models.Account, error)
	ListByInstitution(ctx context.Context, userID, institutionID string) ([]*models.Account, error)
}

type institutionResolver interface {
	Resolve(ctx context.Context, userID, institutionID, plaidInstitutionID, name string, opts dto.InstitutionCreateOpts) (*models.Institution, error)
}

// LinkCaps carries the configured linking limits into the account linker.
type LinkCaps struct {
	MaxInstitutionsPerUser    int
	MaxAccountsPerInstitution int
}

type accountService struct {
	accounts     accountASStore
	institutions institutionResolver
	caps         LinkCaps
}

func NewAccountService(accounts accountASStore, institutions institutionResolver, caps LinkCaps) *accountService {
	return &accountService{
		accounts:     accounts,
		institutions: institutions,
		caps:         caps,
	}
}

// CreateForUser resolves the institution association and inserts one account
// under the per-institution cap. Access tokens never reach this path: the
// attribute set has no token field, so anything a client smuggles into the
// payload is dropped during decoding.
func (s *accountService) CreateForUser(ctx context.Context, userID string, attrs dto.AccountAttributes) (*models.Account, error) {
	inst, err := s.institutions.Resolve(ctx, userID, attrs.InstitutionID, attrs.PlaidInstitutionID, attrs.InstitutionName, dto.InstitutionCreateOpts{
		MaxInstitutionsPerUser: s.caps.MaxInstitutionsPerUser,
	})
	if err != nil {
		return nil, err
	}

	// Pre-check the per-institution cap for a readable failure before the
	// store re-enforces it transactionally.
	existing, err := s.accounts.ListByInstitution(ctx, userID, inst.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) >= s.caps.MaxAccountsPerInstitution {
		return nil, errs.NewCapacityError(fmt.Sprintf(
			"Account per institution limit (%d) reached for institution %s.",
			s.caps.MaxAccountsPerInstitution, inst.ID))
	}

	account := &models.Account{
		InstitutionID:      inst.ID,
		PlaidItemID:        attrs.PlaidItemID,
		PlaidAccountID:     attrs.PlaidAccountID,
		Name:               attrs.Name,
		OfficialName:       attrs.OfficialName,
		Mask:               attrs.Mask,
		Type:               attrs.Type,
		Subtype:            attrs.Subtype,
		BalanceCurrent:     attrs.BalanceCurrent,
		BalanceAvailable:   attrs.BalanceAvailable,
		BalanceIsoCurrency: attrs.BalanceIsoCurrency,
	}

	created, err := s.accounts.Create(ctx, userID, account, s.caps.MaxAccountsPerInstitution)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("account linked", "account_id", created.ID, "institution_id", inst.ID)
	return created, nil
}

func (s *accountService) RemoveByID(ctx context.Context, userID, accountID string) error {
	if err := s.accounts.RemoveByID(ctx, userID, accountID); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info("account deleted", "account_id", accountID)
	return nil
}

func (s *accountService) FindByPlaidItemID(ctx context.Context, userID, plaidItemID string) (*models.Account, error) {
	return s.accounts.FindByPlaidItemID(ctx, userID, plaidItemID)
}

func (s *accountService) FindByPlaidAccountID(ctx context.Context, userID, plaidAccountID string) (*models.Account, error) {
	return s.accounts.FindByPlaidAccountID(ctx, userID, plaidAccountID)
}

func (s *accountService) FindByUserAndInstitution(ctx context.Context, userID, institutionID string) ([]*models.Account, error) {
	return s.accounts.ListByInstitution(ctx, userID, institutionID)
}
