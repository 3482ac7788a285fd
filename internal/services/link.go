package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledgerlink/ledgerlink-backend/internal/dto"
	"github.com/ledgerlink/ledgerlink-backend/internal/errs"
	"github.com/ledgerlink/ledgerlink-backend/internal/models"
	"github.com/ledgerlink/ledgerlink-backend/pkg/logger"
)

// plaidClient is the Plaid SDK adapter surface used by this service.
type plaidClient interface {
	CreateLinkToken(ctx context.Context, userID string, products []string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (itemID string, accessToken string, err error)
	GetInstitution(ctx context.Context, plaidInstitutionID string) (dto.InstitutionMetadata, error)
}

type tokenCipher interface {
	Encrypt(plaintext string) (string, error)
}

type itemLSStore interface {
	Create(ctx context.Context, userID string, item *models.PlaidItem) error
}

type institutionLSResolver interface {
	Resolve(ctx context.Context, userID, institutionID, plaidInstitutionID, name string, opts dto.InstitutionCreateOpts) (*models.Institution, error)
}

type accountLinker interface {
	CreateForUser(ctx context.Context, userID string, attrs dto.AccountAttributes) (*models.Account, error)
}

type accountCapChecker interface {
	CanAddAccountToInstitution(ctx context.Context, userID, institutionID string, max int) (bool, error)
}

type linkService struct {
	plaid           plaidClient
	cipher          tokenCipher
	items           itemLSStore
	institutions    institutionLSResolver
	accounts        accountLinker
	capacity        accountCapChecker
	validProducts   []string
	defaultProducts []string
	caps            LinkCaps
}

func NewLinkService(plaid plaidClient, cipher tokenCipher, items itemLSStore, institutions institutionLSResolver, accounts accountLinker, capacity accountCapChecker, defaultProducts []string, caps LinkCaps) *linkService {
	return &linkService{
		plaid:           plaid,
		cipher:          cipher,
		items:           items,
		institutions:    institutions,
		accounts:        accounts,
		capacity:        capacity,
		validProducts:   dto.ValidLinkFlowProducts,
		defaultProducts: defaultProducts,
		caps:            caps,
	}
}

// CreateLinkToken validates the requested products against the link flow set
// and creates one token covering all of them. Unsupported products are
// dropped with a warning; a request with nothing valid left is rejected.
func (s *linkService) CreateLinkToken(ctx context.Context, userID string, requested []string) (string, error) {
	log := logger.FromContext(ctx)

	products := requested
	if len(products) == 0 {
		products = s.defaultProducts
	}

	valid := make([]string, 0, len(products))
	invalid := make([]string, 0)
	for _, p := range products {
		if s.isValidProduct(p) {
			valid = append(valid, p)
		} else {
			invalid = append(invalid, p)
		}
	}
	if len(invalid) > 0 {
		log.Warn("ignoring unsupported link flow products", "products", strings.Join(invalid, ","))
	}
	if len(valid) == 0 {
		return "", errs.NewValidationError(fmt.Sprintf(
			"No valid Plaid link flow products requested. Supported: %s",
			strings.Join(s.validProducts, ", ")))
	}

	token, err := s.plaid.CreateLinkToken(ctx, userID, valid)
	if err != nil {
		return "", errs.NewExternalServiceError("plaid", "link_token_creation_failed", false)
	}
	return token, nil
}

// SetToken runs the full linking flow: resolve the institution, verify it has
// account capacity, exchange the public token, encrypt and persist the grant,
// then attach the presented accounts. An institution already at its account
// cap is rejected before the exchange; overflow within a single multi-account
// payload is logged and skipped, and the item itself stands.
func (s *linkService) SetToken(ctx context.Context, userID string, input dto.SetTokenInput) (string, error) {
	log := logger.FromContext(ctx)

	if input.PublicToken == "" {
		return "", errs.NewValidationError("missing public_token")
	}

	// Branding metadata is best effort; a metadata miss never blocks linking.
	var meta dto.InstitutionMetadata
	if input.PlaidInstitutionID != "" {
		fetched, err := s.plaid.GetInstitution(ctx, input.PlaidInstitutionID)
		if err != nil {
			log.Debug("institution metadata fetch failed", "error", err)
		} else {
			meta = fetched
		}
	}

	name := input.InstitutionName
	if name == "" {
		name = meta.Name
	}
	inst, err := s.institutions.Resolve(ctx, userID, input.InstitutionID, input.PlaidInstitutionID, name, dto.InstitutionCreateOpts{
		MaxInstitutionsPerUser: s.caps.MaxInstitutionsPerUser,
		Logo:                   meta.Logo,
		PrimaryColor:           meta.PrimaryColor,
		URL:                    meta.URL,
	})
	if err != nil {
		return "", err
	}

	// The institution must have room before anything irreversible happens: an
	// exchange against a full institution would otherwise persist an item and
	// report success while every presented account gets dropped.
	if len(input.Accounts) > 0 {
		ok, err := s.capacity.CanAddAccountToInstitution(ctx, userID, inst.ID, s.caps.MaxAccountsPerInstitution)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errs.NewCapacityError(fmt.Sprintf(
				"Account per institution limit (%d) reached for institution %s.",
				s.caps.MaxAccountsPerInstitution, inst.ID))
		}
	}

	itemID, accessToken, err := s.plaid.ExchangePublicToken(ctx, input.PublicToken)
	if err != nil {
		return "", errs.NewExternalServiceError("plaid", "public token exchange failed", false)
	}

	encrypted, err := s.cipher.Encrypt(accessToken)
	if err != nil {
		return "", errs.NewEncryptionError(err.Error())
	}

	item := &models.PlaidItem{
		PlaidItemID:        itemID,
		UserID:             userID,
		PlaidAccessToken:   encrypted,
		Products:           s.normalizeProducts(input.Products),
		InstitutionID:      inst.ID,
		InstitutionName:    inst.Name,
		PlaidInstitutionID: inst.PlaidInstitutionID,
	}
	if err := s.items.Create(ctx, userID, item); err != nil {
		return "", err
	}

	for _, acct := range input.Accounts {
		attrs := accountAttributes(itemID, inst.ID, acct)
		if _, err := s.accounts.CreateForUser(ctx, userID, attrs); err != nil {
			log.Warn("account create skipped", "error", err)
		}
	}

	log.Info("item linked",
		"item_id", itemID,
		"institution_id", inst.ID,
		"products", item.Products,
		"account_count", len(input.Accounts))
	return itemID, nil
}

// accountAttributes maps one Link account payload onto linker attributes.
// Only the descriptive and balance fields cross over; the access token is
// not part of the payload shape at all.
func accountAttributes(itemID, institutionID string, acct dto.AccountPayload) dto.AccountAttributes {
	attrs := dto.AccountAttributes{
		PlaidItemID:   itemID,
		InstitutionID: institutionID,
	}
	if acct.ID != "" {
		attrs.PlaidAccountID = &acct.ID
	}
	if acct.Name != "" {
		attrs.Name = &acct.Name
	}
	if acct.OfficialName != "" {
		attrs.OfficialName = &acct.OfficialName
	}
	if acct.Mask != "" {
		attrs.Mask = &acct.Mask
	}
	if acct.Type != "" {
		attrs.Type = &acct.Type
	}
	if acct.Subtype != "" {
		attrs.Subtype = &acct.Subtype
	}
	if acct.Balances != nil {
		attrs.BalanceAvailable = acct.Balances.Available
		attrs.BalanceCurrent = acct.Balances.Current
		attrs.BalanceIsoCurrency = acct.Balances.IsoCurrencyCode
		if attrs.BalanceIsoCurrency == nil {
			attrs.BalanceIsoCurrency = acct.Balances.UnofficialCurrency
		}
	}
	return attrs
}

func (s *linkService) normalizeProducts(products []string) string {
	cleaned := make([]string, 0, len(products))
	for _, p := range products {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		cleaned = s.defaultProducts
	}
	return strings.Join(cleaned, ",")
}

func (s *linkService) isValidProduct(product string) bool {
	for _, p := range s.validProducts {
		if p == product {
			return true
		}
	}
	return false
}
