package plaidclient

import (
	"context"
	"strings"

	"github.com/plaid/plaid-go/v24/plaid"

	"github.com/ledgerlink/ledgerlink-backend/internal/dto"
)

type Adapter struct {
	client       *plaid.APIClient
	clientName   string
	countryCodes []string
	language     string
}

func NewAdapter(clientID, secret string, env dto.PlaidEnvironment, clientName string, countryCodes []string, language string) *Adapter {
	cfg := plaid.NewConfiguration()
	cfg.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	cfg.AddDefaultHeader("PLAID-SECRET", secret)
	cfg.UseEnvironment(toPlaidEnv(env))

	return &Adapter{
		client:       plaid.NewAPIClient(cfg),
		clientName:   clientName,
		countryCodes: countryCodes,
		language:     language,
	}
}

// CreateLinkToken creates one link token covering all requested products so a
// single Link session can grant a multi-product item.
func (a *Adapter) CreateLinkToken(ctx context.Context, userID string, products []string) (string, error) {
	req := plaid.NewLinkTokenCreateRequest(
		a.clientName,
		a.language,
		toCountryCodes(a.countryCodes),
		plaid.LinkTokenCreateRequestUser{ClientUserId: userID},
	)
	req.SetProducts(toProducts(products))

	resp, _, err := a.client.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*req).Execute()
	if err != nil {
		return "", err
	}
	return resp.GetLinkToken(), nil
}

func (a *Adapter) ExchangePublicToken(ctx context.Context, publicToken string) (itemID, accessToken string, err error) {
	req := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := a.client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*req).Execute()
	if err != nil {
		return "", "", err
	}
	return resp.GetItemId(), resp.GetAccessToken(), nil
}

// GetInstitution fetches branding metadata for an institution. Logos arrive
// base64 encoded, sometimes wrapped in a data URI; the prefix is stripped
// before storage.
func (a *Adapter) GetInstitution(ctx context.Context, plaidInstitutionID string) (dto.InstitutionMetadata, error) {
	var meta dto.InstitutionMetadata

	req := plaid.NewInstitutionsGetByIdRequest(plaidInstitutionID, toCountryCodes(a.countryCodes))
	opts := plaid.NewInstitutionsGetByIdRequestOptions()
	opts.SetIncludeOptionalMetadata(true)
	req.SetOptions(*opts)

	resp, _, err := a.client.PlaidApi.InstitutionsGetById(ctx).InstitutionsGetByIdRequest(*req).Execute()
	if err != nil {
		return meta, err
	}

	inst := resp.GetInstitution()
	meta.Name = inst.GetName()
	if logo, ok := inst.GetLogoOk(); ok && logo != nil && *logo != "" {
		sanitized := sanitizeLogo(*logo)
		meta.Logo = &sanitized
	}
	if color, ok := inst.GetPrimaryColorOk(); ok && color != nil && *color != "" {
		meta.PrimaryColor = color
	}
	if url, ok := inst.GetUrlOk(); ok && url != nil && *url != "" {
		meta.URL = url
	}
	return meta, nil
}

func sanitizeLogo(logo string) string {
	if idx := strings.Index(logo, ";base64,"); idx >= 0 && strings.HasPrefix(logo, "data:image/") {
		logo = logo[idx+len(";base64,"):]
	}
	return strings.TrimSpace(logo)
}

func toProducts(products []string) []plaid.Products {
	out := make([]plaid.Products, 0, len(products))
	for _, p := range products {
		out = append(out, plaid.Products(p))
	}
	return out
}

func toCountryCodes(codes []string) []plaid.CountryCode {
	out := make([]plaid.CountryCode, 0, len(codes))
	for _, c := range codes {
		out = append(out, plaid.CountryCode(c))
	}
	return out
}

func toPlaidEnv(env dto.PlaidEnvironment) plaid.Environment {
	switch env {
	case dto.PlaidSandbox:
		return plaid.Sandbox
	case dto.PlaidDevelopment:
		return plaid.Development
	default: // dto.PlaidProduction
		return plaid.Production
	}
}
