package dto

type PlaidEnvironment string

const (
	PlaidSandbox     PlaidEnvironment = "sandbox"
	PlaidDevelopment PlaidEnvironment = "development"
	PlaidProduction  PlaidEnvironment = "production"
)

// ValidLinkFlowProducts is the set of Plaid products the link flow accepts.
var ValidLinkFlowProducts = []string{
	"transactions",
	"auth",
	"identity",
	"assets",
	"investments",
	"liabilities",
}

// InstitutionMetadata is the branding payload fetched from Plaid when a new
// institution is linked. All fields are optional.
type InstitutionMetadata struct {
	Name         string
	Logo         *string
	PrimaryColor *string
	URL          *string
}

// AccountPayload is one account as presented by the Plaid Link onSuccess
// metadata in the set-token request.
type AccountPayload struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	OfficialName string           `json:"officialName"`
	Mask         string           `json:"mask"`
	Type         string           `json:"type"`
	Subtype      string           `json:"subtype"`
	Balances     *AccountBalances `json:"balances"`
}

type AccountBalances struct {
	Available          *float64 `json:"available"`
	Current            *float64 `json:"current"`
	IsoCurrencyCode    *string  `json:"iso_currency_code"`
	UnofficialCurrency *string  `json:"unofficial_currency_code"`
}

// SetTokenInput is the normalized form of the set-token request body.
type SetTokenInput struct {
	PublicToken        string
	InstitutionName    string
	InstitutionID      string
	PlaidInstitutionID string
	Products           []string
	Accounts           []AccountPayload
}
