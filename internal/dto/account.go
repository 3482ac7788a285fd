package dto

// AccountAttributes carries everything the account linker needs to create one
// account record. InstitutionID may be a local UUID or a Plaid institution id;
// the linker resolves which. Any access token present in the inbound payload
// is dropped before this struct is built; tokens live only on PlaidItem docs.
type AccountAttributes struct {
	PlaidItemID        string
	InstitutionID      string
	PlaidInstitutionID string
	InstitutionName    string
	PlaidAccountID     *string
	Name               *string
	OfficialName       *string
	Mask               *string
	Type               *string
	Subtype            *string
	BalanceCurrent     *float64
	BalanceAvailable   *float64
	BalanceIsoCurrency *string
}
