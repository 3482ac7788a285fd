package dto

import "github.com/ledgerlink/ledgerlink-backend/internal/models"

// InstitutionCreateOpts carries branding and the per-user cap into the
// institution registry.
type InstitutionCreateOpts struct {
	MaxInstitutionsPerUser int
	Logo                   *string
	PrimaryColor           *string
	URL                    *string
}

// InstitutionWithAccounts is the dashboard read model: one linked institution
// and the accounts attached to it.
type InstitutionWithAccounts struct {
	*models.Institution
	Accounts []*models.Account `json:"accounts"`
}

// CascadeResult reports what an institution delete removed alongside the
// institution itself.
type CascadeResult struct {
	AccountCount int
	ItemCount    int
}
