package models

import (
	"time"
)

// PlaidItem is one access-token grant with the aggregator, tied to one institution.
type PlaidItem struct {
	PlaidItemID        string    `firestore:"plaidItemId" json:"plaidItemId"` // doc ID
	UserID             string    `firestore:"userId" json:"userId"`
	PlaidAccessToken   string    `firestore:"plaidAccessToken" json:"-"` // ciphertext envelope, never plaintext
	Products           string    `firestore:"products" json:"products"`  // comma-joined
	InstitutionID      string    `firestore:"institutionId" json:"institutionId"`
	InstitutionName    string    `firestore:"institutionName" json:"institutionName"`
	PlaidInstitutionID string    `firestore:"plaidInstitutionId" json:"plaidInstitutionId"`
	CreatedAt          time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time `firestore:"updatedAt" json:"updatedAt"`
}
