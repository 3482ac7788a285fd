package models

import (
	"time"
)

type Account struct {
	ID                 string    `firestore:"id" json:"id"`
	UserID             string    `firestore:"userId" json:"userId"`
	InstitutionID      string    `firestore:"institutionId" json:"institutionId"`
	PlaidItemID        string    `firestore:"plaidItemId" json:"plaidItemId"` // Plaid item_id, not a local key
	PlaidAccountID     *string   `firestore:"plaidAccountId" json:"plaidAccountId"`
	Name               *string   `firestore:"name" json:"name"`
	OfficialName       *string   `firestore:"officialName" json:"officialName"`
	Mask               *string   `firestore:"mask" json:"mask"`
	Type               *string   `firestore:"type" json:"type"`
	Subtype            *string   `firestore:"subtype" json:"subtype"`
	BalanceCurrent     *float64  `firestore:"balanceCurrent" json:"balanceCurrent"`
	BalanceAvailable   *float64  `firestore:"balanceAvailable" json:"balanceAvailable"`
	BalanceIsoCurrency *string   `firestore:"balanceIsoCurrency" json:"balanceIsoCurrency"`
	CreatedAt          time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time `firestore:"updatedAt" json:"updatedAt"`
}
