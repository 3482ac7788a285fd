package models

import (
	"time"
)

type Institution struct {
	ID                 string     `firestore:"id" json:"id"`
	UserID             string     `firestore:"userId" json:"userId"`
	PlaidInstitutionID string     `firestore:"plaidInstitutionId" json:"plaidInstitutionId"`
	Name               string     `firestore:"name" json:"name"`
	Logo               *string    `firestore:"logo" json:"logo"`
	PrimaryColor       *string    `firestore:"primaryColor" json:"primaryColor"`
	URL                *string    `firestore:"url" json:"url"`
	DeletedAt          *time.Time `firestore:"deletedAt" json:"deletedAt,omitempty"` // legacy soft-delete marker, never newly written
	CreatedAt          time.Time  `firestore:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time  `firestore:"updatedAt" json:"updatedAt"`
}
