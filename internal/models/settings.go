package models

import "time"

// UserSettings holds per-user preference flags. Fields are pointers so an
// unset flag can fall back to the configured default instead of false.
type UserSettings struct {
	EnableActual      *bool     `firestore:"enableActual" json:"enableActual,omitempty"`
	EnableEmailExport *bool     `firestore:"enableEmailExport" json:"enableEmailExport,omitempty"`
	UpdatedAt         time.Time `firestore:"updatedAt" json:"updatedAt"`
}
