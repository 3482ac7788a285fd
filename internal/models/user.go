package models

import (
	"time"
)

type User struct {
	ID         string    `firestore:"id" json:"id"`
	Email      string    `firestore:"email" json:"email"`
	EmailLower string    `firestore:"emailLower" json:"-"` // lowercased copy for case-insensitive search
	IsAdmin    bool      `firestore:"isAdmin" json:"is_admin"`
	Active     bool      `firestore:"active" json:"active"`
	CreatedAt  time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `firestore:"updatedAt" json:"updatedAt"`
}
