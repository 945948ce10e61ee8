// Package models contains the server-side domain types shared by services,
// repositories and the HTTP layer.
package models

import "time"

type UserType string

const (
	UserTypeDonor               UserType = "DONOR"
	UserTypeRecipient           UserType = "RECIPIENT"
	UserTypeMedicalProfessional UserType = "MEDICAL_PROFESSIONAL"
)

// User is a stored identity. PasswordHash never leaves the server: it is
// excluded from JSON and clients only ever see SanitizedIdentity.
type User struct {
	ID           string
	Email        string
	PasswordHash string `json:"-"`
	FirstName    string
	LastName     string
	DateOfBirth  time.Time
	PhoneNumber  string
	UserType     UserType
	LastLoginAt  *time.Time
	CreatedAt    time.Time
}

// SanitizedIdentity is the public projection of a User.
type SanitizedIdentity struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	UserType  UserType `json:"userType"`
}

// Sanitize drops the password hash.
func (u *User) Sanitize() *SanitizedIdentity {
	return &SanitizedIdentity{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		UserType:  u.UserType,
	}
}
