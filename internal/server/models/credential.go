package models

// Credential is a login request. It is never persisted.
type Credential struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegistrationInput is a registration request. Password strength is checked
// separately by the password policy, after the duplicate-email check.
type RegistrationInput struct {
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	FirstName       string `json:"firstName" validate:"required,min=2,max=100"`
	LastName        string `json:"lastName" validate:"required,min=2,max=100"`
	DateOfBirth     string `json:"dateOfBirth" validate:"required,birthdate,adult"`
	PhoneNumber     string `json:"phoneNumber" validate:"required,phone"`
	UserType        string `json:"userType" validate:"required,oneof=DONOR RECIPIENT MEDICAL_PROFESSIONAL"`
}

// ClientInfo describes where a request came from, for the audit trail.
type ClientInfo struct {
	SourceAddress string
	ClientAgent   string
}
