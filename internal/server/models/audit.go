package models

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type AuditAction string

const (
	AuditActionLogin    AuditAction = "LOGIN"
	AuditActionRegister AuditAction = "REGISTER"
	AuditActionLogout   AuditAction = "LOGOUT"
	AuditActionRefresh  AuditAction = "REFRESH"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "SUCCESS"
	AuditStatusFailure AuditStatus = "FAILURE"
)

const EntityTypeUser = "USER"

// Audit failure messages. They are stored, never sent to clients.
const (
	AuditUserNotFound         = "User not found"
	AuditInvalidPassword      = "Invalid password"
	AuditLookupFailed         = "Identity lookup failed"
	AuditVerificationFailed   = "Password verification failed"
	AuditEmailAlreadyExists   = "Email already registered"
	AuditInvalidRefreshToken  = "Invalid refresh token"
	AuditRefreshTokenExpired  = "Refresh token expired"
	AuditSessionIssueFailed   = "Session could not be issued"
	AuditSessionRevokeFailed  = "Session could not be revoked"
	AuditLastLoginNotRecorded = "Last login could not be recorded"
	AuditLoginNotRecorded     = "Login could not be recorded"
)

// AuditRecord is one immutable entry of the audit trail. ID is a ULID, so
// records sort by creation time.
type AuditRecord struct {
	ID            string      `json:"id"`
	UserID        *string     `json:"userId,omitempty"`
	Action        AuditAction `json:"action"`
	EntityType    string      `json:"entityType"`
	EntityID      *string     `json:"entityId,omitempty"`
	Status        AuditStatus `json:"status"`
	ErrorMessage  *string     `json:"errorMessage,omitempty"`
	SourceAddress string      `json:"ipAddress"`
	ClientAgent   string      `json:"userAgent"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// NewAuditRecord starts a record for action about the user entity.
func NewAuditRecord(action AuditAction, client ClientInfo) *AuditRecord {
	now := time.Now().UTC()
	return &AuditRecord{
		ID:            ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Action:        action,
		EntityType:    EntityTypeUser,
		SourceAddress: client.SourceAddress,
		ClientAgent:   client.ClientAgent,
		CreatedAt:     now,
	}
}

// Succeeded marks the record SUCCESS for userID.
func (r *AuditRecord) Succeeded(userID string) *AuditRecord {
	r.Status = AuditStatusSuccess
	r.ForUser(userID)
	r.ErrorMessage = nil
	return r
}

// Failed marks the record FAILURE with a server-side reason.
func (r *AuditRecord) Failed(reason string) *AuditRecord {
	r.Status = AuditStatusFailure
	r.ErrorMessage = &reason
	return r
}

// ForUser attaches the user as both actor and entity. An empty id is ignored.
func (r *AuditRecord) ForUser(userID string) *AuditRecord {
	if userID == "" {
		return r
	}
	r.UserID = &userID
	r.EntityID = &userID
	return r
}
