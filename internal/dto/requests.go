package dto

import "github.com/google/uuid"

// RegisterRequest — тело POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginRequest — тело POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest — тело POST /api/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// FileDisputeRequest — тело POST /api/disputes.
type FileDisputeRequest struct {
	DealID       uuid.UUID `json:"deal_id" binding:"required"`
	RespondentID uuid.UUID `json:"respondent_id" binding:"required"`
	Reason       string    `json:"reason" binding:"required"`
	Amount       float64   `json:"amount" binding:"required"`
}

// TriageRequest — тело POST /api/disputes/triage.
type TriageRequest struct {
	Description string `json:"description" binding:"required"`
}

// VoteRequest — тело POST /api/disputes/:id/vote.
type VoteRequest struct {
	Side string `json:"side" binding:"required"`
}

// EscalateRequest — тело POST /api/disputes/:id/escalate.
type EscalateRequest struct {
	ToLevel int    `json:"level" binding:"required"`
	Reason  string `json:"reason" binding:"required"`
}

// OverrideRequest — тело POST /api/disputes/:id/override.
type OverrideRequest struct {
	Action      string     `json:"action" binding:"required"`
	Reason      string     `json:"reason"`
	SplitAmount *float64   `json:"split_amount"`
	TargetID    *uuid.UUID `json:"target_id"`
}
