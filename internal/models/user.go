package models

import (
	"time"

	"github.com/google/uuid"
)

// User — участник платформы: сторона сделки, арбитр или администратор.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	// Seniority определяет, с какого уровня эскалации арбитр попадает в пул.
	Seniority   int        `db:"seniority" json:"seniority"`
	TrustScore  float64    `db:"trust_score" json:"trust_score"`
	KYCVerified bool       `db:"kyc_verified" json:"kyc_verified"`
	Blacklisted bool       `db:"blacklisted" json:"blacklisted"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	LastLoginAt *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}

// Session — refresh сессия пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
