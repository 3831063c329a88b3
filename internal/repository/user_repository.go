package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/escrow-arbitration/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, role, seniority, kyc_verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, trust_score, is_active, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		strings.ToLower(u.Email), u.Username, u.PasswordHash, u.Role, u.Seniority, u.KYCVerified).
		Scan(&u.ID, &u.TrustScore, &u.IsActive, &u.CreatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return &u, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE email = $1`, strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return &u, err
}

func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, userID, time.Now())
	return err
}

// ListArbiters возвращает активных арбитров с seniority не ниже заданного.
// Supers и админы в обычный пул не попадают.
func (r *UserRepository) ListArbiters(ctx context.Context, minSeniority, limit int) ([]models.User, error) {
	var arbiters []models.User
	err := r.db.SelectContext(ctx, &arbiters, `
		SELECT * FROM users
		WHERE role = $1 AND is_active = TRUE AND blacklisted = FALSE AND seniority >= $2
		ORDER BY seniority DESC, trust_score DESC
		LIMIT $3
	`, models.RoleArbiter, minSeniority, limit)
	return arbiters, err
}

// SetBlacklisted помечает аккаунт как заблокированный для новых сделок.
func (r *UserRepository) SetBlacklisted(ctx context.Context, userID uuid.UUID, blacklisted bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET blacklisted = $2 WHERE id = $1`, userID, blacklisted)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AdjustTrustScore сдвигает trust score в пределах [0, 100].
func (r *UserRepository) AdjustTrustScore(ctx context.Context, userID uuid.UUID, delta float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET trust_score = GREATEST(0, LEAST(100, trust_score + $2)) WHERE id = $1
	`, userID, delta)
	return err
}

// --- Сессии ---

func (r *UserRepository) CreateSession(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		s.UserID, s.RefreshToken, s.UserAgent, s.IPAddress, s.ExpiresAt).
		Scan(&s.ID, &s.CreatedAt)
}

func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, refreshToken)
	return err
}
