package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/escrow-arbitration/internal/models"
)

var ErrDisputeNotFound = errors.New("dispute not found")

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	query := `
		INSERT INTO disputes (deal_id, initiator_id, respondent_id, reason, amount, severity, risk_level, status, escalation_level, voting_deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		d.DealID, d.InitiatorID, d.RespondentID, d.Reason, d.Amount,
		d.Severity, d.RiskLevel, d.Status, d.EscalationLevel, d.VotingDeadline).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `SELECT * FROM disputes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	return &d, err
}

func (r *DisputeRepository) GetByDealID(ctx context.Context, dealID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `SELECT * FROM disputes WHERE deal_id = $1`, dealID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	return &d, err
}

// Update сохраняет изменяемые координатором поля спора.
func (r *DisputeRepository) Update(ctx context.Context, d *models.Dispute) error {
	d.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE disputes
		SET status = $2, escalation_level = $3, severity = $4, risk_level = $5,
		    resolution = $6, split_amount = $7, voting_deadline = $8, updated_at = $9
		WHERE id = $1
	`, d.ID, d.Status, d.EscalationLevel, d.Severity, d.RiskLevel,
		d.Resolution, d.SplitAmount, d.VotingDeadline, d.UpdatedAt)
	return err
}

// ListByParticipant возвращает споры, где пользователь инициатор или ответчик.
func (r *DisputeRepository) ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes
		WHERE initiator_id = $1 OR respondent_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return disputes, err
}

// ListByArbiter возвращает споры, где пользователь входит в пул текущего раунда.
func (r *DisputeRepository) ListByArbiter(ctx context.Context, arbiterID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT d.* FROM disputes d
		JOIN round_arbiters ra ON ra.dispute_id = d.id AND ra.level = d.escalation_level
		WHERE ra.arbiter_id = $1
		ORDER BY d.created_at DESC LIMIT $2 OFFSET $3
	`, arbiterID, limit, offset)
	return disputes, err
}
