package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/escrow-arbitration/internal/models"
)

type EscalationRepository struct {
	db *sqlx.DB
}

func NewEscalationRepository(db *sqlx.DB) *EscalationRepository {
	return &EscalationRepository{db: db}
}

func (r *EscalationRepository) Create(ctx context.Context, e *models.EscalationRecord) error {
	query := `
		INSERT INTO escalations (dispute_id, level, reason, custom_reason, escalated_by, approval_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		e.DisputeID, e.Level, e.Reason, e.CustomReason, e.EscalatedBy, e.ApprovalStatus).
		Scan(&e.ID, &e.CreatedAt)
}

func (r *EscalationRepository) ListByDispute(ctx context.Context, disputeID uuid.UUID) ([]models.EscalationRecord, error) {
	var records []models.EscalationRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT * FROM escalations WHERE dispute_id = $1 ORDER BY level ASC
	`, disputeID)
	return records, err
}
