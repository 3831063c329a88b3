package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/escrow-arbitration/internal/models"
)

type OverrideRepository struct {
	db *sqlx.DB
}

func NewOverrideRepository(db *sqlx.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

func (r *OverrideRepository) Create(ctx context.Context, a *models.OverrideAction) error {
	query := `
		INSERT INTO override_actions (dispute_id, action_type, reason, split_amount, executed_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		a.DisputeID, a.ActionType, a.Reason, a.SplitAmount, a.ExecutedBy).
		Scan(&a.ID, &a.CreatedAt)
}

func (r *OverrideRepository) ListByDispute(ctx context.Context, disputeID uuid.UUID) ([]models.OverrideAction, error) {
	var actions []models.OverrideAction
	err := r.db.SelectContext(ctx, &actions, `
		SELECT * FROM override_actions WHERE dispute_id = $1 ORDER BY created_at ASC
	`, disputeID)
	return actions, err
}
