package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/escrow-arbitration/internal/models"
)

type TimelineRepository struct {
	db *sqlx.DB
}

func NewTimelineRepository(db *sqlx.DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// Append добавляет событие и выдаёт ему следующий seq внутри спора.
// Вызывается только под per-dispute блокировкой координатора, поэтому
// выборка MAX(seq)+1 не гонится сама с собой в рамках одного спора.
func (r *TimelineRepository) Append(ctx context.Context, e *models.TimelineEvent) error {
	query := `
		INSERT INTO timeline_events (dispute_id, seq, type, actor_id, role, details, status)
		VALUES ($1,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM timeline_events WHERE dispute_id = $1),
			$2, $3, $4, $5, $6)
		RETURNING id, seq, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		e.DisputeID, e.Type, e.ActorID, e.Role, e.Details, e.Status).
		Scan(&e.ID, &e.Seq, &e.CreatedAt)
}

// ListByDispute возвращает события в порядке (created_at, seq).
func (r *TimelineRepository) ListByDispute(ctx context.Context, disputeID uuid.UUID) ([]models.TimelineEvent, error) {
	var events []models.TimelineEvent
	err := r.db.SelectContext(ctx, &events, `
		SELECT * FROM timeline_events WHERE dispute_id = $1 ORDER BY created_at ASC, seq ASC
	`, disputeID)
	return events, err
}
