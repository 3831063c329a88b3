package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/escrow-arbitration/internal/models"
)

var (
	ErrVoteNotFound  = errors.New("vote not found")
	ErrVoteDuplicate = errors.New("vote already cast in this round")
)

type VoteRepository struct {
	db *sqlx.DB
}

func NewVoteRepository(db *sqlx.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

func (r *VoteRepository) Create(ctx context.Context, v *models.Vote) error {
	query := `
		INSERT INTO votes (dispute_id, arbiter_id, level, side)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, v.DisputeID, v.ArbiterID, v.Level, v.Side).
		Scan(&v.ID, &v.CreatedAt)

	// Уникальность (dispute_id, level, arbiter_id) держит и база:
	// второй голос в одном раунде невозможен даже в обход сервиса.
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrVoteDuplicate
	}
	return err
}

func (r *VoteRepository) GetByArbiter(ctx context.Context, disputeID uuid.UUID, level int, arbiterID uuid.UUID) (*models.Vote, error) {
	var v models.Vote
	err := r.db.GetContext(ctx, &v, `
		SELECT * FROM votes WHERE dispute_id = $1 AND level = $2 AND arbiter_id = $3
	`, disputeID, level, arbiterID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVoteNotFound
	}
	return &v, err
}

// ListByRound возвращает голоса раунда в порядке поступления.
func (r *VoteRepository) ListByRound(ctx context.Context, disputeID uuid.UUID, level int) ([]models.Vote, error) {
	var votes []models.Vote
	err := r.db.SelectContext(ctx, &votes, `
		SELECT * FROM votes WHERE dispute_id = $1 AND level = $2 ORDER BY created_at ASC
	`, disputeID, level)
	return votes, err
}

// SetEligibleArbiters задаёт пул арбитров раунда, если он ещё не задан.
// Возвращает false, если раунд уже открыт (повторное открытие — no-op).
func (r *VoteRepository) SetEligibleArbiters(ctx context.Context, disputeID uuid.UUID, level int, arbiterIDs []uuid.UUID) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM round_arbiters WHERE dispute_id = $1 AND level = $2
	`, disputeID, level); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	return true, r.insertArbiters(ctx, disputeID, level, arbiterIDs)
}

// ReplaceEligibleArbiters заменяет пул текущего раунда (reassign_arbiters).
func (r *VoteRepository) ReplaceEligibleArbiters(ctx context.Context, disputeID uuid.UUID, level int, arbiterIDs []uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM round_arbiters WHERE dispute_id = $1 AND level = $2
	`, disputeID, level); err != nil {
		return err
	}
	for _, id := range arbiterIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO round_arbiters (dispute_id, level, arbiter_id) VALUES ($1, $2, $3)
		`, disputeID, level, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *VoteRepository) ListEligibleArbiters(ctx context.Context, disputeID uuid.UUID, level int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `
		SELECT arbiter_id FROM round_arbiters WHERE dispute_id = $1 AND level = $2 ORDER BY arbiter_id
	`, disputeID, level)
	return ids, err
}

func (r *VoteRepository) insertArbiters(ctx context.Context, disputeID uuid.UUID, level int, arbiterIDs []uuid.UUID) error {
	for _, id := range arbiterIDs {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO round_arbiters (dispute_id, level, arbiter_id) VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, disputeID, level, id); err != nil {
			return err
		}
	}
	return nil
}
