package models

import (
	"time"

	"github.com/google/uuid"
)

// Dispute — агрегат спора по сделке escrow.
// Статус, уровень эскалации и резолюция меняются только координатором.
type Dispute struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	DealID          uuid.UUID  `db:"deal_id" json:"deal_id"`
	InitiatorID     uuid.UUID  `db:"initiator_id" json:"initiator_id"`
	RespondentID    uuid.UUID  `db:"respondent_id" json:"respondent_id"`
	Reason          string     `db:"reason" json:"reason"`
	Amount          float64    `db:"amount" json:"amount"`
	Severity        int        `db:"severity" json:"severity"`
	RiskLevel       string     `db:"risk_level" json:"risk_level"`
	Status          string     `db:"status" json:"status"`
	EscalationLevel int        `db:"escalation_level" json:"escalation_level"`
	Resolution      *string    `db:"resolution" json:"resolution,omitempty"`
	SplitAmount     *float64   `db:"split_amount" json:"split_amount,omitempty"`
	VotingDeadline  *time.Time `db:"voting_deadline" json:"voting_deadline,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Vote — голос арбитра в рамках одного раунда (dispute_id + level).
// Голоса не редактируются и не удаляются: новый раунд после эскалации
// открывает новую выборку, исторические голоса остаются.
type Vote struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DisputeID uuid.UUID `db:"dispute_id" json:"dispute_id"`
	ArbiterID uuid.UUID `db:"arbiter_id" json:"arbiter_id"`
	Level     int       `db:"level" json:"level"`
	Side      string    `db:"side" json:"side"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EscalationRecord — запись о поднятии уровня спора.
type EscalationRecord struct {
	ID             uuid.UUID `db:"id" json:"id"`
	DisputeID      uuid.UUID `db:"dispute_id" json:"dispute_id"`
	Level          int       `db:"level" json:"level"`
	Reason         string    `db:"reason" json:"reason"`
	CustomReason   *string   `db:"custom_reason" json:"custom_reason,omitempty"`
	EscalatedBy    uuid.UUID `db:"escalated_by" json:"escalated_by"`
	ApprovalStatus string    `db:"approval_status" json:"approval_status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// OverrideAction — выполненное административное действие.
// После выполнения не откатывается и не повторяется автоматически.
type OverrideAction struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DisputeID   uuid.UUID `db:"dispute_id" json:"dispute_id"`
	ActionType  string    `db:"action_type" json:"action_type"`
	Reason      *string   `db:"reason" json:"reason,omitempty"`
	SplitAmount *float64  `db:"split_amount" json:"split_amount,omitempty"`
	ExecutedBy  uuid.UUID `db:"executed_by" json:"executed_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TriageResult — результат классификации спора.
type TriageResult struct {
	Severity                int    `json:"severity"`
	RiskLevel               string `json:"risk_level"`
	RecommendedArbiterCount int    `json:"recommended_arbiter_count"`
}

// TallyResult — снимок подсчёта голосов текущего раунда.
// Neutral учитывается в явке, но не в большинстве.
type TallyResult struct {
	Level         int     `json:"level"`
	Buyer         int     `json:"buyer"`
	Seller        int     `json:"seller"`
	Neutral       int     `json:"neutral"`
	EligibleCount int     `json:"eligible_count"`
	Participation float64 `json:"participation"`
	Outcome       *string `json:"outcome,omitempty"`
}
