package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TimelineEvent — запись таймлайна спора. Только добавление.
// Полный порядок внутри спора гарантирует пара (created_at, seq):
// seq — монотонный счётчик на спор, разрешающий равные timestamp.
type TimelineEvent struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	DisputeID uuid.UUID       `db:"dispute_id" json:"dispute_id"`
	Seq       int64           `db:"seq" json:"seq"`
	Type      string          `db:"type" json:"type"`
	ActorID   *uuid.UUID      `db:"actor_id" json:"actor_id,omitempty"`
	Role      *string         `db:"role" json:"role,omitempty"`
	Details   json.RawMessage `db:"details" json:"details,omitempty"`
	Status    *string         `db:"status" json:"status,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
