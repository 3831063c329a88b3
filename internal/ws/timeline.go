package ws

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-arbitration/internal/goroutine"
	"github.com/ignatzorin/escrow-arbitration/internal/logger"
	"github.com/ignatzorin/escrow-arbitration/internal/models"
)

// TimelineFeed транслирует принятые события таймлайна участникам спора.
// Доставка best effort: событие уже записано в журнал, отказ ленты
// ничего не откатывает.
type TimelineFeed struct {
	hub *Hub
}

// NewTimelineFeed создаёт адаптер живой ленты над хабом.
func NewTimelineFeed(hub *Hub) *TimelineFeed {
	return &TimelineFeed{hub: hub}
}

// NotifyEvent отправляет событие каждому участнику асинхронно.
func (f *TimelineFeed) NotifyEvent(participants []uuid.UUID, event *models.TimelineEvent) {
	for _, userID := range participants {
		uid := userID
		goroutine.SafeGo("ws-timeline-notify", func() {
			if err := f.hub.SendToUser(uid, "timeline_event", event); err != nil && logger.Log != nil {
				logger.Log.WithField("user_id", uid).
					Warnf("ws: не удалось отправить событие таймлайна: %v", err)
			}
		})
	}
}
