package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-arbitration/internal/models"
	"github.com/ignatzorin/escrow-arbitration/internal/pkg/apperror"
	"github.com/ignatzorin/escrow-arbitration/internal/validation"
)

// EscalationRepository описывает зависимости EscalationService от хранилища.
type EscalationRepository interface {
	Create(ctx context.Context, e *models.EscalationRecord) error
	ListByDispute(ctx context.Context, disputeID uuid.UUID) ([]models.EscalationRecord, error)
}

// ArbiterPoolProvider — внешний коллаборатор подбора арбитров:
// возвращает пул нужной seniority для уровня эскалации.
type ArbiterPoolProvider interface {
	ArbitersForLevel(ctx context.Context, d *models.Dispute, level int) ([]uuid.UUID, error)
}

// EscalationService владеет машиной состояний уровня эскалации
// в диапазоне [1, maxLevel]. Уровень растёт строго по одному.
type EscalationService struct {
	repo     EscalationRepository
	pool     ArbiterPoolProvider
	maxLevel int
}

// NewEscalationService создаёт контроллер эскалации.
func NewEscalationService(repo EscalationRepository, pool ArbiterPoolProvider, maxLevel int) *EscalationService {
	if maxLevel < 1 {
		maxLevel = 3
	}
	return &EscalationService{repo: repo, pool: pool, maxLevel: maxLevel}
}

// MaxLevel возвращает предельный уровень эскалации.
func (s *EscalationService) MaxLevel() int {
	return s.maxLevel
}

// Validate проверяет предусловия эскалации, не меняя состояние.
func (s *EscalationService) Validate(d *models.Dispute, toLevel int, reason string) error {
	if models.IsTerminalStatus(d.Status) {
		return apperror.ErrAlreadyFinalized
	}

	if toLevel != d.EscalationLevel+1 {
		return apperror.New(apperror.ErrCodeInvalidLevel,
			fmt.Sprintf("эскалация только на один уровень: текущий %d, запрошен %d", d.EscalationLevel, toLevel))
	}
	if toLevel > s.maxLevel {
		return apperror.New(apperror.ErrCodeInvalidLevel,
			fmt.Sprintf("уровень %d превышает максимум %d; дальше только административное вмешательство", toLevel, s.maxLevel))
	}

	if _, _, err := normalizeEscalationReason(d, reason); err != nil {
		return err
	}
	return nil
}

// Escalate формирует запись эскалации и расширенный пул арбитров нового
// уровня. Статус и уровень спора применяет координатор.
func (s *EscalationService) Escalate(ctx context.Context, d *models.Dispute, toLevel int, reason string, actorID uuid.UUID) (*models.EscalationRecord, []uuid.UUID, error) {
	if err := s.Validate(d, toLevel, reason); err != nil {
		return nil, nil, err
	}

	catalogReason, customReason, err := normalizeEscalationReason(d, reason)
	if err != nil {
		return nil, nil, err
	}

	arbiters, err := s.pool.ArbitersForLevel(ctx, d, toLevel)
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeExternalFailure, "подбор арбитров недоступен")
	}

	record := &models.EscalationRecord{
		DisputeID:      d.ID,
		Level:          toLevel,
		Reason:         catalogReason,
		CustomReason:   customReason,
		EscalatedBy:    actorID,
		ApprovalStatus: models.EscalationApprovalPending,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, nil, fmt.Errorf("escalation: не удалось сохранить запись: %w", err)
	}

	return record, arbiters, nil
}

// History возвращает записи эскалаций спора по возрастанию уровня.
func (s *EscalationService) History(ctx context.Context, disputeID uuid.UUID) ([]models.EscalationRecord, error) {
	return s.repo.ListByDispute(ctx, disputeID)
}

// normalizeEscalationReason сводит причину к каталожной или custom.
// Каталожная причина ниже своего минимального уровня отклоняется:
// это выбранный контракт — отклонять, а не молча принимать.
func normalizeEscalationReason(d *models.Dispute, reason string) (string, *string, error) {
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return "", nil, apperror.New(apperror.ErrCodeValidation, "причина эскалации обязательна")
	}

	if minLevel, ok := models.EscalationReasonMinLevel[trimmed]; ok {
		if d.EscalationLevel < minLevel {
			return "", nil, apperror.New(apperror.ErrCodeValidation,
				fmt.Sprintf("причина %q доступна с уровня %d, текущий %d", trimmed, minLevel, d.EscalationLevel))
		}
		return trimmed, nil, nil
	}

	if err := validation.ValidateReason(trimmed); err != nil {
		return "", nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	return models.EscalationReasonCustom, &trimmed, nil
}
