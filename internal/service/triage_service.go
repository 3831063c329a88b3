package service

import (
	"context"

	"github.com/ignatzorin/escrow-arbitration/internal/models"
	"github.com/ignatzorin/escrow-arbitration/internal/pkg/apperror"
	"github.com/ignatzorin/escrow-arbitration/internal/validation"
)

// ModerationOracle — внешний коллаборатор модерации контента.
// Возвращает false для недопустимого текста.
type ModerationOracle interface {
	Moderate(ctx context.Context, text string) (bool, error)
}

// ScoringOracle — внешний оракул классификации: оценивает описание спора.
type ScoringOracle interface {
	Score(ctx context.Context, text string) (severity int, riskLevel string, err error)
}

// TriageService классифицирует поданный спор. Чистая функция от описания
// плюс вызовы внешних оракулов; состояние спора не меняет.
type TriageService struct {
	moderation ModerationOracle
	scorer     ScoringOracle
}

// NewTriageService создаёт сервис триажа. moderation может быть nil —
// тогда проверка модерации пропускается.
func NewTriageService(moderation ModerationOracle, scorer ScoringOracle) *TriageService {
	return &TriageService{moderation: moderation, scorer: scorer}
}

// Classify возвращает severity 1..5, уровень риска и рекомендуемый размер
// пула арбитров первого раунда.
func (s *TriageService) Classify(ctx context.Context, description string) (*models.TriageResult, error) {
	if err := validation.ValidateDescription(description); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	if s.moderation != nil {
		ok, err := s.moderation.Moderate(ctx, description)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeExternalFailure, "сервис модерации недоступен")
		}
		if !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "описание не прошло модерацию")
		}
	}

	severity, riskLevel, err := s.scorer.Score(ctx, description)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeExternalFailure, "оракул классификации недоступен")
	}
	if severity < 1 {
		severity = 1
	}
	if severity > 5 {
		severity = 5
	}

	return &models.TriageResult{
		Severity:                severity,
		RiskLevel:               riskLevel,
		RecommendedArbiterCount: recommendedArbiterCount(severity),
	}, nil
}

// recommendedArbiterCount выбирает нечётный размер пула по severity.
func recommendedArbiterCount(severity int) int {
	switch {
	case severity >= 5:
		return 7
	case severity >= 3:
		return 5
	default:
		return 3
	}
}
