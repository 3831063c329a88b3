package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/escrow-arbitration/internal/models"
	"github.com/ignatzorin/escrow-arbitration/internal/pkg/apperror"
)

type mockModerationOracle struct {
	mock.Mock
}

func (m *mockModerationOracle) Moderate(ctx context.Context, text string) (bool, error) {
	args := m.Called(ctx, text)
	return args.Bool(0), args.Error(1)
}

type mockScoringOracle struct {
	mock.Mock
}

func (m *mockScoringOracle) Score(ctx context.Context, text string) (int, string, error) {
	args := m.Called(ctx, text)
	return args.Int(0), args.String(1), args.Error(2)
}

func TestTriageService_Classify_Success(t *testing.T) {
	moderation := new(mockModerationOracle)
	scorer := new(mockScoringOracle)
	svc := NewTriageService(moderation, scorer)
	ctx := context.Background()

	description := "исполнитель пропал после предоплаты"
	moderation.On("Moderate", ctx, description).Return(true, nil)
	scorer.On("Score", ctx, description).Return(4, models.RiskLevelHigh, nil)

	result, err := svc.Classify(ctx, description)

	assert.NoError(t, err)
	assert.Equal(t, 4, result.Severity)
	assert.Equal(t, models.RiskLevelHigh, result.RiskLevel)
	assert.Equal(t, 5, result.RecommendedArbiterCount)
}

func TestTriageService_Classify_EmptyDescription(t *testing.T) {
	scorer := new(mockScoringOracle)
	svc := NewTriageService(nil, scorer)

	_, err := svc.Classify(context.Background(), "   ")

	assert.True(t, apperror.IsValidation(err))
	scorer.AssertNotCalled(t, "Score", mock.Anything, mock.Anything)
}

func TestTriageService_Classify_ModerationRejected(t *testing.T) {
	moderation := new(mockModerationOracle)
	scorer := new(mockScoringOracle)
	svc := NewTriageService(moderation, scorer)
	ctx := context.Background()

	moderation.On("Moderate", ctx, mock.Anything).Return(false, nil)

	_, err := svc.Classify(ctx, "недопустимый текст жалобы")

	assert.True(t, apperror.IsValidation(err))
	scorer.AssertNotCalled(t, "Score", mock.Anything, mock.Anything)
}

func TestTriageService_Classify_ModerationUnavailable(t *testing.T) {
	moderation := new(mockModerationOracle)
	svc := NewTriageService(moderation, new(mockScoringOracle))
	ctx := context.Background()

	moderation.On("Moderate", ctx, mock.Anything).Return(false, errors.New("timeout"))

	_, err := svc.Classify(ctx, "исполнитель не выходит на связь")

	assert.True(t, apperror.IsRetryable(err))
}

func TestTriageService_Classify_SeverityClamped(t *testing.T) {
	scorer := new(mockScoringOracle)
	svc := NewTriageService(nil, scorer)
	ctx := context.Background()

	scorer.On("Score", ctx, mock.Anything).Return(9, models.RiskLevelHigh, nil).Once()

	result, err := svc.Classify(ctx, "масштабное мошенничество с предоплатой")
	assert.NoError(t, err)
	assert.Equal(t, 5, result.Severity)
	assert.Equal(t, 7, result.RecommendedArbiterCount)

	scorer.On("Score", ctx, mock.Anything).Return(0, models.RiskLevelLow, nil).Once()

	result, err = svc.Classify(ctx, "мелкое недоразумение по срокам")
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Severity)
	assert.Equal(t, 3, result.RecommendedArbiterCount)
}
