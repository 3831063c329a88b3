package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/escrow-arbitration/internal/models"
	"github.com/ignatzorin/escrow-arbitration/internal/pkg/apperror"
)

type mockEscalationRepo struct {
	mock.Mock
}

func (m *mockEscalationRepo) Create(ctx context.Context, e *models.EscalationRecord) error {
	args := m.Called(ctx, e)
	if args.Error(0) == nil {
		e.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockEscalationRepo) ListByDispute(ctx context.Context, disputeID uuid.UUID) ([]models.EscalationRecord, error) {
	args := m.Called(ctx, disputeID)
	return args.Get(0).([]models.EscalationRecord), args.Error(1)
}

type mockArbiterPool struct {
	mock.Mock
}

func (m *mockArbiterPool) ArbitersForLevel(ctx context.Context, d *models.Dispute, level int) ([]uuid.UUID, error) {
	args := m.Called(ctx, d, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func TestEscalationService_Escalate_Success(t *testing.T) {
	repo := new(mockEscalationRepo)
	pool := new(mockArbiterPool)
	svc := NewEscalationService(repo, pool, 3)
	ctx := context.Background()

	d := votingDispute(models.DisputeStatusVotingOpen, 1)
	actorID := uuid.New()
	arbiters := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()}

	pool.On("ArbitersForLevel", ctx, d, 2).Return(arbiters, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.EscalationRecord")).Return(nil)

	record, newPool, err := svc.Escalate(ctx, d, 2, models.EscalationReasonDeadlock, actorID)

	assert.NoError(t, err)
	assert.Equal(t, 2, record.Level)
	assert.Equal(t, models.EscalationReasonDeadlock, record.Reason)
	assert.Nil(t, record.CustomReason)
	assert.Equal(t, models.EscalationApprovalPending, record.ApprovalStatus)
	assert.Len(t, newPool, 5)
}

func TestEscalationService_Escalate_SkipLevel(t *testing.T) {
	svc := NewEscalationService(new(mockEscalationRepo), new(mockArbiterPool), 3)

	d := votingDispute(models.DisputeStatusVotingOpen, 1)
	_, _, err := svc.Escalate(context.Background(), d, 3, models.EscalationReasonDeadlock, uuid.New())

	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidLevel))
}

func TestEscalationService_Escalate_BeyondMax(t *testing.T) {
	svc := NewEscalationService(new(mockEscalationRepo), new(mockArbiterPool), 3)

	d := votingDispute(models.DisputeStatusVotingOpen, 3)
	_, _, err := svc.Escalate(context.Background(), d, 4, models.EscalationReasonDeadlock, uuid.New())

	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidLevel))
	var appErr *apperror.AppError
	if assert.ErrorAs(t, err, &appErr) {
		assert.Contains(t, appErr.Message, "превышает максимум")
	}
}

func TestEscalationService_Escalate_Terminal(t *testing.T) {
	svc := NewEscalationService(new(mockEscalationRepo), new(mockArbiterPool), 3)

	d := votingDispute(models.DisputeStatusResolved, 1)
	_, _, err := svc.Escalate(context.Background(), d, 2, models.EscalationReasonDeadlock, uuid.New())

	assert.True(t, apperror.Is(err, apperror.ErrCodeAlreadyFinalized))
}

func TestEscalationService_ReasonMinLevel(t *testing.T) {
	svc := NewEscalationService(new(mockEscalationRepo), new(mockArbiterPool), 3)

	// "systemic" доступна только с уровня 2.
	d := votingDispute(models.DisputeStatusVotingOpen, 1)
	err := svc.Validate(d, 2, models.EscalationReasonSystemic)
	assert.True(t, apperror.IsValidation(err))

	d = votingDispute(models.DisputeStatusVotingOpen, 2)
	assert.NoError(t, svc.Validate(d, 3, models.EscalationReasonSystemic))
}

func TestEscalationService_Escalate_CustomReason(t *testing.T) {
	repo := new(mockEscalationRepo)
	pool := new(mockArbiterPool)
	svc := NewEscalationService(repo, pool, 3)
	ctx := context.Background()

	d := votingDispute(models.DisputeStatusVotingOpen, 1)
	pool.On("ArbitersForLevel", ctx, d, 2).Return([]uuid.UUID{uuid.New()}, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.EscalationRecord")).Return(nil)

	record, _, err := svc.Escalate(ctx, d, 2, "арбитры запросили дополнительную экспертизу", uuid.New())

	assert.NoError(t, err)
	assert.Equal(t, models.EscalationReasonCustom, record.Reason)
	if assert.NotNil(t, record.CustomReason) {
		assert.Equal(t, "арбитры запросили дополнительную экспертизу", *record.CustomReason)
	}
}

func TestEscalationService_Escalate_EmptyReason(t *testing.T) {
	repo := new(mockEscalationRepo)
	svc := NewEscalationService(repo, new(mockArbiterPool), 3)

	d := votingDispute(models.DisputeStatusVotingOpen, 1)
	_, _, err := svc.Escalate(context.Background(), d, 2, "   ", uuid.New())

	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEscalationService_Escalate_PoolUnavailable(t *testing.T) {
	repo := new(mockEscalationRepo)
	pool := new(mockArbiterPool)
	svc := NewEscalationService(repo, pool, 3)
	ctx := context.Background()

	d := votingDispute(models.DisputeStatusVotingOpen, 1)
	pool.On("ArbitersForLevel", ctx, d, 2).Return(nil, errors.New("directory timeout"))

	_, _, err := svc.Escalate(ctx, d, 2, models.EscalationReasonDeadlock, uuid.New())

	assert.True(t, apperror.IsRetryable(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
