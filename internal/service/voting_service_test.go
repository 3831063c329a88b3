package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/escrow-arbitration/internal/models"
	"github.com/ignatzorin/escrow-arbitration/internal/pkg/apperror"
	"github.com/ignatzorin/escrow-arbitration/internal/repository"
)

type mockVoteRepo struct {
	mock.Mock
}

func (m *mockVoteRepo) Create(ctx context.Context, v *models.Vote) error {
	args := m.Called(ctx, v)
	if args.Error(0) == nil {
		v.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockVoteRepo) GetByArbiter(ctx context.Context, disputeID uuid.UUID, level int, arbiterID uuid.UUID) (*models.Vote, error) {
	args := m.Called(ctx, disputeID, level, arbiterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vote), args.Error(1)
}

func (m *mockVoteRepo) ListByRound(ctx context.Context, disputeID uuid.UUID, level int) ([]models.Vote, error) {
	args := m.Called(ctx, disputeID, level)
	return args.Get(0).([]models.Vote), args.Error(1)
}

func (m *mockVoteRepo) SetEligibleArbiters(ctx context.Context, disputeID uuid.UUID, level int, arbiterIDs []uuid.UUID) (bool, error) {
	args := m.Called(ctx, disputeID, level, arbiterIDs)
	return args.Bool(0), args.Error(1)
}

func (m *mockVoteRepo) ReplaceEligibleArbiters(ctx context.Context, disputeID uuid.UUID, level int, arbiterIDs []uuid.UUID) error {
	args := m.Called(ctx, disputeID, level, arbiterIDs)
	return args.Error(0)
}

func (m *mockVoteRepo) ListEligibleArbiters(ctx context.Context, disputeID uuid.UUID, level int) ([]uuid.UUID, error) {
	args := m.Called(ctx, disputeID, level)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func votingDispute(status string, level int) *models.Dispute {
	return &models.Dispute{
		ID:              uuid.New(),
		DealID:          uuid.New(),
		InitiatorID:     uuid.New(),
		RespondentID:    uuid.New(),
		Status:          status,
		EscalationLevel: level,
		Amount:          1000,
	}
}

func sideVotes(sides ...string) []models.Vote {
	votes := make([]models.Vote, 0, len(sides))
	for _, side := range sides {
		votes = append(votes, models.Vote{ID: uuid.New(), ArbiterID: uuid.New(), Side: side})
	}
	return votes
}

func TestVotingService_CastVote_Success(t *testing.T) {
	repo := new(mockVoteRepo)
	svc := NewVotingService(repo, 2.0/3.0)
	ctx := context.Background()

	d := votingDispute(models.DisputeStatusVotingOpen, 1)
	arbiterID := uuid.New()
	eligible := []uuid.UUID{arbiterID, uuid.New(), uuid.New()}

	repo.On("ListEligibleArbiters", ctx, d.ID, 1).Return(eligible, nil)
	repo.On("GetByArbiter", ctx, d.ID, 1, arbiterID).Return(nil, repository.ErrVoteNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Vote")).Return(nil)
	repo.On("ListByRound", ctx, d.ID, 1).Return(sideVotes(models.VoteSideBuyer), nil)

	vote, tally, err := svc.CastVote(ctx, d, arbiterID, models.VoteSideBuyer)

	assert.NoError(t, err)
	assert.Equal(t, models.VoteSideBuyer, vote.Side)
	assert.Equal(t, 1, vote.Level)
	assert.Equal(t, 1, tally.Buyer)
	// 1 из 3 — явки нет, резолюции нет.
	assert.Nil(t, tally.Outcome)
}

func TestVotingService_CastVote_InvalidSide(t *testing.T) {
	repo := new(mockVoteRepo)
	svc := NewVotingService(repo, 2.0/3.0)

	d := votingDispute(models.DisputeStatusVotingOpen, 1)
	_, _, err := svc.CastVote(context.Background(), d, uuid.New(), "both")

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVotingService_CastVote_VotingNotOpen(t *testing.T) {
	repo := new(mockVoteRepo)
	svc := NewVotingService(repo, 2.0/3.0)
	ctx := context.Background()

	d := votingDispute(models.DisputeStatusFiled, 1)
	_, _, err := svc.CastVote(ctx, d, uuid.New(), models.VoteSideBuyer)
	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidState))

	// Голос по закрытому спору — ALREADY_FINALIZED, не INVALID_STATE.
	d = votingDispute(models.DisputeStatusResolved, 1)
	_, _, err = svc.CastVote(ctx, d, uuid.New(), models.VoteSideBuyer)
	assert.True(t, apperror.Is(err, apperror.ErrCodeAlreadyFinalized))
}

func TestVotingService_CastVote_NotEligible(t *testing.T) {
	repo := new(mockVoteRepo)
	svc := NewVotingService(repo, 2.0/3.0)
	ctx := context.Background()

	d := votingDispute(models.DisputeStatusVotingOpen, 1)
	repo.On("ListEligibleArbiters", ctx, d.ID, 1).Return([]uuid.UUID{uuid.New()}, nil)

	_, _, err := svc.CastVote(ctx, d, uuid.New(), models.VoteSideSeller)

	assert.True(t, apperror.Is(err, apperror.ErrCodeNotEligible))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVotingService_CastVote_Duplicate(t *testing.T) {
	repo := new(mockVoteRepo)
	svc := NewVotingService(repo, 2.0/3.0)
	ctx := context.Background()

	d := votingDispute(models.DisputeStatusVotingOpen, 1)
	arbiterID := uuid.New()
	existing := &models.Vote{ID: uuid.New(), ArbiterID: arbiterID, Side: models.VoteSideBuyer}

	repo.On("ListEligibleArbiters", ctx, d.ID, 1).Return([]uuid.UUID{arbiterID}, nil)
	repo.On("GetByArbiter", ctx, d.ID, 1, arbiterID).Return(existing, nil)

	_, _, err := svc.CastVote(ctx, d, arbiterID, models.VoteSideSeller)

	assert.True(t, apperror.Is(err, apperror.ErrCodeDuplicateVote))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVotingService_Tally_QuorumMajority(t *testing.T) {
	repo := new(mockVoteRepo)
	svc := NewVotingService(repo, 2.0/3.0)
	ctx := context.Background()
	disputeID := uuid.New()

	eligible := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	repo.On("ListEligibleArbiters", ctx, disputeID, 1).Return(eligible, nil)
	repo.On("ListByRound", ctx, disputeID, 1).Return(sideVotes(
		models.VoteSideBuyer, models.VoteSideBuyer, models.VoteSideBuyer, models.VoteSideSeller,
	), nil)

	tally, err := svc.Tally(ctx, disputeID, 1)

	assert.NoError(t, err)
	assert.Equal(t, 3, tally.Buyer)
	assert.Equal(t, 1, tally.Seller)
	assert.InDelta(t, 0.8, tally.Participation, 1e-9)
	if assert.NotNil(t, tally.Outcome) {
		assert.Equal(t, models.ResolutionBuyer, *tally.Outcome)
	}
}

func TestVotingService_Tally_BelowQuorum(t *testing.T) {
	repo := new(mockVoteRepo)
	svc := NewVotingService(repo, 2.0/3.0)
	ctx := context.Background()
	disputeID := uuid.New()

	eligible := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	repo.On("ListEligibleArbiters", ctx, disputeID, 1).Return(eligible, nil)
	// 3 из 5 — 0.6 < 2/3, даже при единогласии резолюции нет.
	repo.On("ListByRound", ctx, disputeID, 1).Return(sideVotes(
		models.VoteSideBuyer, models.VoteSideBuyer, models.VoteSideBuyer,
	), nil)

	tally, err := svc.Tally(ctx, disputeID, 1)

	assert.NoError(t, err)
	assert.Nil(t, tally.Outcome)
}

func TestVotingService_Tally_TieStaysOpen(t *testing.T) {
	repo := new(mockVoteRepo)
	svc := NewVotingService(repo, 0.5)
	ctx := context.Background()
	disputeID := uuid.New()

	eligible := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	repo.On("ListEligibleArbiters", ctx, disputeID, 1).Return(eligible, nil)
	repo.On("ListByRound", ctx, disputeID, 1).Return(sideVotes(
		models.VoteSideBuyer, models.VoteSideBuyer, models.VoteSideSeller, models.VoteSideSeller,
	), nil)

	tally, err := svc.Tally(ctx, disputeID, 1)

	assert.NoError(t, err)
	assert.Nil(t, tally.Outcome)
}

func TestVotingService_Tally_NeutralCountsOnlyTowardParticipation(t *testing.T) {
	repo := new(mockVoteRepo)
	svc := NewVotingService(repo, 0.5)
	ctx := context.Background()
	disputeID := uuid.New()

	eligible := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	repo.On("ListEligibleArbiters", ctx, disputeID, 1).Return(eligible, nil)
	// buyer 2, neutral 2: явка полная, но 2*2 > 4 не выполняется —
	// строгого большинства поданных голосов у buyer нет.
	repo.On("ListByRound", ctx, disputeID, 1).Return(sideVotes(
		models.VoteSideBuyer, models.VoteSideBuyer, models.VoteSideNeutral, models.VoteSideNeutral,
	), nil)

	tally, err := svc.Tally(ctx, disputeID, 1)

	assert.NoError(t, err)
	assert.Equal(t, 2, tally.Neutral)
	assert.InDelta(t, 1.0, tally.Participation, 1e-9)
	assert.Nil(t, tally.Outcome)
}

func TestVotingService_Tally_NeutralDoesNotBlockMajority(t *testing.T) {
	repo := new(mockVoteRepo)
	svc := NewVotingService(repo, 0.5)
	ctx := context.Background()
	disputeID := uuid.New()

	eligible := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	repo.On("ListEligibleArbiters", ctx, disputeID, 1).Return(eligible, nil)
	// seller 3 из 5 поданных: строгое большинство при neutral в явке.
	repo.On("ListByRound", ctx, disputeID, 1).Return(sideVotes(
		models.VoteSideSeller, models.VoteSideSeller, models.VoteSideSeller,
		models.VoteSideNeutral, models.VoteSideBuyer,
	), nil)

	tally, err := svc.Tally(ctx, disputeID, 1)

	assert.NoError(t, err)
	if assert.NotNil(t, tally.Outcome) {
		assert.Equal(t, models.ResolutionSeller, *tally.Outcome)
	}
}

func TestVotingService_OpenRound_EmptyPool(t *testing.T) {
	repo := new(mockVoteRepo)
	svc := NewVotingService(repo, 2.0/3.0)

	_, err := svc.OpenRound(context.Background(), uuid.New(), 1, nil)

	assert.True(t, apperror.IsRetryable(err))
	repo.AssertNotCalled(t, "SetEligibleArbiters", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVotingService_OpenRound_Idempotent(t *testing.T) {
	repo := new(mockVoteRepo)
	svc := NewVotingService(repo, 2.0/3.0)
	ctx := context.Background()
	disputeID := uuid.New()
	pool := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	repo.On("SetEligibleArbiters", ctx, disputeID, 1, pool).Return(false, nil)

	opened, err := svc.OpenRound(ctx, disputeID, 1, pool)

	assert.NoError(t, err)
	assert.False(t, opened)
}
