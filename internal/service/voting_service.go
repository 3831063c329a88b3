package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-arbitration/internal/models"
	"github.com/ignatzorin/escrow-arbitration/internal/pkg/apperror"
	"github.com/ignatzorin/escrow-arbitration/internal/repository"
)

// VoteRepository описывает зависимости VotingService от слоя хранилища.
type VoteRepository interface {
	Create(ctx context.Context, v *models.Vote) error
	GetByArbiter(ctx context.Context, disputeID uuid.UUID, level int, arbiterID uuid.UUID) (*models.Vote, error)
	ListByRound(ctx context.Context, disputeID uuid.UUID, level int) ([]models.Vote, error)
	SetEligibleArbiters(ctx context.Context, disputeID uuid.UUID, level int, arbiterIDs []uuid.UUID) (bool, error)
	ReplaceEligibleArbiters(ctx context.Context, disputeID uuid.UUID, level int, arbiterIDs []uuid.UUID) error
	ListEligibleArbiters(ctx context.Context, disputeID uuid.UUID, level int) ([]uuid.UUID, error)
}

// VotingService владеет протоколом голосования и правилом кворума
// одного спора. Переходы статусов применяет координатор.
type VotingService struct {
	repo VoteRepository
	// Минимальная доля проголосовавших от пула для резолюции (дефолт 2/3).
	quorumFraction float64
}

// NewVotingService создаёт сервис голосования.
func NewVotingService(repo VoteRepository, quorumFraction float64) *VotingService {
	if quorumFraction <= 0 || quorumFraction > 1 {
		quorumFraction = 2.0 / 3.0
	}
	return &VotingService{repo: repo, quorumFraction: quorumFraction}
}

// OpenRound открывает раунд голосования. Идемпотентен по (dispute, level):
// повторное открытие на том же уровне — no-op, возвращает false.
func (s *VotingService) OpenRound(ctx context.Context, disputeID uuid.UUID, level int, eligibleArbiterIDs []uuid.UUID) (bool, error) {
	if len(eligibleArbiterIDs) == 0 {
		return false, apperror.New(apperror.ErrCodeExternalFailure, "пул арбитров для раунда пуст")
	}
	opened, err := s.repo.SetEligibleArbiters(ctx, disputeID, level, eligibleArbiterIDs)
	if err != nil {
		return false, fmt.Errorf("voting: не удалось открыть раунд: %w", err)
	}
	return opened, nil
}

// ReassignArbiters заменяет пул текущего раунда (административное действие).
func (s *VotingService) ReassignArbiters(ctx context.Context, disputeID uuid.UUID, level int, eligibleArbiterIDs []uuid.UUID) error {
	if len(eligibleArbiterIDs) == 0 {
		return apperror.New(apperror.ErrCodeExternalFailure, "новый пул арбитров пуст")
	}
	return s.repo.ReplaceEligibleArbiters(ctx, disputeID, level, eligibleArbiterIDs)
}

// CastVote принимает голос арбитра в текущем раунде спора и возвращает
// свежий подсчёт. Ролевую проверку делает gate до вызова; здесь остаются
// предусловия состояния, eligibility и уникальности.
func (s *VotingService) CastVote(ctx context.Context, d *models.Dispute, arbiterID uuid.UUID, side string) (*models.Vote, *models.TallyResult, error) {
	if _, ok := models.ValidVoteSides[side]; !ok {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("неизвестная сторона голоса %q", side))
	}

	if d.Status != models.DisputeStatusVotingOpen {
		if models.IsTerminalStatus(d.Status) {
			return nil, nil, apperror.ErrAlreadyFinalized
		}
		return nil, nil, apperror.New(apperror.ErrCodeInvalidState, "голосование по спору не открыто")
	}

	eligible, err := s.repo.ListEligibleArbiters(ctx, d.ID, d.EscalationLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("voting: не удалось получить пул раунда: %w", err)
	}
	if !containsID(eligible, arbiterID) {
		return nil, nil, apperror.ErrNotEligible
	}

	if _, err := s.repo.GetByArbiter(ctx, d.ID, d.EscalationLevel, arbiterID); err == nil {
		return nil, nil, apperror.ErrDuplicateVote
	} else if !errors.Is(err, repository.ErrVoteNotFound) {
		return nil, nil, fmt.Errorf("voting: не удалось проверить голос: %w", err)
	}

	vote := &models.Vote{
		DisputeID: d.ID,
		ArbiterID: arbiterID,
		Level:     d.EscalationLevel,
		Side:      side,
	}
	if err := s.repo.Create(ctx, vote); err != nil {
		if errors.Is(err, repository.ErrVoteDuplicate) {
			return nil, nil, apperror.ErrDuplicateVote
		}
		return nil, nil, fmt.Errorf("voting: не удалось сохранить голос: %w", err)
	}

	votes, err := s.repo.ListByRound(ctx, d.ID, d.EscalationLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("voting: не удалось получить голоса раунда: %w", err)
	}

	return vote, s.evaluate(votes, len(eligible), d.EscalationLevel), nil
}

// Tally возвращает снимок подсчёта текущего раунда. Ничего не мутирует.
func (s *VotingService) Tally(ctx context.Context, disputeID uuid.UUID, level int) (*models.TallyResult, error) {
	eligible, err := s.repo.ListEligibleArbiters(ctx, disputeID, level)
	if err != nil {
		return nil, fmt.Errorf("voting: не удалось получить пул раунда: %w", err)
	}
	votes, err := s.repo.ListByRound(ctx, disputeID, level)
	if err != nil {
		return nil, fmt.Errorf("voting: не удалось получить голоса раунда: %w", err)
	}
	return s.evaluate(votes, len(eligible), level), nil
}

// evaluate применяет правило кворума: резолюция наступает, когда одна из
// сторон держит строгое большинство поданных голосов и проголосовало не
// менее quorumFraction пула. Neutral входит в явку, но не в большинство.
func (s *VotingService) evaluate(votes []models.Vote, eligibleCount, level int) *models.TallyResult {
	result := &models.TallyResult{Level: level, EligibleCount: eligibleCount}
	for _, v := range votes {
		switch v.Side {
		case models.VoteSideBuyer:
			result.Buyer++
		case models.VoteSideSeller:
			result.Seller++
		case models.VoteSideNeutral:
			result.Neutral++
		}
	}

	cast := result.Buyer + result.Seller + result.Neutral
	if eligibleCount > 0 {
		result.Participation = float64(cast) / float64(eligibleCount)
	}
	if cast == 0 || result.Participation < s.quorumFraction {
		return result
	}

	leader, count := "", 0
	switch {
	case result.Buyer > result.Seller:
		leader, count = models.ResolutionBuyer, result.Buyer
	case result.Seller > result.Buyer:
		leader, count = models.ResolutionSeller, result.Seller
	default:
		// Ничья: спор остаётся открытым для голосов или эскалации.
		return result
	}

	if 2*count > cast {
		result.Outcome = &leader
	}
	return result
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
