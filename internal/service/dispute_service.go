package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/escrow-arbitration/internal/logger"
	"github.com/ignatzorin/escrow-arbitration/internal/models"
	"github.com/ignatzorin/escrow-arbitration/internal/pkg/apperror"
	"github.com/ignatzorin/escrow-arbitration/internal/repository"
	"github.com/ignatzorin/escrow-arbitration/internal/validation"
)

// DisputeRepository описывает зависимости координатора от хранилища споров.
type DisputeRepository interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetByDealID(ctx context.Context, dealID uuid.UUID) (*models.Dispute, error)
	Update(ctx context.Context, d *models.Dispute) error
	ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error)
	ListByArbiter(ctx context.Context, arbiterID uuid.UUID, limit, offset int) ([]models.Dispute, error)
}

// TimelineLog описывает append-only журнал событий спора.
type TimelineLog interface {
	Append(ctx context.Context, e *models.TimelineEvent) error
	ListByDispute(ctx context.Context, disputeID uuid.UUID) ([]models.TimelineEvent, error)
}

// TriageClassifier классифицирует описание спора.
type TriageClassifier interface {
	Classify(ctx context.Context, description string) (*models.TriageResult, error)
}

// TimelineNotifier получает принятые события для живой ленты.
// Чисто наблюдательный: ошибки доставки не влияют на транзакцию.
type TimelineNotifier interface {
	NotifyEvent(participants []uuid.UUID, event *models.TimelineEvent)
}

// legalStatusTransitions — единственный источник истины о допустимых
// переходах статуса. Всё, что не перечислено, отклоняется как
// INVALID_TRANSITION независимо от того, какой компонент это предложил.
var legalStatusTransitions = map[string]map[string]struct{}{
	models.DisputeStatusFiled: {
		models.DisputeStatusTriaged: {},
		models.DisputeStatusRevoked: {},
	},
	models.DisputeStatusTriaged: {
		models.DisputeStatusVotingOpen: {},
		models.DisputeStatusRevoked:    {},
	},
	models.DisputeStatusVotingOpen: {
		models.DisputeStatusResolved:           {},
		models.DisputeStatusEscalated:          {},
		models.DisputeStatusOverriddenResolved: {},
		models.DisputeStatusRevoked:            {},
	},
	models.DisputeStatusEscalated: {
		models.DisputeStatusVotingOpen: {},
	},
}

// FileDisputeInput — параметры подачи спора.
type FileDisputeInput struct {
	DealID       uuid.UUID
	InitiatorID  uuid.UUID
	RespondentID uuid.UUID
	Reason       string
	Amount       float64
}

// DisputeService — координатор: сериализует все мутации одного спора и
// единолично пишет status/escalationLevel/resolution. Остальные
// компоненты только предлагают переходы.
type DisputeService struct {
	disputes   DisputeRepository
	timeline   TimelineLog
	gate       *AuthorizationGate
	triage     TriageClassifier
	voting     *VotingService
	escalation *EscalationService
	override   *OverrideService
	kyc        KYCProvider
	trust      TrustUpdater
	pool       ArbiterPoolProvider
	notifier   TimelineNotifier
	votingTTL  time.Duration

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewDisputeService создаёт координатор споров.
func NewDisputeService(
	disputes DisputeRepository,
	timeline TimelineLog,
	gate *AuthorizationGate,
	triage TriageClassifier,
	voting *VotingService,
	escalation *EscalationService,
	override *OverrideService,
	kyc KYCProvider,
	trust TrustUpdater,
	pool ArbiterPoolProvider,
	votingTTL time.Duration,
) *DisputeService {
	if votingTTL <= 0 {
		votingTTL = 72 * time.Hour
	}
	return &DisputeService{
		disputes:   disputes,
		timeline:   timeline,
		gate:       gate,
		triage:     triage,
		voting:     voting,
		escalation: escalation,
		override:   override,
		kyc:        kyc,
		trust:      trust,
		pool:       pool,
		votingTTL:  votingTTL,
		locks:      make(map[uuid.UUID]*sync.Mutex),
	}
}

// SetNotifier подключает живую ленту таймлайна (опционально).
func (s *DisputeService) SetNotifier(n TimelineNotifier) {
	s.notifier = n
}

// lockDispute берёт блокировку конкретного спора. Возвращённую функцию
// обязательно вызывать на каждом пути выхода: освобождение гарантируется
// через defer на стороне вызывающего.
func (s *DisputeService) lockDispute(id uuid.UUID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// FileDispute подаёт спор: KYC, триаж, открытие первого раунда.
func (s *DisputeService) FileDispute(ctx context.Context, in FileDisputeInput) (*models.Dispute, error) {
	if err := validation.ValidateReason(in.Reason); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateAmount(in.Amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.InitiatorID == in.RespondentID {
		return nil, apperror.New(apperror.ErrCodeValidation, "инициатор и ответчик не могут совпадать")
	}

	if err := s.gate.Allow(ctx, in.InitiatorID, ActionFile, uuid.Nil); err != nil {
		return nil, err
	}

	verified, err := s.kyc.Verified(ctx, in.InitiatorID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeExternalFailure, "провайдер KYC недоступен")
	}
	if !verified {
		return nil, apperror.New(apperror.ErrCodeForbidden, "подача спора доступна после прохождения KYC")
	}

	if existing, err := s.disputes.GetByDealID(ctx, in.DealID); err == nil && existing != nil {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "спор по этой сделке уже существует")
	} else if err != nil && !errors.Is(err, repository.ErrDisputeNotFound) {
		return nil, err
	}

	triage, err := s.triage.Classify(ctx, in.Reason)
	if err != nil {
		return nil, err
	}

	d := &models.Dispute{
		DealID:          in.DealID,
		InitiatorID:     in.InitiatorID,
		RespondentID:    in.RespondentID,
		Reason:          in.Reason,
		Amount:          in.Amount,
		Severity:        triage.Severity,
		RiskLevel:       triage.RiskLevel,
		Status:          models.DisputeStatusFiled,
		EscalationLevel: 1,
	}

	// Все внешние коллабораторы опрашиваются до первой записи: отказ
	// любого из них оставляет хранилище нетронутым, подачу можно повторить.
	arbiters, err := s.pool.ArbitersForLevel(ctx, d, 1)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeExternalFailure, "подбор арбитров недоступен")
	}
	if len(arbiters) == 0 {
		return nil, apperror.New(apperror.ErrCodeExternalFailure, "пул арбитров для раунда пуст")
	}
	if len(arbiters) > triage.RecommendedArbiterCount {
		arbiters = arbiters[:triage.RecommendedArbiterCount]
	}

	if err := s.disputes.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("dispute: не удалось сохранить спор: %w", err)
	}

	unlock := s.lockDispute(d.ID)
	defer unlock()

	if err := s.appendEvent(ctx, d, models.EventFiled, &in.InitiatorID, nil, map[string]any{
		"deal_id": d.DealID,
		"reason":  d.Reason,
		"amount":  d.Amount,
	}); err != nil {
		return nil, err
	}

	if _, err := s.voting.OpenRound(ctx, d.ID, 1, arbiters); err != nil {
		return nil, err
	}

	if err := s.applyStatus(d, models.DisputeStatusTriaged); err != nil {
		return nil, err
	}
	if err := s.appendEvent(ctx, d, models.EventTriaged, nil, nil, map[string]any{
		"severity":   d.Severity,
		"risk_level": d.RiskLevel,
		"arbiters":   len(arbiters),
	}); err != nil {
		return nil, err
	}

	if err := s.applyStatus(d, models.DisputeStatusVotingOpen); err != nil {
		return nil, err
	}
	deadline := time.Now().Add(s.votingTTL)
	d.VotingDeadline = &deadline

	if err := s.disputes.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("dispute: не удалось обновить спор: %w", err)
	}

	return d, nil
}

// CastVote принимает голос арбитра и, при кворуме, закрывает спор.
func (s *DisputeService) CastVote(ctx context.Context, disputeID, actorID uuid.UUID, side string) (*models.TallyResult, error) {
	unlock := s.lockDispute(disputeID)
	defer unlock()

	d, err := s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if err := s.gate.Allow(ctx, actorID, ActionVote, disputeID); err != nil {
		return nil, err
	}

	vote, tally, err := s.voting.CastVote(ctx, d, actorID, side)
	if err != nil {
		return nil, err
	}

	role := models.RoleArbiter
	if err := s.appendEvent(ctx, d, models.EventVoted, &actorID, &role, map[string]any{
		"side":  vote.Side,
		"level": vote.Level,
	}); err != nil {
		return nil, err
	}

	if tally.Outcome != nil {
		if err := s.resolve(ctx, d, *tally.Outcome, nil); err != nil {
			return nil, err
		}
	}

	return tally, nil
}

// Escalate поднимает уровень спора на единицу и открывает новый раунд
// с расширенным пулом.
func (s *DisputeService) Escalate(ctx context.Context, disputeID, actorID uuid.UUID, toLevel int, reason string) (*models.EscalationRecord, error) {
	unlock := s.lockDispute(disputeID)
	defer unlock()

	d, err := s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if err := s.gate.Allow(ctx, actorID, ActionEscalate, disputeID); err != nil {
		return nil, err
	}

	// Легальность перехода проверяется до записи эскалации: отклонённый
	// переход не должен оставлять запись о несостоявшейся эскалации.
	if err := s.checkTransition(d.Status, models.DisputeStatusEscalated); err != nil {
		return nil, err
	}

	record, arbiters, err := s.escalation.Escalate(ctx, d, toLevel, reason, actorID)
	if err != nil {
		return nil, err
	}

	if err := s.applyStatus(d, models.DisputeStatusEscalated); err != nil {
		return nil, err
	}
	d.EscalationLevel = toLevel

	if _, err := s.voting.OpenRound(ctx, d.ID, toLevel, arbiters); err != nil {
		return nil, err
	}

	if err := s.applyStatus(d, models.DisputeStatusVotingOpen); err != nil {
		return nil, err
	}
	deadline := time.Now().Add(s.votingTTL)
	d.VotingDeadline = &deadline

	if err := s.disputes.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("dispute: не удалось обновить спор: %w", err)
	}

	if err := s.appendEvent(ctx, d, models.EventEscalated, &actorID, nil, map[string]any{
		"level":    record.Level,
		"reason":   record.Reason,
		"arbiters": len(arbiters),
	}); err != nil {
		return nil, err
	}

	return record, nil
}

// Override выполняет административное действие в обход голосования.
func (s *DisputeService) Override(ctx context.Context, disputeID, actorID uuid.UUID, in OverrideInput) (*OverrideResult, error) {
	unlock := s.lockDispute(disputeID)
	defer unlock()

	d, err := s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if err := s.gate.Allow(ctx, actorID, ActionOverride, disputeID); err != nil {
		return nil, err
	}

	result, err := s.override.Execute(ctx, d, in, actorID)
	if err != nil {
		return nil, err
	}

	details := map[string]any{"action": in.Action}
	if result.Record.Reason != nil {
		details["reason"] = *result.Record.Reason
	}

	switch {
	case result.Resolution != nil:
		details["buyer_amount"] = *result.BuyerAmount
		details["seller_amount"] = *result.SellerAmount
		if err := s.applyStatus(d, models.DisputeStatusOverriddenResolved); err != nil {
			return nil, err
		}
		if err := s.setResolution(d, *result.Resolution); err != nil {
			return nil, err
		}
		d.SplitAmount = result.SplitAmount
		if err := s.disputes.Update(ctx, d); err != nil {
			return nil, fmt.Errorf("dispute: не удалось обновить спор: %w", err)
		}
		if err := s.appendEvent(ctx, d, models.EventAdminOverride, &actorID, nil, details); err != nil {
			return nil, err
		}
		if err := s.appendEvent(ctx, d, models.EventFundRedirected, &actorID, nil, map[string]any{
			"buyer_amount":  *result.BuyerAmount,
			"seller_amount": *result.SellerAmount,
		}); err != nil {
			return nil, err
		}
		s.updateTrustAfterResolution(ctx, d)

	case result.ExtendDeadline:
		deadline := time.Now().Add(s.votingTTL)
		d.VotingDeadline = &deadline
		if err := s.disputes.Update(ctx, d); err != nil {
			return nil, fmt.Errorf("dispute: не удалось обновить спор: %w", err)
		}
		details["new_deadline"] = deadline
		if err := s.appendEvent(ctx, d, models.EventAdminOverride, &actorID, nil, details); err != nil {
			return nil, err
		}

	case result.ReassignPool:
		arbiters, err := s.pool.ArbitersForLevel(ctx, d, d.EscalationLevel)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeExternalFailure, "подбор арбитров недоступен")
		}
		if err := s.voting.ReassignArbiters(ctx, d.ID, d.EscalationLevel, arbiters); err != nil {
			return nil, err
		}
		details["arbiters"] = len(arbiters)
		if err := s.appendEvent(ctx, d, models.EventAdminOverride, &actorID, nil, details); err != nil {
			return nil, err
		}

	case result.BlacklistedID != nil:
		details["target_id"] = *result.BlacklistedID
		if err := s.appendEvent(ctx, d, models.EventAdminOverride, &actorID, nil, details); err != nil {
			return nil, err
		}
		if err := s.appendEvent(ctx, d, models.EventBlacklisted, &actorID, nil, map[string]any{
			"target_id": *result.BlacklistedID,
		}); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// Revoke отзывает спор. Доступно только инициатору до финального статуса.
func (s *DisputeService) Revoke(ctx context.Context, disputeID, actorID uuid.UUID) (*models.Dispute, error) {
	unlock := s.lockDispute(disputeID)
	defer unlock()

	d, err := s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if err := s.gate.Allow(ctx, actorID, ActionRevoke, disputeID); err != nil {
		return nil, err
	}
	if d.InitiatorID != actorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "отозвать спор может только инициатор")
	}
	if models.IsTerminalStatus(d.Status) {
		return nil, apperror.ErrAlreadyFinalized
	}

	if err := s.applyStatus(d, models.DisputeStatusRevoked); err != nil {
		return nil, err
	}
	if err := s.disputes.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("dispute: не удалось обновить спор: %w", err)
	}
	if err := s.appendEvent(ctx, d, models.EventRevoked, &actorID, nil, nil); err != nil {
		return nil, err
	}

	return d, nil
}

// GetDispute возвращает спор по идентификатору.
func (s *DisputeService) GetDispute(ctx context.Context, disputeID uuid.UUID) (*models.Dispute, error) {
	return s.getDispute(ctx, disputeID)
}

// Tally возвращает снимок подсчёта голосов текущего раунда.
func (s *DisputeService) Tally(ctx context.Context, disputeID uuid.UUID) (*models.TallyResult, error) {
	d, err := s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	return s.voting.Tally(ctx, d.ID, d.EscalationLevel)
}

// GetTimeline возвращает события спора в порядке принятия.
func (s *DisputeService) GetTimeline(ctx context.Context, disputeID uuid.UUID) ([]models.TimelineEvent, error) {
	if _, err := s.getDispute(ctx, disputeID); err != nil {
		return nil, err
	}
	return s.timeline.ListByDispute(ctx, disputeID)
}

// ListUserDisputes возвращает споры пользователя: для арбитра — где он в
// пуле текущего раунда, для сторон — где он участник.
func (s *DisputeService) ListUserDisputes(ctx context.Context, userID uuid.UUID, role string, limit, offset int) ([]models.Dispute, error) {
	if role == models.RoleArbiter {
		return s.disputes.ListByArbiter(ctx, userID, limit, offset)
	}
	return s.disputes.ListByParticipant(ctx, userID, limit, offset)
}

// --- внутренние помощники ---

func (s *DisputeService) getDispute(ctx context.Context, disputeID uuid.UUID) (*models.Dispute, error) {
	d, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, repository.ErrDisputeNotFound) {
			return nil, apperror.ErrDisputeNotFound
		}
		return nil, err
	}
	return d, nil
}

// checkTransition сверяет переход с картой допустимых переходов,
// не меняя состояние. Любое нарушение монотонности — INVALID_TRANSITION.
func (s *DisputeService) checkTransition(from, to string) error {
	allowed, ok := legalStatusTransitions[from]
	if !ok {
		return apperror.New(apperror.ErrCodeInvalidTransition,
			fmt.Sprintf("из статуса %q переходы запрещены", from))
	}
	if _, ok := allowed[to]; !ok {
		return apperror.New(apperror.ErrCodeInvalidTransition,
			fmt.Sprintf("переход %q -> %q запрещён", from, to))
	}
	return nil
}

// applyStatus применяет переход статуса после проверки его легальности.
func (s *DisputeService) applyStatus(d *models.Dispute, to string) error {
	if err := s.checkTransition(d.Status, to); err != nil {
		return err
	}
	d.Status = to
	return nil
}

// setResolution фиксирует резолюцию ровно один раз. Вторая резолюция
// означает сломанную сериализацию — это внутренняя ошибка, не бизнес-отказ.
func (s *DisputeService) setResolution(d *models.Dispute, resolution string) error {
	if d.Resolution != nil {
		return apperror.New(apperror.ErrCodeInternal,
			"нарушен инвариант: повторная резолюция спора")
	}
	d.Resolution = &resolution
	return nil
}

// resolve закрывает спор по итогам голосования.
func (s *DisputeService) resolve(ctx context.Context, d *models.Dispute, outcome string, actorID *uuid.UUID) error {
	if err := s.applyStatus(d, models.DisputeStatusResolved); err != nil {
		return err
	}
	if err := s.setResolution(d, outcome); err != nil {
		return err
	}
	if err := s.disputes.Update(ctx, d); err != nil {
		return fmt.Errorf("dispute: не удалось обновить спор: %w", err)
	}
	if err := s.appendEvent(ctx, d, models.EventResolved, actorID, nil, map[string]any{
		"resolution": outcome,
	}); err != nil {
		return err
	}
	s.updateTrustAfterResolution(ctx, d)
	return nil
}

// updateTrustAfterResolution сдвигает trust score проигравшей стороны.
// Best effort: отказ коллаборатора не откатывает принятую резолюцию.
func (s *DisputeService) updateTrustAfterResolution(ctx context.Context, d *models.Dispute) {
	if s.trust == nil || d.Resolution == nil {
		return
	}

	var loser uuid.UUID
	switch *d.Resolution {
	case models.ResolutionBuyer:
		loser = s.loserFor(d, models.RoleBuyer)
	case models.ResolutionSeller:
		loser = s.loserFor(d, models.RoleSeller)
	default:
		return
	}

	if err := s.trust.Apply(ctx, loser, -5); err != nil {
		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"dispute_id": d.ID,
				"user_id":    loser,
				"error":      err.Error(),
			}).Warn("dispute: не удалось обновить trust score")
		}
		return
	}

	if err := s.appendEvent(ctx, d, models.EventTrustUpdated, nil, nil, map[string]any{
		"user_id": loser,
		"delta":   -5,
	}); err != nil && logger.Log != nil {
		logger.Log.WithError(err).Warn("dispute: не удалось записать trust_updated")
	}
}

// loserFor возвращает сторону, против которой принята резолюция.
// Инициатор подаёт против ответчика: победившая сторона определяется
// резолюцией, проигравший — контрагент.
func (s *DisputeService) loserFor(d *models.Dispute, winnerSide string) uuid.UUID {
	// Резолюция "buyer" означает решение в пользу покупателя сделки —
	// в модели спора это инициатор, если он покупатель, иначе ответчик.
	if winnerSide == models.RoleBuyer {
		return d.RespondentID
	}
	return d.InitiatorID
}

// appendEvent пишет событие таймлайна и рассылает его в живую ленту.
func (s *DisputeService) appendEvent(ctx context.Context, d *models.Dispute, eventType string, actorID *uuid.UUID, role *string, details map[string]any) error {
	event := &models.TimelineEvent{
		DisputeID: d.ID,
		Type:      eventType,
		ActorID:   actorID,
		Role:      role,
	}
	status := d.Status
	event.Status = &status

	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("dispute: не удалось сериализовать детали события: %w", err)
		}
		event.Details = raw
	}

	if err := s.timeline.Append(ctx, event); err != nil {
		return fmt.Errorf("dispute: не удалось записать событие таймлайна: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyEvent([]uuid.UUID{d.InitiatorID, d.RespondentID}, event)
	}
	return nil
}
