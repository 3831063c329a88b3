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

// OverrideRepository описывает зависимости OverrideService от хранилища.
type OverrideRepository interface {
	Create(ctx context.Context, a *models.OverrideAction) error
	ListByDispute(ctx context.Context, disputeID uuid.UUID) ([]models.OverrideAction, error)
}

// FundsExecutor — внешний коллаборатор движения средств. Движок только
// вызывает его; исполнение и кастодиальная логика вне этого кода.
type FundsExecutor interface {
	Redirect(ctx context.Context, disputeID uuid.UUID, buyerAmount, sellerAmount float64) error
}

// BlacklistRegistry — внешний коллаборатор блокировки аккаунтов.
type BlacklistRegistry interface {
	Blacklist(ctx context.Context, userID uuid.UUID, reason string) error
}

// OverrideInput — параметры административного действия.
type OverrideInput struct {
	Action      string
	Reason      string
	SplitAmount *float64
	// TargetID — кого блокировать для blacklist_user; по умолчанию ответчик.
	TargetID *uuid.UUID
}

// OverrideResult — предложенный эффект действия. Мутацию спора
// применяет координатор.
type OverrideResult struct {
	Record         *models.OverrideAction
	Resolution     *string
	SplitAmount    *float64
	BuyerAmount    *float64
	SellerAmount   *float64
	ExtendDeadline bool
	ReassignPool   bool
	BlacklistedID  *uuid.UUID
}

// OverrideService владеет закрытым каталогом административных действий.
// Выполненное действие необратимо: отката нет, ошибочное вмешательство
// компенсируется отдельным действием вне движка.
type OverrideService struct {
	repo      OverrideRepository
	funds     FundsExecutor
	blacklist BlacklistRegistry
}

// NewOverrideService создаёт сервис административных действий.
func NewOverrideService(repo OverrideRepository, funds FundsExecutor, blacklist BlacklistRegistry) *OverrideService {
	return &OverrideService{repo: repo, funds: funds, blacklist: blacklist}
}

// Validate проверяет предусловия действия, не меняя состояние:
// известный тип, обязательные поля, границы суммы, финальность спора.
func (s *OverrideService) Validate(d *models.Dispute, in OverrideInput) error {
	if _, ok := models.ValidOverrideActions[in.Action]; !ok {
		return apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("неизвестное действие %q", in.Action))
	}

	// После финального статуса допустимо только продление дедлайна.
	if models.IsTerminalStatus(d.Status) && in.Action != models.OverrideExtendDeadline {
		return apperror.ErrAlreadyFinalized
	}

	if _, exempt := models.OverrideActionsWithoutReason[in.Action]; !exempt {
		if strings.TrimSpace(in.Reason) == "" {
			return apperror.New(apperror.ErrCodeValidation, "причина обязательна для этого действия")
		}
		if err := validation.ValidateReason(in.Reason); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	if in.Action == models.OverrideSplitFunds {
		if in.SplitAmount == nil {
			return apperror.New(apperror.ErrCodeValidation, "split_amount обязателен для split_funds")
		}
		if err := validation.ValidateSplitAmount(*in.SplitAmount, d.Amount); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	return nil
}

// Execute выполняет действие: внешние эффекты, затем запись в журнал.
// Все предусловия проверяются до первой мутации; при отказе коллаборатора
// спор остаётся нетронутым.
func (s *OverrideService) Execute(ctx context.Context, d *models.Dispute, in OverrideInput, actorID uuid.UUID) (*OverrideResult, error) {
	if err := s.Validate(d, in); err != nil {
		return nil, err
	}

	result := &OverrideResult{}

	switch in.Action {
	case models.OverrideForceResolveBuyer:
		resolution := models.ResolutionBuyer
		buyer, seller := d.Amount, 0.0
		if err := s.funds.Redirect(ctx, d.ID, buyer, seller); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeExternalFailure, "исполнитель платежей недоступен")
		}
		result.Resolution = &resolution
		result.BuyerAmount, result.SellerAmount = &buyer, &seller

	case models.OverrideForceResolveSeller:
		resolution := models.ResolutionSeller
		buyer, seller := 0.0, d.Amount
		if err := s.funds.Redirect(ctx, d.ID, buyer, seller); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeExternalFailure, "исполнитель платежей недоступен")
		}
		result.Resolution = &resolution
		result.BuyerAmount, result.SellerAmount = &buyer, &seller

	case models.OverrideSplitFunds:
		resolution := models.ResolutionSplit
		buyer := *in.SplitAmount
		seller := d.Amount - buyer
		if err := s.funds.Redirect(ctx, d.ID, buyer, seller); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeExternalFailure, "исполнитель платежей недоступен")
		}
		result.Resolution = &resolution
		result.SplitAmount = in.SplitAmount
		result.BuyerAmount, result.SellerAmount = &buyer, &seller

	case models.OverrideExtendDeadline:
		result.ExtendDeadline = true

	case models.OverrideReassignArbiters:
		result.ReassignPool = true

	case models.OverrideBlacklistUser:
		target := d.RespondentID
		if in.TargetID != nil {
			target = *in.TargetID
		}
		if target != d.InitiatorID && target != d.RespondentID {
			return nil, apperror.New(apperror.ErrCodeValidation, "блокировать можно только сторону спора")
		}
		if err := s.blacklist.Blacklist(ctx, target, in.Reason); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeExternalFailure, "реестр блокировок недоступен")
		}
		result.BlacklistedID = &target
	}

	record := &models.OverrideAction{
		DisputeID:   d.ID,
		ActionType:  in.Action,
		ExecutedBy:  actorID,
		SplitAmount: result.SplitAmount,
	}
	if reason := strings.TrimSpace(in.Reason); reason != "" {
		record.Reason = &reason
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("override: не удалось сохранить действие: %w", err)
	}
	result.Record = record

	return result, nil
}

// History возвращает журнал действий по спору.
func (s *OverrideService) History(ctx context.Context, disputeID uuid.UUID) ([]models.OverrideAction, error) {
	return s.repo.ListByDispute(ctx, disputeID)
}
