package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/escrow-arbitration/internal/logger"
	"github.com/ignatzorin/escrow-arbitration/internal/models"
)

// UserDirectory — срез репозитория пользователей, который нужен
// дефолтным реализациям внешних коллабораторов.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListArbiters(ctx context.Context, minSeniority, limit int) ([]models.User, error)
	SetBlacklisted(ctx context.Context, userID uuid.UUID, blacklisted bool) error
	AdjustTrustScore(ctx context.Context, userID uuid.UUID, delta float64) error
}

// UserRoleProvider отдаёт роли из учётной записи пользователя.
type UserRoleProvider struct {
	users UserDirectory
}

func NewUserRoleProvider(users UserDirectory) *UserRoleProvider {
	return &UserRoleProvider{users: users}
}

func (p *UserRoleProvider) GetRoles(ctx context.Context, actorID uuid.UUID) ([]string, error) {
	user, err := p.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return []string{}, nil
	}
	return []string{user.Role}, nil
}

// KYCProvider — внешний коллаборатор статуса KYC: опрашивается перед
// подачей спора.
type KYCProvider interface {
	Verified(ctx context.Context, userID uuid.UUID) (bool, error)
}

// UserKYCProvider читает флаг KYC с учётной записи.
type UserKYCProvider struct {
	users UserDirectory
}

func NewUserKYCProvider(users UserDirectory) *UserKYCProvider {
	return &UserKYCProvider{users: users}
}

func (p *UserKYCProvider) Verified(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := p.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.KYCVerified, nil
}

// SeniorityArbiterPool подбирает арбитров по seniority: уровень эскалации
// задаёт минимальную seniority, severity спора — размер пула.
type SeniorityArbiterPool struct {
	users UserDirectory
}

func NewSeniorityArbiterPool(users UserDirectory) *SeniorityArbiterPool {
	return &SeniorityArbiterPool{users: users}
}

func (p *SeniorityArbiterPool) ArbitersForLevel(ctx context.Context, d *models.Dispute, level int) ([]uuid.UUID, error) {
	count := recommendedArbiterCount(d.Severity) + 2*(level-1)
	arbiters, err := p.users.ListArbiters(ctx, level, count)
	if err != nil {
		return nil, err
	}
	if len(arbiters) == 0 {
		return nil, fmt.Errorf("нет доступных арбитров seniority >= %d", level)
	}

	ids := make([]uuid.UUID, 0, len(arbiters))
	for _, a := range arbiters {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

// UserBlacklistRegistry помечает аккаунт заблокированным.
// Применение блокировки к новым сделкам — забота внешних систем.
type UserBlacklistRegistry struct {
	users UserDirectory
}

func NewUserBlacklistRegistry(users UserDirectory) *UserBlacklistRegistry {
	return &UserBlacklistRegistry{users: users}
}

func (r *UserBlacklistRegistry) Blacklist(ctx context.Context, userID uuid.UUID, reason string) error {
	if err := r.users.SetBlacklisted(ctx, userID, true); err != nil {
		return err
	}
	if logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id": userID,
			"reason":  reason,
		}).Warn("blacklist: аккаунт заблокирован")
	}
	return nil
}

// TrustUpdater — внешний коллаборатор trust score.
type TrustUpdater interface {
	Apply(ctx context.Context, userID uuid.UUID, delta float64) error
}

// UserTrustUpdater сдвигает trust score в учётной записи.
type UserTrustUpdater struct {
	users UserDirectory
}

func NewUserTrustUpdater(users UserDirectory) *UserTrustUpdater {
	return &UserTrustUpdater{users: users}
}

func (u *UserTrustUpdater) Apply(ctx context.Context, userID uuid.UUID, delta float64) error {
	return u.users.AdjustTrustScore(ctx, userID, delta)
}

// LoggedFundsExecutor — заглушка исполнителя платежей: кастодиальная
// система внешняя, движок лишь фиксирует поручение.
type LoggedFundsExecutor struct{}

func NewLoggedFundsExecutor() *LoggedFundsExecutor {
	return &LoggedFundsExecutor{}
}

func (e *LoggedFundsExecutor) Redirect(ctx context.Context, disputeID uuid.UUID, buyerAmount, sellerAmount float64) error {
	if logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"dispute_id":    disputeID,
			"buyer_amount":  buyerAmount,
			"seller_amount": sellerAmount,
		}).Info("funds: поручение на перевод передано исполнителю")
	}
	return nil
}
