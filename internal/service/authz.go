package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/escrow-arbitration/internal/models"
	"github.com/ignatzorin/escrow-arbitration/internal/pkg/apperror"
)

// Действия, требующие проверки прав.
const (
	ActionFile     = "dispute.file"
	ActionVote     = "dispute.vote"
	ActionEscalate = "dispute.escalate"
	ActionOverride = "dispute.override"
	ActionRevoke   = "dispute.revoke"
)

// RoleProvider — внешний коллаборатор identity: роли актора.
type RoleProvider interface {
	GetRoles(ctx context.Context, actorID uuid.UUID) ([]string, error)
}

// actionRoles — единственное место, где действие связано с ролями.
// Ролевые проверки не размазываются по хэндлерам.
var actionRoles = map[string]map[string]struct{}{
	ActionVote: {
		models.RoleArbiter: {},
	},
	ActionEscalate: {
		models.RoleArbiter: {},
		models.RoleAdmin:   {},
	},
	ActionOverride: {
		models.RoleAdmin:        {},
		models.RoleSuperArbiter: {},
	},
	ActionFile: {
		models.RoleBuyer:  {},
		models.RoleSeller: {},
	},
	// Отзыв дополнительно ограничен инициатором — это проверяет координатор.
	ActionRevoke: {
		models.RoleBuyer:  {},
		models.RoleSeller: {},
	},
}

// AuthorizationGate отвечает на вопрос «может ли актор X выполнить
// действие Y над спором D». Инжектируется в координатор.
type AuthorizationGate struct {
	roles RoleProvider
}

// NewAuthorizationGate создаёт gate поверх провайдера ролей.
func NewAuthorizationGate(roles RoleProvider) *AuthorizationGate {
	return &AuthorizationGate{roles: roles}
}

// Allow возвращает nil, если действие разрешено, иначе FORBIDDEN.
// Ошибка провайдера ролей — EXTERNAL_FAILURE: запрос можно повторить.
func (g *AuthorizationGate) Allow(ctx context.Context, actorID uuid.UUID, action string, disputeID uuid.UUID) error {
	allowed, ok := actionRoles[action]
	if !ok {
		return apperror.New(apperror.ErrCodeForbidden, "неизвестное действие")
	}

	roles, err := g.roles.GetRoles(ctx, actorID)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeExternalFailure, "провайдер ролей недоступен")
	}

	for _, role := range roles {
		if _, ok := allowed[role]; ok {
			return nil
		}
	}

	return apperror.ErrForbidden
}
