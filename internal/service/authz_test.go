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

type mockRoleProvider struct {
	mock.Mock
}

func (m *mockRoleProvider) GetRoles(ctx context.Context, actorID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func TestAuthorizationGate_Allow(t *testing.T) {
	roles := new(mockRoleProvider)
	gate := NewAuthorizationGate(roles)
	ctx := context.Background()
	disputeID := uuid.New()

	arbiterID := uuid.New()
	roles.On("GetRoles", ctx, arbiterID).Return([]string{models.RoleArbiter}, nil)
	assert.NoError(t, gate.Allow(ctx, arbiterID, ActionVote, disputeID))

	buyerID := uuid.New()
	roles.On("GetRoles", ctx, buyerID).Return([]string{models.RoleBuyer}, nil)
	assert.NoError(t, gate.Allow(ctx, buyerID, ActionFile, disputeID))
	// Покупатель не голосует.
	assert.True(t, apperror.IsForbidden(gate.Allow(ctx, buyerID, ActionVote, disputeID)))

	adminID := uuid.New()
	roles.On("GetRoles", ctx, adminID).Return([]string{models.RoleAdmin}, nil)
	assert.NoError(t, gate.Allow(ctx, adminID, ActionOverride, disputeID))
	assert.NoError(t, gate.Allow(ctx, adminID, ActionEscalate, disputeID))
	assert.True(t, apperror.IsForbidden(gate.Allow(ctx, adminID, ActionFile, disputeID)))
}

func TestAuthorizationGate_UnknownAction(t *testing.T) {
	roles := new(mockRoleProvider)
	gate := NewAuthorizationGate(roles)

	err := gate.Allow(context.Background(), uuid.New(), "dispute.delete", uuid.New())

	assert.True(t, apperror.IsForbidden(err))
	roles.AssertNotCalled(t, "GetRoles", mock.Anything, mock.Anything)
}

func TestAuthorizationGate_ProviderFailure(t *testing.T) {
	roles := new(mockRoleProvider)
	gate := NewAuthorizationGate(roles)
	ctx := context.Background()
	actorID := uuid.New()

	roles.On("GetRoles", ctx, actorID).Return(nil, errors.New("identity unavailable"))

	err := gate.Allow(ctx, actorID, ActionVote, uuid.New())

	assert.True(t, apperror.IsRetryable(err))
}
