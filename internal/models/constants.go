package models

// DisputeStatus константы статусов спора
const (
	DisputeStatusFiled              = "filed"
	DisputeStatusTriaged            = "triaged"
	DisputeStatusVotingOpen         = "voting_open"
	DisputeStatusResolved           = "resolved"
	DisputeStatusEscalated          = "escalated"
	DisputeStatusOverriddenResolved = "overridden_resolved"
	DisputeStatusRevoked            = "revoked"
)

// Role константы ролей участников
const (
	RoleBuyer        = "buyer"
	RoleSeller       = "seller"
	RoleArbiter      = "arbiter"
	RoleSuperArbiter = "super_arbiter"
	RoleAdmin        = "admin"
)

// VoteSide константы сторон голоса
const (
	VoteSideBuyer   = "buyer"
	VoteSideSeller  = "seller"
	VoteSideNeutral = "neutral"
)

// RiskLevel константы уровней риска из триажа
const (
	RiskLevelLow    = "low"
	RiskLevelMedium = "medium"
	RiskLevelHigh   = "high"
)

// EscalationReason константы причин эскалации
const (
	EscalationReasonDeadlock   = "deadlock"
	EscalationReasonComplexity = "complexity"
	EscalationReasonUrgency    = "urgency"
	EscalationReasonSystemic   = "systemic"
	EscalationReasonCustom     = "custom"
)

// EscalationApproval константы статусов подтверждения эскалации
const (
	EscalationApprovalPending  = "pending"
	EscalationApprovalApproved = "approved"
	EscalationApprovalRejected = "rejected"
)

// OverrideAction константы административных действий
const (
	OverrideForceResolveBuyer  = "force_resolve_buyer"
	OverrideForceResolveSeller = "force_resolve_seller"
	OverrideSplitFunds         = "split_funds"
	OverrideExtendDeadline     = "extend_deadline"
	OverrideReassignArbiters   = "reassign_arbiters"
	OverrideBlacklistUser      = "blacklist_user"
)

// TimelineEventType константы типов событий таймлайна
const (
	EventFiled          = "filed"
	EventTriaged        = "triaged"
	EventVoted          = "voted"
	EventEscalated      = "escalated"
	EventAdminOverride  = "admin_override"
	EventResolved       = "resolved"
	EventRevoked        = "revoked"
	EventFundRedirected = "fund_redirected"
	EventTrustUpdated   = "trust_updated"
	EventBlacklisted    = "blacklisted"
)

// Resolution константы итогов спора
const (
	ResolutionBuyer  = "buyer"
	ResolutionSeller = "seller"
	ResolutionSplit  = "split"
)

// ValidVoteSides список валидных сторон голоса
var ValidVoteSides = map[string]struct{}{
	VoteSideBuyer:   {},
	VoteSideSeller:  {},
	VoteSideNeutral: {},
}

// ValidRoles список валидных ролей
var ValidRoles = map[string]struct{}{
	RoleBuyer:        {},
	RoleSeller:       {},
	RoleArbiter:      {},
	RoleSuperArbiter: {},
	RoleAdmin:        {},
}

// EscalationReasonMinLevel задаёт минимальный текущий уровень спора,
// с которого причина из каталога становится доступной.
var EscalationReasonMinLevel = map[string]int{
	EscalationReasonDeadlock:   1,
	EscalationReasonComplexity: 1,
	EscalationReasonUrgency:    2,
	EscalationReasonSystemic:   2,
}

// ValidOverrideActions список валидных административных действий
var ValidOverrideActions = map[string]struct{}{
	OverrideForceResolveBuyer:  {},
	OverrideForceResolveSeller: {},
	OverrideSplitFunds:         {},
	OverrideExtendDeadline:     {},
	OverrideReassignArbiters:   {},
	OverrideBlacklistUser:      {},
}

// TerminalOverrideActions действия, после которых спор закрыт навсегда
var TerminalOverrideActions = map[string]struct{}{
	OverrideForceResolveBuyer:  {},
	OverrideForceResolveSeller: {},
	OverrideSplitFunds:         {},
}

// OverrideActionsWithoutReason действия, для которых причина не обязательна
var OverrideActionsWithoutReason = map[string]struct{}{
	OverrideExtendDeadline: {},
}

// IsTerminalStatus возвращает true, если спор в финальном статусе:
// дальнейшие голоса, эскалации и финальные override запрещены.
func IsTerminalStatus(status string) bool {
	switch status {
	case DisputeStatusResolved, DisputeStatusOverriddenResolved, DisputeStatusRevoked:
		return true
	}
	return false
}
