package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/escrow-arbitration/internal/dto"
	"github.com/ignatzorin/escrow-arbitration/internal/http/handlers/common"
	"github.com/ignatzorin/escrow-arbitration/internal/service"
)

// DisputeHandler — HTTP слой движка арбитража.
type DisputeHandler struct {
	svc    *service.DisputeService
	triage *service.TriageService
}

// NewDisputeHandler создаёт хэндлер споров.
func NewDisputeHandler(svc *service.DisputeService, triage *service.TriageService) *DisputeHandler {
	return &DisputeHandler{svc: svc, triage: triage}
}

// FileDispute POST /api/disputes
func (h *DisputeHandler) FileDispute(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.FileDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.svc.FileDispute(c.Request.Context(), service.FileDisputeInput{
		DealID:       req.DealID,
		InitiatorID:  userID,
		RespondentID: req.RespondentID,
		Reason:       req.Reason,
		Amount:       req.Amount,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dispute)
}

// Triage POST /api/disputes/triage — классификация описания без подачи.
func (h *DisputeHandler) Triage(c *gin.Context) {
	var req dto.TriageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.triage.Classify(c.Request.Context(), req.Description)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Vote POST /api/disputes/:id/vote
func (h *DisputeHandler) Vote(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	tally, err := h.svc.CastVote(c.Request.Context(), disputeID, userID, req.Side)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, tally)
}

// Escalate POST /api/disputes/:id/escalate
func (h *DisputeHandler) Escalate(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.EscalateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	record, err := h.svc.Escalate(c.Request.Context(), disputeID, userID, req.ToLevel, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// Override POST /api/disputes/:id/override
func (h *DisputeHandler) Override(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.svc.Override(c.Request.Context(), disputeID, userID, service.OverrideInput{
		Action:      req.Action,
		Reason:      req.Reason,
		SplitAmount: req.SplitAmount,
		TargetID:    req.TargetID,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.Record)
}

// Revoke POST /api/disputes/:id/revoke
func (h *DisputeHandler) Revoke(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.svc.Revoke(c.Request.Context(), disputeID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// GetDispute GET /api/disputes/:id
func (h *DisputeHandler) GetDispute(c *gin.Context) {
	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	dispute, err := h.svc.GetDispute(c.Request.Context(), disputeID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

// GetTally GET /api/disputes/:id/tally
func (h *DisputeHandler) GetTally(c *gin.Context) {
	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	tally, err := h.svc.Tally(c.Request.Context(), disputeID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, tally)
}

// GetTimeline GET /api/disputes/:id/timeline
func (h *DisputeHandler) GetTimeline(c *gin.Context) {
	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	events, err := h.svc.GetTimeline(c.Request.Context(), disputeID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// ListMyDisputes GET /api/disputes
func (h *DisputeHandler) ListMyDisputes(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	role, err := common.CurrentUserRole(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	disputes, err := h.svc.ListUserDisputes(c.Request.Context(), userID, role, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, disputes)
}
