package controller

import (
	"strconv"

	"flagtest_backend/internal/model"
	"flagtest_backend/internal/service"
	"flagtest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EvaluationController struct {
	EvaluationService *service.EvaluationService
	SessionService    *service.SessionService
}

func NewEvaluationController(evaluationService *service.EvaluationService, sessionService *service.SessionService) *EvaluationController {
	return &EvaluationController{
		EvaluationService: evaluationService,
		SessionService:    sessionService,
	}
}

func ownerID(ctx *gin.Context) string {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return ""
	}
	return claims.UserID
}

// Create godoc
// @Summary Create an evaluation
// @Tags evaluations
// @Accept  json
// @Produce  json
// @Param   body body service.CreateEvaluationRequest true "Evaluation payload"
// @Success 201 {object} util.Response{data=model.Evaluation}
// @Failure 400 {object} util.Response
// @Security BearerAuth
// @Router /api/evaluations [post]
func (c *EvaluationController) Create(ctx *gin.Context) {
	var req service.CreateEvaluationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	evaluation, err := c.EvaluationService.Create(ownerID(ctx), &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, evaluation)
}

// List godoc
// @Summary List the caller's evaluations
// @Tags evaluations
// @Produce  json
// @Param   page query int false "Page" default(1)
// @Param   limit query int false "Page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Security BearerAuth
// @Router /api/evaluations [get]
func (c *EvaluationController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	evaluations, total, err := c.EvaluationService.List(ownerID(ctx), page, limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: evaluations, Total: total, Page: page, Limit: limit})
}

// Get godoc
// @Summary Get one evaluation with its ordered tests
// @Tags evaluations
// @Produce  json
// @Param   id path string true "Evaluation id"
// @Success 200 {object} util.Response{data=model.Evaluation}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/evaluations/{id} [get]
func (c *EvaluationController) Get(ctx *gin.Context) {
	evaluation, err := c.EvaluationService.Get(ownerID(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, evaluation)
}

// Update godoc
// @Summary Update evaluation settings
// @Tags evaluations
// @Accept  json
// @Produce  json
// @Param   id path string true "Evaluation id"
// @Param   body body service.UpdateEvaluationRequest true "Fields to change"
// @Success 200 {object} util.Response{data=model.Evaluation}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/evaluations/{id} [patch]
func (c *EvaluationController) Update(ctx *gin.Context) {
	var req service.UpdateEvaluationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	evaluation, err := c.EvaluationService.Update(ownerID(ctx), ctx.Param("id"), &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, evaluation)
}

type SetStatusRequest struct {
	Status model.EvaluationStatus `json:"status" binding:"required"`
}

// SetStatus godoc
// @Summary Move an evaluation through its lifecycle
// @Description DRAFT opens to OPEN, OPEN closes to CLOSED, CLOSED may reopen
// @Tags evaluations
// @Accept  json
// @Produce  json
// @Param   id path string true "Evaluation id"
// @Param   body body SetStatusRequest true "Target status"
// @Success 200 {object} util.Response{data=model.Evaluation}
// @Failure 409 {object} util.Response
// @Security BearerAuth
// @Router /api/evaluations/{id}/status [post]
func (c *EvaluationController) SetStatus(ctx *gin.Context) {
	var req SetStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	evaluation, err := c.EvaluationService.SetStatus(ownerID(ctx), ctx.Param("id"), req.Status)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, evaluation)
}

// Delete godoc
// @Summary Soft delete an evaluation
// @Tags evaluations
// @Produce  json
// @Param   id path string true "Evaluation id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/evaluations/{id} [delete]
func (c *EvaluationController) Delete(ctx *gin.Context) {
	if err := c.EvaluationService.Delete(ownerID(ctx), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Restore godoc
// @Summary Restore a soft-deleted evaluation
// @Tags evaluations
// @Produce  json
// @Param   id path string true "Evaluation id"
// @Success 200 {object} util.Response{data=model.Evaluation}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/evaluations/{id}/restore [post]
func (c *EvaluationController) Restore(ctx *gin.Context) {
	evaluation, err := c.EvaluationService.Restore(ownerID(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, evaluation)
}

// AttachTest godoc
// @Summary Attach a published test definition
// @Tags evaluations
// @Accept  json
// @Produce  json
// @Param   id path string true "Evaluation id"
// @Param   body body service.AttachTestRequest true "Test to attach"
// @Success 201 {object} util.Response{data=model.EvaluationTest}
// @Failure 409 {object} util.Response
// @Security BearerAuth
// @Router /api/evaluations/{id}/tests [post]
func (c *EvaluationController) AttachTest(ctx *gin.Context) {
	var req service.AttachTestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	et, err := c.EvaluationService.AttachTest(ownerID(ctx), ctx.Param("id"), &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, et)
}

// UpdateTest godoc
// @Summary Reorder or re-pin an attached test
// @Tags evaluations
// @Accept  json
// @Produce  json
// @Param   id path string true "Evaluation id"
// @Param   testId path string true "Evaluation test id"
// @Param   body body service.UpdateTestRequest true "Fields to change"
// @Success 200 {object} util.Response{data=model.EvaluationTest}
// @Failure 409 {object} util.Response "Sort order already in use"
// @Security BearerAuth
// @Router /api/evaluations/{id}/tests/{testId} [patch]
func (c *EvaluationController) UpdateTest(ctx *gin.Context) {
	var req service.UpdateTestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	et, err := c.EvaluationService.UpdateTest(ownerID(ctx), ctx.Param("id"), ctx.Param("testId"), &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, et)
}

// DetachTest godoc
// @Summary Remove an attached test
// @Tags evaluations
// @Produce  json
// @Param   id path string true "Evaluation id"
// @Param   testId path string true "Evaluation test id"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/evaluations/{id}/tests/{testId} [delete]
func (c *EvaluationController) DetachTest(ctx *gin.Context) {
	if err := c.EvaluationService.DetachTest(ownerID(ctx), ctx.Param("id"), ctx.Param("testId")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

type GenerateInvitesRequest struct {
	Count   int      `json:"count" binding:"required"`
	Aliases []string `json:"aliases"`
}

// GenerateInvites godoc
// @Summary Mint invite tokens
// @Description Raw tokens appear in this response only; the server keeps hashes
// @Tags evaluations
// @Accept  json
// @Produce  json
// @Param   id path string true "Evaluation id"
// @Param   body body GenerateInvitesRequest true "How many invites"
// @Success 201 {object} util.Response{data=[]service.GeneratedInvite}
// @Failure 400 {object} util.Response
// @Security BearerAuth
// @Router /api/evaluations/{id}/invites [post]
func (c *EvaluationController) GenerateInvites(ctx *gin.Context) {
	var req GenerateInvitesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	invites, err := c.EvaluationService.GenerateInvites(ownerID(ctx), ctx.Param("id"), req.Count, req.Aliases)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, invites)
}

// ListInvites godoc
// @Summary List invites without their tokens
// @Tags evaluations
// @Produce  json
// @Param   id path string true "Evaluation id"
// @Success 200 {object} util.Response{data=[]model.Invite}
// @Security BearerAuth
// @Router /api/evaluations/{id}/invites [get]
func (c *EvaluationController) ListInvites(ctx *gin.Context) {
	invites, err := c.EvaluationService.ListInvites(ownerID(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, invites)
}

// DeleteInvite godoc
// @Summary Revoke an invite
// @Tags evaluations
// @Produce  json
// @Param   id path string true "Evaluation id"
// @Param   inviteId path string true "Invite id"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/evaluations/{id}/invites/{inviteId} [delete]
func (c *EvaluationController) DeleteInvite(ctx *gin.Context) {
	if err := c.EvaluationService.DeleteInvite(ownerID(ctx), ctx.Param("id"), ctx.Param("inviteId")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

type UpsertRosterRequest struct {
	Entries []service.RosterEntryInput `json:"entries" binding:"required"`
}

// UpsertRoster godoc
// @Summary Insert or refresh roster entries
// @Tags evaluations
// @Accept  json
// @Produce  json
// @Param   id path string true "Evaluation id"
// @Param   body body UpsertRosterRequest true "Roster entries keyed by code"
// @Success 200 {object} util.Response{data=[]model.RosterEntry}
// @Failure 400 {object} util.Response
// @Security BearerAuth
// @Router /api/evaluations/{id}/roster [put]
func (c *EvaluationController) UpsertRoster(ctx *gin.Context) {
	var req UpsertRosterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	entries, err := c.EvaluationService.UpsertRoster(ownerID(ctx), ctx.Param("id"), req.Entries)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}

// ListRoster godoc
// @Summary List roster entries
// @Tags evaluations
// @Produce  json
// @Param   id path string true "Evaluation id"
// @Success 200 {object} util.Response{data=[]model.RosterEntry}
// @Security BearerAuth
// @Router /api/evaluations/{id}/roster [get]
func (c *EvaluationController) ListRoster(ctx *gin.Context) {
	entries, err := c.EvaluationService.ListRoster(ownerID(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}

type ResetAttemptRequest struct {
	TestDefinitionID string `json:"testDefinitionId" binding:"required"`
	InviteID         string `json:"inviteId"`
	RosterEntryID    string `json:"rosterEntryId"`
	AnonymousID      string `json:"anonymousId"`
}

// ResetAttempt godoc
// @Summary Reset one participant's attempt
// @Description Deletes the attempt's answers and scores and returns the session to CREATED
// @Tags evaluations
// @Accept  json
// @Produce  json
// @Param   id path string true "Evaluation id"
// @Param   body body ResetAttemptRequest true "Which attempt to reset"
// @Success 200 {object} util.Response{data=model.TestSession}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/evaluations/{id}/reset [post]
func (c *EvaluationController) ResetAttempt(ctx *gin.Context) {
	var req ResetAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if _, err := c.EvaluationService.Get(ownerID(ctx), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}

	var identity service.ParticipantIdentity
	switch {
	case req.InviteID != "":
		identity = service.ParticipantIdentity{Kind: service.IdentityInvite, ID: req.InviteID}
	case req.RosterEntryID != "":
		identity = service.ParticipantIdentity{Kind: service.IdentityRoster, ID: req.RosterEntryID}
	case req.AnonymousID != "":
		identity = service.ParticipantIdentity{Kind: service.IdentityAnonymous, ID: req.AnonymousID}
	default:
		util.BadRequest(ctx, "One of inviteId, rosterEntryId or anonymousId is required")
		return
	}

	session, err := c.SessionService.ResetAttempt(ctx.Param("id"), identity, req.TestDefinitionID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, session)
}
