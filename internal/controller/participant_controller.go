package controller

import (
	"flagtest_backend/internal/middleware"
	"flagtest_backend/internal/service"
	"flagtest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ParticipantController serves the unauthenticated participant surface:
// joining a test and reading progression. Authentication is the credential
// in the request body plus the cookies the join flow sets.
type ParticipantController struct {
	IdentityService *service.IdentityService
	SessionService  *service.SessionService
	ProgressService *service.ProgressService
}

func NewParticipantController(
	identityService *service.IdentityService,
	sessionService *service.SessionService,
	progressService *service.ProgressService,
) *ParticipantController {
	return &ParticipantController{
		IdentityService: identityService,
		SessionService:  sessionService,
		ProgressService: progressService,
	}
}

type JoinRequest struct {
	EvaluationID     string `json:"evaluationId" binding:"required"`
	TestDefinitionID string `json:"testDefinitionId" binding:"required"`
	InviteToken      string `json:"inviteToken"`
	Code             string `json:"code"`
}

type JoinResponse struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

// Join godoc
// @Summary Join a test
// @Description Resolves the credential, finds or creates the single session for this participant and test, rotates the proof cookie and routes to start or continue
// @Tags participant
// @Accept  json
// @Produce  json
// @Param   body body JoinRequest true "Evaluation, test and credential"
// @Success 200 {object} util.Response{data=JoinResponse}
// @Failure 404 {object} util.Response "Invalid code or link"
// @Failure 409 {object} util.Response "Closed or already completed"
// @Router /api/join [post]
func (c *ParticipantController) Join(ctx *gin.Context) {
	var req JoinRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	cred := service.Credential{
		InviteToken: req.InviteToken,
		Code:        req.Code,
		AnonymousID: middleware.AnonymousID(ctx, req.EvaluationID),
	}

	identity, err := c.IdentityService.Resolve(req.EvaluationID, cred)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	result, err := c.SessionService.Join(req.EvaluationID, req.TestDefinitionID, *identity)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	if identity.Kind == service.IdentityAnonymous {
		middleware.SetAnonymousID(ctx, req.EvaluationID, identity.ID)
	}
	middleware.SetParticipantProof(ctx, result.SessionID, result.ParticipantToken)

	util.Success(ctx, JoinResponse{
		SessionID: result.SessionID,
		Status:    string(result.Status),
	})
}

type ProgressRequest struct {
	EvaluationID  string `json:"evaluationId" binding:"required"`
	CurrentTestID string `json:"currentTestId"`
	InviteToken   string `json:"inviteToken"`
	Code          string `json:"code"`
}

// Progress godoc
// @Summary Participant progression across an evaluation's tests
// @Description Maps each test to this participant's session status and names the next incomplete test, in declared order without wrapping
// @Tags participant
// @Accept  json
// @Produce  json
// @Param   body body ProgressRequest true "Evaluation and credential"
// @Success 200 {object} util.Response{data=service.ParticipantProgress}
// @Failure 404 {object} util.Response "Invalid code or link"
// @Router /api/progress [post]
func (c *ParticipantController) Progress(ctx *gin.Context) {
	var req ProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	cred := service.Credential{
		InviteToken: req.InviteToken,
		Code:        req.Code,
		AnonymousID: middleware.AnonymousID(ctx, req.EvaluationID),
	}

	identity, err := c.IdentityService.Resolve(req.EvaluationID, cred)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	progress, err := c.ProgressService.GetParticipantProgress(req.EvaluationID, *identity, req.CurrentTestID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}
