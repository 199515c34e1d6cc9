package controller

import (
	"encoding/json"

	"flagtest_backend/internal/middleware"
	"flagtest_backend/internal/model"
	"flagtest_backend/internal/service"
	"flagtest_backend/internal/util"
	"flagtest_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

// SessionController serves a participant's own session, authenticated by the
// proof cookie alone.
type SessionController struct {
	SessionService    *service.SessionService
	AnswerService     *service.AnswerService
	CamouflageService *service.CamouflageService
}

func NewSessionController(
	sessionService *service.SessionService,
	answerService *service.AnswerService,
	camouflageService *service.CamouflageService,
) *SessionController {
	return &SessionController{
		SessionService:    sessionService,
		AnswerService:     answerService,
		CamouflageService: camouflageService,
	}
}

func (c *SessionController) proofFor(ctx *gin.Context, sessionID string) (service.ParticipantProof, bool) {
	proof, ok := middleware.ParticipantProofFromRequest(ctx)
	if !ok || proof.SessionID != sessionID {
		util.Forbidden(ctx)
		return service.ParticipantProof{}, false
	}
	return proof, true
}

// Get godoc
// @Summary Get the caller's session
// @Tags participant
// @Produce  json
// @Param   id path string true "Session id"
// @Success 200 {object} util.Response{data=model.TestSession}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/sessions/{id} [get]
func (c *SessionController) Get(ctx *gin.Context) {
	proof, ok := c.proofFor(ctx, ctx.Param("id"))
	if !ok {
		return
	}

	session, err := c.SessionService.GetAuthorized(proof)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

type SubmitAnswerRequest struct {
	QuestionID string          `json:"questionId" binding:"required"`
	WidgetType string          `json:"widgetType" binding:"required"`
	Answer     json.RawMessage `json:"answer" binding:"required"`
}

// SubmitAnswer godoc
// @Summary Submit one answer
// @Description Upserts the answer, recomputes all scores from stored answers and advances the session lifecycle; completing the last unanswered question completes the session
// @Tags participant
// @Accept  json
// @Produce  json
// @Param   id path string true "Session id"
// @Param   body body SubmitAnswerRequest true "Answer payload"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Failure 400 {object} util.Response "Unknown question or invalid answer"
// @Failure 403 {object} util.Response
// @Failure 409 {object} util.Response "Session no longer accepts answers"
// @Router /api/sessions/{id}/answers [post]
func (c *SessionController) SubmitAnswer(ctx *gin.Context) {
	proof, ok := c.proofFor(ctx, ctx.Param("id"))
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AnswerService.SubmitAnswer(proof, req.QuestionID, req.WidgetType, req.Answer)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	monitoring.AnswersSubmitted.Inc()
	if result.Status == model.SessionCompleted {
		monitoring.SessionsCompleted.Inc()
	}

	util.Success(ctx, result)
}

// CompletionContent godoc
// @Summary Completion content for a finished session
// @Description Resolves the session's slot from its scores and, in camouflage mode, the character and copy configured for it
// @Tags participant
// @Produce  json
// @Param   id path string true "Session id"
// @Success 200 {object} util.Response{data=service.CompletionContent}
// @Failure 403 {object} util.Response
// @Failure 409 {object} util.Response "Session not completed"
// @Router /api/sessions/{id}/completion [get]
func (c *SessionController) CompletionContent(ctx *gin.Context) {
	proof, ok := c.proofFor(ctx, ctx.Param("id"))
	if !ok {
		return
	}

	session, err := c.SessionService.GetAuthorized(proof)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	content, err := c.CamouflageService.CompletionContentForSession(session)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, content)
}
