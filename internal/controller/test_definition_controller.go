package controller

import (
	"strconv"

	"flagtest_backend/internal/service"
	"flagtest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TestDefinitionController struct {
	TestDefinitionService *service.TestDefinitionService
}

func NewTestDefinitionController(testDefinitionService *service.TestDefinitionService) *TestDefinitionController {
	return &TestDefinitionController{TestDefinitionService: testDefinitionService}
}

// Create godoc
// @Summary Create a test definition
// @Description Stores version 1 for a new slug, or the next version for an existing one
// @Tags test-definitions
// @Accept  json
// @Produce  json
// @Param   body body service.CreateTestDefinitionRequest true "Definition payload"
// @Success 201 {object} util.Response{data=model.TestDefinition}
// @Failure 400 {object} util.Response "Invalid document"
// @Security BearerAuth
// @Router /api/test-definitions [post]
func (c *TestDefinitionController) Create(ctx *gin.Context) {
	var req service.CreateTestDefinitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	definition, err := c.TestDefinitionService.Create(claims.UserID, &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, definition)
}

// List godoc
// @Summary List test definitions
// @Tags test-definitions
// @Produce  json
// @Param   page query int false "Page" default(1)
// @Param   limit query int false "Page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Security BearerAuth
// @Router /api/test-definitions [get]
func (c *TestDefinitionController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	definitions, total, err := c.TestDefinitionService.List(page, limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: definitions, Total: total, Page: page, Limit: limit})
}

// Get godoc
// @Summary Get a test definition
// @Tags test-definitions
// @Produce  json
// @Param   id path string true "Test definition id"
// @Success 200 {object} util.Response{data=model.TestDefinition}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/test-definitions/{id} [get]
func (c *TestDefinitionController) Get(ctx *gin.Context) {
	definition, err := c.TestDefinitionService.Get(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, definition)
}

// Update godoc
// @Summary Update an unpublished test definition
// @Tags test-definitions
// @Accept  json
// @Produce  json
// @Param   id path string true "Test definition id"
// @Param   body body service.UpdateTestDefinitionRequest true "Fields to change"
// @Success 200 {object} util.Response{data=model.TestDefinition}
// @Failure 409 {object} util.Response "Published definitions are immutable"
// @Security BearerAuth
// @Router /api/test-definitions/{id} [patch]
func (c *TestDefinitionController) Update(ctx *gin.Context) {
	var req service.UpdateTestDefinitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	definition, err := c.TestDefinitionService.Update(ctx.Param("id"), &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, definition)
}

// Publish godoc
// @Summary Publish a test definition
// @Description Freezes the document so evaluations can attach it
// @Tags test-definitions
// @Produce  json
// @Param   id path string true "Test definition id"
// @Success 200 {object} util.Response{data=model.TestDefinition}
// @Failure 409 {object} util.Response
// @Security BearerAuth
// @Router /api/test-definitions/{id}/publish [post]
func (c *TestDefinitionController) Publish(ctx *gin.Context) {
	definition, err := c.TestDefinitionService.Publish(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, definition)
}
