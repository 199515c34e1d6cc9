package controller

import (
	"path/filepath"
	"strings"

	"flagtest_backend/internal/model"
	"flagtest_backend/internal/service"
	"flagtest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CamouflageController struct {
	CamouflageAdminService *service.CamouflageAdminService
	StorageService         *service.StorageService
}

func NewCamouflageController(camouflageAdminService *service.CamouflageAdminService, storageService *service.StorageService) *CamouflageController {
	return &CamouflageController{
		CamouflageAdminService: camouflageAdminService,
		StorageService:         storageService,
	}
}

// CreateSet godoc
// @Summary Create a camouflage set
// @Tags camouflage
// @Accept  json
// @Produce  json
// @Param   body body service.CamouflageSetRequest true "Set payload"
// @Success 201 {object} util.Response{data=model.CamouflageSet}
// @Security BearerAuth
// @Router /api/camouflage/sets [post]
func (c *CamouflageController) CreateSet(ctx *gin.Context) {
	var req service.CamouflageSetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	set, err := c.CamouflageAdminService.CreateSet(&req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, set)
}

// ListSets godoc
// @Summary List camouflage sets
// @Tags camouflage
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.CamouflageSet}
// @Security BearerAuth
// @Router /api/camouflage/sets [get]
func (c *CamouflageController) ListSets(ctx *gin.Context) {
	sets, err := c.CamouflageAdminService.ListSets()
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, sets)
}

// UpdateSet godoc
// @Summary Update a camouflage set
// @Tags camouflage
// @Accept  json
// @Produce  json
// @Param   setId path string true "Set id"
// @Param   body body service.CamouflageSetRequest true "Set payload"
// @Success 200 {object} util.Response{data=model.CamouflageSet}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/camouflage/sets/{setId} [put]
func (c *CamouflageController) UpdateSet(ctx *gin.Context) {
	var req service.CamouflageSetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	set, err := c.CamouflageAdminService.UpdateSet(ctx.Param("setId"), &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, set)
}

// CreateCharacter godoc
// @Summary Add a character to a set
// @Tags camouflage
// @Accept  json
// @Produce  json
// @Param   setId path string true "Set id"
// @Param   body body service.CamouflageCharacterRequest true "Character payload"
// @Success 201 {object} util.Response{data=model.CamouflageCharacter}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/camouflage/sets/{setId}/characters [post]
func (c *CamouflageController) CreateCharacter(ctx *gin.Context) {
	var req service.CamouflageCharacterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	character, err := c.CamouflageAdminService.CreateCharacter(ctx.Param("setId"), &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, character)
}

// ListCharacters godoc
// @Summary List a set's characters
// @Tags camouflage
// @Produce  json
// @Param   setId path string true "Set id"
// @Success 200 {object} util.Response{data=[]model.CamouflageCharacter}
// @Security BearerAuth
// @Router /api/camouflage/sets/{setId}/characters [get]
func (c *CamouflageController) ListCharacters(ctx *gin.Context) {
	characters, err := c.CamouflageAdminService.ListCharacters(ctx.Param("setId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, characters)
}

// UpdateCharacter godoc
// @Summary Update a character
// @Tags camouflage
// @Accept  json
// @Produce  json
// @Param   setId path string true "Set id"
// @Param   characterId path string true "Character id"
// @Param   body body service.CamouflageCharacterRequest true "Character payload"
// @Success 200 {object} util.Response{data=model.CamouflageCharacter}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/camouflage/sets/{setId}/characters/{characterId} [put]
func (c *CamouflageController) UpdateCharacter(ctx *gin.Context) {
	var req service.CamouflageCharacterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	character, err := c.CamouflageAdminService.UpdateCharacter(ctx.Param("setId"), ctx.Param("characterId"), &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, character)
}

// UploadCharacterImage godoc
// @Summary Upload a character image
// @Tags camouflage
// @Accept  multipart/form-data
// @Produce  json
// @Param   file formData file true "Image file"
// @Success 201 {object} util.Response{data=object}
// @Failure 400 {object} util.Response
// @Security BearerAuth
// @Router /api/camouflage/images [post]
func (c *CamouflageController) UploadCharacterImage(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "Missing file")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := false
	for _, e := range util.AllowedImageExtensions {
		if e == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		util.BadRequest(ctx, "Unsupported image type")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = util.MimeOctetStream
	}

	filename := "characters/" + model.GenerateUUID() + ext
	url, err := c.StorageService.Upload(ctx.Request.Context(), filename, src, file.Size, contentType)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"url": url})
}

type ReplaceSlotsRequest struct {
	Slots []service.SlotInput `json:"slots" binding:"required"`
}

// ReplaceSlots godoc
// @Summary Replace a test's slot configuration
// @Description Accepts 2 to 5 ranked slot keys and swaps them atomically
// @Tags camouflage
// @Accept  json
// @Produce  json
// @Param   testId path string true "Test definition id"
// @Param   body body ReplaceSlotsRequest true "Ordered slot keys"
// @Success 200 {object} util.Response{data=[]model.CamouflageSlot}
// @Failure 400 {object} util.Response
// @Security BearerAuth
// @Router /api/camouflage/tests/{testId}/slots [put]
func (c *CamouflageController) ReplaceSlots(ctx *gin.Context) {
	var req ReplaceSlotsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	slots, err := c.CamouflageAdminService.ReplaceSlots(ctx.Param("testId"), req.Slots)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, slots)
}

// ListSlots godoc
// @Summary List a test's slots in rank order
// @Tags camouflage
// @Produce  json
// @Param   testId path string true "Test definition id"
// @Success 200 {object} util.Response{data=[]model.CamouflageSlot}
// @Security BearerAuth
// @Router /api/camouflage/tests/{testId}/slots [get]
func (c *CamouflageController) ListSlots(ctx *gin.Context) {
	slots, err := c.CamouflageAdminService.ListSlots(ctx.Param("testId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, slots)
}

// UpsertMapping godoc
// @Summary Assign a character to a slot
// @Tags camouflage
// @Accept  json
// @Produce  json
// @Param   testId path string true "Test definition id"
// @Param   setId path string true "Set id"
// @Param   body body service.MappingRequest true "Slot and character"
// @Success 200 {object} util.Response{data=model.CamouflageMapping}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/camouflage/tests/{testId}/sets/{setId}/mappings [put]
func (c *CamouflageController) UpsertMapping(ctx *gin.Context) {
	var req service.MappingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	mapping, err := c.CamouflageAdminService.UpsertMapping(ctx.Param("testId"), ctx.Param("setId"), &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, mapping)
}

// UpsertCopy godoc
// @Summary Write the copy for a slot
// @Tags camouflage
// @Accept  json
// @Produce  json
// @Param   testId path string true "Test definition id"
// @Param   setId path string true "Set id"
// @Param   body body service.CopyRequest true "Slot copy"
// @Success 200 {object} util.Response{data=model.CamouflageCopy}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/camouflage/tests/{testId}/sets/{setId}/copy [put]
func (c *CamouflageController) UpsertCopy(ctx *gin.Context) {
	var req service.CopyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	copyRow, err := c.CamouflageAdminService.UpsertCopy(ctx.Param("testId"), ctx.Param("setId"), &req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, copyRow)
}
