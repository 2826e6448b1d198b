package handlers

import (
	"net/http"

	"studyhub_backend/internal/middleware"
	"studyhub_backend/internal/models"
	"studyhub_backend/internal/services"
	"studyhub_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type StudyHandler struct {
	*BaseHandler
	studyService services.StudyService
	userService  services.UserService
}

func NewStudyHandler(base *BaseHandler, studyService services.StudyService, userService services.UserService) *StudyHandler {
	return &StudyHandler{
		BaseHandler:  base,
		studyService: studyService,
		userService:  userService,
	}
}

func (h *StudyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	studies := rg.Group("/studies")
	studies.Use(middleware.AuthMiddleware())
	{
		studies.GET("", h.ListActiveStudies)
		studies.GET("/:id", h.GetStudy)
		studies.POST("/:id/apply", h.Apply)
	}

	researcher := rg.Group("/studies")
	researcher.Use(middleware.AuthMiddleware())
	researcher.Use(middleware.RequireRoles(models.UserRoleResearcher, models.UserRoleAdmin))
	{
		researcher.POST("", h.CreateStudy)
		researcher.GET("/mine", h.ListMyStudies)
		researcher.PUT("/:id", h.UpdateStudy)
		researcher.DELETE("/:id", h.DeleteStudy)
		researcher.GET("/:id/participants", h.ListParticipants)
		researcher.POST("/:id/complete/:participantID", h.CompleteParticipant)
		researcher.POST("/:id/recordings", h.StartRecording)
		researcher.PUT("/recordings/:sessionID/stop", h.StopRecording)
		researcher.GET("/:id/export", h.ExportStudy)
	}
}

// currentUser загружает модель пользователя из claims - нужна для проверок плана
func (h *StudyHandler) currentUser(c *gin.Context) (*models.User, bool) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return nil, false
	}

	user, err := h.userService.GetUser(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return nil, false
	}
	return user, true
}

func (h *StudyHandler) CreateStudy(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateStudyRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	study, err := h.studyService.CreateStudy(h.GetDB(c), user, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, study)
}

func (h *StudyHandler) GetStudy(c *gin.Context) {
	study, err := h.studyService.GetStudy(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, study)
}

func (h *StudyHandler) ListActiveStudies(c *gin.Context) {
	limit, offset := ParsePagination(c)

	studies, err := h.studyService.ListActiveStudies(h.GetDB(c), limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"studies": studies})
}

func (h *StudyHandler) ListMyStudies(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	limit, offset := ParsePagination(c)

	studies, err := h.studyService.ListMyStudies(h.GetDB(c), userID, limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"studies": studies})
}

func (h *StudyHandler) UpdateStudy(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateStudyRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	study, err := h.studyService.UpdateStudy(h.GetDB(c), userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, study)
}

func (h *StudyHandler) DeleteStudy(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.studyService.DeleteStudy(h.GetDB(c), userID, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Study deleted"})
}

func (h *StudyHandler) Apply(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	entry, err := h.studyService.Apply(h.GetDB(c), user, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *StudyHandler) ListParticipants(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	participants, err := h.studyService.ListParticipants(h.GetDB(c), userID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

func (h *StudyHandler) CompleteParticipant(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	tx, err := h.studyService.CompleteParticipant(h.GetDB(c), userID, c.Param("id"), c.Param("participantID"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reward": tx})
}

func (h *StudyHandler) StartRecording(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req dto.StartRecordingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	session, err := h.studyService.StartRecording(h.GetDB(c), user, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (h *StudyHandler) StopRecording(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.StopRecordingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	session, err := h.studyService.StopRecording(h.GetDB(c), userID, c.Param("sessionID"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *StudyHandler) ExportStudy(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	export, err := h.studyService.ExportStudy(h.GetDB(c), user, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, export)
}
