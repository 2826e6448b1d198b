package handlers

import (
	"net/http"

	"studyhub_backend/internal/middleware"
	"studyhub_backend/internal/models"
	"studyhub_backend/internal/services"
	"studyhub_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type PointsHandler struct {
	*BaseHandler
	pointsService services.PointsService
}

func NewPointsHandler(base *BaseHandler, pointsService services.PointsService) *PointsHandler {
	return &PointsHandler{
		BaseHandler:   base,
		pointsService: pointsService,
	}
}

func (h *PointsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	points := rg.Group("/points")
	points.Use(middleware.AuthMiddleware())
	{
		points.GET("/balance", h.GetBalance)
		points.GET("/history", h.GetHistory)
		points.GET("/earnings", h.GetEarnings)
		points.POST("/consume", h.ConsumePoints)
		points.POST("/allocate-monthly", h.AllocateMonthly)
		points.POST("/withdrawals", h.RequestWithdrawal)
		points.GET("/withdrawals", h.GetWithdrawals)
	}

	admin := rg.Group("/admin/points")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.RequireRoles(models.UserRoleAdmin))
	{
		admin.POST("/assign", h.AssignPoints)
		admin.POST("/reward", h.RewardParticipant)
		admin.GET("/balances", h.ListBalances)
		admin.GET("/withdrawals", h.ListPendingWithdrawals)
		admin.PUT("/withdrawals/:id", h.ProcessWithdrawal)
	}
}

func (h *PointsHandler) GetBalance(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	balance, err := h.pointsService.GetBalance(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

func (h *PointsHandler) GetHistory(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	limit, offset := ParsePagination(c)

	history, err := h.pointsService.GetHistory(db, userID, limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *PointsHandler) GetEarnings(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	earnings, err := h.pointsService.GetParticipantEarnings(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, earnings)
}

func (h *PointsHandler) ConsumePoints(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.ConsumePointsRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	result, err := h.pointsService.ConsumePoints(db, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PointsHandler) AllocateMonthly(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	result, err := h.pointsService.AllocateMonthlyPoints(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PointsHandler) RequestWithdrawal(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.RequestWithdrawalRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	withdrawal, err := h.pointsService.RequestWithdrawal(db, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, withdrawal)
}

func (h *PointsHandler) GetWithdrawals(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	withdrawals, err := h.pointsService.GetWithdrawals(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

// --- Админские операции ---

func (h *PointsHandler) AssignPoints(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.AssignPointsRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	result, err := h.pointsService.AssignPoints(db, adminID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PointsHandler) RewardParticipant(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}

	var req dto.RewardParticipantRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	tx, err := h.pointsService.RewardParticipant(db, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tx)
}

func (h *PointsHandler) ListBalances(c *gin.Context) {
	db := h.GetDB(c)
	limit, offset := ParsePagination(c)

	balances, err := h.pointsService.ListBalances(db, limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": balances})
}

func (h *PointsHandler) ListPendingWithdrawals(c *gin.Context) {
	db := h.GetDB(c)
	limit, offset := ParsePagination(c)

	withdrawals, err := h.pointsService.ListPendingWithdrawals(db, limit, offset)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

func (h *PointsHandler) ProcessWithdrawal(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.ProcessWithdrawalRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	requestID := c.Param("id")

	withdrawal, err := h.pointsService.ProcessWithdrawal(db, adminID, requestID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, withdrawal)
}
