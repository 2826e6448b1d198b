package handlers

import (
	"net/http"

	"studyhub_backend/internal/middleware"
	"studyhub_backend/internal/models"
	"studyhub_backend/internal/plans"
	"studyhub_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type PlanHandler struct {
	*BaseHandler
	usageService services.UsageService
	userService  services.UserService
}

func NewPlanHandler(base *BaseHandler, usageService services.UsageService, userService services.UserService) *PlanHandler {
	return &PlanHandler{
		BaseHandler:  base,
		usageService: usageService,
		userService:  userService,
	}
}

func (h *PlanHandler) RegisterRoutes(rg *gin.RouterGroup) {
	// Каталог планов публичный
	plansGroup := rg.Group("/plans")
	{
		plansGroup.GET("", h.ListPlans)
		plansGroup.GET("/:tier", h.GetPlan)
	}

	my := rg.Group("/plans")
	my.Use(middleware.AuthMiddleware())
	{
		my.GET("/my/info", h.GetMyPlanInfo)
	}

	usage := rg.Group("/usage")
	usage.Use(middleware.AuthMiddleware())
	{
		usage.GET("", h.GetUsage)
	}

	admin := rg.Group("/admin/usage")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.RequireRoles(models.UserRoleAdmin))
	{
		admin.POST("/:userID/reset", h.ResetUsage)
	}
}

func (h *PlanHandler) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": plans.All()})
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	tier := models.PlanTier(c.Param("tier"))

	plan, err := plans.Get(tier)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (h *PlanHandler) GetMyPlanInfo(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	user, err := h.userService.GetUser(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	info, err := h.usageService.GetPlanInfo(db, user)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *PlanHandler) GetUsage(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	usage, err := h.usageService.GetUsage(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, usage)
}

func (h *PlanHandler) ResetUsage(c *gin.Context) {
	db := h.GetDB(c)
	userID := c.Param("userID")

	if err := h.usageService.ResetUsage(db, userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Usage counters reset"})
}
