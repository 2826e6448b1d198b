package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler   *AuthHandler
	UserHandler   *UserHandler
	PlanHandler   *PlanHandler
	PointsHandler *PointsHandler
	StudyHandler  *StudyHandler
}
