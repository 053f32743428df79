package handler

import (
	"net/http"

	"tem-backend/internal/middleware"
	"tem-backend/internal/model"
	"tem-backend/internal/service"
	"tem-backend/pkg/pagination"
	"tem-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TravelHandler struct {
	travelService service.TravelService
}

func NewTravelHandler(travelService service.TravelService) *TravelHandler {
	return &TravelHandler{travelService: travelService}
}

func (h *TravelHandler) RegisterRoutes(router *gin.RouterGroup, authed gin.HandlerFunc) {
	travel := router.Group("/api/travel-requests")
	travel.Use(authed)
	{
		travel.POST("", h.CreateTravelRequest)
		travel.GET("", h.ListTravelRequests)
		travel.PUT("/:id/review", middleware.RequireRole(model.RoleManager, model.RoleAdmin), h.ReviewTravelRequest)
	}
}

// CreateTravelRequest submits a new travel request for approval
// @Summary      Submit a travel request
// @Tags         travel-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.CreateTravelRequestDTO  true  "Travel request payload"
// @Success      201      {object}  response.Response{data=model.TravelRequest}
// @Failure      400      {object}  response.Response
// @Router       /api/travel-requests [post]
func (h *TravelHandler) CreateTravelRequest(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
		return
	}

	var req service.CreateTravelRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	created, err := h.travelService.Create(c.Request.Context(), user, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

// ListTravelRequests returns travel requests visible to the caller
// @Summary      List travel requests
// @Description  Employees see their own. Managers see their reports' (or their own with employee_id=self). Admins see all.
// @Tags         travel-requests
// @Security     BearerAuth
// @Produce      json
// @Param        status       query     string  false  "Pending Approval, Approved, or Rejected"
// @Param        employee_id  query     string  false  "Filter by submitting employee"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Router       /api/travel-requests [get]
func (h *TravelHandler) ListTravelRequests(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
		return
	}

	params := pagination.Parse(c)
	query := service.ListQuery{
		Status:     c.Query("status"),
		EmployeeID: c.Query("employee_id"),
		Page:       params.Page,
		Limit:      params.Limit,
	}

	requests, total, err := h.travelService.List(c.Request.Context(), user, query)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"travel_requests": requests,
		"pagination":      pagination.NewMeta(params, total),
	}))
}

// ReviewTravelRequest records a manager or admin decision
// @Summary      Review a travel request
// @Description  Managers may only review their own reports' requests. An admin decision is final.
// @Tags         travel-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string             true  "Travel request ID"
// @Param        request  body      service.ReviewDTO  true  "Decision payload"
// @Success      200      {object}  response.Response{data=model.TravelRequest}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/travel-requests/{id}/review [put]
func (h *TravelHandler) ReviewTravelRequest(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
		return
	}

	var req service.ReviewDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	reviewed, err := h.travelService.Review(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, reviewed))
}
