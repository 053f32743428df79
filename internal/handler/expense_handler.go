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

type ExpenseHandler struct {
	expenseService service.ExpenseService
}

func NewExpenseHandler(expenseService service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

func (h *ExpenseHandler) RegisterRoutes(router *gin.RouterGroup, authed gin.HandlerFunc) {
	expenses := router.Group("/api/expense-claims")
	expenses.Use(authed)
	{
		expenses.POST("", h.CreateExpenseClaim)
		expenses.GET("", h.ListExpenseClaims)
		expenses.PUT("/:id/review", middleware.RequireRole(model.RoleManager, model.RoleAdmin), h.ReviewExpenseClaim)
	}
}

// CreateExpenseClaim submits an expense against an approved travel request
// @Summary      Submit an expense claim
// @Description  The referenced travel request must exist and be Approved, and the expense date must fall within its travel window.
// @Tags         expense-claims
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.CreateExpenseClaimDTO  true  "Expense claim payload"
// @Success      201      {object}  response.Response{data=model.ExpenseClaim}
// @Failure      400      {object}  response.Response
// @Router       /api/expense-claims [post]
func (h *ExpenseHandler) CreateExpenseClaim(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
		return
	}

	var req service.CreateExpenseClaimDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	created, err := h.expenseService.Create(c.Request.Context(), user, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

// ListExpenseClaims returns expense claims visible to the caller
// @Summary      List expense claims
// @Tags         expense-claims
// @Security     BearerAuth
// @Produce      json
// @Param        status       query     string  false  "Pending Approval, Approved, or Rejected"
// @Param        employee_id  query     string  false  "Filter by submitting employee"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Router       /api/expense-claims [get]
func (h *ExpenseHandler) ListExpenseClaims(c *gin.Context) {
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

	claims, total, err := h.expenseService.List(c.Request.Context(), user, query)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"expense_claims": claims,
		"pagination":     pagination.NewMeta(params, total),
	}))
}

// ReviewExpenseClaim records a manager or admin decision
// @Summary      Review an expense claim
// @Tags         expense-claims
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string             true  "Expense claim ID"
// @Param        request  body      service.ReviewDTO  true  "Decision payload"
// @Success      200      {object}  response.Response{data=model.ExpenseClaim}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/expense-claims/{id}/review [put]
func (h *ExpenseHandler) ReviewExpenseClaim(c *gin.Context) {
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

	reviewed, err := h.expenseService.Review(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, reviewed))
}
