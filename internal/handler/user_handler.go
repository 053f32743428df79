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

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, authed gin.HandlerFunc) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/me", authed, h.Me)
	}

	users := router.Group("/api/users")
	users.Use(authed, middleware.RequireRole(model.RoleAdmin))
	{
		users.GET("", h.ListUsers)
		users.PUT("/:id", h.UpdateUser)
	}
}

// Register creates a new employee account pending admin approval
// @Summary      Register a new account
// @Description  Creates an inactive employee account. An admin must activate it before login succeeds.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      service.RegisterRequest  true  "Registration payload"
// @Success      201      {object}  response.Response{data=model.User}
// @Failure      400      {object}  response.Response
// @Router       /api/auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{
		"user":    user,
		"message": "Registration successful. Your account is pending admin approval.",
	}))
}

// Login authenticates a user and issues a signed token
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      service.LoginRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	token, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	// Cookie for browser clients, token in the body for everything else
	c.SetCookie("access_token", token.Token, 24*60*60, "/", "", false, true)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, token))
}

// Me returns the authenticated user's profile
// @Summary      Current user profile
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.User}
// @Router       /api/auth/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// ListUsers returns users, optionally filtered by activation status
// @Summary      List users
// @Description  Admin-only. Filter with status=pending or status=active.
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "pending or active"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := pagination.Parse(c)

	users, total, err := h.userService.List(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"users":      users,
		"pagination": pagination.NewMeta(params, total),
	}))
}

// UpdateUser changes a user's role, activation, or manager assignment
// @Summary      Update a user
// @Description  Admin-only. Admins cannot change their own role, status, or manager.
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "User ID"
// @Param        request  body      service.UpdateUserRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=model.User}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	admin, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
		return
	}

	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	user, err := h.userService.Update(c.Request.Context(), admin, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}
