package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskboard/taskboard-api/internal/constants"
	"github.com/taskboard/taskboard-api/internal/dto"
	apierrors "github.com/taskboard/taskboard-api/internal/errors"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/services"
)

// UserHandler coordinates the administrator-only account management
// handlers. The admin gate itself is middleware.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers returns one page of accounts, newest first.
func (h *UserHandler) ListUsers(c *gin.Context) {
	type ListUsersQuery struct {
		Page  *int `form:"page" binding:"omitempty,min=1"`
		Limit *int `form:"limit" binding:"omitempty,min=1,max=100"`
	}

	var q ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apierrors.BadRequest(c, "Invalid query parameters")
		return
	}

	page := constants.DefaultPage
	if q.Page != nil {
		page = *q.Page
	}
	limit := constants.DefaultPageSize
	if q.Limit != nil {
		limit = *q.Limit
	}

	users, total, err := h.userService.ListUsers(page, limit)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch users")
		return
	}

	c.JSON(http.StatusOK, dto.OK(dto.ToUserListDTO(users, page, limit, total)))
}

// CreateUser creates an account with an explicit role.
func (h *UserHandler) CreateUser(c *gin.Context) {
	type CreateUserRequest struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role" binding:"omitempty,oneof=user admin"`
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.CreateUser(services.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     models.UserRole(req.Role),
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.OKWithMessage("User created successfully", gin.H{
		"user": dto.ToUserDTO(*user),
	}))
}

// UpdateUser applies a partial update to an account.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	type UpdateUserRequest struct {
		Email    *string `json:"email" binding:"omitempty,email"`
		Password *string `json:"password"`
		Role     *string `json:"role" binding:"omitempty,oneof=user admin"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateUserInput{
		Email:    req.Email,
		Password: req.Password,
	}
	if req.Role != nil {
		role := models.UserRole(*req.Role)
		input.Role = &role
	}

	user, err := h.userService.UpdateUser(c.Param("id"), input)
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OKWithMessage("User updated successfully", gin.H{
		"user": dto.ToUserDTO(*user),
	}))
}

// DeleteUser removes an account, cascading to the tasks it created.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Param("id")); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OKWithMessage("User deleted successfully", nil))
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrNoFieldsToUpdate):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}
