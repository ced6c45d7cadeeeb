package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/models"
	"storefront/services"
)

type UserController struct {
	users         *services.UserService
	maxUploadSize int64
}

func NewUserController(users *services.UserService, maxUploadSize int64) *UserController {
	return &UserController{users: users, maxUploadSize: maxUploadSize}
}

// @Summary Get all users
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} models.PaginationResponse
// @Router /users [get]
func (ctrl *UserController) ListUsers(c *gin.Context) {
	page, limit := pageParams(c)

	users, meta, err := ctrl.users.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err, "Failed to retrieve users")
		return
	}

	c.JSON(http.StatusOK, models.PaginationResponse{
		Success: true,
		Message: "Users retrieved successfully",
		Data:    users,
		Meta:    meta,
	})
}

// @Summary Get user by ID
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (ctrl *UserController) GetUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	user, err := ctrl.users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}

	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "User retrieved successfully",
		Data:    user,
	})
}

// @Summary Update user
// @Description Staff may update anyone, other users only themselves
// @Tags Users
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "User ID"
// @Param first_name formData string false "First name"
// @Param last_name formData string false "Last name"
// @Param email formData string false "Email"
// @Param bio formData string false "Bio"
// @Param avatar formData file false "Avatar"
// @Success 200 {object} models.Response
// @Failure 403 {object} models.ErrorResponse
// @Router /users/{id} [patch]
func (ctrl *UserController) UpdateUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	avatar := formFile(c, "avatar")
	if !validateImages(c, ctrl.maxUploadSize, avatar) {
		return
	}

	user, err := ctrl.users.Update(c.Request.Context(), currentUser(c), id, req, avatar)
	if err != nil {
		respondError(c, err, "Failed to update user")
		return
	}

	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "User updated successfully",
		Data:    user,
	})
}
