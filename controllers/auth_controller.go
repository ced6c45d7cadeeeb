package controllers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"storefront/middleware"
	"storefront/models"
	"storefront/services"
)

const sessionUserKey = "user_id"

type AuthController struct {
	auth  *services.AuthService
	users *services.UserService
}

func NewAuthController(auth *services.AuthService, users *services.UserService) *AuthController {
	return &AuthController{auth: auth, users: users}
}

// @Summary Register
// @Description Create an account with an empty profile
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Account"
// @Success 201 {object} models.Response
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (ctrl *AuthController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	result, err := ctrl.auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Registration failed")
		return
	}

	ctrl.markSession(c, result.User.ID)
	c.JSON(http.StatusCreated, models.Response{
		Success: true,
		Message: "User registered successfully",
		Data:    result,
	})
}

// @Summary Login
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.Response
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (ctrl *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	result, err := ctrl.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}

	ctrl.markSession(c, result.User.ID)
	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Login successful",
		Data:    result,
	})
}

func (ctrl *AuthController) markSession(c *gin.Context, userID int) {
	session := sessions.Default(c)
	session.Set(sessionUserKey, userID)
	if err := session.Save(); err != nil {
		log.Warn().Err(err).Msg("failed to save session")
	}
}

// @Summary Logout
// @Description Clears the session; tokens stay valid until they expire
// @Tags Auth
// @Produce json
// @Success 200 {object} models.Response
// @Router /auth/logout [post]
func (ctrl *AuthController) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		respondError(c, err, "Failed to clear session")
		return
	}
	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Logged out"})
}

// @Summary About me
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Response
// @Router /auth/me [get]
func (ctrl *AuthController) Me(c *gin.Context) {
	user, err := ctrl.users.Get(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Profile retrieved", Data: user})
}

// @Summary Hello
// @Description Greets the caller, or the world when anonymous
// @Tags Auth
// @Produce json
// @Success 200 {object} models.Response
// @Router /auth/hello [get]
func (ctrl *AuthController) Hello(c *gin.Context) {
	name := "world"
	if user, ok := middleware.CurrentUser(c); ok {
		name = user.Username
	}
	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Hello, " + name + "!",
	})
}
