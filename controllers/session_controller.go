package controllers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"storefront/models"
)

const (
	demoCookieName   = "fizz"
	demoCookieValue  = "buzz"
	demoSessionKey   = "foobar"
	demoSessionValue = "spameggs"
)

// SessionController demonstrates plain cookies and server-signed sessions.
type SessionController struct {
	secureCookies bool
}

func NewSessionController(secureCookies bool) *SessionController {
	return &SessionController{secureCookies: secureCookies}
}

// @Summary Set demo cookie
// @Description Sets fizz=buzz for one hour
// @Tags Cookies
// @Produce json
// @Success 200 {object} models.Response
// @Router /auth/cookie/set [get]
func (ctrl *SessionController) SetCookie(c *gin.Context) {
	c.SetCookie(demoCookieName, demoCookieValue, 3600, "/", "", ctrl.secureCookies, true)
	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Cookie set"})
}

// @Summary Read demo cookie
// @Tags Cookies
// @Produce json
// @Success 200 {object} models.Response
// @Router /auth/cookie/get [get]
func (ctrl *SessionController) GetCookie(c *gin.Context) {
	value, _ := c.Cookie(demoCookieName)
	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Cookie value: " + value,
		Data:    gin.H{demoCookieName: value},
	})
}

// @Summary Set demo session value
// @Description Requires permission view_profile
// @Tags Cookies
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Response
// @Router /auth/session/set [get]
func (ctrl *SessionController) SetSession(c *gin.Context) {
	session := sessions.Default(c)
	session.Set(demoSessionKey, demoSessionValue)
	if err := session.Save(); err != nil {
		respondError(c, err, "Failed to save session")
		return
	}
	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Session set"})
}

// @Summary Read demo session value
// @Tags Cookies
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Response
// @Router /auth/session/get [get]
func (ctrl *SessionController) GetSession(c *gin.Context) {
	value, _ := sessions.Default(c).Get(demoSessionKey).(string)
	if value == "" {
		value = "default"
	}
	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Session value: " + value,
		Data:    gin.H{demoSessionKey: value},
	})
}
