package controller

import (
	"net/http"
	"time"

	"storefront-service/internal/dto"
	"storefront-service/internal/middleware"
	"storefront-service/internal/model"
	"storefront-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const oauthStateCookie = "oauth_state"

type AuthController struct {
	Service       *service.AuthService
	BaseURL       string
	TokenTTL      time.Duration
	SecureCookies bool
}

func NewAuthController(s *service.AuthService, baseURL string, ttl time.Duration, secure bool) *AuthController {
	return &AuthController{Service: s, BaseURL: baseURL, TokenTTL: ttl, SecureCookies: secure}
}

func (ctl *AuthController) setSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, token, int(ctl.TokenTTL.Seconds()), "/", "", ctl.SecureCookies, true)
}

func (ctl *AuthController) respond(c *gin.Context, status int, u *model.User, token string) {
	ctl.setSession(c, token)
	c.JSON(status, dto.AuthResponse{Token: token, User: u})
}

// POST /auth/register
func (ctl *AuthController) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	u, token, err := ctl.Service.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	ctl.respond(c, http.StatusCreated, u, token)
}

// POST /auth/login
func (ctl *AuthController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	u, token, err := ctl.Service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	ctl.respond(c, http.StatusOK, u, token)
}

// POST /auth/logout
func (ctl *AuthController) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", ctl.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// GET /auth/google/login: redirige a Google con un state de un solo uso
func (ctl *AuthController) GoogleLogin(c *gin.Context) {
	state := uuid.NewString()
	url, err := ctl.Service.GoogleLoginURL(state)
	if err != nil {
		writeError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/", "", ctl.SecureCookies, true)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GET /auth/google/callback
func (ctl *AuthController) GoogleCallback(c *gin.Context) {
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", ctl.SecureCookies, true)

	_, token, err := ctl.Service.GoogleCallback(c.Request.Context(), c.Query("code"))
	if err != nil {
		writeError(c, err)
		return
	}

	ctl.setSession(c, token)
	c.Redirect(http.StatusTemporaryRedirect, ctl.BaseURL+"/")
}
