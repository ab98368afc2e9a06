package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"inkcopilot/internal/apiclient"
	"inkcopilot/internal/auth"
)

type AuthHandler struct {
	api    *apiclient.Client
	store  *auth.CookieStore
	logger zerolog.Logger
}

func NewAuthHandler(api *apiclient.Client, store *auth.CookieStore, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{api: api, store: store, logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FullNames string `json:"fullNames" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Code     string `json:"code" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.api.For(apiclient.Session{}).Login(c.Request.Context(), apiclient.LoginCredentials{Email: req.Email, Password: req.Password})
	if err != nil {
		h.authFailed(c, err, "Invalid email or password")
		return
	}
	h.signIn(c, resp)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.api.For(apiclient.Session{}).Register(c.Request.Context(), apiclient.RegisterData{
		Email:     req.Email,
		Password:  req.Password,
		FullNames: req.FullNames,
	})
	if err != nil {
		h.authFailed(c, err, "Registration failed")
		return
	}
	h.signIn(c, resp)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.api.For(apiclient.Session{}).ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		h.authFailed(c, err, "Could not send reset code")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.api.For(apiclient.Session{}).ResetPassword(c.Request.Context(), apiclient.ResetPasswordData{
		Email:    req.Email,
		Code:     req.Code,
		Password: req.Password,
	})
	if err != nil {
		h.authFailed(c, err, "Could not reset password")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.store.Clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the signed-in user held in the cookie.
func (h *AuthHandler) Me(c *gin.Context) {
	sess, ok := h.store.Load(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": sess.User})
}

func (h *AuthHandler) signIn(c *gin.Context, resp *apiclient.AuthResponse) {
	if resp.Token == "" {
		c.JSON(http.StatusBadGateway, gin.H{"error": "sign in failed, please try again"})
		return
	}
	if err := h.store.Save(c, auth.Session{Token: resp.Token, User: resp.User}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start session"})
		return
	}
	h.logger.Info().Str("user", resp.User.ID).Msg("[auth] signed in")
	c.JSON(http.StatusOK, gin.H{"user": resp.User, "message": resp.Message})
}

// authFailed reports a remote failure on a public endpoint; 401 here means bad credentials.
func (h *AuthHandler) authFailed(c *gin.Context, err error, fallback string) {
	_ = c.Error(err)
	status := apiclient.StatusCode(err)
	if status < 400 || status >= 500 {
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": apiclient.UserMessage(err, fallback)})
}
