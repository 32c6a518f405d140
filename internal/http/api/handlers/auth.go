package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iamfafakkk/minimalFreeRadius/internal/http/api/middleware"
	"github.com/iamfafakkk/minimalFreeRadius/internal/http/api/response"
	"github.com/iamfafakkk/minimalFreeRadius/internal/http/api/validation"
	"github.com/iamfafakkk/minimalFreeRadius/internal/metrics"
	"github.com/iamfafakkk/minimalFreeRadius/internal/security"
	log "github.com/sirupsen/logrus"
)

// AuthHandler serves login and token verification.
type AuthHandler struct {
	creds     *security.AdminCredentials
	issuer    *security.TokenIssuer
	expiresIn string
	metrics   *metrics.HTTPMetrics
}

// NewAuthHandler constructs an AuthHandler. expiresIn is echoed back to clients as configured.
func NewAuthHandler(creds *security.AdminCredentials, issuer *security.TokenIssuer, expiresIn string, m *metrics.HTTPMetrics) *AuthHandler {
	return &AuthHandler{creds: creds, issuer: issuer, expiresIn: expiresIn, metrics: m}
}

type userInfo struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login exchanges the admin credentials for a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var body validation.LoginRequest
	if errBind := validation.BindJSON(c, &body); errBind != nil {
		rejectInput(c, errBind)
		return
	}
	if errVerify := h.creds.Verify(body.Username, body.Password); errVerify != nil {
		h.metrics.AuthFailure(metrics.ReasonBadLogin)
		log.WithField("client_ip", c.ClientIP()).Warn("admin login rejected")
		response.Fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	username := h.creds.Username()
	token, _, errIssue := h.issuer.Issue(username, security.RoleAdmin)
	if errIssue != nil {
		response.Internal(c, errIssue, "issue token failed")
		return
	}
	response.OK(c, "Login successful", gin.H{
		"token":      token,
		"user":       userInfo{Username: username, Role: security.RoleAdmin},
		"expires_in": h.expiresIn,
	})
}

// Verify reports the identity carried by a valid bearer token.
func (h *AuthHandler) Verify(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	response.OK(c, "Token is valid", gin.H{
		"user":  userInfo{Username: identity.Username, Role: identity.Role},
		"valid": true,
	})
}
