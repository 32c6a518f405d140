// Package middleware holds the gin middleware of the HTTP API.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/iamfafakkk/minimalFreeRadius/internal/http/api/response"
	"github.com/iamfafakkk/minimalFreeRadius/internal/metrics"
	"github.com/iamfafakkk/minimalFreeRadius/internal/security"
	log "github.com/sirupsen/logrus"
)

// HeaderAPIKey carries a static API key.
const HeaderAPIKey = "X-API-Key"

const identityKey = "identity"

// Identity is the authenticated caller of a request.
type Identity struct {
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	APIKey   bool   `json:"api_key,omitempty"`
}

// CurrentIdentity returns the identity stored by Authenticate or BearerOnly.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}

// Authenticator verifies bearer tokens and API keys.
type Authenticator struct {
	issuer  *security.TokenIssuer
	keys    *security.APIKeys
	metrics *metrics.HTTPMetrics
}

// NewAuthenticator constructs an Authenticator. metrics may be nil.
func NewAuthenticator(issuer *security.TokenIssuer, keys *security.APIKeys, m *metrics.HTTPMetrics) *Authenticator {
	return &Authenticator{issuer: issuer, keys: keys, metrics: m}
}

// Authenticate accepts either an X-API-Key header or a bearer token. The API key wins
// when both are present. A missing credential yields 401, a rejected one 403.
func (a *Authenticator) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey := c.GetHeader(HeaderAPIKey); apiKey != "" {
			if !a.keys.Valid(apiKey) {
				a.reject(c, http.StatusForbidden, metrics.ReasonInvalidCredential, "Invalid API key")
				return
			}
			c.Set(identityKey, Identity{APIKey: true})
			c.Next()
			return
		}
		if c.GetHeader("Authorization") == "" {
			a.reject(c, http.StatusUnauthorized, metrics.ReasonMissingCredential, "Authentication required (JWT token or API key)")
			return
		}
		a.verifyBearer(c)
	}
}

// BearerOnly accepts only a bearer token.
func (a *Authenticator) BearerOnly() gin.HandlerFunc {
	return a.verifyBearer
}

func (a *Authenticator) verifyBearer(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" {
		a.reject(c, http.StatusUnauthorized, metrics.ReasonMissingCredential, "Access token required")
		return
	}
	claims, errParse := a.issuer.Parse(token)
	if errParse != nil {
		log.WithError(errParse).WithField("client_ip", c.ClientIP()).Debug("bearer token rejected")
		message := "Invalid or expired token"
		if errors.Is(errParse, security.ErrExpiredToken) {
			message = "Token has expired"
		}
		a.reject(c, http.StatusForbidden, metrics.ReasonInvalidCredential, message)
		return
	}
	c.Set(identityKey, Identity{Username: claims.Username, Role: claims.Role})
	c.Next()
}

// RequireAdmin allows API-key callers and tokens carrying the admin role.
func (a *Authenticator) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok || (!identity.APIKey && identity.Role != security.RoleAdmin) {
			a.reject(c, http.StatusForbidden, metrics.ReasonForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}

func (a *Authenticator) reject(c *gin.Context, status int, reason, message string) {
	a.metrics.AuthFailure(reason)
	response.Fail(c, status, message)
}

// extractBearerToken returns the credential after the scheme. A header with a scheme
// other than Bearer still yields its credential so that it is rejected as invalid.
func extractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	scheme, token, found := strings.Cut(header, " ")
	if !found {
		if strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return header
	}
	return strings.TrimSpace(token)
}
