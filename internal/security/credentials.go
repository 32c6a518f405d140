package security

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/iamfafakkk/minimalFreeRadius/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = errors.New("invalid username or password")

// AdminCredentials verifies logins against the configured admin identity.
type AdminCredentials struct {
	username     string
	password     string
	passwordHash []byte
}

// NewAdminCredentials builds a verifier from cfg. A bcrypt hash wins over the plain password.
func NewAdminCredentials(cfg config.AdminConfig) (*AdminCredentials, error) {
	c := &AdminCredentials{username: cfg.Username, password: cfg.Password}
	if hash := strings.TrimSpace(cfg.PasswordHash); hash != "" {
		if _, errCost := bcrypt.Cost([]byte(hash)); errCost != nil {
			return nil, errors.New("admin password hash is not a bcrypt hash")
		}
		c.passwordHash = []byte(hash)
	}
	if c.username == "" || (c.password == "" && c.passwordHash == nil) {
		return nil, errors.New("admin username and password must be configured")
	}
	return c, nil
}

// Username returns the configured admin username.
func (c *AdminCredentials) Username() string { return c.username }

// Verify checks username and password. Both comparisons always run.
func (c *AdminCredentials) Verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	var passOK bool
	if c.passwordHash != nil {
		passOK = bcrypt.CompareHashAndPassword(c.passwordHash, []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(c.password)) == 1
	}
	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}

// APIKeys is the allow-list of static API keys.
type APIKeys struct {
	keys [][]byte
}

// NewAPIKeys builds an allow-list, dropping blank entries.
func NewAPIKeys(keys []string) *APIKeys {
	out := &APIKeys{}
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			out.keys = append(out.keys, []byte(key))
		}
	}
	return out
}

// Enabled reports whether any key is configured.
func (k *APIKeys) Enabled() bool { return k != nil && len(k.keys) > 0 }

// Valid reports whether key exactly matches a configured key.
func (k *APIKeys) Valid(key string) bool {
	if k == nil || key == "" {
		return false
	}
	candidate := []byte(key)
	match := 0
	for _, allowed := range k.keys {
		match |= subtle.ConstantTimeCompare(candidate, allowed)
	}
	return match == 1
}
