package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iamfafakkk/minimalFreeRadius/internal/http/api/response"
)

// Version is reported by the info and index endpoints.
const Version = "1.0.0"

// Pinger checks database connectivity.
type Pinger func(ctx context.Context) error

// MetaHandler serves the informational endpoints.
type MetaHandler struct {
	prefix    string
	ping      Pinger
	window    time.Duration
	maxReq    int
	startedAt time.Time
	now       func() time.Time
}

// NewMetaHandler constructs a MetaHandler for routes mounted under prefix.
func NewMetaHandler(prefix string, ping Pinger, window time.Duration, maxRequests int) *MetaHandler {
	return &MetaHandler{
		prefix:    prefix,
		ping:      ping,
		window:    window,
		maxReq:    maxRequests,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

func (h *MetaHandler) uptime() float64 {
	return h.now().Sub(h.startedAt).Seconds()
}

// Health is the unauthenticated liveness probe.
func (h *MetaHandler) Health(c *gin.Context) {
	response.OK(c, "FreeRADIUS API is running", gin.H{
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"uptime":    h.uptime(),
	})
}

// APIHealth checks the database and answers 503 when it is unreachable.
func (h *MetaHandler) APIHealth(c *gin.Context) {
	timestamp := h.now().UTC().Format(time.RFC3339)
	if h.ping != nil {
		if errPing := h.ping(c.Request.Context()); errPing != nil {
			c.JSON(http.StatusServiceUnavailable, response.Envelope{
				Success: false,
				Message: "API is unhealthy",
				Data: gin.H{
					"status":    "unhealthy",
					"timestamp": timestamp,
					"database":  "disconnected",
				},
			})
			return
		}
	}
	response.OK(c, "API is healthy", gin.H{
		"status":    "healthy",
		"timestamp": timestamp,
		"uptime":    h.uptime(),
		"database":  "connected",
	})
}

// Info describes the API surface.
func (h *MetaHandler) Info(c *gin.Context) {
	p := h.prefix
	response.OK(c, "API information retrieved successfully", gin.H{
		"name":        "FreeRADIUS API",
		"version":     Version,
		"description": "REST API for FreeRADIUS management with NAS and user CRUD operations",
		"endpoints": gin.H{
			"authentication": gin.H{
				"login":  "POST " + p + "/auth/login",
				"verify": "GET " + p + "/auth/verify",
			},
			"nas": gin.H{
				"list":   "GET " + p + "/nas",
				"get":    "GET " + p + "/nas/:id",
				"create": "POST " + p + "/nas",
				"update": "PUT " + p + "/nas/:id",
				"delete": "DELETE " + p + "/nas/:id",
				"stats":  "GET " + p + "/nas/stats",
			},
			"users": gin.H{
				"list":             "GET " + p + "/users",
				"get":              "GET " + p + "/users/:username",
				"create":           "POST " + p + "/users",
				"update":           "PUT " + p + "/users/:username",
				"delete":           "DELETE " + p + "/users/:username",
				"stats":            "GET " + p + "/users/stats",
				"attributes":       "GET " + p + "/users/:username/attributes",
				"reply_attributes": "GET " + p + "/users/:username/reply-attributes",
				"add_attribute":    "POST " + p + "/users/:username/attributes",
				"remove_attribute": "DELETE " + p + "/users/:username/attributes",
			},
		},
		"authentication_methods": []string{"JWT Token (Bearer)", "API Key (X-API-Key header)"},
		"supported_formats":      []string{"JSON"},
		"rate_limiting": gin.H{
			"window":       h.window.String(),
			"max_requests": h.maxReq,
		},
	})
}

// Index lists the entry points of the API.
func (h *MetaHandler) Index(c *gin.Context) {
	response.OK(c, "Welcome to FreeRADIUS API", gin.H{
		"version": Version,
		"endpoints": gin.H{
			"health":   "GET /health",
			"metrics":  "GET /metrics",
			"api_info": "GET " + h.prefix + "/auth/info",
			"login":    "POST " + h.prefix + "/auth/login",
			"nas":      "GET " + h.prefix + "/nas",
			"users":    "GET " + h.prefix + "/users",
		},
		"authentication": gin.H{
			"jwt":     "Use Bearer token in Authorization header",
			"api_key": "Use X-API-Key header",
		},
	})
}

type notFoundBody struct {
	response.Envelope
	Path               string            `json:"path"`
	Method             string            `json:"method"`
	AvailableEndpoints map[string]string `json:"available_endpoints"`
}

// NotFound answers unmatched routes.
func (h *MetaHandler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, notFoundBody{
		Envelope: response.Envelope{Success: false, Message: "Endpoint not found"},
		Path:     c.Request.URL.RequestURI(),
		Method:   c.Request.Method,
		AvailableEndpoints: map[string]string{
			"health":        "GET /health",
			"api_info":      "GET " + h.prefix + "/auth/info",
			"documentation": "GET /",
		},
	})
}
