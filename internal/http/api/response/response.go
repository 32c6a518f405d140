// Package response writes the JSON envelope shared by every endpoint.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Errors  any    `json:"errors,omitempty"`
	Error   string `json:"error,omitempty"`
}

const exposeErrorsKey = "response.exposeErrors"

// ExposeErrors returns middleware that controls whether internal error text reaches clients.
func ExposeErrors(expose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(exposeErrorsKey, expose)
		c.Next()
	}
}

// OK writes a 200 envelope.
func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// List writes a 200 envelope carrying the number of items returned.
func List(c *gin.Context, message string, data any, count int) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data, Count: &count})
}

// Fail aborts with a failure envelope.
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message})
}

// Invalid aborts with a 400 envelope listing field errors.
func Invalid(c *gin.Context, errs any) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Envelope{
		Success: false,
		Message: "Validation error",
		Errors:  errs,
	})
}

// Internal logs err and aborts with a 500 envelope. The error text is only
// included when the router was configured to expose it.
func Internal(c *gin.Context, err error, logMessage string) {
	log.WithError(err).WithFields(log.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Error(logMessage)
	body := Envelope{Success: false, Message: "Internal server error"}
	if c.GetBool(exposeErrorsKey) && err != nil {
		body.Error = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}
