package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iamfafakkk/minimalFreeRadius/internal/http/api/response"
	"github.com/iamfafakkk/minimalFreeRadius/internal/http/api/validation"
)

// rejectInput writes the response for a failed bind or parameter parse.
func rejectInput(c *gin.Context, err error) {
	var verrs validation.Errors
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &verrs):
		response.Invalid(c, verrs)
	case errors.Is(err, validation.ErrInvalidJSON):
		response.Fail(c, http.StatusBadRequest, "Invalid JSON in request body")
	case errors.As(err, &maxErr):
		response.Fail(c, http.StatusRequestEntityTooLarge, "Request body too large")
	default:
		response.Internal(c, err, "bind request")
	}
}
