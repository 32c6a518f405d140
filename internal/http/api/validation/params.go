package validation

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/iamfafakkk/minimalFreeRadius/internal/store"
)

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListQuery holds the list endpoint query string.
type ListQuery struct {
	Page     int    `form:"page" validate:"min=1"`
	Limit    int    `form:"limit" validate:"min=1,max=100"`
	Search   string `form:"search" validate:"max=100"`
	Paginate bool   `form:"-"`
}

// Options converts the query into store list options. Without page or limit every row is returned.
func (q ListQuery) Options() store.ListOptions {
	opts := store.ListOptions{Search: strings.TrimSpace(q.Search)}
	if q.Paginate {
		opts.Limit = q.Limit
		opts.Offset = (q.Page - 1) * q.Limit
	}
	return opts
}

// ParseListQuery reads page, limit and search from the query string.
func ParseListQuery(c *gin.Context) (ListQuery, error) {
	q := ListQuery{Page: DefaultPage, Limit: DefaultLimit, Search: c.Query("search")}
	var errs Errors
	if raw, ok := c.GetQuery("page"); ok {
		q.Paginate = true
		n, errAtoi := strconv.Atoi(strings.TrimSpace(raw))
		if errAtoi != nil {
			errs = append(errs, FieldError{Field: "page", Message: "page must be an integer"})
		} else {
			q.Page = n
		}
	}
	if raw, ok := c.GetQuery("limit"); ok {
		q.Paginate = true
		n, errAtoi := strconv.Atoi(strings.TrimSpace(raw))
		if errAtoi != nil {
			errs = append(errs, FieldError{Field: "limit", Message: "limit must be an integer"})
		} else {
			q.Limit = n
		}
	}
	if errValidate := Struct(q); errValidate != nil {
		verrs, ok := errValidate.(Errors)
		if !ok {
			return ListQuery{}, errValidate
		}
		for _, fe := range verrs {
			if !errs.has(fe.Field) {
				errs = append(errs, fe)
			}
		}
	}
	if len(errs) > 0 {
		return ListQuery{}, errs
	}
	return q, nil
}

// ParseID reads the :id path parameter as a positive integer.
func ParseID(c *gin.Context) (uint64, error) {
	raw := strings.TrimSpace(c.Param("id"))
	id, errParse := strconv.ParseUint(raw, 10, 64)
	switch {
	case raw == "":
		return 0, Errors{{Field: "id", Message: "id is required"}}
	case errParse != nil:
		return 0, Errors{{Field: "id", Message: "id must be a positive integer"}}
	case id < 1:
		return 0, Errors{{Field: "id", Message: "id must be greater than 0"}}
	}
	return id, nil
}

// ParseUsername reads the :username path parameter.
func ParseUsername(c *gin.Context) (string, error) {
	username := c.Param("username")
	switch n := utf8.RuneCountInString(username); {
	case n == 0:
		return "", Errors{{Field: "username", Message: "username is required"}}
	case n < 6:
		return "", Errors{{Field: "username", Message: "username must be at least 6 characters long"}}
	case n > 64:
		return "", Errors{{Field: "username", Message: "username must not exceed 64 characters"}}
	}
	return username, nil
}
