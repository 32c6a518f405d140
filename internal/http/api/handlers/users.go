package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iamfafakkk/minimalFreeRadius/internal/http/api/response"
	"github.com/iamfafakkk/minimalFreeRadius/internal/http/api/validation"
	"github.com/iamfafakkk/minimalFreeRadius/internal/store"
)

// UserHandler serves the RADIUS user endpoints.
type UserHandler struct {
	store store.UserStore
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(s store.UserStore) *UserHandler {
	return &UserHandler{store: s}
}

// List returns users, optionally searched and paginated.
func (h *UserHandler) List(c *gin.Context) {
	query, errQuery := validation.ParseListQuery(c)
	if errQuery != nil {
		rejectInput(c, errQuery)
		return
	}
	users, errList := h.store.List(c.Request.Context(), query.Options())
	if errList != nil {
		response.Internal(c, errList, "list users failed")
		return
	}
	response.List(c, "Users retrieved successfully", users, len(users))
}

// Stats returns the number of users.
func (h *UserHandler) Stats(c *gin.Context) {
	count, errCount := h.store.Count(c.Request.Context())
	if errCount != nil {
		response.Internal(c, errCount, "count users failed")
		return
	}
	response.OK(c, "User statistics retrieved successfully", gin.H{"total_users": count})
}

// Get returns one user.
func (h *UserHandler) Get(c *gin.Context) {
	username, errParam := validation.ParseUsername(c)
	if errParam != nil {
		rejectInput(c, errParam)
		return
	}
	user, errGet := h.store.GetByUsername(c.Request.Context(), username)
	if errGet != nil {
		h.fail(c, errGet, "get user failed")
		return
	}
	response.OK(c, "User retrieved successfully", user)
}

// Create adds a user with its password and profile rows.
func (h *UserHandler) Create(c *gin.Context) {
	var body validation.UserCreateRequest
	if errBind := validation.BindJSON(c, &body); errBind != nil {
		rejectInput(c, errBind)
		return
	}
	user, errCreate := h.store.Create(c.Request.Context(), body.NewUser())
	if errCreate != nil {
		h.fail(c, errCreate, "create user failed")
		return
	}
	response.Created(c, "User created successfully", user)
}

// Update changes a user's password or profile.
func (h *UserHandler) Update(c *gin.Context) {
	username, errParam := validation.ParseUsername(c)
	if errParam != nil {
		rejectInput(c, errParam)
		return
	}
	var body validation.UserUpdateRequest
	if errBind := validation.BindJSON(c, &body); errBind != nil {
		rejectInput(c, errBind)
		return
	}
	ctx := c.Request.Context()
	user, errUpdate := h.store.Update(ctx, username, body.Patch())
	if errors.Is(errUpdate, store.ErrNoChanges) {
		current, errGet := h.store.GetByUsername(ctx, username)
		if errGet != nil {
			h.fail(c, errGet, "reload user failed")
			return
		}
		response.OK(c, "No changes made", current)
		return
	}
	if errUpdate != nil {
		h.fail(c, errUpdate, "update user failed")
		return
	}
	response.OK(c, "User updated successfully", user)
}

// Delete removes every row of a user.
func (h *UserHandler) Delete(c *gin.Context) {
	username, errParam := validation.ParseUsername(c)
	if errParam != nil {
		rejectInput(c, errParam)
		return
	}
	if errDelete := h.store.Delete(c.Request.Context(), username); errDelete != nil {
		h.fail(c, errDelete, "delete user failed")
		return
	}
	response.OK(c, "User deleted successfully", nil)
}

// Attributes lists a user's radcheck rows.
func (h *UserHandler) Attributes(c *gin.Context) {
	username, ok := h.existingUser(c)
	if !ok {
		return
	}
	attrs, errList := h.store.CheckAttributes(c.Request.Context(), username)
	if errList != nil {
		response.Internal(c, errList, "list check attributes failed")
		return
	}
	response.OK(c, "User attributes retrieved successfully", gin.H{
		"username":   username,
		"attributes": attrs,
	})
}

// ReplyAttributes lists a user's radreply rows.
func (h *UserHandler) ReplyAttributes(c *gin.Context) {
	username, ok := h.existingUser(c)
	if !ok {
		return
	}
	attrs, errList := h.store.ReplyAttributes(c.Request.Context(), username)
	if errList != nil {
		response.Internal(c, errList, "list reply attributes failed")
		return
	}
	response.OK(c, "User reply attributes retrieved successfully", gin.H{
		"username":         username,
		"reply_attributes": attrs,
	})
}

// AddAttribute inserts a radcheck or radreply row for a user.
func (h *UserHandler) AddAttribute(c *gin.Context) {
	username, ok := h.existingUser(c)
	if !ok {
		return
	}
	var body validation.AttributeAddRequest
	if errBind := validation.BindJSON(c, &body); errBind != nil {
		rejectInput(c, errBind)
		return
	}
	table := body.Target()
	row := body.Row()
	id, errAdd := h.store.AddAttribute(c.Request.Context(), username, table, row)
	if errAdd != nil {
		h.fail(c, errAdd, "add attribute failed")
		return
	}
	response.Created(c, "Attribute added successfully", gin.H{
		"id":        id,
		"username":  username,
		"attribute": row.Attribute,
		"op":        row.Op,
		"value":     row.Value,
		"table":     table,
	})
}

// RemoveAttribute deletes every row of a user with the given attribute name.
func (h *UserHandler) RemoveAttribute(c *gin.Context) {
	username, ok := h.existingUser(c)
	if !ok {
		return
	}
	var body validation.AttributeRemoveRequest
	if errBind := validation.BindJSON(c, &body); errBind != nil {
		rejectInput(c, errBind)
		return
	}
	errRemove := h.store.RemoveAttribute(c.Request.Context(), username, body.Target(), body.Attribute)
	if errors.Is(errRemove, store.ErrNotFound) {
		response.Fail(c, http.StatusNotFound, "Attribute not found")
		return
	}
	if errRemove != nil {
		h.fail(c, errRemove, "remove attribute failed")
		return
	}
	response.OK(c, "Attribute removed successfully", nil)
}

// existingUser validates the :username parameter and confirms the user exists.
func (h *UserHandler) existingUser(c *gin.Context) (string, bool) {
	username, errParam := validation.ParseUsername(c)
	if errParam != nil {
		rejectInput(c, errParam)
		return "", false
	}
	found, errExists := h.store.Exists(c.Request.Context(), username)
	if errExists != nil {
		response.Internal(c, errExists, "check user failed")
		return "", false
	}
	if !found {
		response.Fail(c, http.StatusNotFound, "User not found")
		return "", false
	}
	return username, true
}

func (h *UserHandler) fail(c *gin.Context, err error, logMessage string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Fail(c, http.StatusNotFound, "User not found")
	case errors.Is(err, store.ErrConflict):
		response.Fail(c, http.StatusConflict, "User already exists")
	case errors.Is(err, store.ErrInvalidTable):
		response.Fail(c, http.StatusBadRequest, `Table must be either "radcheck" or "radreply"`)
	default:
		response.Internal(c, err, logMessage)
	}
}
