package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iamfafakkk/minimalFreeRadius/internal/http/api/response"
	"github.com/iamfafakkk/minimalFreeRadius/internal/http/api/validation"
	"github.com/iamfafakkk/minimalFreeRadius/internal/store"
)

// NasHandler serves the RADIUS client endpoints.
type NasHandler struct {
	store store.NasStore
}

// NewNasHandler constructs a NasHandler.
func NewNasHandler(s store.NasStore) *NasHandler {
	return &NasHandler{store: s}
}

// List returns NAS entries, optionally searched and paginated.
func (h *NasHandler) List(c *gin.Context) {
	query, errQuery := validation.ParseListQuery(c)
	if errQuery != nil {
		rejectInput(c, errQuery)
		return
	}
	items, errList := h.store.List(c.Request.Context(), query.Options())
	if errList != nil {
		response.Internal(c, errList, "list nas failed")
		return
	}
	response.List(c, "NAS entries retrieved successfully", items, len(items))
}

// Stats returns the number of NAS entries.
func (h *NasHandler) Stats(c *gin.Context) {
	count, errCount := h.store.Count(c.Request.Context())
	if errCount != nil {
		response.Internal(c, errCount, "count nas failed")
		return
	}
	response.OK(c, "NAS statistics retrieved successfully", gin.H{"total_nas": count})
}

// Get returns one NAS by id.
func (h *NasHandler) Get(c *gin.Context) {
	id, errID := validation.ParseID(c)
	if errID != nil {
		rejectInput(c, errID)
		return
	}
	nas, errGet := h.store.GetByID(c.Request.Context(), id)
	if errGet != nil {
		h.fail(c, errGet, "get nas failed")
		return
	}
	response.OK(c, "NAS retrieved successfully", nas)
}

// Create adds a NAS.
func (h *NasHandler) Create(c *gin.Context) {
	var body validation.NasCreateRequest
	if errBind := validation.BindJSON(c, &body); errBind != nil {
		rejectInput(c, errBind)
		return
	}
	nas, errCreate := h.store.Create(c.Request.Context(), body.NAS())
	if errCreate != nil {
		h.fail(c, errCreate, "create nas failed")
		return
	}
	response.Created(c, "NAS created successfully", nas)
}

// Update applies a partial update to a NAS.
func (h *NasHandler) Update(c *gin.Context) {
	id, errID := validation.ParseID(c)
	if errID != nil {
		rejectInput(c, errID)
		return
	}
	var body validation.NasUpdateRequest
	if errBind := validation.BindJSON(c, &body); errBind != nil {
		rejectInput(c, errBind)
		return
	}
	nas, errUpdate := h.store.Update(c.Request.Context(), id, body.Patch())
	if errUpdate != nil {
		h.fail(c, errUpdate, "update nas failed")
		return
	}
	response.OK(c, "NAS updated successfully", nas)
}

// Delete removes a NAS.
func (h *NasHandler) Delete(c *gin.Context) {
	id, errID := validation.ParseID(c)
	if errID != nil {
		rejectInput(c, errID)
		return
	}
	if errDelete := h.store.Delete(c.Request.Context(), id); errDelete != nil {
		h.fail(c, errDelete, "delete nas failed")
		return
	}
	response.OK(c, "NAS deleted successfully", nil)
}

func (h *NasHandler) fail(c *gin.Context, err error, logMessage string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Fail(c, http.StatusNotFound, "NAS not found")
	case errors.Is(err, store.ErrConflict):
		response.Fail(c, http.StatusConflict, "NAS with this name or IP already exists")
	default:
		response.Internal(c, err, logMessage)
	}
}
