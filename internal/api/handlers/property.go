package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dnoice/roachtrack/internal/api/middleware"
	"github.com/dnoice/roachtrack/internal/db/repository"
)

// PropertyHandler handles property and association operations
type PropertyHandler struct {
	properties *repository.PropertyRepository
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(properties *repository.PropertyRepository) *PropertyHandler {
	return &PropertyHandler{properties: properties}
}

// CreatePropertyRequest represents a property creation request
type CreatePropertyRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

// Create creates a property owned by the caller
// POST /v1/properties
func (h *PropertyHandler) Create(c *gin.Context) {
	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	session := middleware.CurrentSession(c)
	id, err := h.properties.Create(req.Name, req.Address, session.UserID)
	if err != nil {
		RespondStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"property_id": id})
}

// Get returns a single property
// GET /v1/properties/:id
func (h *PropertyHandler) Get(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", "Invalid property id")
		return
	}

	prop, err := h.properties.GetByID(id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondSuccess(c, prop)
}

// List returns all properties
// GET /v1/properties
func (h *PropertyHandler) List(c *gin.Context) {
	props, err := h.properties.List()
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"properties": props})
}

// Delete removes a property
// DELETE /v1/properties/:id
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", "Invalid property id")
		return
	}

	if err := h.properties.Delete(id); err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"status": "ok"})
}

// AssignRequest represents an association upsert request
type AssignRequest struct {
	UserID           int64  `json:"user_id" binding:"required"`
	RelationshipType string `json:"relationship_type" binding:"required"`
}

// Assign links a user to a property, updating the relationship type if
// the link already exists
// POST /v1/properties/:id/assign
func (h *PropertyHandler) Assign(c *gin.Context) {
	propertyID, err := parseID(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", "Invalid property id")
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if err := h.properties.AssignUser(req.UserID, propertyID, req.RelationshipType); err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"status": "ok"})
}

// Unassign removes the link between a user and a property
// DELETE /v1/properties/:id/assign/:user_id
func (h *PropertyHandler) Unassign(c *gin.Context) {
	propertyID, err := parseID(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", "Invalid property id")
		return
	}
	userID, err := parseID(c.Param("user_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", "Invalid user id")
		return
	}

	if err := h.properties.RemoveUser(userID, propertyID); err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"status": "ok"})
}

// Users lists the association rows for a property
// GET /v1/properties/:id/users
func (h *PropertyHandler) Users(c *gin.Context) {
	propertyID, err := parseID(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", "Invalid property id")
		return
	}

	links, err := h.properties.ListPropertyUsers(propertyID)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"users": links})
}

// Mine lists the properties associated with the caller
// GET /v1/properties/mine
func (h *PropertyHandler) Mine(c *gin.Context) {
	session := middleware.CurrentSession(c)
	props, err := h.properties.ListUserProperties(session.UserID)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"properties": props})
}
