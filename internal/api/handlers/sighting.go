package handlers

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dnoice/roachtrack/internal/api/middleware"
	"github.com/dnoice/roachtrack/internal/db/repository"
)

// SightingHandler handles sighting record operations
type SightingHandler struct {
	sightings *repository.SightingRepository
}

// NewSightingHandler creates a new sighting handler
func NewSightingHandler(sightings *repository.SightingRepository) *SightingHandler {
	return &SightingHandler{sightings: sightings}
}

// SightingRequest represents a sighting create or update request.
// roach_count is optional; the store defaults an absent count to 1.
type SightingRequest struct {
	Timestamp   *time.Time `json:"timestamp"`
	Location    string     `json:"location" binding:"required"`
	RoomType    string     `json:"room_type"`
	RoachCount  *int       `json:"roach_count"`
	RoachSize   string     `json:"roach_size"`
	RoachType   string     `json:"roach_type"`
	PhotoPath   string     `json:"photo_path"`
	Notes       string     `json:"notes"`
	Weather     string     `json:"weather"`
	Temperature *float64   `json:"temperature"`
	PropertyID  *int64     `json:"property_id"`
}

func (req *SightingRequest) input(userID *int64) repository.SightingInput {
	in := repository.SightingInput{
		Location:    req.Location,
		RoomType:    req.RoomType,
		RoachCount:  req.RoachCount,
		RoachSize:   req.RoachSize,
		RoachType:   req.RoachType,
		PhotoPath:   req.PhotoPath,
		Notes:       req.Notes,
		Weather:     req.Weather,
		Temperature: req.Temperature,
		UserID:      userID,
		PropertyID:  req.PropertyID,
	}
	if req.Timestamp != nil {
		in.Timestamp = *req.Timestamp
	}
	return in
}

// Create records a new sighting attributed to the caller
// POST /v1/sightings
func (h *SightingHandler) Create(c *gin.Context) {
	var req SightingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	session := middleware.CurrentSession(c)
	id, err := h.sightings.Create(req.input(&session.UserID))
	if err != nil {
		RespondStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"sighting_id": id})
}

// Get returns a single sighting
// GET /v1/sightings/:id
func (h *SightingHandler) Get(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", "Invalid sighting id")
		return
	}

	s, err := h.sightings.GetByID(id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondSuccess(c, s)
}

// List returns sightings newest-first with optional pagination
// GET /v1/sightings?limit=&offset=
func (h *SightingHandler) List(c *gin.Context) {
	limit, err := parseQueryInt(c, "limit", 0)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", "Invalid limit")
		return
	}
	offset, err := parseQueryInt(c, "offset", 0)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", "Invalid offset")
		return
	}

	sightings, err := h.sightings.List(limit, offset)
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"sightings": sightings})
}

// Update overwrites a sighting. A photo replaced by the update is
// removed from disk on a best-effort basis.
// PUT /v1/sightings/:id
func (h *SightingHandler) Update(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", "Invalid sighting id")
		return
	}

	var req SightingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	existing, err := h.sightings.GetByID(id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}

	// The original reporter stays attributed to the record no matter
	// who performs the edit.
	if err := h.sightings.Update(id, req.input(existing.UserID)); err != nil {
		RespondStoreError(c, err)
		return
	}

	if existing.PhotoPath != "" && existing.PhotoPath != req.PhotoPath {
		removePhoto(existing.PhotoPath)
	}

	RespondSuccess(c, gin.H{"status": "ok"})
}

// Delete removes a sighting and its photo, if any
// DELETE /v1/sightings/:id
func (h *SightingHandler) Delete(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation_error", "Invalid sighting id")
		return
	}

	existing, err := h.sightings.GetByID(id)
	if err != nil {
		RespondStoreError(c, err)
		return
	}

	if err := h.sightings.Delete(id); err != nil {
		RespondStoreError(c, err)
		return
	}

	if existing.PhotoPath != "" {
		removePhoto(existing.PhotoPath)
	}

	RespondSuccess(c, gin.H{"status": "ok"})
}

// Search matches a literal substring of location or notes
// GET /v1/sightings/search?q=
func (h *SightingHandler) Search(c *gin.Context) {
	sightings, err := h.sightings.Search(c.Query("q"))
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"sightings": sightings})
}

// Statistics returns aggregate sighting counts and trends
// GET /v1/sightings/statistics
func (h *SightingHandler) Statistics(c *gin.Context) {
	stats, err := h.sightings.Statistics()
	if err != nil {
		RespondStoreError(c, err)
		return
	}
	RespondSuccess(c, stats)
}

// removePhoto deletes a photo file. The record is the source of truth,
// so a failed removal is logged and otherwise ignored.
func removePhoto(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: failed to remove photo %s: %v", path, err)
	}
}

func parseQueryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
