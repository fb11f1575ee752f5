package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dnoice/roachtrack/internal/db/repository"
	"github.com/dnoice/roachtrack/internal/policy"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RespondError sends an error response
func RespondError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// RespondSuccess sends a success response
func RespondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// RespondStoreError maps a core error onto an HTTP response. Validation
// and conflict messages are safe to show; anything else is an
// infrastructure failure whose raw text must not reach the client.
func RespondStoreError(c *gin.Context, err error) {
	var ve *policy.ValidationError
	if errors.As(err, &ve) {
		RespondError(c, http.StatusBadRequest, "validation_error", ve.Message)
		return
	}

	var ce *repository.ConflictError
	if errors.As(err, &ce) {
		RespondError(c, http.StatusConflict, "conflict", ce.Message)
		return
	}

	if errors.Is(err, repository.ErrNotFound) {
		RespondError(c, http.StatusNotFound, "not_found", "Record not found")
		return
	}

	log.Printf("storage error: %v", err)
	RespondError(c, http.StatusInternalServerError, "internal_error", "An internal error occurred")
}
