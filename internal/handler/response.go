package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anubhavg-in/receipt-extraction-service/internal/model"
)

// Common error messages.
const (
	ErrInvalidInput     = "Invalid input format"
	ErrResourceNotFound = "Resource not found"
	ErrInternalServer   = "Internal server error"
	ErrFileProcessing   = "Failed to process file"
)

// respondWithError sends a standardized error response.
func respondWithError(c *gin.Context, statusCode int, message string, details ...model.ErrorDetail) {
	c.JSON(statusCode, model.ErrorResponse{
		Status:  http.StatusText(statusCode),
		Message: message,
		Details: details,
	})
}

func respondBadRequest(c *gin.Context, message string, details ...model.ErrorDetail) {
	respondWithError(c, http.StatusBadRequest, message, details...)
}

func respondNotFound(c *gin.Context, message string) {
	respondWithError(c, http.StatusNotFound, message)
}

func respondRequestEntityTooLarge(c *gin.Context, message string) {
	respondWithError(c, http.StatusRequestEntityTooLarge, message)
}

func respondUnprocessableEntity(c *gin.Context, message string) {
	respondWithError(c, http.StatusUnprocessableEntity, message)
}

func respondInternalServerError(c *gin.Context, message string) {
	respondWithError(c, http.StatusInternalServerError, message)
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func respondAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, data)
}

func newErrorDetail(field, message string) model.ErrorDetail {
	return model.ErrorDetail{Field: field, Message: message}
}
