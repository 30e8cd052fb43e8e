package handler

import (
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/anubhavg-in/receipt-extraction-service/internal/imageutil"
	"github.com/anubhavg-in/receipt-extraction-service/internal/model"
	"github.com/anubhavg-in/receipt-extraction-service/internal/repository"
	"github.com/anubhavg-in/receipt-extraction-service/internal/service"
)

const presignTTL = 15 * time.Minute

// ReceiptHandler handles HTTP requests for receipt extraction.
type ReceiptHandler struct {
	receiptService service.ReceiptService
}

// NewReceiptHandler creates a new receipt handler.
func NewReceiptHandler(receiptService service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// ScanReceipt handles the POST /v1/receipts/scan endpoint.
// @Summary Scan a receipt image
// @Description Upload a receipt image; extraction runs in the background
// @Tags receipts
// @Accept multipart/form-data
// @Produce json
// @Param receiptImage formData file true "Receipt image file (JPEG, PNG or WEBP)"
// @Success 202 {object} model.ScanAcceptedResponse "Extraction scheduled"
// @Failure 400 {object} model.ErrorResponse "Bad request"
// @Failure 413 {object} model.ErrorResponse "Image too large"
// @Failure 422 {object} model.ErrorResponse "Unsupported or corrupted image"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/receipts/scan [post]
func (h *ReceiptHandler) ScanReceipt(c *gin.Context) {
	file, header, err := getFormFile(c, "receiptImage")
	if err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("receiptImage", "Receipt image is required"))
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		log.Error().Err(err).Msg("failed to read uploaded file")
		respondInternalServerError(c, ErrFileProcessing)
		return
	}

	contentType := header.Header.Get("Content-Type")
	receipt, err := h.receiptService.ScanReceipt(c.Request.Context(), fileBytes, contentType)
	if err != nil {
		switch {
		case errors.Is(err, imageutil.ErrTooLarge):
			respondRequestEntityTooLarge(c, "Receipt image exceeds the maximum allowed size")
		case errors.Is(err, imageutil.ErrInvalidFormat), errors.Is(err, imageutil.ErrCorrupted):
			respondUnprocessableEntity(c, "Receipt image is not a readable JPEG, PNG or WEBP")
		default:
			log.Error().Err(err).Int("file_size", len(fileBytes)).Msg("failed to schedule receipt scan")
			respondInternalServerError(c, ErrFileProcessing)
		}
		return
	}

	respondAccepted(c, model.ScanAcceptedResponse{ID: receipt.ID, Status: string(receipt.Status)})
}

// GetReceipt handles the GET /v1/receipts/:id endpoint.
// @Summary Get a receipt
// @Description Fetch a receipt row with its extraction result, if completed
// @Tags receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 200 {object} model.ReceiptResponse "Receipt"
// @Failure 404 {object} model.ErrorResponse "Not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/receipts/{id} [get]
func (h *ReceiptHandler) GetReceipt(c *gin.Context) {
	id, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	receipt, err := h.receiptService.GetReceiptByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondNotFound(c, ErrResourceNotFound)
			return
		}
		log.Error().Err(err).Str("receipt_id", id).Msg("failed to fetch receipt")
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	var resp model.ReceiptResponse
	resp.FromDomain(receipt)
	respondOK(c, resp)
}

// ReprocessReceipt handles the POST /v1/receipts/:id/reprocess endpoint.
// @Summary Reprocess a receipt
// @Description Re-run recognition on the stored enhanced image of a receipt
// @Tags receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 202 {object} model.ScanAcceptedResponse "Reprocessing scheduled"
// @Failure 404 {object} model.ErrorResponse "Not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/receipts/{id}/reprocess [post]
func (h *ReceiptHandler) ReprocessReceipt(c *gin.Context) {
	id, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	receipt, err := h.receiptService.ReprocessReceipt(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondNotFound(c, ErrResourceNotFound)
			return
		}
		log.Error().Err(err).Str("receipt_id", id).Msg("failed to schedule reprocessing")
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondAccepted(c, model.ScanAcceptedResponse{ID: receipt.ID, Status: string(receipt.Status)})
}

// GetReceiptImageURL handles the GET /v1/receipts/:id/image-url endpoint.
// @Summary Get a presigned image URL
// @Description Return a time-limited URL for the stored original image
// @Tags receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 200 {object} model.PresignedURLResponse "Presigned URL"
// @Failure 404 {object} model.ErrorResponse "Not found"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/receipts/{id}/image-url [get]
func (h *ReceiptHandler) GetReceiptImageURL(c *gin.Context) {
	id, err := getPathParam(c, "id")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	if _, err := h.receiptService.GetReceiptByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondNotFound(c, ErrResourceNotFound)
			return
		}
		log.Error().Err(err).Str("receipt_id", id).Msg("failed to fetch receipt")
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	url, err := h.receiptService.PresignImageURL(id, presignTTL)
	if err != nil {
		log.Error().Err(err).Str("receipt_id", id).Msg("failed to presign image URL")
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondOK(c, model.PresignedURLResponse{URL: url, ExpiresIn: int(presignTTL.Seconds())})
}
