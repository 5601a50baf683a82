package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/voicebank/internal/dto"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/voicebank/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type RecordingHandler struct {
	recordingService *services.RecordingService
	uploadBatchSize  int
}

func NewRecordingHandler(recordingService *services.RecordingService, uploadBatchSize int) *RecordingHandler {
	return &RecordingHandler{recordingService: recordingService, uploadBatchSize: uploadBatchSize}
}

func (h *RecordingHandler) Next(c *fiber.Ctx) error {
	rec, err := h.recordingService.NextForReview(c.UserContext())
	if err != nil {
		if errors.Is(err, services.ErrNoRecordingAvailable) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return internalError(c, "failed to load next recording", err)
	}
	return c.JSON(rec)
}

func (h *RecordingHandler) Review(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid recording ID")
	}
	var req dto.ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	reviewerID, err := middleware.GetAccountID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	rec, err := h.recordingService.Review(c.UserContext(), id, reviewerID, req.Decision)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDecision):
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrRecordingNotFound):
			return errorJSON(c, fiber.StatusNotFound, "Recording not found")
		case errors.Is(err, services.ErrAlreadyReviewed):
			return errorJSON(c, fiber.StatusConflict, err.Error())
		}
		return internalError(c, "failed to record review", err)
	}
	return c.JSON(rec)
}

// Import expects a multipart form with the CSV under "file".
func (h *RecordingHandler) Import(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "CSV file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Failed to read upload")
	}
	defer f.Close()

	result, err := h.recordingService.ImportCSV(c.UserContext(), f)
	if err != nil {
		if errors.Is(err, services.ErrMissingColumns) {
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		}
		return internalError(c, "csv import failed", err)
	}
	return c.JSON(result)
}

func (h *RecordingHandler) Cleanup(c *fiber.Ctx) error {
	deleted, err := h.recordingService.CleanupDuplicates(c.UserContext())
	if err != nil {
		return internalError(c, "duplicate cleanup failed", err)
	}
	return c.JSON(dto.CleanupResult{Deleted: deleted})
}

func (h *RecordingHandler) Upload(c *fiber.Ctx) error {
	result, err := h.recordingService.UploadApproved(c.UserContext(), c.QueryInt("limit", h.uploadBatchSize))
	if err != nil {
		if errors.Is(err, services.ErrUploadNotConfigured) {
			return errorJSON(c, fiber.StatusServiceUnavailable, err.Error())
		}
		return internalError(c, "bucket upload failed", err)
	}
	return c.JSON(result)
}
