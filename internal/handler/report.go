package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/AIObjectives/tttc-light-js-sub003/internal/model"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/result"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/service"
	"github.com/AIObjectives/tttc-light-js-sub003/pkg/response"
)

// ReportStorage resolves download URLs for stored reports.
type ReportStorage interface {
	GetURL(ctx context.Context, filename string) result.Result[string]
}

type ReportHandler struct {
	service   *service.ReportService
	storage   ReportStorage
	validator *validator.Validate
}

func NewReportHandler(svc *service.ReportService, storage ReportStorage, v *validator.Validate) *ReportHandler {
	return &ReportHandler{
		service:   svc,
		storage:   storage,
		validator: v,
	}
}

// Create handles POST /api/report
func (h *ReportHandler) Create(c *fiber.Ctx) error {
	var req model.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	requestID := c.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.New().String()
	}

	res, err := h.service.CreateReport(c.Context(), &req, requestID)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, res)
}

// Status handles GET /api/report/:id/status
func (h *ReportHandler) Status(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return response.ValidationError(c, "Report ID is required", nil)
	}

	res, err := h.service.GetStatus(c.Context(), id)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, res)
}

// Download handles GET /api/report/:id
func (h *ReportHandler) Download(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return response.ValidationError(c, "Report ID is required", nil)
	}

	job, err := h.service.GetJob(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			return response.NotFound(c, "Report not found")
		}
		return response.ServiceError(c, err.Error())
	}
	if job.Status != model.StatusFinished {
		return response.ValidationError(c, "Report not finished yet", nil)
	}

	url, err := h.storage.GetURL(c.Context(), job.Filename).Unwrap()
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, fiber.Map{"reportId": id, "url": url})
}

// formatValidationErrors formats validator errors for response
func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
