package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gatesweb/emlak-directory/internal/dto"
	"github.com/gatesweb/emlak-directory/internal/service"
)

// defaultGenerateCount mirrors the size of the original published dataset.
const defaultGenerateCount = 1000

// PipelineHandler exposes the dataset lifecycle operations.
type PipelineHandler struct {
	pipeline *service.PipelineService
}

// NewPipelineHandler wires a handler backed by the pipeline service.
func NewPipelineHandler(pipeline *service.PipelineService) *PipelineHandler {
	return &PipelineHandler{pipeline: pipeline}
}

// Generate handles POST /admin/generate requests.
func (h *PipelineHandler) Generate(c echo.Context) error {
	var req dto.GenerateRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	if req.Count == 0 {
		req.Count = defaultGenerateCount
	}

	summary, err := h.pipeline.Generate(c.Request().Context(), req.Count)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCount) {
			return Error(c, http.StatusBadRequest, "count must be positive")
		}
		return Error(c, http.StatusInternalServerError, "generation failed")
	}

	return Success(c, http.StatusOK, "generation completed", summary)
}

// Enrich handles POST /admin/enrich requests.
func (h *PipelineHandler) Enrich(c echo.Context) error {
	var req dto.EnrichRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	summary, err := h.pipeline.Enrich(c.Request().Context(), req.Limit)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "enrichment failed")
	}

	return Success(c, http.StatusOK, "enrichment completed", summary)
}

// Verify handles POST /admin/verify requests.
func (h *PipelineHandler) Verify(c echo.Context) error {
	var req dto.VerifyRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	summary, err := h.pipeline.Verify(c.Request().Context(), req.Limit)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "verification failed")
	}

	return Success(c, http.StatusOK, "verification completed", summary)
}

// Expand handles POST /admin/expand requests.
func (h *PipelineHandler) Expand(c echo.Context) error {
	var req dto.ExpandRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	summary, err := h.pipeline.Expand(c.Request().Context(), req.TargetVerified)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCount) {
			return Error(c, http.StatusBadRequest, "target_verified must be positive")
		}
		return Error(c, http.StatusInternalServerError, "expansion failed")
	}

	return Success(c, http.StatusOK, "expansion completed", summary)
}
