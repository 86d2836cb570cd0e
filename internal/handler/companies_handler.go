package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gatesweb/emlak-directory/internal/dto"
	"github.com/gatesweb/emlak-directory/internal/service"
)

// CompaniesHandler serves dataset read endpoints.
type CompaniesHandler struct {
	companiesService *service.CompaniesService
}

// NewCompaniesHandler wires a handler backed by the companies service.
func NewCompaniesHandler(companiesService *service.CompaniesService) *CompaniesHandler {
	return &CompaniesHandler{companiesService: companiesService}
}

// List handles GET /companies requests.
func (h *CompaniesHandler) List(c echo.Context) error {
	filter := dto.ListFilter{
		Q:            c.QueryParam("q"),
		District:     c.QueryParam("district"),
		Source:       c.QueryParam("source"),
		EmailSource:  c.QueryParam("email_source"),
		Verification: c.QueryParam("verification"),
	}

	if page := c.QueryParam("page"); page != "" {
		parsed, err := strconv.Atoi(page)
		if err != nil || parsed <= 0 {
			return Error(c, http.StatusBadRequest, "invalid page value")
		}
		filter.Page = parsed
	}
	if perPage := c.QueryParam("per_page"); perPage != "" {
		parsed, err := strconv.Atoi(perPage)
		if err != nil || parsed <= 0 {
			return Error(c, http.StatusBadRequest, "invalid per_page value")
		}
		filter.PerPage = parsed
	}

	companies, err := h.companiesService.ListCompanies(c.Request().Context(), filter)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list companies")
	}

	return Success(c, http.StatusOK, "ok", map[string]any{
		"companies": companies,
		"count":     len(companies),
	})
}

// Export handles GET /companies/export requests, streaming the dataset as a
// CSV attachment.
func (h *CompaniesHandler) Export(c echo.Context) error {
	filename := fmt.Sprintf("istanbul_emlak_companies_%s.csv", time.Now().Format("20060102"))

	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().WriteHeader(http.StatusOK)

	if _, err := h.companiesService.ExportCSV(c.Request().Context(), c.Response()); err != nil {
		// Headers are already on the wire; surface the failure in the log.
		return err
	}
	return nil
}

// Stats handles GET /companies/stats requests.
func (h *CompaniesHandler) Stats(c echo.Context) error {
	stats, err := h.companiesService.Stats(c.Request().Context())
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to compute dataset stats")
	}
	return Success(c, http.StatusOK, "ok", stats)
}
