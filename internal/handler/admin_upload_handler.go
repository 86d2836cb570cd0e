package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/gatesweb/emlak-directory/internal/service"
)

// AdminUploadHandler handles CSV ingestion and validation for administrators.
type AdminUploadHandler struct {
	companiesService *service.CompaniesService
}

// NewAdminUploadHandler wires a handler backed by the companies service.
func NewAdminUploadHandler(companiesService *service.CompaniesService) *AdminUploadHandler {
	return &AdminUploadHandler{companiesService: companiesService}
}

// UploadCSV handles POST /admin/upload-csv requests.
func (h *AdminUploadHandler) UploadCSV(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return Error(c, http.StatusBadRequest, "missing csv file")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to open file")
	}
	defer file.Close()

	summary, err := h.companiesService.ImportCSV(c.Request().Context(), file)
	if err != nil {
		var validationErr service.CSVValidationError
		if errors.As(err, &validationErr) {
			return Error(c, http.StatusBadRequest, validationErr.Error())
		}
		return Error(c, http.StatusInternalServerError, "failed to process csv")
	}

	return Success(c, http.StatusOK, "companies CSV processed", summary)
}

// ValidateCSV handles POST /admin/validate-csv requests. The optional
// expected_rows form field asserts the documented row count.
func (h *AdminUploadHandler) ValidateCSV(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return Error(c, http.StatusBadRequest, "missing csv file")
	}

	expectedRows := 0
	if value := c.FormValue("expected_rows"); value != "" {
		expectedRows, err = strconv.Atoi(value)
		if err != nil || expectedRows <= 0 {
			return Error(c, http.StatusBadRequest, "invalid expected_rows value")
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to open file")
	}
	defer file.Close()

	report, err := h.companiesService.ValidateCSV(file, expectedRows)
	if err != nil {
		var validationErr service.CSVValidationError
		if errors.As(err, &validationErr) {
			return Error(c, http.StatusBadRequest, validationErr.Error())
		}
		return Error(c, http.StatusInternalServerError, "failed to validate csv")
	}

	return Success(c, http.StatusOK, "csv validated", report)
}
