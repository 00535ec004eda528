package handlers

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"donation_platform/internal/services"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// CreateReport files the closeout report of a campaign and closes it
func (h *ReportHandler) CreateReport(c echo.Context) error {
	var req ReportRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	report, err := h.reports.Create(c.Request().Context(), services.ReportInput{
		FundraisingID:        req.FundraisingID,
		Title:                req.Title,
		Description:          req.Description,
		SpentAmount:          req.SpentAmount,
		DocumentURLs:         req.DocumentURLs,
		DocumentDescriptions: req.DocumentDescriptions,
		ReportDate:           req.ReportDate,
	}, getUserID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, report)
}

func (h *ReportHandler) GetReport(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	report, err := h.reports.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) ListFundraisingReports(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	reports, err := h.reports.ListForFundraising(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, reports)
}

func (h *ReportHandler) ListCharityReports(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	reports, err := h.reports.ListForCharity(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, reports)
}

// VerifyReport is mounted behind the admin middleware
func (h *ReportHandler) VerifyReport(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	report, err := h.reports.Verify(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// UploadDocuments appends the "documents" files to the report
func (h *ReportHandler) UploadDocuments(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	uploads, err := formUploads(c, "documents")
	if err != nil {
		return err
	}
	if len(uploads) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no documents provided")
	}

	report, err := h.reports.UploadDocuments(c.Request().Context(), id, uploads)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// UploadFile stores a single "file" field and returns its URL
func (h *ReportHandler) UploadFile(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	url, err := h.reports.UploadFile(c.Request().Context(), services.Upload{
		Name: fh.Filename,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, FileUploadResponse{URL: url})
}
