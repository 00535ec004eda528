package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"donation_platform/internal/models"
	"donation_platform/internal/services"
)

type CharityHandler struct {
	charities *services.CharityService
	auth      *services.AuthService
}

func NewCharityHandler(charities *services.CharityService, auth *services.AuthService) *CharityHandler {
	return &CharityHandler{charities: charities, auth: auth}
}

// ListCharities returns every charity, or those tagged with ?category=
func (h *CharityHandler) ListCharities(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		charities []services.CharityDetails
		err       error
	)
	if category := c.QueryParam("category"); category != "" {
		charities, err = h.charities.ListByCategory(ctx, category)
	} else {
		charities, err = h.charities.List(ctx)
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, charities)
}

func (h *CharityHandler) GetCharity(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	charity, err := h.charities.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, charity)
}

// CreateCharity accepts either JSON or a multipart form with "documents" files
func (h *CharityHandler) CreateCharity(c echo.Context) error {
	var req CharityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if len(req.Categories) == 0 {
		if params, err := c.FormParams(); err == nil {
			req.Categories = params["categories[]"]
		}
	}

	uploads, err := formUploads(c, "documents")
	if err != nil {
		return err
	}

	charity, err := h.charities.Create(c.Request().Context(), services.CharityInput{
		Name:               req.Name,
		Description:        req.Description,
		WebsiteURL:         req.WebsiteURL,
		Categories:         req.Categories,
		RegistrationNumber: req.RegistrationNumber,
		ContactEmail:       req.ContactEmail,
		ContactPhone:       req.ContactPhone,
		ContactAddress:     req.ContactAddress,
		Bank: models.BankDetails{
			LegalName:     req.BankLegalName,
			AccountNumber: req.BankAccountNumber,
			RoutingCode:   req.BankRoutingCode,
			BankName:      req.BankName,
		},
	}, uploads, getUserID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, charity)
}

func (h *CharityHandler) UpdateCharity(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateCharityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	update := services.CharityUpdate{
		Name:               req.Name,
		Description:        req.Description,
		WebsiteURL:         req.WebsiteURL,
		Categories:         req.Categories,
		RegistrationNumber: req.RegistrationNumber,
		ContactEmail:       req.ContactEmail,
		ContactPhone:       req.ContactPhone,
		ContactAddress:     req.ContactAddress,
	}
	if req.BankLegalName != nil || req.BankAccountNumber != nil || req.BankRoutingCode != nil || req.BankName != nil {
		update.Bank = &models.BankDetails{
			LegalName:     deref(req.BankLegalName),
			AccountNumber: deref(req.BankAccountNumber),
			RoutingCode:   deref(req.BankRoutingCode),
			BankName:      deref(req.BankName),
		}
	}

	charity, err := h.charities.Update(c.Request().Context(), id, update, getUserID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, charity)
}

// VerifyCharity is mounted behind the admin middleware
func (h *CharityHandler) VerifyCharity(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	charity, err := h.charities.Verify(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, charity)
}

func (h *CharityHandler) DeleteCharity(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := requireOwnerOrAdmin(c, h.auth, func() (bool, error) {
		return h.charities.IsCreator(ctx, getUserID(c), id)
	}); err != nil {
		return err
	}

	if err := h.charities.Delete(ctx, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadDocuments attaches the "documents" files to the charity
func (h *CharityHandler) UploadDocuments(c echo.Context) error {
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

	charity, err := h.charities.UploadDocuments(c.Request().Context(), id, uploads, getUserID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, charity)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
