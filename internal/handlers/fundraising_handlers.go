package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"donation_platform/internal/services"
)

type FundraisingHandler struct {
	fundraisings *services.FundraisingService
	auth         *services.AuthService
}

func NewFundraisingHandler(fundraisings *services.FundraisingService, auth *services.AuthService) *FundraisingHandler {
	return &FundraisingHandler{fundraisings: fundraisings, auth: auth}
}

func (h *FundraisingHandler) ListFundraisings(c echo.Context) error {
	fundraisings, err := h.fundraisings.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, fundraisings)
}

func (h *FundraisingHandler) ListActiveFundraisings(c echo.Context) error {
	fundraisings, err := h.fundraisings.ListActive(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, fundraisings)
}

func (h *FundraisingHandler) ListCharityFundraisings(c echo.Context) error {
	charityID, err := parseID(c, "charityId")
	if err != nil {
		return err
	}

	fundraisings, err := h.fundraisings.ListByCharity(c.Request().Context(), charityID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, fundraisings)
}

func (h *FundraisingHandler) GetFundraising(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	fundraising, err := h.fundraisings.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, fundraising)
}

// CreateFundraising opens a targeted campaign under a verified charity
func (h *FundraisingHandler) CreateFundraising(c echo.Context) error {
	var req FundraisingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	fundraising, err := h.fundraisings.Create(c.Request().Context(), services.FundraisingInput{
		Title:        req.Title,
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		ImageURL:     req.ImageURL,
	}, req.CharityID, getUserID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, fundraising)
}

func (h *FundraisingHandler) UpdateFundraising(c echo.Context) error {
	id, err := h.authorize(c)
	if err != nil {
		return err
	}

	var req UpdateFundraisingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	fundraising, err := h.fundraisings.Update(c.Request().Context(), id, services.FundraisingUpdate{
		CharityID:    req.CharityID,
		Title:        req.Title,
		Description:  req.Description,
		TargetAmount: req.TargetAmount,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, fundraising)
}

// CompleteFundraising closes a campaign that already has its report
func (h *FundraisingHandler) CompleteFundraising(c echo.Context) error {
	id, err := h.authorize(c)
	if err != nil {
		return err
	}

	fundraising, err := h.fundraisings.Complete(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, fundraising)
}

func (h *FundraisingHandler) DeleteFundraising(c echo.Context) error {
	id, err := h.authorize(c)
	if err != nil {
		return err
	}

	if err := h.fundraisings.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// authorize parses the campaign id and admits its creator or an administrator
func (h *FundraisingHandler) authorize(c echo.Context) (uint, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return 0, err
	}

	ctx := c.Request().Context()
	err = requireOwnerOrAdmin(c, h.auth, func() (bool, error) {
		return h.fundraisings.IsCreator(ctx, getUserID(c), id)
	})
	return id, err
}
