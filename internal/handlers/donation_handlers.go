package handlers

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"donation_platform/internal/services"
)

type DonationHandler struct {
	donations *services.DonationService
}

func NewDonationHandler(donations *services.DonationService) *DonationHandler {
	return &DonationHandler{donations: donations}
}

// CreateDonation settles a donation. A recurring donation whose schedule
// could not be registered still succeeds and reports the reason.
func (h *DonationHandler) CreateDonation(c echo.Context) error {
	var req DonationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	userID := getUserID(c)
	result, err := h.donations.CreateDonation(c.Request().Context(), services.DonationInput{
		CharityID:         req.CharityID,
		FundraisingID:     req.FundraisingID,
		Amount:            req.Amount,
		Message:           req.Message,
		Anonymous:         req.Anonymous,
		Recurring:         req.Recurring,
		RecurringInterval: req.RecurringInterval,
		PaymentMethod:     req.PaymentMethod,
	}, userID)
	if err != nil {
		return httpError(err)
	}

	resp := DonationResponse{
		Donation:         *result.Donation,
		RecurringPayment: result.RecurringPayment,
	}
	if result.RecurringScheduleErr != nil {
		log.Printf("Recurring schedule for donation %d (user %d) not registered: %v", result.Donation.ID, userID, result.RecurringScheduleErr)
		resp.RecurringScheduleError = "donation recorded but the monthly schedule could not be registered"
		if services.KindOf(result.RecurringScheduleErr) != services.KindInternal {
			resp.RecurringScheduleError = result.RecurringScheduleErr.Error()
		}
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *DonationHandler) GetUserDonations(c echo.Context) error {
	donations, err := h.donations.GetUserDonations(c.Request().Context(), getUserID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, donations)
}

func (h *DonationHandler) GetFundraisingDonations(c echo.Context) error {
	fundraisingID, err := parseID(c, "fundraisingId")
	if err != nil {
		return err
	}

	donations, err := h.donations.GetFundraisingDonations(c.Request().Context(), fundraisingID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, donations)
}

func (h *DonationHandler) GetFundraisingTotal(c echo.Context) error {
	fundraisingID, err := parseID(c, "fundraisingId")
	if err != nil {
		return err
	}

	total, err := h.donations.GetTotalDonationAmount(c.Request().Context(), fundraisingID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"fundraising_id": fundraisingID,
		"total":          total,
	})
}

// UpdateDonationStatus is mounted behind the admin middleware
func (h *DonationHandler) UpdateDonationStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req DonationStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	donation, err := h.donations.UpdateDonationStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, donation)
}

func (h *DonationHandler) DeleteDonation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.donations.DeleteDonation(c.Request().Context(), id, getUserID(c)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
