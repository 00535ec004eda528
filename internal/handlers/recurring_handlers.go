package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"donation_platform/internal/services"
)

type RecurringPaymentHandler struct {
	recurring *services.RecurringPaymentService
}

func NewRecurringPaymentHandler(recurring *services.RecurringPaymentService) *RecurringPaymentHandler {
	return &RecurringPaymentHandler{recurring: recurring}
}

func (h *RecurringPaymentHandler) CreateRecurringPayment(c echo.Context) error {
	var req RecurringPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	payment, err := h.recurring.Create(c.Request().Context(), getUserID(c), req.FundraisingID, req.Amount, req.PaymentDay)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, payment)
}

// ListUserRecurringPayments returns the caller's active schedules
func (h *RecurringPaymentHandler) ListUserRecurringPayments(c echo.Context) error {
	payments, err := h.recurring.ListForUser(c.Request().Context(), getUserID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, payments)
}

func (h *RecurringPaymentHandler) CancelRecurringPayment(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.recurring.Cancel(c.Request().Context(), id, getUserID(c)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
