package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"healthcare-booking-api/internal/apperror"
	"healthcare-booking-api/internal/dto"
	"healthcare-booking-api/internal/service"
)

type StripeHandler struct {
	paymentService service.PaymentService
}

func NewStripeHandler(paymentService service.PaymentService) *StripeHandler {
	return &StripeHandler{
		paymentService: paymentService,
	}
}

// CreatePaymentIntent is the standalone re-request path: a client retries
// payment collection for an existing booking.
func (h *StripeHandler) CreatePaymentIntent(c echo.Context) error {
	ctx := c.Request().Context()

	bookingID, err := strconv.ParseUint(c.Param("bookingId"), 10, 32)
	if err != nil {
		return notFoundResponse(c, "Booking not found")
	}

	result, err := h.paymentService.CreatePaymentIntentForBooking(ctx, uint(bookingID))
	if err != nil {
		if errors.Is(err, apperror.ErrAlreadyPaid) {
			return errorResponse(c, http.StatusBadRequest, apperror.ErrAlreadyPaid.Error(), nil)
		}
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			return notFoundResponse(c, "Booking not found")
		}
		logrus.WithError(err).WithField("booking_id", bookingID).Error("create payment intent failed")
		return serverErrorResponse(c, "Failed to create payment intent")
	}

	return successResponse(c, http.StatusOK, "Payment intent created successfully", dto.PaymentIntentResponse{
		ClientSecret:    result.ClientSecret,
		PaymentIntentID: result.ID,
	})
}

// Webhook receives asynchronous payment events from Stripe. The gateway
// retries until it sees a 2xx, so anything other than a processing failure is
// acknowledged with success.
func (h *StripeHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "Webhook processing failed", nil)
	}
	signature := c.Request().Header.Get("Stripe-Signature")

	result, err := h.paymentService.HandleWebhook(ctx, payload, signature)
	if err != nil {
		logrus.WithError(err).WithField("payload_length", len(payload)).Error("webhook processing failed")
		if errors.Is(err, apperror.ErrMalformedPayload) {
			return errorResponse(c, http.StatusBadRequest, "Webhook processing failed", nil)
		}
		// Transient storage or processing failures must stay 5xx so the
		// gateway keeps retrying the event.
		return serverErrorResponse(c, "Webhook processing failed")
	}

	return successResponse(c, http.StatusOK, "Webhook processed successfully", result)
}
