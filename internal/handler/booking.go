package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"healthcare-booking-api/internal/apperror"
	"healthcare-booking-api/internal/dto"
	"healthcare-booking-api/internal/service"
)

type BookingHandler struct {
	bookingService service.BookingService
}

func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
	}
}

func (h *BookingHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return validationErrorResponse(c, map[string]string{"body": "invalid request body"})
	}

	result, err := h.bookingService.CreateBooking(ctx, &req)
	if err != nil {
		var validationErr *apperror.ValidationError
		if errors.As(err, &validationErr) {
			return validationErrorResponse(c, validationErr.Fields)
		}
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			// a dangling offer id is a request problem, same as any other field
			return validationErrorResponse(c, map[string]string{"offer_id": "The selected offer does not exist"})
		}
		logrus.WithError(err).Error("create booking failed")
		return serverErrorResponse(c, "Failed to create booking")
	}

	return successResponse(c, http.StatusCreated, "Booking created successfully", result)
}
