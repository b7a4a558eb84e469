package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"healthcare-booking-api/internal/apperror"
	"healthcare-booking-api/internal/service"
)

type OfferHandler struct {
	offerService service.OfferService
}

func NewOfferHandler(offerService service.OfferService) *OfferHandler {
	return &OfferHandler{
		offerService: offerService,
	}
}

func (h *OfferHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	offers, err := h.offerService.ListOffers(ctx)
	if err != nil {
		logrus.WithError(err).Error("list offers failed")
		return serverErrorResponse(c, "Failed to retrieve offers")
	}

	return successResponse(c, http.StatusOK, "Offers retrieved successfully", offers)
}

func (h *OfferHandler) Show(c echo.Context) error {
	ctx := c.Request().Context()

	offerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return notFoundResponse(c, "Offer not found")
	}

	offer, err := h.offerService.GetOfferByID(ctx, uint(offerID))
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			return notFoundResponse(c, "Offer not found")
		}
		logrus.WithError(err).WithField("offer_id", offerID).Error("get offer failed")
		return serverErrorResponse(c, "Failed to retrieve offer")
	}

	return successResponse(c, http.StatusOK, "Offer retrieved successfully", offer)
}
