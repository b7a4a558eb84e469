package dto

import (
	"net/mail"
	"time"

	"healthcare-booking-api/internal/model"
)

type CreateBookingRequest struct {
	OfferID     uint   `json:"offer_id"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	ClientPhone string `json:"client_phone"`
	BookingDate string `json:"booking_date"`
}

var bookingDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Validate checks the request before any mutation happens. It returns the
// parsed booking date and a per-field error map (empty when the request is
// valid).
func (r *CreateBookingRequest) Validate(now time.Time) (time.Time, map[string]string) {
	errs := make(map[string]string)

	if r.OfferID == 0 {
		errs["offer_id"] = "offer_id is required"
	}
	if r.ClientName == "" {
		errs["client_name"] = "client_name is required"
	}
	if r.ClientEmail == "" {
		errs["client_email"] = "client_email is required"
	} else if _, err := mail.ParseAddress(r.ClientEmail); err != nil {
		errs["client_email"] = "client_email must be a valid email address"
	}
	if r.ClientPhone == "" {
		errs["client_phone"] = "client_phone is required"
	}

	var bookingDate time.Time
	if r.BookingDate == "" {
		errs["booking_date"] = "booking_date is required"
	} else {
		parsed, err := parseBookingDate(r.BookingDate)
		if err != nil {
			errs["booking_date"] = "booking_date must be a valid timestamp"
		} else if !parsed.After(now) {
			errs["booking_date"] = "booking_date must be in the future"
		} else {
			bookingDate = parsed
		}
	}

	return bookingDate, errs
}

func parseBookingDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range bookingDateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

type CreateBookingResult struct {
	Booking      *model.Booking `json:"booking"`
	ClientSecret string         `json:"client_secret"`
}

type PaymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type WebhookResult struct {
	EventType string `json:"event_type"`
	EventID   string `json:"event_id"`
}
