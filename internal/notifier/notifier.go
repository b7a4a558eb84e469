package notifier

import (
	"context"

	"github.com/sirupsen/logrus"

	"healthcare-booking-api/internal/model"
)

// Notifier is the post-commit notification port. Implementations may forward
// to email, a message broker, or anything else; dispatch failures are logged
// and swallowed by the caller, never surfaced to the booking transaction.
type Notifier interface {
	BookingCreated(ctx context.Context, booking *model.Booking) error
}

type logNotifier struct{}

func NewLogNotifier() Notifier {
	return &logNotifier{}
}

func (n *logNotifier) BookingCreated(ctx context.Context, booking *model.Booking) error {
	fields := logrus.Fields{
		"booking_id":   booking.ID,
		"offer_id":     booking.OfferID,
		"booking_date": booking.BookingDate,
	}
	if booking.Client != nil {
		fields["client_email"] = booking.Client.Email
	}
	logrus.WithFields(fields).Info("booking created notification")
	return nil
}
