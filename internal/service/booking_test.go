package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-booking-api/internal/apperror"
	"healthcare-booking-api/internal/dto"
	"healthcare-booking-api/internal/model"
)

func validBookingRequest(offerID uint) *dto.CreateBookingRequest {
	return &dto.CreateBookingRequest{
		OfferID:     offerID,
		ClientName:  "John Doe",
		ClientEmail: "john@example.com",
		ClientPhone: "(555) 123-4567",
		BookingDate: time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}
}

func TestCreateBooking_SnapshotsOfferPrice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	offer := env.createOffer(t, decimal.NewFromInt(150))

	result, err := env.bookingService.CreateBooking(ctx, validBookingRequest(offer.ID))
	require.NoError(t, err)
	require.NotNil(t, result.Booking)

	assert.True(t, result.Booking.TotalAmount.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, model.BookingStatusPending, result.Booking.Status)
	assert.NotEmpty(t, result.ClientSecret)

	require.NotNil(t, result.Booking.Payment)
	assert.True(t, result.Booking.Payment.Amount.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, model.PaymentStatusPending, result.Booking.Payment.Status)

	// later price changes must not affect the captured amount
	require.NoError(t, env.db.Model(&model.Offer{}).Where("id = ?", offer.ID).
		Update("price", decimal.NewFromInt(999)).Error)

	reloaded, err := env.bookingService.GetBookingByID(ctx, result.Booking.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.TotalAmount.Equal(decimal.NewFromInt(150)))
}

func TestCreateBooking_ReusesClientByEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	offer := env.createOffer(t, decimal.NewFromInt(100))

	first := validBookingRequest(offer.ID)
	result1, err := env.bookingService.CreateBooking(ctx, first)
	require.NoError(t, err)

	second := validBookingRequest(offer.ID)
	second.ClientName = "Johnny Different"
	second.ClientPhone = "(555) 999-9999"
	result2, err := env.bookingService.CreateBooking(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, result1.Booking.ClientID, result2.Booking.ClientID)

	var count int64
	require.NoError(t, env.db.Model(&model.Client{}).Where("email = ?", "john@example.com").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// first-seen name/phone win
	var stored model.Client
	require.NoError(t, env.db.Where("email = ?", "john@example.com").First(&stored).Error)
	assert.Equal(t, "John Doe", stored.Name)
	assert.Equal(t, "(555) 123-4567", stored.Phone)
}

func TestCreateBooking_RejectsPastDate(t *testing.T) {
	env := newTestEnv(t)

	offer := env.createOffer(t, decimal.NewFromInt(100))

	req := validBookingRequest(offer.ID)
	req.BookingDate = time.Now().Add(-time.Hour).Format(time.RFC3339)

	_, err := env.bookingService.CreateBooking(context.Background(), req)

	var validationErr *apperror.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "booking_date")
}

func TestCreateBooking_RequiresFields(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.bookingService.CreateBooking(context.Background(), &dto.CreateBookingRequest{})

	var validationErr *apperror.ValidationError
	require.ErrorAs(t, err, &validationErr)
	for _, field := range []string{"offer_id", "client_name", "client_email", "client_phone", "booking_date"} {
		assert.Contains(t, validationErr.Fields, field)
	}
}

func TestCreateBooking_RejectsInvalidEmail(t *testing.T) {
	env := newTestEnv(t)

	offer := env.createOffer(t, decimal.NewFromInt(100))

	req := validBookingRequest(offer.ID)
	req.ClientEmail = "not-an-email"

	_, err := env.bookingService.CreateBooking(context.Background(), req)

	var validationErr *apperror.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "client_email")
}

func TestCreateBooking_UnknownOffer(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.bookingService.CreateBooking(context.Background(), validBookingRequest(999999))

	var notFound *apperror.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestCreateBooking_CompletesOnSingleConnection(t *testing.T) {
	env := newTestEnv(t)

	offer := env.createOffer(t, decimal.NewFromInt(100))

	// The test pool allows one open connection, so every read inside the
	// booking transaction has to go through the transaction handle. A read
	// against the pool would block behind the open transaction forever.
	done := make(chan error, 1)
	go func() {
		_, err := env.bookingService.CreateBooking(context.Background(), validBookingRequest(offer.ID))
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("CreateBooking did not complete on a single database connection")
	}
}

func TestCreateBooking_GatewayFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)

	offer := env.createOffer(t, decimal.NewFromInt(100))
	env.stripe.createErr = &apperror.GatewayError{Op: "create payment intent", Err: errors.New("boom")}

	_, err := env.bookingService.CreateBooking(context.Background(), validBookingRequest(offer.ID))

	var gatewayErr *apperror.GatewayError
	require.ErrorAs(t, err, &gatewayErr)

	// nothing persists when any step inside the transaction fails
	var bookings, payments, clients int64
	require.NoError(t, env.db.Model(&model.Booking{}).Count(&bookings).Error)
	require.NoError(t, env.db.Model(&model.Payment{}).Count(&payments).Error)
	require.NoError(t, env.db.Model(&model.Client{}).Count(&clients).Error)
	assert.Zero(t, bookings)
	assert.Zero(t, payments)
	assert.Zero(t, clients)
}
