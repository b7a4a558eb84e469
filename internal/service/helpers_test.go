package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"healthcare-booking-api/internal/apperror"
	"healthcare-booking-api/internal/client"
	"healthcare-booking-api/internal/model"
	"healthcare-booking-api/internal/notifier"
	"healthcare-booking-api/internal/repository"
	"healthcare-booking-api/internal/service"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, client.Migrate(db))
	return db
}

// fakeStripeClient satisfies client.StripeClient without network calls.
type fakeStripeClient struct {
	mu          sync.Mutex
	seq         int
	createCalls int
	createErr   error
	retrieveErr error
	intents     map[string]*client.PaymentIntentResult
}

func newFakeStripeClient() *fakeStripeClient {
	return &fakeStripeClient{
		intents: make(map[string]*client.PaymentIntentResult),
	}
}

func (f *fakeStripeClient) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*client.PaymentIntentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}

	f.seq++
	id := fmt.Sprintf("pi_fake_%d", f.seq)
	result := &client.PaymentIntentResult{ID: id, ClientSecret: id + "_secret"}
	f.intents[id] = result
	return result, nil
}

func (f *fakeStripeClient) RetrievePaymentIntent(ctx context.Context, intentID string) (*client.PaymentIntentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	result, ok := f.intents[intentID]
	if !ok {
		return nil, apperror.ErrIntentNotFound
	}
	return result, nil
}

func (f *fakeStripeClient) ConstructEvent(payload []byte, sigHeader string) (*model.StripeEvent, error) {
	var event model.StripeEvent
	if err := json.Unmarshal(payload, &event); err != nil || event.Type == "" {
		return nil, apperror.ErrMalformedPayload
	}
	return &event, nil
}

type testEnv struct {
	db             *gorm.DB
	stripe         *fakeStripeClient
	offerRepo      repository.OfferRepository
	bookingRepo    repository.BookingRepository
	paymentRepo    repository.PaymentRepository
	bookingService service.BookingService
	paymentService service.PaymentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	stripe := newFakeStripeClient()

	offerRepo := repository.NewOfferRepository(db)
	clientRepo := repository.NewClientRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	paymentService := service.NewPaymentService(db, stripe, "usd", bookingRepo, paymentRepo, webhookEventRepo)
	bookingService := service.NewBookingService(
		db,
		offerRepo,
		bookingRepo,
		service.NewClientService(clientRepo),
		paymentService,
		notifier.NewLogNotifier(),
	)

	return &testEnv{
		db:             db,
		stripe:         stripe,
		offerRepo:      offerRepo,
		bookingRepo:    bookingRepo,
		paymentRepo:    paymentRepo,
		bookingService: bookingService,
		paymentService: paymentService,
	}
}

func (e *testEnv) createOffer(t *testing.T, price decimal.Decimal) *model.Offer {
	t.Helper()

	offer := &model.Offer{
		ProviderID:  1,
		Title:       "General Consultation",
		Description: "30 minute consultation",
		Price:       price,
	}
	require.NoError(t, e.db.Create(offer).Error)
	return offer
}

func (e *testEnv) createBooking(t *testing.T, offer *model.Offer) *model.Booking {
	t.Helper()

	bookingClient := &model.Client{Name: "John Doe", Email: fmt.Sprintf("%s@example.com", strings.ToLower(strings.ReplaceAll(t.Name(), "/", "_"))), Phone: "(555) 123-4567"}
	require.NoError(t, e.db.Create(bookingClient).Error)

	booking := &model.Booking{
		OfferID:     offer.ID,
		ClientID:    bookingClient.ID,
		BookingDate: time.Now().Add(48 * time.Hour),
		Status:      model.BookingStatusPending,
		TotalAmount: offer.Price,
	}
	require.NoError(t, e.db.Create(booking).Error)
	return booking
}

func (e *testEnv) createPayment(t *testing.T, booking *model.Booking, status model.PaymentStatus, intentID string) *model.Payment {
	t.Helper()

	payment := &model.Payment{
		BookingID:       booking.ID,
		PaymentIntentID: intentID,
		Amount:          booking.TotalAmount,
		Status:          status,
	}
	require.NoError(t, e.db.Create(payment).Error)
	return payment
}

func webhookPayload(t *testing.T, eventID, eventType, intentID string) []byte {
	t.Helper()

	payload, err := json.Marshal(model.StripeEvent{
		ID:   eventID,
		Type: eventType,
		Data: model.StripeEventData{
			Object: model.StripePaymentIntent{ID: intentID},
		},
	})
	require.NoError(t, err)
	return payload
}
