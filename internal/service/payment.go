package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"healthcare-booking-api/internal/apperror"
	"healthcare-booking-api/internal/client"
	"healthcare-booking-api/internal/dto"
	"healthcare-booking-api/internal/model"
	"healthcare-booking-api/internal/repository"
)

const (
	eventPaymentSucceeded = "payment_intent.succeeded"
	eventPaymentFailed    = "payment_intent.payment_failed"
	eventPaymentCanceled  = "payment_intent.canceled"
)

type PaymentService interface {
	// EnsurePaymentIntent returns the intent for a booking, reusing a pending
	// one when the gateway still knows it, creating a new one otherwise.
	// Fails with apperror.ErrAlreadyPaid when the booking has a completed
	// payment; no gateway call is made in that case.
	EnsurePaymentIntent(ctx context.Context, tx *gorm.DB, booking *model.Booking) (*client.PaymentIntentResult, error)

	// CreatePaymentIntentForBooking is the standalone re-request path for an
	// existing booking id.
	CreatePaymentIntentForBooking(ctx context.Context, bookingID uint) (*client.PaymentIntentResult, error)

	// HandleWebhook reconciles an asynchronous gateway event against local
	// payment and booking state.
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) (*dto.WebhookResult, error)
}

type paymentServiceImpl struct {
	db               *gorm.DB
	stripeClient     client.StripeClient
	currency         string
	bookingRepo      repository.BookingRepository
	paymentRepo      repository.PaymentRepository
	webhookEventRepo repository.WebhookEventRepository
}

func NewPaymentService(
	db *gorm.DB,
	stripeClient client.StripeClient,
	currency string,
	bookingRepo repository.BookingRepository,
	paymentRepo repository.PaymentRepository,
	webhookEventRepo repository.WebhookEventRepository,
) PaymentService {
	return &paymentServiceImpl{
		db:               db,
		stripeClient:     stripeClient,
		currency:         currency,
		bookingRepo:      bookingRepo,
		paymentRepo:      paymentRepo,
		webhookEventRepo: webhookEventRepo,
	}
}

func (s *paymentServiceImpl) EnsurePaymentIntent(ctx context.Context, tx *gorm.DB, booking *model.Booking) (*client.PaymentIntentResult, error) {
	_, err := s.paymentRepo.FindByBookingAndStatus(ctx, tx, booking.ID, model.PaymentStatusCompleted)
	if err == nil {
		return nil, apperror.ErrAlreadyPaid
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find completed payment: %w", err)
	}

	pending, err := s.paymentRepo.FindPendingWithIntent(ctx, tx, booking.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find pending payment: %w", err)
	}

	if pending != nil {
		result, err := s.stripeClient.RetrievePaymentIntent(ctx, pending.PaymentIntentID)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, apperror.ErrIntentNotFound) {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{
			"booking_id":        booking.ID,
			"payment_intent_id": pending.PaymentIntentID,
		}).Warn("payment intent missing at gateway, creating a new one")
	}

	amountCents := booking.TotalAmount.Mul(decimal.NewFromInt(100)).IntPart()
	metadata := map[string]string{
		"booking_id": strconv.FormatUint(uint64(booking.ID), 10),
		"offer_id":   strconv.FormatUint(uint64(booking.OfferID), 10),
		"client_id":  strconv.FormatUint(uint64(booking.ClientID), 10),
	}

	result, err := s.stripeClient.CreatePaymentIntent(ctx, amountCents, s.currency, metadata)
	if err != nil {
		return nil, err
	}

	// payments.booking_id is unique, so a prior failed/cancelled attempt is
	// reset in place rather than getting a second row
	existing := pending
	if existing == nil {
		existing, err = s.paymentRepo.FindByBooking(ctx, tx, booking.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find payment for booking: %w", err)
		}
	}

	if existing != nil {
		err = s.paymentRepo.UpdateIntentID(ctx, tx, existing.ID, result.ID)
	} else {
		err = s.paymentRepo.Create(ctx, tx, &model.Payment{
			BookingID:       booking.ID,
			PaymentIntentID: result.ID,
			Amount:          booking.TotalAmount,
			Status:          model.PaymentStatusPending,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("store payment: %w", err)
	}

	return result, nil
}

func (s *paymentServiceImpl) CreatePaymentIntentForBooking(ctx context.Context, bookingID uint) (*client.PaymentIntentResult, error) {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("Booking")
		}
		return nil, fmt.Errorf("find booking by id: %w", err)
	}

	var result *client.PaymentIntentResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result, err = s.EnsurePaymentIntent(ctx, tx, booking)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) (*dto.WebhookResult, error) {
	event, err := s.stripeClient.ConstructEvent(payload, sigHeader)
	if err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"event_type": event.Type,
		"event_id":   event.ID,
	})

	if event.ID != "" {
		seen, err := s.webhookEventRepo.Exists(ctx, event.ID)
		if err != nil {
			return nil, fmt.Errorf("check webhook event: %w", err)
		}
		if seen {
			log.Info("duplicate webhook event, already processed")
			return &dto.WebhookResult{EventType: event.Type, EventID: event.ID}, nil
		}
	}

	switch event.Type {
	case eventPaymentSucceeded:
		err = s.reconcile(ctx, event.Data.Object.ID, model.PaymentStatusCompleted, model.BookingStatusConfirmed)
	case eventPaymentFailed:
		err = s.reconcile(ctx, event.Data.Object.ID, model.PaymentStatusFailed, model.BookingStatusCancelled)
	case eventPaymentCanceled:
		err = s.reconcile(ctx, event.Data.Object.ID, model.PaymentStatusCancelled, model.BookingStatusCancelled)
	default:
		log.Info("unhandled webhook event type")
	}
	if err != nil {
		return nil, err
	}

	if event.ID != "" {
		if err := s.webhookEventRepo.MarkProcessed(ctx, event.ID, event.Type); err != nil {
			// dedup is an optimization; a retry of this event is still a no-op
			log.WithError(err).Warn("failed to record webhook event")
		}
	}

	log.Info("webhook event processed")
	return &dto.WebhookResult{EventType: event.Type, EventID: event.ID}, nil
}

// reconcile applies one webhook event to the matching payment and its booking
// inside a single transaction. An unknown intent id is acknowledged without
// mutation so the gateway stops retrying events that are legitimately
// inapplicable.
func (s *paymentServiceImpl) reconcile(ctx context.Context, intentID string, paymentStatus model.PaymentStatus, bookingStatus model.BookingStatus) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.paymentRepo.FindByIntentID(ctx, tx, intentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logrus.WithField("payment_intent_id", intentID).Warn("payment not found for payment intent")
				return nil
			}
			return fmt.Errorf("find payment by intent id: %w", err)
		}

		var applied bool
		switch paymentStatus {
		case model.PaymentStatusCompleted:
			applied, err = s.paymentRepo.MarkCompleted(ctx, tx, payment)
		case model.PaymentStatusFailed:
			applied, err = s.paymentRepo.MarkFailed(ctx, tx, payment)
		case model.PaymentStatusCancelled:
			applied, err = s.paymentRepo.MarkCancelled(ctx, tx, payment)
		default:
			return fmt.Errorf("unsupported payment transition %q", paymentStatus)
		}
		if err != nil {
			return fmt.Errorf("mark payment %s: %w", paymentStatus, err)
		}

		// A no-op transition means the payment already settled in a
		// different terminal status; the booking must keep reflecting
		// that earlier outcome, not this out-of-order event.
		if !applied {
			logrus.WithFields(logrus.Fields{
				"payment_id":        payment.ID,
				"payment_intent_id": intentID,
				"payment_status":    payment.Status,
				"event_status":      paymentStatus,
			}).Warn("payment already settled, ignoring conflicting event")
			return nil
		}

		if err := s.bookingRepo.UpdateStatus(ctx, tx, payment.BookingID, bookingStatus); err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"payment_id":        payment.ID,
			"booking_id":        payment.BookingID,
			"payment_intent_id": intentID,
			"payment_status":    paymentStatus,
			"booking_status":    bookingStatus,
		}).Info("payment reconciled")
		return nil
	})
}
