package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"healthcare-booking-api/internal/apperror"
	"healthcare-booking-api/internal/client"
	"healthcare-booking-api/internal/dto"
	"healthcare-booking-api/internal/model"
	"healthcare-booking-api/internal/notifier"
	"healthcare-booking-api/internal/repository"
)

type BookingService interface {
	CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResult, error)
	GetBookingByID(ctx context.Context, bookingID uint) (*model.Booking, error)
}

type bookingServiceImpl struct {
	db             *gorm.DB
	offerRepo      repository.OfferRepository
	bookingRepo    repository.BookingRepository
	clientService  ClientService
	paymentService PaymentService
	notifier       notifier.Notifier
}

func NewBookingService(
	db *gorm.DB,
	offerRepo repository.OfferRepository,
	bookingRepo repository.BookingRepository,
	clientService ClientService,
	paymentService PaymentService,
	bookingNotifier notifier.Notifier,
) BookingService {
	return &bookingServiceImpl{
		db:             db,
		offerRepo:      offerRepo,
		bookingRepo:    bookingRepo,
		clientService:  clientService,
		paymentService: paymentService,
		notifier:       bookingNotifier,
	}
}

// CreateBooking runs offer lookup, client resolution, booking insert and
// payment intent creation in one transaction; nothing persists if any step
// fails. The gateway call itself is not transactional with the database: a
// crash between intent creation and commit leaves an inert orphaned intent at
// the gateway, which the retrieve-then-create logic tolerates.
func (s *bookingServiceImpl) CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.CreateBookingResult, error) {
	bookingDate, fieldErrs := req.Validate(time.Now())
	if len(fieldErrs) > 0 {
		return nil, &apperror.ValidationError{Fields: fieldErrs}
	}

	var (
		booking *model.Booking
		intent  *client.PaymentIntentResult
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		offer, err := s.offerRepo.FindByID(ctx, tx, req.OfferID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NewNotFound("Offer")
			}
			return fmt.Errorf("find offer by id: %w", err)
		}

		bookingClient, err := s.clientService.FindOrCreateClient(ctx, tx, req.ClientEmail, req.ClientName, req.ClientPhone)
		if err != nil {
			return fmt.Errorf("find or create client: %w", err)
		}

		booking = &model.Booking{
			OfferID:     offer.ID,
			ClientID:    bookingClient.ID,
			BookingDate: bookingDate,
			Status:      model.BookingStatusPending,
			TotalAmount: offer.Price,
		}
		if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
			return fmt.Errorf("store booking: %w", err)
		}

		intent, err = s.paymentService.EnsurePaymentIntent(ctx, tx, booking)
		return err
	})
	if err != nil {
		return nil, err
	}

	loaded, err := s.bookingRepo.FindByID(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("reload booking: %w", err)
	}

	// post-commit, best-effort; must never re-fail the committed booking
	go s.dispatchBookingCreated(loaded)

	return &dto.CreateBookingResult{
		Booking:      loaded,
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (s *bookingServiceImpl) GetBookingByID(ctx context.Context, bookingID uint) (*model.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("Booking")
		}
		return nil, fmt.Errorf("find booking by id: %w", err)
	}

	return booking, nil
}

func (s *bookingServiceImpl) dispatchBookingCreated(booking *model.Booking) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.notifier.BookingCreated(ctx, booking); err != nil {
		logrus.WithError(err).WithField("booking_id", booking.ID).Error("booking created notification failed")
	}
}
