package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"healthcare-booking-api/internal/model"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *model.Booking) error
	// FindByID loads the booking with its offer, client and payment attached.
	FindByID(ctx context.Context, bookingID uint) (*model.Booking, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, bookingID uint, status model.BookingStatus) error
}

type bookingRepoImpl struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepoImpl{
		db: db,
	}
}

func (r *bookingRepoImpl) Create(ctx context.Context, tx *gorm.DB, booking *model.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepoImpl) FindByID(ctx context.Context, bookingID uint) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).
		Preload("Offer").
		Preload("Client").
		Preload("Payment").
		Where("id = ?", bookingID).
		First(&booking).Error

	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func (r *bookingRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, bookingID uint, status model.BookingStatus) error {
	return tx.WithContext(ctx).Model(&model.Booking{}).
		Where("id = ?", bookingID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}
