package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"healthcare-booking-api/internal/model"
)

// PaymentRepository owns the Payment status machine. Transitions only move a
// pending payment to a terminal status; re-applying a transition to a payment
// already in a terminal status is a no-op that still succeeds, so webhook
// retries (at-least-once delivery) converge instead of erroring.
type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error
	FindByIntentID(ctx context.Context, tx *gorm.DB, intentID string) (*model.Payment, error)
	FindByBooking(ctx context.Context, tx *gorm.DB, bookingID uint) (*model.Payment, error)
	FindByBookingAndStatus(ctx context.Context, tx *gorm.DB, bookingID uint, status model.PaymentStatus) (*model.Payment, error)
	FindPendingWithIntent(ctx context.Context, tx *gorm.DB, bookingID uint) (*model.Payment, error)
	UpdateIntentID(ctx context.Context, tx *gorm.DB, paymentID uint, intentID string) error
	// The Mark methods transition a payment out of pending. They report
	// whether the payment is in the target status afterwards, so callers
	// can tell a real transition (or an idempotent replay) apart from a
	// guarded no-op against a conflicting terminal status.
	MarkCompleted(ctx context.Context, tx *gorm.DB, payment *model.Payment) (bool, error)
	MarkFailed(ctx context.Context, tx *gorm.DB, payment *model.Payment) (bool, error)
	MarkCancelled(ctx context.Context, tx *gorm.DB, payment *model.Payment) (bool, error)
	CountByBooking(ctx context.Context, bookingID uint) (int64, error)
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{
		db: db,
	}
}

func (r *paymentRepoImpl) Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	return tx.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) FindByIntentID(ctx context.Context, tx *gorm.DB, intentID string) (*model.Payment, error) {
	var payment model.Payment
	err := tx.WithContext(ctx).
		Where("payment_intent_id = ?", intentID).
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) FindByBooking(ctx context.Context, tx *gorm.DB, bookingID uint) (*model.Payment, error) {
	var payment model.Payment
	err := tx.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) FindByBookingAndStatus(ctx context.Context, tx *gorm.DB, bookingID uint, status model.PaymentStatus) (*model.Payment, error) {
	var payment model.Payment
	err := tx.WithContext(ctx).
		Where("booking_id = ? AND status = ?", bookingID, status).
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) FindPendingWithIntent(ctx context.Context, tx *gorm.DB, bookingID uint) (*model.Payment, error) {
	var payment model.Payment
	err := tx.WithContext(ctx).
		Where("booking_id = ? AND status = ? AND payment_intent_id <> ''", bookingID, model.PaymentStatusPending).
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) UpdateIntentID(ctx context.Context, tx *gorm.DB, paymentID uint, intentID string) error {
	return tx.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ?", paymentID).
		Updates(map[string]interface{}{
			"payment_intent_id": intentID,
			"status":            model.PaymentStatusPending,
			"updated_at":        time.Now(),
		}).Error
}

func (r *paymentRepoImpl) MarkCompleted(ctx context.Context, tx *gorm.DB, payment *model.Payment) (bool, error) {
	if payment.Status == model.PaymentStatusCompleted {
		return true, nil
	}
	result := tx.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", payment.ID, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":         model.PaymentStatusCompleted,
			"transaction_id": payment.PaymentIntentID,
			"paid_at":        time.Now(),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *paymentRepoImpl) MarkFailed(ctx context.Context, tx *gorm.DB, payment *model.Payment) (bool, error) {
	if payment.Status == model.PaymentStatusFailed {
		return true, nil
	}
	result := tx.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", payment.ID, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":     model.PaymentStatusFailed,
			"failed_at":  time.Now(),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *paymentRepoImpl) MarkCancelled(ctx context.Context, tx *gorm.DB, payment *model.Payment) (bool, error) {
	if payment.Status == model.PaymentStatusCancelled {
		return true, nil
	}
	result := tx.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", payment.ID, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":     model.PaymentStatusCancelled,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *paymentRepoImpl) CountByBooking(ctx context.Context, bookingID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("booking_id = ?", bookingID).
		Count(&count).Error

	return count, err
}
