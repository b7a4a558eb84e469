package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

type Offer struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ProviderID  uint            `gorm:"index;not null" json:"provider_id"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone     string    `gorm:"size:32" json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Booking struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OfferID     uint            `gorm:"index;not null" json:"offer_id"`
	ClientID    uint            `gorm:"index;not null" json:"client_id"`
	BookingDate time.Time       `gorm:"not null" json:"booking_date"`
	Status      BookingStatus   `gorm:"size:32;index;not null" json:"status"`
	// snapshot of Offer.Price at creation time, decoupled from later price changes
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Offer   *Offer   `gorm:"foreignKey:OfferID" json:"offer,omitempty"`
	Client  *Client  `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Payment *Payment `gorm:"foreignKey:BookingID" json:"payment,omitempty"`
}

type Payment struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	BookingID       uint            `gorm:"uniqueIndex;not null" json:"booking_id"`
	PaymentIntentID string          `gorm:"size:64;index" json:"payment_intent_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status          PaymentStatus   `gorm:"size:32;index;not null" json:"status"`
	TransactionID   string          `gorm:"size:64" json:"transaction_id"`
	PaidAt          *time.Time      `json:"paid_at"`
	FailedAt        *time.Time      `json:"failed_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type WebhookEvent struct {
	EventID     string    `gorm:"primaryKey;size:128;not null" json:"event_id"`
	EventType   string    `gorm:"size:64;index" json:"event_type"`
	ProcessedAt time.Time `json:"processed_at"`
	CreatedAt   time.Time `json:"created_at"`
}
