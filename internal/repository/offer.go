package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"healthcare-booking-api/internal/model"
)

type OfferRepository interface {
	Seed(ctx context.Context) error
	// FindByID reads through tx when given one, so callers inside a
	// transaction do not escape to a second pool connection.
	FindByID(ctx context.Context, tx *gorm.DB, offerID uint) (*model.Offer, error)
	List(ctx context.Context) ([]*model.Offer, error)
}

type offerRepoImpl struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepoImpl{
		db: db,
	}
}

// Seed inserts a few sample offers for local development.
func (r *offerRepoImpl) Seed(ctx context.Context) error {
	offers := []model.Offer{
		{ID: 1, ProviderID: 1, Title: "General Consultation", Description: "30 minute general health consultation", Price: decimal.NewFromInt(150)},
		{ID: 2, ProviderID: 1, Title: "Dental Checkup", Description: "Routine dental examination and cleaning", Price: decimal.NewFromInt(200)},
		{ID: 3, ProviderID: 2, Title: "Physiotherapy Session", Description: "60 minute physiotherapy session", Price: decimal.NewFromFloat(89.50)},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&offers).Error
}

func (r *offerRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, offerID uint) (*model.Offer, error) {
	db := tx
	if db == nil {
		db = r.db
	}

	var offer model.Offer
	err := db.WithContext(ctx).
		Where("id = ?", offerID).
		First(&offer).Error

	if err != nil {
		return nil, err
	}

	return &offer, nil
}

func (r *offerRepoImpl) List(ctx context.Context) ([]*model.Offer, error) {
	var offers []*model.Offer
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&offers).
		Error

	if err != nil {
		return nil, err
	}

	return offers, nil
}
