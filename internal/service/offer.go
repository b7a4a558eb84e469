package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"healthcare-booking-api/internal/apperror"
	"healthcare-booking-api/internal/model"
	"healthcare-booking-api/internal/repository"
)

type OfferService interface {
	ListOffers(ctx context.Context) ([]*model.Offer, error)
	GetOfferByID(ctx context.Context, offerID uint) (*model.Offer, error)
}

type offerServiceImpl struct {
	offerRepo repository.OfferRepository
}

func NewOfferService(offerRepo repository.OfferRepository) OfferService {
	return &offerServiceImpl{
		offerRepo: offerRepo,
	}
}

func (s *offerServiceImpl) ListOffers(ctx context.Context) ([]*model.Offer, error) {
	return s.offerRepo.List(ctx)
}

func (s *offerServiceImpl) GetOfferByID(ctx context.Context, offerID uint) (*model.Offer, error) {
	offer, err := s.offerRepo.FindByID(ctx, nil, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("Offer")
		}
		return nil, fmt.Errorf("find offer by id: %w", err)
	}

	return offer, nil
}
