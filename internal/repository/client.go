package repository

import (
	"context"

	"gorm.io/gorm"

	"healthcare-booking-api/internal/model"
)

type ClientRepository interface {
	// FindOrCreate looks a client up by exact email match. An existing record
	// is returned unmodified; name/phone only apply on first creation.
	FindOrCreate(ctx context.Context, tx *gorm.DB, email, name, phone string) (*model.Client, error)
	FindByID(ctx context.Context, clientID uint) (*model.Client, error)
}

type clientRepoImpl struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepoImpl{
		db: db,
	}
}

func (r *clientRepoImpl) FindOrCreate(ctx context.Context, tx *gorm.DB, email, name, phone string) (*model.Client, error) {
	var client model.Client
	err := tx.WithContext(ctx).
		Where(model.Client{Email: email}).
		Attrs(model.Client{Name: name, Phone: phone}).
		FirstOrCreate(&client).Error

	if err != nil {
		return nil, err
	}

	return &client, nil
}

func (r *clientRepoImpl) FindByID(ctx context.Context, clientID uint) (*model.Client, error) {
	var client model.Client
	err := r.db.WithContext(ctx).
		Where("id = ?", clientID).
		First(&client).Error

	if err != nil {
		return nil, err
	}

	return &client, nil
}
