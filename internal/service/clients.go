package service

import (
	"context"

	"gorm.io/gorm"

	"healthcare-booking-api/internal/model"
	"healthcare-booking-api/internal/repository"
)

// ClientService is the client directory: find-or-create by email.
type ClientService interface {
	FindOrCreateClient(ctx context.Context, tx *gorm.DB, email, name, phone string) (*model.Client, error)
	GetClientByID(ctx context.Context, clientID uint) (*model.Client, error)
}

type clientServiceImpl struct {
	clientRepo repository.ClientRepository
}

func NewClientService(clientRepo repository.ClientRepository) ClientService {
	return &clientServiceImpl{
		clientRepo: clientRepo,
	}
}

func (s *clientServiceImpl) FindOrCreateClient(ctx context.Context, tx *gorm.DB, email, name, phone string) (*model.Client, error) {
	return s.clientRepo.FindOrCreate(ctx, tx, email, name, phone)
}

func (s *clientServiceImpl) GetClientByID(ctx context.Context, clientID uint) (*model.Client, error) {
	return s.clientRepo.FindByID(ctx, clientID)
}
