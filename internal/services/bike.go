package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velotrace/velotrace-backend/internal/apierr"
	"github.com/velotrace/velotrace-backend/internal/logger"
	"github.com/velotrace/velotrace-backend/internal/repos"
	"github.com/velotrace/velotrace-backend/internal/requestdata"
	"github.com/velotrace/velotrace-backend/internal/types"
)

type BikeService interface {
	CreateBike(ctx context.Context, name string) (*types.Bike, error)
	GetBike(ctx context.Context, bikeID uuid.UUID) (*types.Bike, error)
	ListBikes(ctx context.Context) ([]*types.Bike, error)
}

type bikeService struct {
	db       *gorm.DB
	log      *logger.Logger
	bikeRepo repos.BikeRepo
}

func NewBikeService(db *gorm.DB, log *logger.Logger, bikeRepo repos.BikeRepo) BikeService {
	return &bikeService{db: db, log: log.With("service", "BikeService"), bikeRepo: bikeRepo}
}

func (s *bikeService) CreateBike(ctx context.Context, name string) (*types.Bike, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, apierr.NotFound("bike")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierr.Validation("bike name is required")
	}
	return s.bikeRepo.Create(ctx, nil, &types.Bike{UserID: userID, Name: name})
}

func (s *bikeService) GetBike(ctx context.Context, bikeID uuid.UUID) (*types.Bike, error) {
	bike, err := s.bikeRepo.GetByIDForUser(ctx, nil, bikeID, requestdata.UserID(ctx))
	if err != nil {
		return nil, err
	}
	if bike == nil {
		return nil, apierr.NotFound("bike")
	}
	return bike, nil
}

func (s *bikeService) ListBikes(ctx context.Context) ([]*types.Bike, error) {
	return s.bikeRepo.ListByUser(ctx, nil, requestdata.UserID(ctx))
}
