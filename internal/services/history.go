package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velotrace/velotrace-backend/internal/apierr"
	"github.com/velotrace/velotrace-backend/internal/catalog"
	"github.com/velotrace/velotrace-backend/internal/logger"
	"github.com/velotrace/velotrace-backend/internal/repos"
	"github.com/velotrace/velotrace-backend/internal/requestdata"
	"github.com/velotrace/velotrace-backend/internal/types"
)

type HistoryService interface {
	ListBikeHistory(ctx context.Context, bikeID uuid.UUID) ([]*types.PartHistory, error)
	ListPartHistory(ctx context.Context, partID uuid.UUID) ([]*types.PartHistory, error)
	// UndoReplacement reverses the newest replacement fact of a slot and
	// returns the slot as it stood before that replacement.
	UndoReplacement(ctx context.Context, historyID uuid.UUID) (*types.Part, error)
}

type historyService struct {
	db          *gorm.DB
	log         *logger.Logger
	bikeRepo    repos.BikeRepo
	partRepo    repos.PartRepo
	historyRepo repos.PartHistoryRepo
	reviewRepo  repos.ReviewRepo
	productSvc  ProductService
	defaults    catalog.Defaults
}

func NewHistoryService(db *gorm.DB, log *logger.Logger, bikeRepo repos.BikeRepo, partRepo repos.PartRepo, historyRepo repos.PartHistoryRepo, reviewRepo repos.ReviewRepo, productSvc ProductService, defaults catalog.Defaults) HistoryService {
	return &historyService{
		db:          db,
		log:         log.With("service", "HistoryService"),
		bikeRepo:    bikeRepo,
		partRepo:    partRepo,
		historyRepo: historyRepo,
		reviewRepo:  reviewRepo,
		productSvc:  productSvc,
		defaults:    defaults,
	}
}

func (s *historyService) ListBikeHistory(ctx context.Context, bikeID uuid.UUID) ([]*types.PartHistory, error) {
	userID := requestdata.UserID(ctx)
	bike, err := s.bikeRepo.GetByIDForUser(ctx, nil, bikeID, userID)
	if err != nil {
		return nil, err
	}
	if bike == nil {
		return nil, apierr.NotFound("bike")
	}
	return s.historyRepo.ListByBike(ctx, nil, bikeID)
}

func (s *historyService) ListPartHistory(ctx context.Context, partID uuid.UUID) ([]*types.PartHistory, error) {
	userID := requestdata.UserID(ctx)
	part, err := s.partRepo.GetByID(ctx, nil, partID)
	if err != nil {
		return nil, err
	}
	if part == nil {
		return nil, apierr.NotFound("part")
	}
	bike, err := s.bikeRepo.GetByIDForUser(ctx, nil, part.BikeID, userID)
	if err != nil {
		return nil, err
	}
	if bike == nil {
		return nil, apierr.NotFound("part")
	}
	return s.historyRepo.ListByPart(ctx, nil, partID)
}

// UndoReplacement is the left inverse of a replacement: the deleted fact's
// wear snapshot flows back onto the slot, the previous fact supplies the
// restored identity, and the catalog counts are backed out. Only the newest
// fact of a part can be undone; anything older is frozen.
func (s *historyService) UndoReplacement(ctx context.Context, historyID uuid.UUID) (*types.Part, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, apierr.NotFound("history entry")
	}

	var out *types.Part
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fact, err := s.historyRepo.GetByID(ctx, tx, historyID)
		if err != nil {
			return err
		}
		if fact == nil {
			return apierr.NotFound("history entry")
		}
		bike, err := s.bikeRepo.GetByIDForUserLocked(ctx, tx, fact.BikeID, userID)
		if err != nil {
			return err
		}
		if bike == nil {
			return apierr.NotFound("history entry")
		}
		latest, err := s.historyRepo.LatestForPart(ctx, tx, fact.PartID)
		if err != nil {
			return err
		}
		if latest == nil || latest.ID != fact.ID {
			return apierr.InvalidState("only the most recent replacement of a part can be undone")
		}
		part, err := s.partRepo.GetByIDLocked(ctx, tx, fact.PartID)
		if err != nil {
			return err
		}
		if part == nil {
			return apierr.NotFound("part")
		}

		prev, err := s.historyRepo.PreviousForPart(ctx, tx, fact.PartID, fact.ID)
		if err != nil {
			return err
		}

		// Reviews written against this replacement event lose their subject.
		if n, err := s.reviewRepo.DeleteByHistoryID(ctx, tx, fact.ID); err != nil {
			return err
		} else if n > 0 {
			s.log.Info("removed reviews attached to undone replacement",
				"history_id", fact.ID.String(), "count", n)
		}
		if err := s.historyRepo.Delete(ctx, tx, fact.ID); err != nil {
			return err
		}

		if prev != nil {
			part.Brand = prev.Brand
			part.Model = prev.Model
			part.ProductID = prev.ProductID
			part.Attributes = prev.Attributes
			// Facts snapshot the incoming lifespan; zero means the fact
			// predates that column, so fall back to the category default.
			part.ExpectedLifespan = prev.ExpectedLifespan
			if part.ExpectedLifespan == 0 {
				part.ExpectedLifespan = s.defaults.DefaultLifespan(catalog.Category(part.Category))
			}
			part.WearAccumulated = fact.WearAtReplacement
			installedAt := prev.CreatedAt
			part.InstalledAt = &installedAt
		} else {
			// No earlier fact: the displaced occupant predates history
			// tracking, so there is nothing to restore it from.
			clearSlot(part)
		}
		if err := s.partRepo.Save(ctx, tx, part); err != nil {
			return err
		}

		// The incoming product loses the installation this fact counted; the
		// outgoing product loses a lifespan sample.
		if fact.ProductID != nil {
			if err := s.productSvc.ReleaseInstallation(ctx, tx, *fact.ProductID); err != nil {
				return err
			}
			if err := s.productSvc.RecomputeAggregates(ctx, tx, *fact.ProductID); err != nil {
				return err
			}
		}
		if fact.PrevProductID != nil && (fact.ProductID == nil || *fact.PrevProductID != *fact.ProductID) {
			if err := s.productSvc.RecomputeAggregates(ctx, tx, *fact.PrevProductID); err != nil {
				return err
			}
		}
		out = part
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
