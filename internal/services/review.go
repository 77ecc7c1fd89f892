package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velotrace/velotrace-backend/internal/apierr"
	"github.com/velotrace/velotrace-backend/internal/logger"
	"github.com/velotrace/velotrace-backend/internal/repos"
	"github.com/velotrace/velotrace-backend/internal/requestdata"
	"github.com/velotrace/velotrace-backend/internal/types"
)

// ReviewInput names the attachment point and the opinion. Exactly one of
// ProductID, PartID, HistoryID must be set; part and history attachments
// resolve their catalog record so ratings pool onto the product page.
type ReviewInput struct {
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	PartID    *uuid.UUID `json:"part_id,omitempty"`
	HistoryID *uuid.UUID `json:"history_id,omitempty"`
	Rating    int        `json:"rating"`
	Body      string     `json:"body,omitempty"`
	PhotoURL  string     `json:"photo_url,omitempty"`
}

type ReviewService interface {
	UpsertReview(ctx context.Context, in ReviewInput) (*types.Review, error)
	DeleteReview(ctx context.Context, reviewID uuid.UUID) error
	ListProductReviews(ctx context.Context, productID uuid.UUID) ([]*types.Review, error)
}

type reviewService struct {
	db          *gorm.DB
	log         *logger.Logger
	bikeRepo    repos.BikeRepo
	partRepo    repos.PartRepo
	historyRepo repos.PartHistoryRepo
	productRepo repos.ProductRepo
	reviewRepo  repos.ReviewRepo
	productSvc  ProductService
}

func NewReviewService(db *gorm.DB, log *logger.Logger, bikeRepo repos.BikeRepo, partRepo repos.PartRepo, historyRepo repos.PartHistoryRepo, productRepo repos.ProductRepo, reviewRepo repos.ReviewRepo, productSvc ProductService) ReviewService {
	return &reviewService{
		db:          db,
		log:         log.With("service", "ReviewService"),
		bikeRepo:    bikeRepo,
		partRepo:    partRepo,
		historyRepo: historyRepo,
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
		productSvc:  productSvc,
	}
}

func (s *reviewService) UpsertReview(ctx context.Context, in ReviewInput) (*types.Review, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, apierr.NotFound("review subject")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apierr.Validation("rating must be between 1 and 5, got %d", in.Rating)
	}
	if countAttachments(in) != 1 {
		return nil, apierr.Validation("a review attaches to exactly one of product, part, or history entry")
	}

	var out *types.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		productID, err := s.resolveAttachment(ctx, tx, userID, in)
		if err != nil {
			return err
		}
		row := &types.Review{
			UserID:    userID,
			ProductID: productID,
			PartID:    in.PartID,
			HistoryID: in.HistoryID,
			Rating:    in.Rating,
			Body:      in.Body,
			PhotoURL:  in.PhotoURL,
		}
		out, err = s.reviewRepo.Upsert(ctx, tx, row)
		if err != nil {
			return err
		}
		if productID != nil {
			return s.productSvc.RecomputeAggregates(ctx, tx, *productID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// resolveAttachment verifies the user may review the named subject and
// returns the catalog record the rating pools onto, if any.
func (s *reviewService) resolveAttachment(ctx context.Context, tx *gorm.DB, userID uuid.UUID, in ReviewInput) (*uuid.UUID, error) {
	switch {
	case in.ProductID != nil:
		product, err := s.productRepo.GetByID(ctx, tx, *in.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, apierr.NotFound("product")
		}
		return in.ProductID, nil

	case in.PartID != nil:
		part, err := s.partRepo.GetByID(ctx, tx, *in.PartID)
		if err != nil {
			return nil, err
		}
		if part == nil {
			return nil, apierr.NotFound("part")
		}
		if err := s.requireBikeOwner(ctx, tx, part.BikeID, userID, "part"); err != nil {
			return nil, err
		}
		return part.ProductID, nil

	default:
		fact, err := s.historyRepo.GetByID(ctx, tx, *in.HistoryID)
		if err != nil {
			return nil, err
		}
		if fact == nil {
			return nil, apierr.NotFound("history entry")
		}
		if err := s.requireBikeOwner(ctx, tx, fact.BikeID, userID, "history entry"); err != nil {
			return nil, err
		}
		return fact.ProductID, nil
	}
}

func (s *reviewService) requireBikeOwner(ctx context.Context, tx *gorm.DB, bikeID, userID uuid.UUID, subject string) error {
	bike, err := s.bikeRepo.GetByIDForUser(ctx, tx, bikeID, userID)
	if err != nil {
		return err
	}
	if bike == nil {
		return apierr.NotFound(subject)
	}
	return nil
}

func (s *reviewService) DeleteReview(ctx context.Context, reviewID uuid.UUID) error {
	userID := requestdata.UserID(ctx)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.reviewRepo.GetByIDForUser(ctx, tx, reviewID, userID)
		if err != nil {
			return err
		}
		if row == nil {
			return apierr.NotFound("review")
		}
		if err := s.reviewRepo.Delete(ctx, tx, row.ID); err != nil {
			return err
		}
		if row.ProductID != nil {
			return s.productSvc.RecomputeAggregates(ctx, tx, *row.ProductID)
		}
		return nil
	})
}

func (s *reviewService) ListProductReviews(ctx context.Context, productID uuid.UUID) ([]*types.Review, error) {
	product, err := s.productRepo.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apierr.NotFound("product")
	}
	return s.reviewRepo.ListByProduct(ctx, nil, productID)
}

func countAttachments(in ReviewInput) int {
	n := 0
	if in.ProductID != nil {
		n++
	}
	if in.PartID != nil {
		n++
	}
	if in.HistoryID != nil {
		n++
	}
	return n
}
