package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/velotrace/velotrace-backend/internal/apierr"
	"github.com/velotrace/velotrace-backend/internal/catalog"
	"github.com/velotrace/velotrace-backend/internal/logger"
	"github.com/velotrace/velotrace-backend/internal/repos"
	"github.com/velotrace/velotrace-backend/internal/types"
)

const productCacheTTL = 10 * time.Minute

type ProductService interface {
	// ResolveOrCreate canonicalizes the category, normalizes brand/model and
	// atomically upserts the catalog record, counting one installation.
	// Returns nil when brand and model are both empty (no catalog link).
	ResolveOrCreate(ctx context.Context, tx *gorm.DB, category catalog.Category, brand, model string) (*types.Product, error)
	RecomputeAggregates(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error
	ReleaseInstallation(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*types.Product, error)
	ListByCategory(ctx context.Context, category catalog.Category) ([]*types.Product, error)
}

type productService struct {
	db          *gorm.DB
	log         *logger.Logger
	productRepo repos.ProductRepo
	reviewRepo  repos.ReviewRepo
	historyRepo repos.PartHistoryRepo
	cache       *redis.Client
}

func NewProductService(db *gorm.DB, log *logger.Logger, productRepo repos.ProductRepo, reviewRepo repos.ReviewRepo, historyRepo repos.PartHistoryRepo, cache *redis.Client) ProductService {
	return &productService{
		db:          db,
		log:         log.With("service", "ProductService"),
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
		historyRepo: historyRepo,
		cache:       cache,
	}
}

func (s *productService) ResolveOrCreate(ctx context.Context, tx *gorm.DB, category catalog.Category, brand, model string) (*types.Product, error) {
	brand = strings.TrimSpace(brand)
	model = strings.TrimSpace(model)
	if brand == "" && model == "" {
		return nil, nil
	}
	canonical := string(catalog.Canonical(category))
	brandNorm := catalog.NormalizeName(brand)
	modelNorm := catalog.NormalizeName(model)

	row := &types.Product{
		Category:           canonical,
		Brand:              brand,
		Model:              model,
		BrandNorm:          brandNorm,
		ModelNorm:          modelNorm,
		TotalInstallations: 1,
	}
	err := s.productRepo.UpsertInstallation(ctx, tx, row)
	if err != nil && isDuplicateErr(err) {
		// A race lost against another insert of the same triple; the row
		// exists now, so one more attempt counts our installation.
		err = s.productRepo.UpsertInstallation(ctx, tx, row)
	}
	if err != nil {
		if isDuplicateErr(err) {
			return nil, apierr.ConflictRetryable(err)
		}
		return nil, err
	}

	out, err := s.productRepo.GetByTriple(ctx, tx, canonical, brandNorm, modelNorm)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, apierr.ConflictRetryable(errors.New("catalog record vanished after upsert"))
	}
	s.invalidate(ctx, out.ID)
	return out, nil
}

// RecomputeAggregates rebuilds the derived columns from the underlying
// facts. It reads whatever is in the store at call time, so calling it
// twice with no intervening writes produces identical numbers.
func (s *productService) RecomputeAggregates(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return nil
	}
	totalReviews, avgRating, err := s.reviewRepo.AggregateForProduct(ctx, tx, productID)
	if err != nil {
		return err
	}
	avgLifespan, err := s.historyRepo.AverageLifespanForProduct(ctx, tx, productID)
	if err != nil {
		return err
	}
	if err := s.productRepo.UpdateAggregates(ctx, tx, productID, avgRating, int(totalReviews), avgLifespan); err != nil {
		return err
	}
	s.invalidate(ctx, productID)
	return nil
}

// ReleaseInstallation backs out one installation count, used when a
// replacement fact referencing the record is undone.
func (s *productService) ReleaseInstallation(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return nil
	}
	if err := s.productRepo.AddInstallations(ctx, tx, productID, -1); err != nil {
		return err
	}
	s.invalidate(ctx, productID)
	return nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*types.Product, error) {
	if id == uuid.Nil {
		return nil, apierr.NotFound("product")
	}
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, productCacheKey(id)).Bytes()
		if err == nil {
			var cached types.Product
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				return &cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.Warn("product cache read failed", "error", err)
		}
	}
	row, err := s.productRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apierr.NotFound("product")
	}
	if s.cache != nil {
		if raw, err := json.Marshal(row); err == nil {
			if err := s.cache.Set(ctx, productCacheKey(id), raw, productCacheTTL).Err(); err != nil {
				s.log.Warn("product cache write failed", "error", err)
			}
		}
	}
	return row, nil
}

func (s *productService) ListByCategory(ctx context.Context, category catalog.Category) ([]*types.Product, error) {
	canonical := string(catalog.Canonical(category))
	return s.productRepo.ListByCategory(ctx, nil, canonical)
}

func (s *productService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil || id == uuid.Nil {
		return
	}
	if err := s.cache.Del(ctx, productCacheKey(id)).Err(); err != nil {
		s.log.Warn("product cache invalidation failed", "product_id", id.String(), "error", err)
	}
}

func productCacheKey(id uuid.UUID) string {
	return "product:" + id.String()
}

func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
