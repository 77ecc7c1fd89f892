package services

import (
	"testing"

	"github.com/velotrace/velotrace-backend/internal/catalog"
)

func TestResolveOrCreatePoolsAliasedCategories(t *testing.T) {
	env := newTestEnv(t)

	front, err := env.productSvc.ResolveOrCreate(env.ctx, env.tx, catalog.CategoryTireFront, "Continental", "GP 5000")
	if err != nil {
		t.Fatalf("resolve front: %v", err)
	}
	rear, err := env.productSvc.ResolveOrCreate(env.ctx, env.tx, catalog.CategoryTireRear, "continental", "gp  5000")
	if err != nil {
		t.Fatalf("resolve rear: %v", err)
	}
	if front.ID != rear.ID {
		t.Fatalf("front and rear tires should pool onto one catalog record")
	}
	if rear.Category != string(catalog.CategoryTire) {
		t.Errorf("category = %q, want pooled %q", rear.Category, catalog.CategoryTire)
	}
	if rear.TotalInstallations != 2 {
		t.Errorf("installations = %d, want 2", rear.TotalInstallations)
	}
	// Display casing comes from the first writer.
	if rear.Brand != "Continental" {
		t.Errorf("brand = %q, want original casing preserved", rear.Brand)
	}
}

func TestResolveOrCreateEmptyIdentity(t *testing.T) {
	env := newTestEnv(t)

	product, err := env.productSvc.ResolveOrCreate(env.ctx, env.tx, catalog.CategoryChain, "  ", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if product != nil {
		t.Errorf("blank identity should not create a catalog record")
	}
}

func TestRecomputeAggregatesIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	product, err := env.productSvc.ResolveOrCreate(env.ctx, env.tx, catalog.CategoryChain, "Shimano", "CN-HG701")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := env.reviewSvc.UpsertReview(env.ctx, ReviewInput{ProductID: &product.ID, Rating: 4}); err != nil {
		t.Fatalf("review: %v", err)
	}

	if err := env.productSvc.RecomputeAggregates(env.ctx, env.tx, product.ID); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	first, err := env.productRepo.GetByID(env.ctx, env.tx, product.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if err := env.productSvc.RecomputeAggregates(env.ctx, env.tx, product.ID); err != nil {
		t.Fatalf("recompute again: %v", err)
	}
	second, err := env.productRepo.GetByID(env.ctx, env.tx, product.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if first.AverageRating != second.AverageRating || first.TotalReviews != second.TotalReviews || first.AverageLifespan != second.AverageLifespan {
		t.Errorf("recompute not idempotent: %+v vs %+v", first, second)
	}
	if second.TotalReviews != 1 || second.AverageRating != 4 {
		t.Errorf("aggregates = (%d, %v), want (1, 4)", second.TotalReviews, second.AverageRating)
	}
}
