package services

import (
	"testing"

	"github.com/velotrace/velotrace-backend/internal/catalog"
)

func TestUpsertReviewUpdatesInPlace(t *testing.T) {
	env := newTestEnv(t)

	product, err := env.productSvc.ResolveOrCreate(env.ctx, env.tx, catalog.CategoryChain, "Shimano", "CN-HG701")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	first, err := env.reviewSvc.UpsertReview(env.ctx, ReviewInput{ProductID: &product.ID, Rating: 5, Body: "smooth"})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := env.reviewSvc.UpsertReview(env.ctx, ReviewInput{ProductID: &product.ID, Rating: 2, Body: "stretched early"})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("same attachment should update in place, got two reviews")
	}

	reviews, err := env.reviewSvc.ListProductReviews(env.ctx, product.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reviews) != 1 || reviews[0].Rating != 2 {
		t.Fatalf("reviews = %+v, want single review with rating 2", reviews)
	}

	reloaded, err := env.productRepo.GetByID(env.ctx, env.tx, product.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.TotalReviews != 1 || reloaded.AverageRating != 2 {
		t.Errorf("aggregates = (%d, %v), want (1, 2)", reloaded.TotalReviews, reloaded.AverageRating)
	}
}

func TestReviewValidation(t *testing.T) {
	env := newTestEnv(t)

	product, err := env.productSvc.ResolveOrCreate(env.ctx, env.tx, catalog.CategoryChain, "Shimano", "CN-HG701")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, err := env.reviewSvc.UpsertReview(env.ctx, ReviewInput{ProductID: &product.ID, Rating: 0}); !isValidation(err) {
		t.Fatalf("rating 0: got %v, want validation", err)
	}
	if _, err := env.reviewSvc.UpsertReview(env.ctx, ReviewInput{ProductID: &product.ID, Rating: 6}); !isValidation(err) {
		t.Fatalf("rating 6: got %v, want validation", err)
	}
	if _, err := env.reviewSvc.UpsertReview(env.ctx, ReviewInput{Rating: 3}); !isValidation(err) {
		t.Fatalf("no attachment: got %v, want validation", err)
	}
	bike := env.seedBike(t, "roadie")
	part, err := env.partSvc.InstallComponent(env.ctx, bike.ID, catalog.CategoryChain, InstallModeCreate, InstallSpec{Brand: "A", Model: "1"})
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if _, err := env.reviewSvc.UpsertReview(env.ctx, ReviewInput{ProductID: &product.ID, PartID: &part.ID, Rating: 3}); !isValidation(err) {
		t.Fatalf("two attachments: got %v, want validation", err)
	}
}

func TestReviewOwnershipChecks(t *testing.T) {
	env := newTestEnv(t)
	bike := env.seedBike(t, "roadie")

	part, err := env.partSvc.InstallComponent(env.ctx, bike.ID, catalog.CategoryChain, InstallModeCreate, InstallSpec{Brand: "A", Model: "1"})
	if err != nil {
		t.Fatalf("install: %v", err)
	}

	otherCtx := env.asUser(env.seedOtherUser(t).ID)
	if _, err := env.reviewSvc.UpsertReview(otherCtx, ReviewInput{PartID: &part.ID, Rating: 4}); !isNotFound(err) {
		t.Fatalf("foreign part review: got %v, want not_found", err)
	}

	review, err := env.reviewSvc.UpsertReview(env.ctx, ReviewInput{PartID: &part.ID, Rating: 4})
	if err != nil {
		t.Fatalf("own part review: %v", err)
	}
	if err := env.reviewSvc.DeleteReview(otherCtx, review.ID); !isNotFound(err) {
		t.Fatalf("foreign delete: got %v, want not_found", err)
	}
	if err := env.reviewSvc.DeleteReview(env.ctx, review.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
