package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velotrace/velotrace-backend/internal/types"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedBike(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) *types.Bike {
	tb.Helper()
	b := &types.Bike{
		ID:     uuid.New(),
		UserID: userID,
		Name:   name,
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed bike: %v", err)
	}
	return b
}

func SeedPart(tb testing.TB, ctx context.Context, tx *gorm.DB, bikeID uuid.UUID, category string, wear, lifespan float64) *types.Part {
	tb.Helper()
	now := time.Now().UTC()
	p := &types.Part{
		ID:               uuid.New(),
		BikeID:           bikeID,
		Category:         category,
		Brand:            "Acme",
		Model:            "Standard",
		WearAccumulated:  wear,
		ExpectedLifespan: lifespan,
		InstalledAt:      &now,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed part: %v", err)
	}
	return p
}

func SeedProduct(tb testing.TB, ctx context.Context, tx *gorm.DB, category, brand, model string) *types.Product {
	tb.Helper()
	p := &types.Product{
		ID:                 uuid.New(),
		Category:           category,
		Brand:              brand,
		Model:              model,
		BrandNorm:          brand,
		ModelNorm:          model,
		TotalInstallations: 1,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}
