package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/velotrace/velotrace-backend/internal/testutil"
	"github.com/velotrace/velotrace-backend/internal/types"
)

func TestReviewUpsertOnePerAttachment(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewReviewRepo(db, testutil.Logger(t))
	ctx := context.Background()

	user := testutil.SeedUser(t, ctx, tx, "reviewrepo@example.com")
	bike := testutil.SeedBike(t, ctx, tx, user.ID, "bike")
	part := testutil.SeedPart(t, ctx, tx, bike.ID, "chain", 0, 3000)

	first, err := repo.Upsert(ctx, tx, &types.Review{UserID: user.ID, PartID: &part.ID, Rating: 3, Body: "ok"})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := repo.Upsert(ctx, tx, &types.Review{UserID: user.ID, PartID: &part.ID, Rating: 5, Body: "better"})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second upsert created a new row: %v vs %v", second.ID, first.ID)
	}
	if second.Rating != 5 {
		t.Errorf("rating = %d, want updated 5", second.Rating)
	}

	// The partial unique index is the real guarantee: a raw duplicate insert
	// for the same (user, part) tuple must fail at the store, so two racing
	// submissions can never both land. Last statement on purpose; the
	// violation aborts the test transaction.
	dup := &types.Review{ID: uuid.New(), UserID: user.ID, PartID: &part.ID, Rating: 1}
	if err := tx.WithContext(ctx).Create(dup).Error; err == nil {
		t.Fatalf("duplicate (user, part) review insert should hit the unique index")
	}
}
