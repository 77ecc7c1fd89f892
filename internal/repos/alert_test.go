package repos

import (
	"context"
	"testing"

	"github.com/velotrace/velotrace-backend/internal/testutil"
	"github.com/velotrace/velotrace-backend/internal/types"
)

func TestAlertRepoOpenDedup(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewAlertRepo(db, testutil.Logger(t))
	ctx := context.Background()

	user := testutil.SeedUser(t, ctx, tx, "alertrepo@example.com")
	bike := testutil.SeedBike(t, ctx, tx, user.ID, "bike")
	part := testutil.SeedPart(t, ctx, tx, bike.ID, "chain", 2500, 3000)

	created, err := repo.CreateIfNoneOpen(ctx, tx, &types.Alert{
		UserID: user.ID, Kind: types.AlertKindWearNearLimit, PartID: part.ID, Message: "m",
	})
	if err != nil {
		t.Fatalf("CreateIfNoneOpen: %v", err)
	}
	if !created {
		t.Fatalf("first alert should be created")
	}

	created, err = repo.CreateIfNoneOpen(ctx, tx, &types.Alert{
		UserID: user.ID, Kind: types.AlertKindWearNearLimit, PartID: part.ID, Message: "m",
	})
	if err != nil {
		t.Fatalf("CreateIfNoneOpen (dup): %v", err)
	}
	if created {
		t.Fatalf("duplicate open tuple should be a no-op")
	}

	// A different kind on the same part is a distinct tuple.
	created, err = repo.CreateIfNoneOpen(ctx, tx, &types.Alert{
		UserID: user.ID, Kind: types.AlertKindWearWornOut, PartID: part.ID, Message: "m",
	})
	if err != nil {
		t.Fatalf("CreateIfNoneOpen (other kind): %v", err)
	}
	if !created {
		t.Fatalf("different kind should create")
	}

	open, err := repo.ListByUser(ctx, tx, user.ID, types.AlertStatusOpen)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("open alerts = %d, want 2", len(open))
	}

	// Closing frees the tuple for a future alert.
	moved, err := repo.TransitionFromOpen(ctx, tx, open[0].ID, types.AlertStatusDismissed)
	if err != nil || !moved {
		t.Fatalf("TransitionFromOpen: %v %v", moved, err)
	}
	moved, err = repo.TransitionFromOpen(ctx, tx, open[0].ID, types.AlertStatusAcknowledged)
	if err != nil {
		t.Fatalf("TransitionFromOpen (closed): %v", err)
	}
	if moved {
		t.Fatalf("closed alert must not transition again")
	}
}
