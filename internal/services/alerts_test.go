package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/velotrace/velotrace-backend/internal/catalog"
	"github.com/velotrace/velotrace-backend/internal/testutil"
	"github.com/velotrace/velotrace-backend/internal/types"
)

func TestWearAlertFiresOnceWhileOpen(t *testing.T) {
	env := newTestEnv(t)
	bike := env.seedBike(t, "roadie")
	part := testutil.SeedPart(t, context.Background(), env.tx, bike.ID, string(catalog.CategoryChain), 2500, 3000)

	if err := env.alertSvc.EvaluateBike(env.ctx, bike.ID); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	open, err := env.alertSvc.ListAlerts(env.ctx, types.AlertStatusOpen)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(open) != 1 || open[0].Kind != types.AlertKindWearNearLimit || open[0].PartID != part.ID {
		t.Fatalf("unexpected open alerts: %+v", open)
	}

	// Re-evaluating while the alert is open must not duplicate it.
	if err := env.alertSvc.EvaluateBike(env.ctx, bike.ID); err != nil {
		t.Fatalf("re-evaluate: %v", err)
	}
	open, err = env.alertSvc.ListAlerts(env.ctx, types.AlertStatusOpen)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("open alerts = %d, want 1 after re-evaluation", len(open))
	}

	// Once acknowledged, the still-true condition raises a fresh alert.
	if _, err := env.alertSvc.Acknowledge(env.ctx, open[0].ID); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if err := env.alertSvc.EvaluateBike(env.ctx, bike.ID); err != nil {
		t.Fatalf("evaluate after ack: %v", err)
	}
	open, err = env.alertSvc.ListAlerts(env.ctx, types.AlertStatusOpen)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("open alerts = %d, want 1 new after acknowledge", len(open))
	}
}

func TestWornOutBeatsNearLimit(t *testing.T) {
	env := newTestEnv(t)
	bike := env.seedBike(t, "roadie")
	testutil.SeedPart(t, context.Background(), env.tx, bike.ID, string(catalog.CategoryChain), 3200, 3000)

	if err := env.alertSvc.EvaluateBike(env.ctx, bike.ID); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	open, err := env.alertSvc.ListAlerts(env.ctx, types.AlertStatusOpen)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(open) != 1 || open[0].Kind != types.AlertKindWearWornOut {
		t.Fatalf("want single worn_out alert, got %+v", open)
	}
}

func TestIntervalRuleNeedsServiceBaseline(t *testing.T) {
	env := newTestEnv(t)
	bike := env.seedBike(t, "roadie")
	part := testutil.SeedPart(t, context.Background(), env.tx, bike.ID, string(catalog.CategoryChainLube), 0, 0)

	// Never serviced: no baseline, no alert.
	if err := env.alertSvc.EvaluateBike(env.ctx, bike.ID); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	open, err := env.alertSvc.ListAlerts(env.ctx, types.AlertStatusOpen)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("unserviced slot should not alert, got %+v", open)
	}

	// A service event 45 days back exceeds the 30-day lube interval.
	fact := &types.PartHistory{
		ID:        uuid.New(),
		BikeID:    bike.ID,
		PartID:    part.ID,
		Category:  part.Category,
		Brand:     "Squirt",
		Model:     "Dry",
		CreatedAt: time.Now().UTC().Add(-45 * 24 * time.Hour),
	}
	if err := env.tx.Create(fact).Error; err != nil {
		t.Fatalf("seed fact: %v", err)
	}
	if err := env.alertSvc.EvaluateBike(env.ctx, bike.ID); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	open, err = env.alertSvc.ListAlerts(env.ctx, types.AlertStatusOpen)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(open) != 1 || open[0].Kind != types.AlertKindLubeOverdue {
		t.Fatalf("want lube_overdue, got %+v", open)
	}
}

func TestAlertTransitions(t *testing.T) {
	env := newTestEnv(t)
	bike := env.seedBike(t, "roadie")
	testutil.SeedPart(t, context.Background(), env.tx, bike.ID, string(catalog.CategoryChain), 3200, 3000)

	if err := env.alertSvc.EvaluateBike(env.ctx, bike.ID); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	open, err := env.alertSvc.ListAlerts(env.ctx, types.AlertStatusOpen)
	if err != nil || len(open) != 1 {
		t.Fatalf("list: %v %v", open, err)
	}
	alert := open[0]

	dismissed, err := env.alertSvc.Dismiss(env.ctx, alert.ID)
	if err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if dismissed.Status != types.AlertStatusDismissed {
		t.Errorf("status = %q, want dismissed", dismissed.Status)
	}
	// A second transition off the same alert is rejected.
	if _, err := env.alertSvc.Acknowledge(env.ctx, alert.ID); !isInvalidState(err) {
		t.Fatalf("transition of closed alert: got %v, want invalid_state", err)
	}
	// Foreign alerts are invisible.
	otherCtx := env.asUser(env.seedOtherUser(t).ID)
	if _, err := env.alertSvc.Dismiss(otherCtx, alert.ID); !isNotFound(err) {
		t.Fatalf("foreign alert: got %v, want not_found", err)
	}
}
