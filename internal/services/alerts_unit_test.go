package services

import (
	"testing"

	"github.com/velotrace/velotrace-backend/internal/catalog"
	"github.com/velotrace/velotrace-backend/internal/types"
)

func TestWearStatus(t *testing.T) {
	tests := []struct {
		name     string
		wear     float64
		lifespan float64
		near     int
		want     string
	}{
		{"fresh", 0, 3000, 80, ""},
		{"below threshold", 2399, 3000, 80, ""},
		{"at threshold", 2400, 3000, 80, types.AlertKindWearNearLimit},
		{"just under limit", 2999, 3000, 80, types.AlertKindWearNearLimit},
		{"at limit", 3000, 3000, 80, types.AlertKindWearWornOut},
		{"past limit", 4500, 3000, 80, types.AlertKindWearWornOut},
		{"custom threshold", 1500, 2000, 70, types.AlertKindWearNearLimit},
		{"untracked lifespan", 500, 0, 80, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wearStatus(tt.wear, tt.lifespan, tt.near); got != tt.want {
				t.Errorf("wearStatus(%v, %v, %d) = %q, want %q", tt.wear, tt.lifespan, tt.near, got, tt.want)
			}
		})
	}
}

func TestIntervalKind(t *testing.T) {
	tests := []struct {
		in   catalog.Category
		want string
	}{
		{catalog.CategoryChainLube, types.AlertKindLubeOverdue},
		{catalog.CategorySealantFront, types.AlertKindSealantOverdue},
		{catalog.CategorySealantRear, types.AlertKindSealantOverdue},
		{catalog.CategoryBrakeFluid, types.AlertKindBrakeFluidOverdue},
		{catalog.CategoryChain, ""},
		{catalog.CategoryTireFront, ""},
	}
	for _, tt := range tests {
		if got := intervalKind(tt.in); got != tt.want {
			t.Errorf("intervalKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
