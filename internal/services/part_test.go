package services

import (
	"testing"

	"github.com/velotrace/velotrace-backend/internal/apierr"
	"github.com/velotrace/velotrace-backend/internal/catalog"
)

func TestInstallCreateAndAccrue(t *testing.T) {
	env := newTestEnv(t)
	bike := env.seedBike(t, "commuter")

	part, err := env.partSvc.InstallComponent(env.ctx, bike.ID, catalog.CategoryChain, InstallModeCreate, InstallSpec{
		Brand: "Shimano", Model: "CN-HG701",
	})
	if err != nil {
		t.Fatalf("create install: %v", err)
	}
	if !part.Installed() {
		t.Fatalf("slot should be installed")
	}
	if part.WearAccumulated != 0 {
		t.Errorf("fresh install wear = %v, want 0", part.WearAccumulated)
	}
	if part.ExpectedLifespan != 3000 {
		t.Errorf("lifespan = %v, want default 3000", part.ExpectedLifespan)
	}
	if part.ProductID == nil {
		t.Fatalf("expected catalog link")
	}

	// Create mode never writes a replacement fact.
	n, err := env.historyRepo.CountForPart(env.ctx, env.tx, part.ID)
	if err != nil {
		t.Fatalf("count history: %v", err)
	}
	if n != 0 {
		t.Errorf("history count = %d, want 0", n)
	}

	updated, err := env.partSvc.RecordDistanceDelta(env.ctx, bike.ID, 150)
	if err != nil {
		t.Fatalf("distance delta: %v", err)
	}
	if updated.TotalDistance != 150 {
		t.Errorf("bike distance = %v, want 150", updated.TotalDistance)
	}
	part, err = env.partRepo.GetByID(env.ctx, env.tx, part.ID)
	if err != nil {
		t.Fatalf("reload part: %v", err)
	}
	if part.WearAccumulated != 150 {
		t.Errorf("part wear = %v, want 150", part.WearAccumulated)
	}
}

func TestInstallCreateOnOccupiedSlot(t *testing.T) {
	env := newTestEnv(t)
	bike := env.seedBike(t, "commuter")

	if _, err := env.partSvc.InstallComponent(env.ctx, bike.ID, catalog.CategoryChain, InstallModeCreate, InstallSpec{Brand: "Shimano", Model: "A"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := env.partSvc.InstallComponent(env.ctx, bike.ID, catalog.CategoryChain, InstallModeCreate, InstallSpec{Brand: "SRAM", Model: "B"})
	if !isInvalidState(err) {
		t.Fatalf("second create on occupied slot: got %v, want invalid_state", err)
	}
}

func TestInstallCreateRejectsEmptySpec(t *testing.T) {
	env := newTestEnv(t)
	bike := env.seedBike(t, "commuter")

	// An empty spec only means "remove" in replace mode; create must name
	// the incoming component or the slot would be installed with no identity.
	if _, err := env.partSvc.InstallComponent(env.ctx, bike.ID, catalog.CategoryChain, InstallModeCreate, InstallSpec{}); !isValidation(err) {
		t.Fatalf("empty create spec: got %v, want validation error", err)
	}
	part, err := env.partRepo.GetByBikeAndCategory(env.ctx, env.tx, bike.ID, string(catalog.CategoryChain))
	if err != nil {
		t.Fatalf("slot reload: %v", err)
	}
	if part != nil && part.Installed() {
		t.Errorf("slot should remain empty: %+v", part)
	}
}

func TestReplaceRecordsFactAndResetsWear(t *testing.T) {
	env := newTestEnv(t)
	bike := env.seedBike(t, "roadie")

	if _, err := env.partSvc.InstallComponent(env.ctx, bike.ID, catalog.CategoryChain, InstallModeCreate, InstallSpec{Brand: "Shimano", Model: "CN-HG701"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.partSvc.RecordDistanceDelta(env.ctx, bike.ID, 2800); err != nil {
		t.Fatalf("distance: %v", err)
	}

	part, err := env.partSvc.InstallComponent(env.ctx, bike.ID, catalog.CategoryChain, InstallModeReplace, InstallSpec{Brand: "SRAM", Model: "PC-1170"})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if part.WearAccumulated != 0 {
		t.Errorf("wear after replace = %v, want 0", part.WearAccumulated)
	}
	if part.Brand != "SRAM" {
		t.Errorf("brand = %q, want SRAM", part.Brand)
	}

	fact, err := env.historyRepo.LatestForPart(env.ctx, env.tx, part.ID)
	if err != nil || fact == nil {
		t.Fatalf("latest fact: %v %v", fact, err)
	}
	if fact.WearAtReplacement != 2800 {
		t.Errorf("fact wear = %v, want 2800", fact.WearAtReplacement)
	}
	if fact.BikeDistanceAt != 2800 {
		t.Errorf("fact odometer = %v, want 2800", fact.BikeDistanceAt)
	}
	// The fact's identity is the incoming component, matching the slot.
	if fact.Brand != "SRAM" || fact.Model != "PC-1170" {
		t.Errorf("fact identity = %q %q, want incoming SRAM PC-1170", fact.Brand, fact.Model)
	}
	if fact.PrevProductID == nil {
		t.Errorf("fact should remember the outgoing catalog record")
	}

	// The outgoing product gained a lifespan sample.
	prev, err := env.productRepo.GetByID(env.ctx, env.tx, *fact.PrevProductID)
	if err != nil || prev == nil {
		t.Fatalf("prev product: %v %v", prev, err)
	}
	if prev.AverageLifespan != 2800 {
		t.Errorf("prev product avg lifespan = %v, want 2800", prev.AverageLifespan)
	}
}

func TestReplaceWithEmptySpecClearsSlot(t *testing.T) {
	env := newTestEnv(t)
	bike := env.seedBike(t, "roadie")

	if _, err := env.partSvc.InstallComponent(env.ctx, bike.ID, catalog.CategoryCassette, InstallModeCreate, InstallSpec{Brand: "Shimano", Model: "CS-R7000"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	part, err := env.partSvc.InstallComponent(env.ctx, bike.ID, catalog.CategoryCassette, InstallModeReplace, InstallSpec{})
	if err != nil {
		t.Fatalf("empty replace: %v", err)
	}
	if part.Installed() {
		t.Errorf("slot should be empty after removal without successor")
	}
	if part.WearAccumulated != 0 || part.Brand != "" || part.ProductID != nil {
		t.Errorf("slot not reset: %+v", part)
	}
	fact, err := env.historyRepo.LatestForPart(env.ctx, env.tx, part.ID)
	if err != nil || fact == nil {
		t.Fatalf("latest fact: %v %v", fact, err)
	}
	if fact.Brand != "" || fact.ProductID != nil {
		t.Errorf("removal fact should carry an empty incoming identity")
	}
}

func TestEditRewritesLatestFactInPlace(t *testing.T) {
	env := newTestEnv(t)
	bike := env.seedBike(t, "roadie")

	if _, err := env.partSvc.InstallComponent(env.ctx, bike.ID, catalog.CategoryChain, InstallModeCreate, InstallSpec{Brand: "Shimano", Model: "Old"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.partSvc.InstallComponent(env.ctx, bike.ID, catalog.CategoryChain, InstallModeReplace, InstallSpec{Brand: "Shimano", Model: "Mistyped"}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	part, err := env.partSvc.InstallComponent(env.ctx, bike.ID, catalog.CategoryChain, InstallModeEdit, InstallSpec{Brand: "Shimano", Model: "CN-HG701"})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if part.Model != "CN-HG701" {
		t.Errorf("model = %q, want corrected CN-HG701", part.Model)
	}

	n, err := env.historyRepo.CountForPart(env.ctx, env.tx, part.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("history count = %d, want 1 (edit must not append)", n)
	}
	fact, err := env.historyRepo.LatestForPart(env.ctx, env.tx, part.ID)
	if err != nil || fact == nil {
		t.Fatalf("latest fact: %v %v", fact, err)
	}
	if fact.Model != "CN-HG701" {
		t.Errorf("fact model = %q, want corrected CN-HG701", fact.Model)
	}
	// The mistyped catalog record lost its installation.
	mistyped, err := env.productRepo.GetByTriple(env.ctx, env.tx, "chain", "shimano", "mistyped")
	if err != nil || mistyped == nil {
		t.Fatalf("mistyped product: %v %v", mistyped, err)
	}
	if mistyped.TotalInstallations != 0 {
		t.Errorf("mistyped installations = %d, want 0", mistyped.TotalInstallations)
	}
}

func TestEditRepairsSlotWithNoFact(t *testing.T) {
	env := newTestEnv(t)
	bike := env.seedBike(t, "roadie")

	// Create leaves no fact behind, so the first edit hits the repair path.
	if _, err := env.partSvc.InstallComponent(env.ctx, bike.ID, catalog.CategoryChain, InstallModeCreate, InstallSpec{Brand: "Shimano", Model: "Mistyped"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.partSvc.RecordDistanceDelta(env.ctx, bike.ID, 300); err != nil {
		t.Fatalf("distance: %v", err)
	}

	part, err := env.partSvc.InstallComponent(env.ctx, bike.ID, catalog.CategoryChain, InstallModeEdit, InstallSpec{Brand: "Shimano", Model: "CN-HG701"})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if part.WearAccumulated != 300 {
		t.Errorf("wear = %v, want 300 (edit never touches wear)", part.WearAccumulated)
	}

	n, err := env.historyRepo.CountForPart(env.ctx, env.tx, part.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("history count = %d, want exactly one synthesized fact", n)
	}
	fact, err := env.historyRepo.LatestForPart(env.ctx, env.tx, part.ID)
	if err != nil || fact == nil {
		t.Fatalf("latest fact: %v %v", fact, err)
	}
	if fact.Brand != "Shimano" || fact.Model != "CN-HG701" {
		t.Errorf("fact identity = %q %q, want corrected Shimano CN-HG701", fact.Brand, fact.Model)
	}
	// The zero wear snapshot marks the fact as reconstructed and keeps it
	// out of lifespan averages.
	if fact.WearAtReplacement != 0 {
		t.Errorf("fact wear = %v, want 0", fact.WearAtReplacement)
	}
	if fact.ProductID == nil || part.ProductID == nil || *fact.ProductID != *part.ProductID {
		t.Errorf("fact should link the slot's catalog record")
	}
	// The mistyped record gave its installation back to the corrected one.
	mistyped, err := env.productRepo.GetByTriple(env.ctx, env.tx, "chain", "shimano", "mistyped")
	if err != nil || mistyped == nil {
		t.Fatalf("mistyped product: %v %v", mistyped, err)
	}
	if mistyped.TotalInstallations != 0 {
		t.Errorf("mistyped installations = %d, want 0", mistyped.TotalInstallations)
	}
	corrected, err := env.productRepo.GetByTriple(env.ctx, env.tx, "chain", "shimano", "cn-hg701")
	if err != nil || corrected == nil {
		t.Fatalf("corrected product: %v %v", corrected, err)
	}
	if corrected.TotalInstallations != 1 {
		t.Errorf("corrected installations = %d, want 1", corrected.TotalInstallations)
	}
}

func TestDistanceDeltaValidation(t *testing.T) {
	env := newTestEnv(t)
	bike := env.seedBike(t, "roadie")

	if _, err := env.partSvc.RecordDistanceDelta(env.ctx, bike.ID, -10); !isValidation(err) {
		t.Fatalf("negative delta: got %v, want validation error", err)
	}
	// Zero is a no-op, not an error.
	if _, err := env.partSvc.RecordDistanceDelta(env.ctx, bike.ID, 0); err != nil {
		t.Fatalf("zero delta: %v", err)
	}
}

func TestForeignBikeIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	bike := env.seedBike(t, "mine")

	otherCtx := env.asUser(env.seedOtherUser(t).ID)
	_, err := env.partSvc.InstallComponent(otherCtx, bike.ID, catalog.CategoryChain, InstallModeCreate, InstallSpec{Brand: "X", Model: "Y"})
	if !isNotFound(err) {
		t.Fatalf("foreign bike: got %v, want not_found", err)
	}
}

func isNotFound(err error) bool     { return hasCode(err, "not_found") }
func isInvalidState(err error) bool { return hasCode(err, "invalid_state") }
func isValidation(err error) bool   { return hasCode(err, "validation") }

func hasCode(err error, code string) bool {
	ae, ok := err.(*apierr.Error)
	return ok && ae.Code == code
}
