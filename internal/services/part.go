package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/velotrace/velotrace-backend/internal/apierr"
	"github.com/velotrace/velotrace-backend/internal/catalog"
	"github.com/velotrace/velotrace-backend/internal/logger"
	"github.com/velotrace/velotrace-backend/internal/repos"
	"github.com/velotrace/velotrace-backend/internal/requestdata"
	"github.com/velotrace/velotrace-backend/internal/types"
)

type InstallMode string

const (
	InstallModeCreate  InstallMode = "create"
	InstallModeReplace InstallMode = "replace"
	InstallModeEdit    InstallMode = "edit"
)

// InstallSpec describes the incoming occupant of a slot. An all-empty spec
// in replace mode removes the occupant without a successor.
type InstallSpec struct {
	Brand            string                 `json:"brand"`
	Model            string                 `json:"model"`
	ExpectedLifespan *float64               `json:"expected_lifespan,omitempty"`
	Attributes       map[string]interface{} `json:"attributes,omitempty"`
}

func (spec InstallSpec) empty() bool {
	return strings.TrimSpace(spec.Brand) == "" && strings.TrimSpace(spec.Model) == ""
}

type PartService interface {
	InstallComponent(ctx context.Context, bikeID uuid.UUID, category catalog.Category, mode InstallMode, spec InstallSpec) (*types.Part, error)
	RecordDistanceDelta(ctx context.Context, bikeID uuid.UUID, delta float64) (*types.Bike, error)
	ListParts(ctx context.Context, bikeID uuid.UUID) ([]*types.Part, error)

	// ReplaceWithinTx runs the replace-mode state transition inside an
	// enclosing transaction; the garage swap-in builds on it.
	ReplaceWithinTx(ctx context.Context, tx *gorm.DB, bike *types.Bike, category catalog.Category, spec InstallSpec, initialWear float64) (*types.Part, error)
}

type partService struct {
	db          *gorm.DB
	log         *logger.Logger
	bikeRepo    repos.BikeRepo
	partRepo    repos.PartRepo
	historyRepo repos.PartHistoryRepo
	productSvc  ProductService
	alertSvc    AlertService
	defaults    catalog.Defaults
}

func NewPartService(db *gorm.DB, log *logger.Logger, bikeRepo repos.BikeRepo, partRepo repos.PartRepo, historyRepo repos.PartHistoryRepo, productSvc ProductService, alertSvc AlertService, defaults catalog.Defaults) PartService {
	return &partService{
		db:          db,
		log:         log.With("service", "PartService"),
		bikeRepo:    bikeRepo,
		partRepo:    partRepo,
		historyRepo: historyRepo,
		productSvc:  productSvc,
		alertSvc:    alertSvc,
		defaults:    defaults,
	}
}

func (s *partService) InstallComponent(ctx context.Context, bikeID uuid.UUID, category catalog.Category, mode InstallMode, spec InstallSpec) (*types.Part, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, apierr.NotFound("bike")
	}
	if !catalog.IsSlotCategory(category) {
		return nil, apierr.Validation("unknown part category %q", category)
	}

	var out *types.Part
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bike, err := s.bikeRepo.GetByIDForUserLocked(ctx, tx, bikeID, userID)
		if err != nil {
			return err
		}
		if bike == nil {
			return apierr.NotFound("bike")
		}
		switch mode {
		case InstallModeCreate:
			out, err = s.createOccupant(ctx, tx, bike, category, spec)
		case InstallModeReplace:
			out, err = s.replaceOccupant(ctx, tx, bike, category, spec, 0)
		case InstallModeEdit:
			out, err = s.editOccupant(ctx, tx, bike, category, spec)
		default:
			err = apierr.Validation("unknown install mode %q", mode)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.evaluateAlerts(ctx, bikeID)
	return out, nil
}

// createOccupant handles the first-ever occupant of a slot. It leaves no
// history fact, so it is only legal on a pristine slot.
func (s *partService) createOccupant(ctx context.Context, tx *gorm.DB, bike *types.Bike, category catalog.Category, spec InstallSpec) (*types.Part, error) {
	// An empty spec means "remove" and only replace mode can remove; create
	// must always name the incoming component.
	if spec.empty() {
		return nil, apierr.Validation("create requires a brand or model for slot %s", category)
	}
	part, err := s.partRepo.GetByBikeAndCategoryLocked(ctx, tx, bike.ID, string(category))
	if err != nil {
		return nil, err
	}
	if part != nil && (part.Installed() || part.WearAccumulated > 0) {
		return nil, apierr.InvalidState("slot %s already has an occupant; use replace", category)
	}

	product, err := s.productSvc.ResolveOrCreate(ctx, tx, category, spec.Brand, spec.Model)
	if err != nil {
		return nil, err
	}
	attrs, err := attrsToJSON(spec.Attributes)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if part == nil {
		part = &types.Part{BikeID: bike.ID, Category: string(category)}
	}
	applySpec(part, spec, product, attrs)
	part.ExpectedLifespan = s.lifespanFor(category, spec)
	part.WearAccumulated = 0
	part.InstalledAt = &now

	if part.ID == uuid.Nil {
		return s.partRepo.Create(ctx, tx, part)
	}
	if err := s.partRepo.Save(ctx, tx, part); err != nil {
		return nil, err
	}
	return part, nil
}

// replaceOccupant ends the current occupant's life: exactly one immutable
// fact is appended, capturing the incoming identity plus the outgoing wear
// and odometer, then the slot restarts at initialWear (zero everywhere
// except garage swap-ins, which carry their stored wear back in).
func (s *partService) replaceOccupant(ctx context.Context, tx *gorm.DB, bike *types.Bike, category catalog.Category, spec InstallSpec, initialWear float64) (*types.Part, error) {
	part, err := s.partRepo.GetByBikeAndCategoryLocked(ctx, tx, bike.ID, string(category))
	if err != nil {
		return nil, err
	}
	if part == nil {
		part, err = s.partRepo.Create(ctx, tx, &types.Part{BikeID: bike.ID, Category: string(category)})
		if err != nil {
			return nil, err
		}
	}

	prevProductID := part.ProductID
	wearUsed := part.WearAccumulated

	var (
		product          *types.Product
		incomingLifespan float64
	)
	if !spec.empty() {
		product, err = s.productSvc.ResolveOrCreate(ctx, tx, category, spec.Brand, spec.Model)
		if err != nil {
			return nil, err
		}
		incomingLifespan = s.lifespanFor(category, spec)
	}
	attrs, err := attrsToJSON(spec.Attributes)
	if err != nil {
		return nil, err
	}

	fact := &types.PartHistory{
		BikeID:            bike.ID,
		PartID:            part.ID,
		Category:          string(category),
		PrevProductID:     prevProductID,
		Brand:             strings.TrimSpace(spec.Brand),
		Model:             strings.TrimSpace(spec.Model),
		ExpectedLifespan:  incomingLifespan,
		WearAtReplacement: wearUsed,
		BikeDistanceAt:    bike.TotalDistance,
		Attributes:        attrs,
	}
	if product != nil {
		fact.ProductID = &product.ID
	}
	if _, err := s.historyRepo.Create(ctx, tx, fact); err != nil {
		return nil, err
	}

	if spec.empty() {
		clearSlot(part)
	} else {
		now := time.Now().UTC()
		applySpec(part, spec, product, attrs)
		part.ExpectedLifespan = s.lifespanFor(category, spec)
		part.WearAccumulated = initialWear
		part.InstalledAt = &now
	}
	if err := s.partRepo.Save(ctx, tx, part); err != nil {
		return nil, err
	}

	// The outgoing component's wear just became a lifespan sample.
	if prevProductID != nil {
		if err := s.productSvc.RecomputeAggregates(ctx, tx, *prevProductID); err != nil {
			return nil, err
		}
	}
	return part, nil
}

func (s *partService) ReplaceWithinTx(ctx context.Context, tx *gorm.DB, bike *types.Bike, category catalog.Category, spec InstallSpec, initialWear float64) (*types.Part, error) {
	return s.replaceOccupant(ctx, tx, bike, category, spec, initialWear)
}

// editOccupant corrects the metadata of the current occupant without ending
// its life: the newest fact is rewritten in place rather than appended to.
// Wear and odometer snapshots are never touched here.
func (s *partService) editOccupant(ctx context.Context, tx *gorm.DB, bike *types.Bike, category catalog.Category, spec InstallSpec) (*types.Part, error) {
	part, err := s.partRepo.GetByBikeAndCategoryLocked(ctx, tx, bike.ID, string(category))
	if err != nil {
		return nil, err
	}
	if part == nil || !part.Installed() {
		return nil, apierr.InvalidState("slot %s has nothing installed to edit", category)
	}

	oldProductID := part.ProductID
	tripleChanged := catalog.NormalizeName(spec.Brand) != catalog.NormalizeName(part.Brand) ||
		catalog.NormalizeName(spec.Model) != catalog.NormalizeName(part.Model)

	var product *types.Product
	if tripleChanged {
		product, err = s.productSvc.ResolveOrCreate(ctx, tx, category, spec.Brand, spec.Model)
		if err != nil {
			return nil, err
		}
		if oldProductID != nil {
			if err := s.productSvc.ReleaseInstallation(ctx, tx, *oldProductID); err != nil {
				return nil, err
			}
			if err := s.productSvc.RecomputeAggregates(ctx, tx, *oldProductID); err != nil {
				return nil, err
			}
		}
	} else if oldProductID != nil {
		product, err = s.productSvc.ResolveOrCreate(ctx, tx, category, part.Brand, part.Model)
		if err != nil {
			return nil, err
		}
		// Same triple resolved again; that upsert counted an installation
		// this edit did not cause, so give it back.
		if err := s.productSvc.ReleaseInstallation(ctx, tx, product.ID); err != nil {
			return nil, err
		}
	}

	attrs, err := attrsToJSON(spec.Attributes)
	if err != nil {
		return nil, err
	}
	applySpec(part, spec, product, attrs)
	if spec.ExpectedLifespan != nil {
		part.ExpectedLifespan = *spec.ExpectedLifespan
	}
	if err := s.partRepo.Save(ctx, tx, part); err != nil {
		return nil, err
	}

	fact, err := s.historyRepo.LatestForPart(ctx, tx, part.ID)
	if err != nil {
		return nil, err
	}
	if fact == nil {
		// Legacy slots can carry an occupant with no fact behind it. Repair
		// by synthesizing one from current state; the zero wear snapshot
		// marks it as reconstructed.
		s.log.Warn("edit found no history fact for slot, creating one",
			"part_id", part.ID.String(), "category", part.Category)
		fact = &types.PartHistory{
			BikeID:           bike.ID,
			PartID:           part.ID,
			Category:         part.Category,
			ProductID:        part.ProductID,
			Brand:            part.Brand,
			Model:            part.Model,
			ExpectedLifespan: part.ExpectedLifespan,
			BikeDistanceAt:   bike.TotalDistance,
			Attributes:       attrs,
		}
		if _, err := s.historyRepo.Create(ctx, tx, fact); err != nil {
			return nil, err
		}
	} else {
		fact.ProductID = part.ProductID
		fact.Brand = part.Brand
		fact.Model = part.Model
		fact.ExpectedLifespan = part.ExpectedLifespan
		fact.Attributes = attrs
		if err := s.historyRepo.UpdateDescriptive(ctx, tx, fact); err != nil {
			return nil, err
		}
	}

	if product != nil {
		if err := s.productSvc.RecomputeAggregates(ctx, tx, product.ID); err != nil {
			return nil, err
		}
	}
	return part, nil
}

// RecordDistanceDelta applies one cumulative-distance increment from the
// external sync collaborator. Deltas arrive pre-computed from monotonic
// odometer readings; absolute values are never applied here.
func (s *partService) RecordDistanceDelta(ctx context.Context, bikeID uuid.UUID, delta float64) (*types.Bike, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, apierr.NotFound("bike")
	}
	if delta < 0 {
		return nil, apierr.Validation("distance delta must be non-negative, got %v", delta)
	}

	var out *types.Bike
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bike, err := s.bikeRepo.GetByIDForUserLocked(ctx, tx, bikeID, userID)
		if err != nil {
			return err
		}
		if bike == nil {
			return apierr.NotFound("bike")
		}
		if delta == 0 {
			out = bike
			return nil
		}
		if err := s.bikeRepo.AddDistance(ctx, tx, bike.ID, delta); err != nil {
			return err
		}
		if _, err := s.partRepo.AccrueWear(ctx, tx, bike.ID, delta, distanceTrackedCategories()); err != nil {
			return err
		}
		out, err = s.bikeRepo.GetByIDForUser(ctx, tx, bikeID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.evaluateAlerts(ctx, bikeID)
	return out, nil
}

func (s *partService) ListParts(ctx context.Context, bikeID uuid.UUID) ([]*types.Part, error) {
	userID := requestdata.UserID(ctx)
	bike, err := s.bikeRepo.GetByIDForUser(ctx, nil, bikeID, userID)
	if err != nil {
		return nil, err
	}
	if bike == nil {
		return nil, apierr.NotFound("bike")
	}
	return s.partRepo.ListByBike(ctx, nil, bikeID)
}

// evaluateAlerts is the synchronous post-mutation pass; rule evaluation is
// idempotent, so a failure here only delays the notification until the next
// write or sweep.
func (s *partService) evaluateAlerts(ctx context.Context, bikeID uuid.UUID) {
	if s.alertSvc == nil {
		return
	}
	if err := s.alertSvc.EvaluateBike(ctx, bikeID); err != nil {
		s.log.Warn("alert evaluation failed", "bike_id", bikeID.String(), "error", err)
	}
}

func (s *partService) lifespanFor(category catalog.Category, spec InstallSpec) float64 {
	if spec.ExpectedLifespan != nil {
		return *spec.ExpectedLifespan
	}
	return s.defaults.DefaultLifespan(category)
}

func applySpec(part *types.Part, spec InstallSpec, product *types.Product, attrs datatypes.JSON) {
	part.Brand = strings.TrimSpace(spec.Brand)
	part.Model = strings.TrimSpace(spec.Model)
	part.Attributes = attrs
	if product != nil {
		part.ProductID = &product.ID
	} else {
		part.ProductID = nil
	}
}

func clearSlot(part *types.Part) {
	part.Brand = ""
	part.Model = ""
	part.ProductID = nil
	part.Attributes = nil
	part.WearAccumulated = 0
	part.ExpectedLifespan = 0
	part.InstalledAt = nil
}

func distanceTrackedCategories() []string {
	out := []string{}
	for _, c := range catalog.SlotCategories() {
		if catalog.DistanceTracked(c) {
			out = append(out, string(c))
		}
	}
	return out
}

func attrsToJSON(attrs map[string]interface{}) (datatypes.JSON, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return nil, apierr.Validation("attributes are not serializable: %v", err)
	}
	return datatypes.JSON(raw), nil
}

func attrsFromJSON(raw datatypes.JSON) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var attrs map[string]interface{}
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}
