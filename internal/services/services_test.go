package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velotrace/velotrace-backend/internal/catalog"
	"github.com/velotrace/velotrace-backend/internal/repos"
	"github.com/velotrace/velotrace-backend/internal/requestdata"
	"github.com/velotrace/velotrace-backend/internal/testutil"
	"github.com/velotrace/velotrace-backend/internal/types"
)

// testEnv wires the full service graph onto a rolled-back transaction.
// Services open nested transactions, which gorm turns into savepoints.
type testEnv struct {
	tx          *gorm.DB
	bikeRepo    repos.BikeRepo
	partRepo    repos.PartRepo
	productRepo repos.ProductRepo
	historyRepo repos.PartHistoryRepo
	storedRepo  repos.StoredPartRepo
	reviewRepo  repos.ReviewRepo
	alertRepo   repos.AlertRepo
	productSvc  ProductService
	alertSvc    AlertService
	partSvc     PartService
	historySvc  HistoryService
	garageSvc   GarageService
	reviewSvc   ReviewService
	defaults    catalog.Defaults
	user        *types.User
	ctx         context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)

	defaults, err := catalog.Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}

	env := &testEnv{
		tx:          tx,
		bikeRepo:    repos.NewBikeRepo(tx, log),
		partRepo:    repos.NewPartRepo(tx, log),
		productRepo: repos.NewProductRepo(tx, log),
		historyRepo: repos.NewPartHistoryRepo(tx, log),
		storedRepo:  repos.NewStoredPartRepo(tx, log),
		reviewRepo:  repos.NewReviewRepo(tx, log),
		alertRepo:   repos.NewAlertRepo(tx, log),
		defaults:    defaults,
	}
	env.productSvc = NewProductService(tx, log, env.productRepo, env.reviewRepo, env.historyRepo, nil)
	env.alertSvc = NewAlertService(tx, log, env.bikeRepo, env.partRepo, env.historyRepo, env.alertRepo, defaults)
	env.partSvc = NewPartService(tx, log, env.bikeRepo, env.partRepo, env.historyRepo, env.productSvc, env.alertSvc, defaults)
	env.historySvc = NewHistoryService(tx, log, env.bikeRepo, env.partRepo, env.historyRepo, env.reviewRepo, env.productSvc, defaults)
	env.garageSvc = NewGarageService(tx, log, env.bikeRepo, env.partRepo, env.storedRepo, env.partSvc, env.alertSvc)
	env.reviewSvc = NewReviewService(tx, log, env.bikeRepo, env.partRepo, env.historyRepo, env.productRepo, env.reviewRepo, env.productSvc)

	env.user = testutil.SeedUser(t, context.Background(), tx, uuid.New().String()+"@example.com")
	env.ctx = requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: env.user.ID})
	return env
}

func (env *testEnv) asUser(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
}

func (env *testEnv) seedBike(t *testing.T, name string) *types.Bike {
	t.Helper()
	return testutil.SeedBike(t, context.Background(), env.tx, env.user.ID, name)
}

func (env *testEnv) seedOtherUser(t *testing.T) *types.User {
	t.Helper()
	return testutil.SeedUser(t, context.Background(), env.tx, uuid.New().String()+"@example.com")
}
