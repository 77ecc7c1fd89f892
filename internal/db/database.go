package db

import (
	"fmt"
	stdlog "log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/velotrace/velotrace-backend/internal/logger"
	"github.com/velotrace/velotrace-backend/internal/types"
	"github.com/velotrace/velotrace-backend/internal/utils"
)

type DatabaseService struct {
	db     *gorm.DB
	log    *logger.Logger
	driver string
}

// NewDatabaseService connects to Postgres by default; DB_DRIVER=sqlite
// switches to a local file database for development.
func NewDatabaseService(logg *logger.Logger) (*DatabaseService, error) {
	serviceLog := logg.With("service", "DatabaseService")

	gormLog := gormLogger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gormCfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	driver := utils.GetEnv("DB_DRIVER", "postgres", logg)
	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "sqlite":
		path := utils.GetEnv("SQLITE_PATH", "velotrace.db", logg)
		db, err = gorm.Open(sqlite.Open(path), gormCfg)
	default:
		driver = "postgres"
		host := utils.GetEnv("POSTGRES_HOST", "localhost", logg)
		port := utils.GetEnv("POSTGRES_PORT", "5432", logg)
		user := utils.GetEnv("POSTGRES_USER", "postgres", logg)
		password := utils.GetEnv("POSTGRES_PASSWORD", "", logg)
		name := utils.GetEnv("POSTGRES_NAME", "velotrace", logg)
		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			user, password, host, port, name,
		)
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	return &DatabaseService{db: db, log: serviceLog, driver: driver}, nil
}

func (s *DatabaseService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := AutoMigrate(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

// AutoMigrate is shared with the test harness. The partial unique index on
// alerts backs the atomic check-and-create dedup: only one open row may
// exist per (user, kind, part) tuple, closed rows are unconstrained.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.User{},
		&types.Bike{},
		&types.Product{},
		&types.Part{},
		&types.PartHistory{},
		&types.StoredPart{},
		&types.Review{},
		&types.Alert{},
	); err != nil {
		return err
	}
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_alert_open_tuple
		ON alert (user_id, kind, part_id)
		WHERE status = 'open'
	`).Error; err != nil {
		return fmt.Errorf("failed to create idx_alert_open_tuple: %w", err)
	}
	// One review per (user, attachment). The attachment columns are nullable
	// and part/history reviews also carry a pooled product_id, so each
	// attachment shape gets its own partial index; the product index only
	// binds free-standing product reviews.
	for name, ddl := range map[string]string{
		"idx_review_user_part": `
			CREATE UNIQUE INDEX IF NOT EXISTS idx_review_user_part
			ON review (user_id, part_id)
			WHERE part_id IS NOT NULL AND deleted_at IS NULL`,
		"idx_review_user_history": `
			CREATE UNIQUE INDEX IF NOT EXISTS idx_review_user_history
			ON review (user_id, history_id)
			WHERE history_id IS NOT NULL AND deleted_at IS NULL`,
		"idx_review_user_product": `
			CREATE UNIQUE INDEX IF NOT EXISTS idx_review_user_product
			ON review (user_id, product_id)
			WHERE product_id IS NOT NULL AND part_id IS NULL
			  AND history_id IS NULL AND deleted_at IS NULL`,
	} {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", name, err)
		}
	}
	return nil
}

func (s *DatabaseService) DB() *gorm.DB { return s.db }

func (s *DatabaseService) Driver() string { return s.driver }
