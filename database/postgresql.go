package database

import (
	"ClinicDesk/models"
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the Postgres connection, configures the pool and verifies connectivity.
func InitDB(ctx context.Context, dsn string, development bool, log *zap.Logger) (*gorm.DB, error) {
	// Configure logging level based on environment
	logMode := logger.Silent
	if development {
		logMode = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: false,
		PrepareStmt:                              true,
		TranslateError:                           true,
		Logger:                                   logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database connection")
	}

	if err := configureConnectionPool(db); err != nil {
		return nil, err
	}

	if err := testDatabaseConnection(ctx, db); err != nil {
		return nil, err
	}

	log.Info("database initialized")
	return db, nil
}

// configureConnectionPool sets up the connection pool settings for the database.
func configureConnectionPool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB from GORM")
	}
	sqlDB.SetMaxOpenConns(40)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
	return nil
}

// testDatabaseConnection verifies that the database connection is functional.
func testDatabaseConnection(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB from GORM")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.Wrap(err, "failed to ping database")
	}
	return nil
}

// slotIndexSQL makes the clinic/date/time slot unique among live appointments.
const slotIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_slot
	ON appointments (clinic_id, appointment_date, appointment_time)
	WHERE deleted_at IS NULL`

// Migrate performs database schema migrations.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Facility{},
		&models.Clinic{},
		&models.StaffUser{},
		&models.Patient{},
		&models.Wallet{},
		&models.Appointment{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.WalletTransaction{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to auto-migrate schema")
	}
	if err := db.Exec(slotIndexSQL).Error; err != nil {
		return errors.Wrap(err, "failed to create appointment slot index")
	}
	return nil
}
