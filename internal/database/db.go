package database

import (
	"opsportal/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM and migrates the schema
func NewConnection(dsn string, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		logger.Warn("Failed to auto-migrate models", zap.Error(err))
	}

	return db, nil
}

// Migrate creates or updates the tables of every persisted model
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.CostCenter{},
		&model.User{},
		&model.ProjectExpense{},
		&model.Report{},
		&model.ReportItem{},
		&model.LedgerEntry{},
		&model.Message{},
		&model.AuditLog{},
	)
}
